package deepgram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/tela-core/core/texttospeech"
)

var upgrader = websocket.Upgrader{}

// dialTestStream connects a streamingRequest to a scripted websocket server.
func dialTestStream(t *testing.T, handler func(conn *websocket.Conn), options texttospeech.TextToSpeechOptions) *streamingRequest {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)

	ws, _, err := websocket.DefaultDialer.Dial(strings.Replace(server.URL, "http", "ws", 1), nil)
	if err != nil {
		t.Fatalf("failed to dial test server: %v", err)
	}

	if options.SpeechAudioCallback == nil {
		options.SpeechAudioCallback = func([]byte) {}
	}
	if options.SpeechEndedCallback == nil {
		options.SpeechEndedCallback = func(texttospeech.SpeechEndedReport) {}
	}
	if options.ErrorCallback == nil {
		options.ErrorCallback = func(error) {}
	}

	req := &streamingRequest{ws: ws, options: options}
	go req.processIncomingMessages()
	return req
}

func readMessageType(conn *websocket.Conn) (string, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	var parsed struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsed); err != nil {
		return "", err
	}
	return parsed.Type, nil
}

func TestStreamingRequestDeliversAudioAndSpeechEnded(t *testing.T) {
	chunks := make(chan []byte, 8)
	ended := make(chan struct{}, 1)

	req := dialTestStream(t, func(conn *websocket.Conn) {
		for {
			msgType, err := readMessageType(conn)
			if err != nil {
				return
			}
			switch msgType {
			case "Speak":
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02})
			case "Flush":
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x03, 0x04})
				_ = conn.WriteJSON(map[string]string{"type": "Flushed"})
			}
		}
	}, texttospeech.TextToSpeechOptions{
		SpeechAudioCallback: func(audio []byte) { chunks <- audio },
		SpeechEndedCallback: func(texttospeech.SpeechEndedReport) { ended <- struct{}{} },
	})

	if err := req.SendText("hello caller"); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if err := req.EndOfText(); err != nil {
		t.Fatalf("unexpected end-of-text error: %v", err)
	}

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for speech-ended")
	}

	if len(chunks) != 2 {
		t.Fatalf("expected two audio chunks, got %d", len(chunks))
	}

	if err := req.SendText("too late"); err == nil {
		t.Fatalf("expected send after end-of-text to fail")
	}
}

func TestStreamingRequestCancelDropsLateChunks(t *testing.T) {
	firstChunk := make(chan struct{})
	serverDone := make(chan struct{})
	var delivered atomic.Int32

	req := dialTestStream(t, func(conn *websocket.Conn) {
		defer close(serverDone)
		for {
			msgType, err := readMessageType(conn)
			if err != nil {
				return
			}
			switch msgType {
			case "Speak":
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
			case "Clear":
				// Late chunks racing the cancellation must not reach the
				// audio callback.
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x02})
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x03})
				return
			}
		}
	}, texttospeech.TextToSpeechOptions{
		SpeechAudioCallback: func([]byte) {
			if delivered.Add(1) == 1 {
				close(firstChunk)
			}
		},
	})

	if err := req.SendText("a long sentence that keeps going"); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	select {
	case <-firstChunk:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for first chunk")
	}

	if err := req.Cancel(); err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}
	if err := req.Cancel(); err != nil {
		t.Fatalf("expected repeated cancel to be a no-op, got %v", err)
	}

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
	}
	time.Sleep(50 * time.Millisecond)

	if got := delivered.Load(); got != 1 {
		t.Fatalf("expected exactly one chunk before cancellation, got %d", got)
	}

	if err := req.SendText("after cancel"); err == nil {
		t.Fatalf("expected send after cancel to fail")
	}
}
