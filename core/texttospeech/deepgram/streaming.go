package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/tela-core/core/texttospeech"
)

const speakHost = "api.deepgram.com"

// NewSpeechGenerator opens a speak stream and starts its read pump. The
// generator delivers audio through the configured callbacks until EndOfText
// drains or Cancel stops it.
func (c *TextToSpeechClient) NewSpeechGenerator(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechGenerator, error) {
	options := texttospeech.TextToSpeechOptions{
		SpeechAudioCallback: func([]byte) {},
		SpeechEndedCallback: func(texttospeech.SpeechEndedReport) {},
		ErrorCallback:       func(error) {},
		Voice:               c.options.Voice,
		EncodingInfo:        c.options.EncodingInfo,
	}
	for _, opt := range opts {
		opt(&options)
	}

	ws, err := c.connectWebsocket(ctx, options)
	if err != nil {
		return nil, err
	}

	req := &streamingRequest{ws: ws, options: options}
	go req.processIncomingMessages()

	return req, nil
}

func (c *TextToSpeechClient) connectWebsocket(ctx context.Context, options texttospeech.TextToSpeechOptions) (*websocket.Conn, error) {
	urlValues := url.Values{}
	urlValues.Set("encoding", options.EncodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	urlValues.Set("model", options.Voice)
	urlValues.Set("container", "none")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx,
		(&url.URL{Scheme: "wss", Host: speakHost, Path: "/v1/speak", RawQuery: urlValues.Encode()}).String(),
		http.Header{"Authorization": {"Token " + c.options.APIKey}})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, &texttospeech.SynthesisError{Err: fmt.Errorf("failed to open speak stream: %w", err)}
		}
		return nil, &texttospeech.SynthesisError{
			Err:       fmt.Errorf("failed to open speak stream: %w", err),
			Transient: true,
		}
	}

	return conn, nil
}

type streamingRequest struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	options texttospeech.TextToSpeechOptions

	textComplete atomic.Bool
	cancelled    atomic.Bool
	closed       atomic.Bool
}

func (r *streamingRequest) processIncomingMessages() {
	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			if r.closed.Load() || r.cancelled.Load() {
				return
			}
			r.closed.Store(true)
			_ = r.ws.Close()
			r.options.ErrorCallback(&texttospeech.SynthesisError{
				Err:       fmt.Errorf("speak stream read failed: %w", err),
				Transient: !websocket.IsCloseError(err, websocket.CloseNormalClosure),
			})
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			// Chunks that arrive after cancellation are dropped, the provider
			// may keep streaming briefly after a Clear.
			if r.cancelled.Load() || len(msg) == 0 {
				continue
			}
			r.options.SpeechAudioCallback(msg)

		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				continue
			}

			if parsedMsg.Type == "Flushed" && r.textComplete.Load() && !r.cancelled.Load() {
				r.options.SpeechEndedCallback(texttospeech.SpeechEndedReport{})
				_ = r.Close()
				return
			}
		}
	}
}

func (r *streamingRequest) SendText(text string) error {
	if r.closed.Load() {
		return fmt.Errorf("streaming request closed")
	} else if r.cancelled.Load() {
		return fmt.Errorf("streaming request cancelled")
	} else if r.textComplete.Load() {
		return fmt.Errorf("streaming request text already completed")
	}

	if err := r.sendWebsocketMessage(sendTextMsg(text)); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	return nil
}

func (r *streamingRequest) EndOfText() error {
	if r.closed.Load() {
		return fmt.Errorf("streaming request closed")
	} else if r.cancelled.Load() {
		return fmt.Errorf("streaming request cancelled")
	}
	if !r.textComplete.CompareAndSwap(false, true) {
		return nil
	}

	if err := r.sendWebsocketMessage(flushMsg); err != nil {
		return fmt.Errorf("failed to flush speak stream: %w", err)
	}
	return nil
}

func (r *streamingRequest) Cancel() error {
	if r.closed.Load() {
		return nil
	}
	if !r.cancelled.CompareAndSwap(false, true) {
		return nil
	}

	if err := r.sendWebsocketMessage(clearMsg); err != nil {
		// The socket may already be dead; closing below is all that matters.
		_ = r.Close()
		return nil
	}
	return r.Close()
}

func (r *streamingRequest) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := r.sendCloseMessage(); err != nil {
		if aggressiveCloseErr := r.ws.Close(); aggressiveCloseErr != nil {
			return fmt.Errorf("failed to close websocket: %w", errors.Join(err, aggressiveCloseErr))
		}
		return nil
	}
	return r.ws.Close()
}

type websocketMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func sendTextMsg(text string) websocketMessage {
	return websocketMessage{Type: "Speak", Text: text}
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)

func (r *streamingRequest) sendWebsocketMessage(msg websocketMessage) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

func (r *streamingRequest) sendCloseMessage() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.ws.WriteJSON(closeMsg)
}
