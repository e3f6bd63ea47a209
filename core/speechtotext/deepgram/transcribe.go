package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/koscakluka/tela-core/core/audio"
	"github.com/koscakluka/tela-core/core/speechtotext"
)

const listenHost = "api.deepgram.com"

// Dial opens one live listen connection and starts its read pump and
// keepalive writer. The returned connection is never reused after Close.
func (c *TranscriptionClient) Dial(ctx context.Context, opts ...speechtotext.TranscriptionOption) (speechtotext.Connection, error) {
	options := speechtotext.TranscriptionOptions{
		Language:     "en-US",
		EncodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := c.connectWebsocket(ctx, *encoding, options.Language)
	if err != nil {
		return nil, err
	}

	live := &liveConnection{
		conn:    conn,
		clock:   c.options.Clock,
		options: options,
	}
	live.lastAudioAt.Store(c.options.Clock.Now().UnixNano())

	keepAliveCtx, keepAliveCancel := context.WithCancel(context.Background())
	live.keepAliveCancel = keepAliveCancel
	go live.keepAlive(keepAliveCtx, c.options.KeepAliveInterval)
	go live.readAndProcessMessages()

	return live, nil
}

func (c *TranscriptionClient) connectWebsocket(ctx context.Context, encoding encodingInfo, language string) (*websocket.Conn, error) {
	queryParams := url.Values{}
	queryParams.Set("encoding", encoding.Encoding)
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.options.Model)
	queryParams.Set("language", language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", strconv.Itoa(c.options.UtteranceEndMs))
	queryParams.Set("endpointing", strconv.Itoa(c.options.EndpointingMs))
	queryParams.Set("vad_events", "true")

	listenUrl := url.URL{Scheme: "wss", Host: listenHost, Path: "/v1/listen", RawQuery: queryParams.Encode()}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, listenUrl.String(),
		http.Header{"Authorization": {"Token " + c.options.APIKey}})
	if err != nil {
		return nil, classifyHandshakeError(err, resp)
	}

	return conn, nil
}

func classifyHandshakeError(err error, resp *http.Response) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &speechtotext.AuthError{Err: err}
		case http.StatusTooManyRequests:
			return &speechtotext.RateLimitError{Err: err}
		}
	}
	return &speechtotext.ConnectionError{Err: err}
}

type liveConnection struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	clock           clockwork.Clock
	keepAliveCancel context.CancelFunc
	lastAudioAt     atomic.Int64
	closed          atomic.Bool

	options speechtotext.TranscriptionOptions

	// utterance state, touched only from the read pump
	utteranceSeq  uint64
	utteranceOpen bool
	accumulated   string
}

func (s *liveConnection) SendAudio(audio []byte) error {
	if s.closed.Load() {
		return nil
	}

	s.lastAudioAt.Store(s.clock.Now().UnixNano())

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return &speechtotext.ConnectionError{Err: fmt.Errorf("failed to write audio frame: %w", err)}
	}
	return nil
}

func (s *liveConnection) Close(_ context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.keepAliveCancel()

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		// The socket may already be gone; closing it below is all that is left.
		logger.Debug("failed to send close stream message", "error", err)
	}
	_ = s.conn.Close()
	return nil
}

// keepAlive writes no-op messages on a fixed interval while no audio is
// flowing, preventing the provider's idle timeout from closing the channel.
func (s *liveConnection) keepAlive(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			idleFor := s.clock.Now().Sub(time.Unix(0, s.lastAudioAt.Load()))
			if idleFor < interval {
				continue
			}
			s.sendKeepAlive()
		}
	}
}

func (s *liveConnection) sendKeepAlive() {
	if s.closed.Load() {
		return
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "KeepAlive"}); err != nil {
		logger.Warn("failed to send keepalive", "error", err)
	}
}

func (s *liveConnection) readAndProcessMessages() {
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.keepAliveCancel()
			_ = s.conn.Close()

			if s.closed.Swap(true) {
				// Close was requested locally; a read error is expected.
				s.invokeClosed(nil)
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.invokeClosed(nil)
				return
			}

			s.invokeClosed(&speechtotext.ConnectionError{Err: err})
			return
		}
		if msgType != websocket.BinaryMessage {
			s.processMessage(msg)
		}
	}
}

func (s *liveConnection) invokeClosed(err error) {
	if s.options.ClosedCallback != nil {
		s.options.ClosedCallback(err)
	}
}

func (s *liveConnection) processMessage(msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal provider message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal transcript message", "error", err)
			return
		}
		s.processTranscript(msgResp)

	case api.TypeUtteranceEndResponse:
		// Silence-based finalization. Only fires if a speech_final segment has
		// not already consumed the open utterance; otherwise this is the
		// duplicate half of the dual trigger and must be dropped.
		if s.utteranceOpen {
			s.finalizeUtterance()
		}

	case api.TypeSpeechStartedResponse:
		s.utteranceOpen = true
		if s.options.SpeechStartedCallback != nil {
			s.options.SpeechStartedCallback()
		}
	}
}

func (s *liveConnection) processTranscript(msgResp api.MessageResponse) {
	if len(msgResp.Channel.Alternatives) == 0 {
		return
	}

	alternative := msgResp.Channel.Alternatives[0]
	transcript := strings.TrimSpace(alternative.Transcript)

	if !msgResp.IsFinal {
		if transcript != "" && s.options.PartialTranscriptionCallback != nil {
			s.options.PartialTranscriptionCallback(speechtotext.Result{
				Text:       transcript,
				Confidence: alternative.Confidence,
			})
		}
		return
	}

	if transcript != "" {
		s.utteranceOpen = true
		if s.accumulated == "" {
			s.accumulated = transcript
		} else {
			s.accumulated += " " + transcript
		}
		if s.options.SegmentTranscriptionCallback != nil {
			s.options.SegmentTranscriptionCallback(speechtotext.Result{
				Text:       transcript,
				Confidence: alternative.Confidence,
			})
		}
	}

	if msgResp.SpeechFinal {
		s.finalizeUtterance()
	}
}

// finalizeUtterance emits the buffered utterance exactly once, whichever of
// the two provider signals arrives first, and bumps the sequence so the
// second signal has nothing left to emit.
func (s *liveConnection) finalizeUtterance() {
	s.utteranceOpen = false

	fullTranscript := strings.TrimSpace(s.accumulated)
	s.accumulated = ""
	if fullTranscript != "" && s.options.UtteranceCallback != nil {
		seq := s.utteranceSeq
		s.utteranceSeq++
		s.options.UtteranceCallback(speechtotext.Utterance{Seq: seq, Text: fullTranscript})
	}

	if s.options.SpeechEndedCallback != nil {
		s.options.SpeechEndedCallback()
	}
}
