// Package deepgram implements the streaming recognition contract on top of
// Deepgram's live listen websocket API.
package deepgram

import (
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/koscakluka/tela-core/core/audio"
	"github.com/koscakluka/tela-core/core/speechtotext"
)

var _ speechtotext.Dialer = (*TranscriptionClient)(nil)

// TranscriptionClient dials live listen connections. One client is shared by
// all sessions; every Dial produces an independent connection.
type TranscriptionClient struct {
	options ClientOptions
}

type ClientOptions struct {
	// APIKey overrides the DEEPGRAM_API_KEY environment variable.
	APIKey string
	Model  string
	// KeepAliveInterval is how often a no-op keepalive is written while the
	// connection is idle.
	KeepAliveInterval time.Duration
	// UtteranceEndMs is the inter-word silence window after which Deepgram
	// emits an UtteranceEnd message.
	UtteranceEndMs int
	// EndpointingMs is the trailing-silence window for speech_final flags.
	EndpointingMs int

	Clock clockwork.Clock
}

type ClientOption func(*ClientOptions)

func WithAPIKey(apiKey string) ClientOption {
	return func(o *ClientOptions) { o.APIKey = apiKey }
}

func WithModel(model string) ClientOption {
	return func(o *ClientOptions) { o.Model = model }
}

func WithKeepAliveInterval(interval time.Duration) ClientOption {
	return func(o *ClientOptions) { o.KeepAliveInterval = interval }
}

func WithUtteranceEnd(window time.Duration) ClientOption {
	return func(o *ClientOptions) { o.UtteranceEndMs = int(window.Milliseconds()) }
}

func WithEndpointing(window time.Duration) ClientOption {
	return func(o *ClientOptions) { o.EndpointingMs = int(window.Milliseconds()) }
}

func WithClock(clock clockwork.Clock) ClientOption {
	return func(o *ClientOptions) { o.Clock = clock }
}

func NewTranscriptionClient(opts ...ClientOption) (*TranscriptionClient, error) {
	options := ClientOptions{
		Model:             "nova-3",
		KeepAliveInterval: 5 * time.Second,
		UtteranceEndMs:    1000,
		EndpointingMs:     300,
		Clock:             clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.APIKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		options.APIKey = apiKey
	}

	return &TranscriptionClient{options: options}, nil
}

type encodingInfo struct {
	SampleRate int
	Encoding   string
}

func convertEncoding(encoding audio.EncodingInfo) (*encodingInfo, error) {
	converted := encodingInfo{}
	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
		converted.SampleRate = encoding.SampleRate
	default:
		return nil, fmt.Errorf("unsupported sample rate")
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
		converted.Encoding = "linear16"
	case audio.EncodingALaw, audio.EncodingMulaw:
		converted.Encoding = encoding.Format.Name()
		if converted.SampleRate != 8000 {
			return nil, fmt.Errorf("unsupported sample rate for %s encoding", encoding.Format.Name())
		}
	default:
		return nil, fmt.Errorf("unsupported encoding")
	}

	return &converted, nil
}
