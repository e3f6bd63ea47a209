// Package deepgram implements the streaming synthesis contract on top of
// Deepgram's speak websocket API.
package deepgram

import (
	"fmt"
	"os"
	"strings"

	"github.com/koscakluka/tela-core/core/audio"
	"github.com/koscakluka/tela-core/core/texttospeech"
)

const (
	VoiceAsteria = "aura-asteria-en"
	VoiceOrion   = "aura-orion-en"
	VoiceLuna    = "aura-luna-en"
	VoiceAthena  = "aura-athena-en"
)

var _ texttospeech.Synthesizer = (*TextToSpeechClient)(nil)

// TextToSpeechClient builds speak-stream generators. One client is shared by
// all sessions; every generator runs on its own websocket.
type TextToSpeechClient struct {
	options ClientOptions
}

type ClientOptions struct {
	// APIKey overrides the DEEPGRAM_API_KEY environment variable.
	APIKey string
	// Voice is the default speak model; per-request voices override it.
	Voice        string
	EncodingInfo audio.EncodingInfo
}

type ClientOption func(*ClientOptions)

func WithAPIKey(apiKey string) ClientOption {
	return func(o *ClientOptions) { o.APIKey = apiKey }
}

func WithVoice(voice string) ClientOption {
	return func(o *ClientOptions) { o.Voice = voice }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) ClientOption {
	return func(o *ClientOptions) { o.EncodingInfo = encodingInfo }
}

func NewTextToSpeechClient(opts ...ClientOption) (*TextToSpeechClient, error) {
	options := ClientOptions{
		Voice:        VoiceAsteria,
		EncodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if !strings.HasPrefix(options.Voice, "aura-") {
		return nil, fmt.Errorf("invalid voice %q", options.Voice)
	}

	if options.APIKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		options.APIKey = apiKey
	}

	return &TextToSpeechClient{options: options}, nil
}
