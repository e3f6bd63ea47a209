package callruntime

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/koscakluka/tela-core/core/audio"
	"github.com/koscakluka/tela-core/core/events"
	"github.com/koscakluka/tela-core/core/speechtotext"
	"github.com/koscakluka/tela-core/core/texttospeech"
)

// SessionConfig holds the tunables of one call session. It contains no live
// state: Config returns a deep copy and mutating that copy has no effect on
// the running session.
type SessionConfig struct {
	Language string
	Voice    string
	Encoding audio.EncodingInfo

	// SilenceWindow is how long the caller may stay quiet before the silence
	// handler fires. Zero disables silence prompting.
	SilenceWindow time.Duration

	// InterruptionMinConfidence and InterruptionMinMeaningfulWords gate
	// barge-in: partials below either threshold never cancel playback.
	InterruptionMinConfidence      float64
	InterruptionMinMeaningfulWords int

	// TranscriptMinConfidence is the sanitizer floor below which recognition
	// results are discarded entirely.
	TranscriptMinConfidence float64

	Reconnect      BackoffPolicy
	SynthesisRetry RetryPolicy
}

func defaultSessionConfig() SessionConfig {
	return SessionConfig{
		Language:                       "en",
		Encoding:                       audio.GetDefaultEncodingInfo(),
		SilenceWindow:                  10 * time.Second,
		InterruptionMinConfidence:      0.7,
		InterruptionMinMeaningfulWords: 2,
		TranscriptMinConfidence:        0.5,
		Reconnect:                      defaultBackoffPolicy(),
		SynthesisRetry:                 defaultRetryPolicy(),
	}
}

type SessionOptions struct {
	Config SessionConfig

	// EventHandler observes every event the session emits. It is called from
	// session goroutines and must not block or call back into the session.
	EventHandler func(event events.Event)

	// OnUtteranceFinalized is invoked exactly once per finalized caller
	// utterance, after sanitization.
	OnUtteranceFinalized func(utterance speechtotext.Utterance)

	// OnSilence is invoked when the caller has been quiet for the configured
	// window, once per silence episode.
	OnSilence func()
}

type SessionOption func(*SessionOptions)

func WithLanguage(language string) SessionOption {
	return func(o *SessionOptions) {
		if language != "" {
			o.Config.Language = language
		}
	}
}

func WithVoice(voice string) SessionOption {
	return func(o *SessionOptions) { o.Config.Voice = voice }
}

func WithEncoding(encoding audio.EncodingInfo) SessionOption {
	return func(o *SessionOptions) { o.Config.Encoding = encoding }
}

func WithSilenceWindow(window time.Duration) SessionOption {
	return func(o *SessionOptions) { o.Config.SilenceWindow = window }
}

func WithInterruptionThresholds(minConfidence float64, minMeaningfulWords int) SessionOption {
	return func(o *SessionOptions) {
		o.Config.InterruptionMinConfidence = minConfidence
		o.Config.InterruptionMinMeaningfulWords = minMeaningfulWords
	}
}

func WithTranscriptMinConfidence(confidence float64) SessionOption {
	return func(o *SessionOptions) { o.Config.TranscriptMinConfidence = confidence }
}

func WithReconnectPolicy(policy BackoffPolicy) SessionOption {
	return func(o *SessionOptions) { o.Config.Reconnect = policy }
}

func WithSynthesisRetryPolicy(policy RetryPolicy) SessionOption {
	return func(o *SessionOptions) { o.Config.SynthesisRetry = policy }
}

func WithEventHandler(handler func(event events.Event)) SessionOption {
	return func(o *SessionOptions) { o.EventHandler = handler }
}

func WithUtteranceHandler(handler func(utterance speechtotext.Utterance)) SessionOption {
	return func(o *SessionOptions) { o.OnUtteranceFinalized = handler }
}

func WithSilenceHandler(handler func()) SessionOption {
	return func(o *SessionOptions) { o.OnSilence = handler }
}

type ServiceOptions struct {
	Dialer      speechtotext.Dialer
	Synthesizer texttospeech.Synthesizer
	Clock       clockwork.Clock

	// MaxConcurrentConnections and ErrorCooldown configure the shared
	// recognition connection gate.
	MaxConcurrentConnections int
	ErrorCooldown            time.Duration

	// SessionDefaults seed every session created by the service; per-session
	// options are applied on top.
	SessionDefaults SessionConfig
}

type ServiceOption func(*ServiceOptions)

func WithTranscriptionDialer(dialer speechtotext.Dialer) ServiceOption {
	return func(o *ServiceOptions) { o.Dialer = dialer }
}

func WithSynthesizer(synthesizer texttospeech.Synthesizer) ServiceOption {
	return func(o *ServiceOptions) { o.Synthesizer = synthesizer }
}

func WithClock(clock clockwork.Clock) ServiceOption {
	return func(o *ServiceOptions) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

func WithMaxConcurrentConnections(limit int) ServiceOption {
	return func(o *ServiceOptions) { o.MaxConcurrentConnections = limit }
}

func WithErrorCooldown(cooldown time.Duration) ServiceOption {
	return func(o *ServiceOptions) { o.ErrorCooldown = cooldown }
}

func WithSessionDefaults(config SessionConfig) ServiceOption {
	return func(o *ServiceOptions) { o.SessionDefaults = config }
}
