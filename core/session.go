package callruntime

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/jonboulle/clockwork"
	"github.com/koscakluka/tela-core/core/events"
	"github.com/koscakluka/tela-core/core/speechtotext"
	"github.com/koscakluka/tela-core/core/texttospeech"
	"github.com/koscakluka/tela-core/core/transcripts"
	"github.com/koscakluka/tela-core/core/transport"
	"go.opentelemetry.io/otel/attribute"
)

type SessionState string

const (
	// StateIdle means the session is up and listening, with no synthesis
	// playing.
	StateIdle SessionState = "idle"
	// StateSpeaking means synthesized audio is being streamed to the caller.
	StateSpeaking SessionState = "speaking"
	// StateTerminated is terminal; every operation afterwards is a no-op or
	// returns ErrSessionClosed.
	StateTerminated SessionState = "terminated"
)

// CallSession is the runtime for one phone call: it feeds caller audio into
// recognition, streams synthesized replies back over the transport, and
// arbitrates between the two when the caller barges in.
//
// All exported methods are safe for concurrent use.
type CallSession struct {
	callID        string
	correlationID string
	transport     transport.Adapter
	config        SessionConfig
	handlers      SessionOptions

	transcription *transcriptionManager
	speaker       *speechSynthesisStreamer
	sanitizer     *transcripts.Sanitizer
	arbiter       interruptionArbiter
	silence       *silenceMonitor

	// unregister removes the session from the owning registry on End.
	unregister func(callID string)

	mu           sync.Mutex
	state        SessionState
	activeSpeech *SynthesisRequest
	// lastSpeech is the most recent request, finished or not. End waits on it
	// so no synthesis callback runs after CallEnded is emitted.
	lastSpeech       *SynthesisRequest
	lastUtteranceSeq uint64

	endOnce sync.Once
}

func newCallSession(
	callID string,
	adapter transport.Adapter,
	dialer speechtotext.Dialer,
	gate *speechtotext.ConnectionGate,
	synthesizer texttospeech.Synthesizer,
	clock clockwork.Clock,
	options SessionOptions,
	unregister func(callID string),
) *CallSession {
	session := &CallSession{
		callID:        callID,
		correlationID: uuid.NewString(),
		transport:     adapter,
		config:        options.Config,
		handlers:      options,
		unregister:    unregister,
		state:         StateIdle,
	}

	session.sanitizer = transcripts.NewSanitizer(
		transcripts.WithMinConfidence(options.Config.TranscriptMinConfidence),
	)
	session.arbiter = newInterruptionArbiter(
		options.Config.InterruptionMinConfidence,
		options.Config.InterruptionMinMeaningfulWords,
	)
	session.silence = newSilenceMonitor(clock, options.Config.SilenceWindow, session.handleSilence)
	session.speaker = newSpeechSynthesisStreamer(synthesizer, options.Config.SynthesisRetry, clock)
	session.transcription = newTranscriptionManager(
		dialer, gate, options.Config.Reconnect, clock,
		options.Config.Language, options.Config.Encoding,
		transcriptionCallbacks{
			onPartial:       session.handlePartial,
			onSegment:       session.handleSegment,
			onUtterance:     session.handleUtterance,
			onSpeechStarted: session.handleSpeechStarted,
			onSpeechEnded:   session.handleSpeechEnded,
			onReconnecting:  session.handleReconnecting,
			onReconnected:   session.handleReconnected,
			onFatal:         session.handleTranscriptionFatal,
		},
	)

	return session
}

func (s *CallSession) CallID() string { return s.callID }

// CorrelationID ties every log line and event of this session together across
// reconnects and retries.
func (s *CallSession) CorrelationID() string { return s.correlationID }

func (s *CallSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns a deep copy of the session configuration.
func (s *CallSession) Config() SessionConfig {
	var config SessionConfig
	if err := copier.CopyWithOption(&config, &s.config, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("failed to copy session config", "error", err, "call_id", s.callID)
		return s.config
	}
	return config
}

// Start opens the recognition connection and arms the silence window. An
// authentication failure is returned immediately and the session is unusable;
// transient connection failures are retried in the background.
func (s *CallSession) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start call session")
	defer span.End()
	span.SetAttributes(
		attribute.String("call.id", s.callID),
		attribute.String("call.correlation_id", s.correlationID),
	)

	if err := s.transcription.start(ctx); err != nil {
		return err
	}

	s.silence.arm()
	s.emit(events.NewCallStarted(s.callID))
	logger.InfoContext(ctx, "call session started",
		"call_id", s.callID, "correlation_id", s.correlationID)
	return nil
}

// OnMediaFrame forwards one frame of caller audio into recognition. Frames
// received after End are discarded.
func (s *CallSession) OnMediaFrame(frame []byte) error {
	s.mu.Lock()
	terminated := s.state == StateTerminated
	s.mu.Unlock()

	if terminated {
		return nil
	}
	return s.transcription.sendAudio(frame)
}

type SpeakOptions struct {
	Voice string
}

type SpeakOption func(*SpeakOptions)

func WithSpeakVoice(voice string) SpeakOption {
	return func(o *SpeakOptions) { o.Voice = voice }
}

// Speak streams synthesized speech for the text to the caller. At most one
// synthesis is in flight: a new Speak cancels the previous one before any of
// its own audio is produced. The returned channel delivers the outcome
// exactly once: nil on completion, ErrSpeechInterrupted on barge-in or
// supersession, a synthesis error after retries are exhausted.
func (s *CallSession) Speak(ctx context.Context, text string, opts ...SpeakOption) (<-chan error, error) {
	options := SpeakOptions{Voice: s.config.Voice}
	for _, opt := range opts {
		opt(&options)
	}

	// The request is installed before it runs, so its completion callback
	// always finds it in activeSpeech, however quickly synthesis fails.
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	req := s.speaker.speak(text, options.Voice)
	s.activeSpeech = req
	s.lastSpeech = req
	s.state = StateSpeaking
	s.mu.Unlock()

	s.emit(events.NewSynthesisStarted(req.id, text))
	s.speaker.start(ctx, req, speakerCallbacks{
		onAudio: s.forwardAudio,
		onDone:  s.handleSynthesisDone,
	})
	return req.Done(), nil
}

// End tears the session down: cancels in-flight synthesis, closes the
// recognition connection and the transport, and unregisters the call.
// Idempotent; teardown errors are logged, not returned.
func (s *CallSession) End(ctx context.Context, reason string) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.state = StateTerminated
		req := s.lastSpeech
		s.activeSpeech = nil
		s.mu.Unlock()

		s.silence.stop()
		if req != nil {
			req.cancel()
			// Its completion callback may still be running; wait so nothing
			// reaches the event handler after CallEnded.
			<-req.finished
		}
		if err := s.transcription.close(ctx); err != nil {
			logger.Warn("failed to close transcription", "error", err, "call_id", s.callID)
		}
		if err := s.transport.CloseConnection(); err != nil {
			logger.Warn("failed to close transport", "error", err, "call_id", s.callID)
		}

		s.emit(events.NewCallEnded(s.callID, reason))
		logger.InfoContext(ctx, "call session ended",
			"call_id", s.callID, "correlation_id", s.correlationID, "reason", reason)

		if s.unregister != nil {
			s.unregister(s.callID)
		}
	})
}

func (s *CallSession) forwardAudio(chunk []byte) {
	if err := s.transport.SendAudio(chunk); err != nil {
		logger.Warn("failed to send synthesized audio", "error", err, "call_id", s.callID)
	}
}

func (s *CallSession) handlePartial(result speechtotext.Result) {
	s.silence.activity()

	verdict := s.sanitizer.Check(transcripts.Transcript{
		Text:       result.Text,
		Confidence: result.Confidence,
	})
	if !verdict.Forward {
		if verdict.Log {
			logger.Debug("suppressed partial transcript",
				"call_id", s.callID, "reason", verdict.Reason, "transcript", result.Text)
		}
		return
	}

	s.mu.Lock()
	speaking := s.state == StateSpeaking
	s.mu.Unlock()

	if speaking {
		transcript := transcripts.Transcript{Text: result.Text, Confidence: result.Confidence}
		if decision := s.arbiter.Decide(transcript); decision.ShouldInterrupt {
			s.interrupt(transcript, decision.Reason)
		}
	}

	s.emit(events.NewUserTranscriptPartial(result.Text, result.Confidence))
}

// interrupt performs the barge-in: playback must be cancelled and buffered
// audio cleared before the triggering transcript is surfaced, so a consumer
// reacting to the interruption never races leftover audio.
func (s *CallSession) interrupt(t transcripts.Transcript, reason InterruptionReason) {
	s.mu.Lock()
	if s.state != StateSpeaking {
		s.mu.Unlock()
		return
	}
	req := s.activeSpeech
	s.activeSpeech = nil
	s.state = StateIdle
	s.mu.Unlock()

	if req != nil {
		req.cancel()
	}
	if err := s.transport.ClearBufferedAudio(); err != nil {
		logger.Warn("failed to clear buffered audio", "error", err, "call_id", s.callID)
	}

	logger.Info("caller interrupted playback",
		"call_id", s.callID, "transcript", t.Text, "reason", reason)
	s.emit(events.NewInterrupted(t.Text, string(reason)))
}

func (s *CallSession) handleSegment(result speechtotext.Result) {
	s.silence.activity()
	s.emit(events.NewUserTranscriptSegment(result.Text, result.Confidence))
}

func (s *CallSession) handleUtterance(utterance speechtotext.Utterance) {
	s.silence.activity()
	s.sanitizer.Reset()

	s.mu.Lock()
	if s.state == StateTerminated || utterance.Seq <= s.lastUtteranceSeq {
		s.mu.Unlock()
		return
	}
	s.lastUtteranceSeq = utterance.Seq
	s.mu.Unlock()

	s.emit(events.NewUserUtteranceFinal(utterance.Seq, utterance.Text))
	if s.handlers.OnUtteranceFinalized != nil {
		s.handlers.OnUtteranceFinalized(utterance)
	}
}

func (s *CallSession) handleSpeechStarted() {
	s.silence.activity()
	s.emit(events.NewUserSpeechStarted())
}

func (s *CallSession) handleSpeechEnded() {
	s.emit(events.NewUserSpeechEnded())
}

func (s *CallSession) handleReconnecting(attempt int) {
	s.emit(events.NewTranscriptionReconnecting(attempt))
}

func (s *CallSession) handleReconnected(attempt int) {
	s.emit(events.NewTranscriptionReconnected(attempt))
}

func (s *CallSession) handleTranscriptionFatal(err error) {
	s.emit(events.NewTranscriptionFailed(err))
	s.End(context.Background(), "transcription failed")
}

// handleSynthesisDone runs once per synthesis request. A failed synthesis
// returns the session to idle; only End terminates it.
func (s *CallSession) handleSynthesisDone(req *SynthesisRequest, err error) {
	s.mu.Lock()
	if s.activeSpeech == req {
		s.activeSpeech = nil
		if s.state == StateSpeaking {
			s.state = StateIdle
		}
	}
	s.mu.Unlock()

	switch {
	case err == nil:
		s.emit(events.NewSynthesisFinished(req.id))
	case errors.Is(err, ErrSpeechInterrupted):
		s.emit(events.NewSynthesisCancelled(req.id, err.Error()))
	default:
		logger.Error("synthesis failed",
			"error", err, "call_id", s.callID, "request_id", req.id)
		s.emit(events.NewSynthesisFailed(req.id, err))
	}

	// The caller may stay quiet after playback; restart the silence window.
	s.silence.arm()
}

func (s *CallSession) handleSilence() {
	s.mu.Lock()
	idle := s.state == StateIdle
	s.mu.Unlock()

	// The prompt is for a quiet caller with nothing playing. While synthesis
	// is active the window restarts when playback finishes.
	if !idle {
		return
	}

	s.emit(events.NewSilencePrompted())
	if s.handlers.OnSilence != nil {
		s.handlers.OnSilence()
	}
}

func (s *CallSession) emit(event events.Event) {
	if s.handlers.EventHandler != nil {
		s.handlers.EventHandler(event)
	}
}
