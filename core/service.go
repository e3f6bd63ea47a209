// Package callruntime hosts real-time phone-call sessions: caller audio is
// streamed into speech recognition, synthesized replies are streamed back
// over the call transport, and caller speech can barge in on playback.
package callruntime

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/koscakluka/tela-core/core/speechtotext"
	deepgramstt "github.com/koscakluka/tela-core/core/speechtotext/deepgram"
	"github.com/koscakluka/tela-core/core/texttospeech"
	deepgramtts "github.com/koscakluka/tela-core/core/texttospeech/deepgram"
	"github.com/koscakluka/tela-core/core/transport"
)

// Service creates and tracks call sessions. It owns the resources sessions
// share: the recognition dialer, the synthesizer, and the connection gate
// that bounds concurrent recognition connections process-wide.
type Service struct {
	dialer      speechtotext.Dialer
	synthesizer texttospeech.Synthesizer
	gate        *speechtotext.ConnectionGate
	clock       clockwork.Clock

	sessionDefaults SessionConfig
	registry        *sessionRegistry
}

func NewService(opts ...ServiceOption) (*Service, error) {
	options := ServiceOptions{
		Clock:                    clockwork.NewRealClock(),
		MaxConcurrentConnections: 64,
		ErrorCooldown:            10 * time.Second,
		SessionDefaults:          defaultSessionConfig(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Dialer == nil {
		dialer, err := deepgramstt.NewTranscriptionClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create transcription client: %w", err)
		}
		options.Dialer = dialer
	}
	if options.Synthesizer == nil {
		synthesizer, err := deepgramtts.NewTextToSpeechClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
		}
		options.Synthesizer = synthesizer
	}

	return &Service{
		dialer:      options.Dialer,
		synthesizer: options.Synthesizer,
		gate: speechtotext.NewConnectionGate(
			speechtotext.WithMaxActiveConnections(options.MaxConcurrentConnections),
			speechtotext.WithErrorCooldown(options.ErrorCooldown),
			speechtotext.WithGateClock(options.Clock),
		),
		clock:           options.Clock,
		sessionDefaults: options.SessionDefaults,
		registry:        newSessionRegistry(),
	}, nil
}

// CreateSession registers and starts a session for the call. The call id must
// not already be live; ErrDuplicateCall is returned otherwise. On a start
// failure the session is unregistered and its resources are released.
func (s *Service) CreateSession(ctx context.Context, callID string, adapter transport.Adapter, opts ...SessionOption) (*CallSession, error) {
	options := SessionOptions{Config: s.sessionDefaults}
	for _, opt := range opts {
		opt(&options)
	}

	session := newCallSession(
		callID, adapter,
		s.dialer, s.gate, s.synthesizer, s.clock,
		options,
		s.registry.remove,
	)

	if err := s.registry.register(session); err != nil {
		return nil, err
	}

	if err := session.Start(ctx); err != nil {
		session.End(ctx, "start failed")
		return nil, fmt.Errorf("failed to start session for call %q: %w", callID, err)
	}
	return session, nil
}

// Lookup returns the live session for the call id, if any.
func (s *Service) Lookup(callID string) (*CallSession, bool) {
	return s.registry.lookup(callID)
}

// EndSession ends the call's session if it is live. Idempotent.
func (s *Service) EndSession(ctx context.Context, callID string, reason string) {
	if session, ok := s.registry.lookup(callID); ok {
		session.End(ctx, reason)
	}
}

// ActiveSessions reports the number of live sessions.
func (s *Service) ActiveSessions() int {
	return s.registry.count()
}

// Close ends every live session.
func (s *Service) Close(ctx context.Context) {
	for _, session := range s.registry.all() {
		session.End(ctx, "service shutting down")
	}
}
