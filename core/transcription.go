package callruntime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/koscakluka/tela-core/core/audio"
	"github.com/koscakluka/tela-core/core/speechtotext"
	"go.opentelemetry.io/otel/metric"
)

type transcriptionCallbacks struct {
	onPartial       func(result speechtotext.Result)
	onSegment       func(result speechtotext.Result)
	onUtterance     func(utterance speechtotext.Utterance)
	onSpeechStarted func()
	onSpeechEnded   func()
	onReconnecting  func(attempt int)
	onReconnected   func(attempt int)
	onFatal         func(err error)
}

// transcriptionManager owns a session's recognition connection across its
// whole lifetime: admission through the shared gate, reconnecting with
// backoff after transport failures, and renumbering utterances so sequence
// ids stay monotonic across reconnects.
type transcriptionManager struct {
	dialer  speechtotext.Dialer
	gate    *speechtotext.ConnectionGate
	backoff BackoffPolicy
	clock   clockwork.Clock

	language string
	encoding audio.EncodingInfo

	callbacks transcriptionCallbacks

	reconnectCounter metric.Int64Counter

	utteranceSeq atomic.Uint64

	mu             sync.Mutex
	conn           speechtotext.Connection
	release        func()
	connGen        uint64
	attempt        int
	reconnectTimer clockwork.Timer
	closed         bool
}

func newTranscriptionManager(
	dialer speechtotext.Dialer,
	gate *speechtotext.ConnectionGate,
	backoff BackoffPolicy,
	clock clockwork.Clock,
	language string,
	encoding audio.EncodingInfo,
	callbacks transcriptionCallbacks,
) *transcriptionManager {
	reconnectCounter, err := meter.Int64Counter("transcription.reconnects")
	if err != nil {
		logger.Warn("failed to create reconnect counter", "error", err)
	}

	return &transcriptionManager{
		dialer:           dialer,
		gate:             gate,
		backoff:          backoff,
		clock:            clock,
		language:         language,
		encoding:         encoding,
		callbacks:        callbacks,
		reconnectCounter: reconnectCounter,
	}
}

// start opens the initial connection. Auth failures are returned to the
// caller and never retried; transient failures schedule a reconnect and the
// manager comes up degraded, dropping audio until a connection lands.
func (m *transcriptionManager) start(ctx context.Context) error {
	err := m.dial(ctx)
	if err == nil {
		return nil
	}

	var authErr *speechtotext.AuthError
	if errors.As(err, &authErr) || errors.Is(err, ErrSessionClosed) {
		return err
	}
	// A full gate is admission control, not a transient fault: reject the
	// call instead of queueing behind it.
	if errors.Is(err, speechtotext.ErrConnectionLimit) {
		return err
	}

	m.scheduleReconnect(ctx, err)
	return nil
}

// sendAudio forwards one caller audio frame. Frames that arrive while the
// connection is down are dropped; recognition resumes after reconnect.
func (m *transcriptionManager) sendAudio(chunk []byte) error {
	m.mu.Lock()
	conn := m.conn
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return ErrSessionClosed
	}
	if conn == nil {
		return nil
	}

	if err := conn.SendAudio(chunk); err != nil {
		logger.Warn("dropping audio frame", "error", err)
	}
	return nil
}

func (m *transcriptionManager) close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	conn := m.conn
	m.conn = nil
	release := m.release
	m.release = nil
	timer := m.reconnectTimer
	m.reconnectTimer = nil
	m.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	var err error
	if conn != nil {
		err = conn.Close(ctx)
	}
	if release != nil {
		release()
	}
	return err
}

func (m *transcriptionManager) dial(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrSessionClosed
	}
	m.connGen++
	gen := m.connGen
	m.mu.Unlock()

	if err := m.gate.Acquire(); err != nil {
		return err
	}

	// The gate slot is released exactly once, whether the dial fails or the
	// connection later closes.
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(m.gate.Release) }

	conn, err := m.dialer.Dial(ctx,
		speechtotext.WithLanguage(m.language),
		speechtotext.WithEncodingInfo(m.encoding),
		speechtotext.WithPartialTranscriptionCallback(m.callbacks.onPartial),
		speechtotext.WithSegmentTranscriptionCallback(m.callbacks.onSegment),
		speechtotext.WithUtteranceCallback(m.forwardUtterance),
		speechtotext.WithSpeechStartedCallback(m.callbacks.onSpeechStarted),
		speechtotext.WithSpeechEndedCallback(m.callbacks.onSpeechEnded),
		speechtotext.WithClosedCallback(func(closeErr error) {
			release()
			m.handleConnectionClosed(ctx, gen, closeErr)
		}),
	)
	if err != nil {
		release()
		var rateErr *speechtotext.RateLimitError
		if errors.As(err, &rateErr) {
			m.gate.ReportError()
		}
		return err
	}

	m.mu.Lock()
	if m.closed || gen != m.connGen {
		m.mu.Unlock()
		_ = conn.Close(context.Background())
		release()
		return ErrSessionClosed
	}
	attempt := m.attempt
	m.attempt = 0
	m.conn = conn
	m.release = release
	m.mu.Unlock()

	if attempt > 0 {
		logger.Info("transcription connection restored", "attempt", attempt)
		if m.callbacks.onReconnected != nil {
			m.callbacks.onReconnected(attempt)
		}
	}
	return nil
}

// forwardUtterance renumbers provider utterances with a manager-level
// counter: per-connection sequences restart at every reconnect, the
// session-visible sequence must not.
func (m *transcriptionManager) forwardUtterance(utterance speechtotext.Utterance) {
	utterance.Seq = m.utteranceSeq.Add(1)
	if m.callbacks.onUtterance != nil {
		m.callbacks.onUtterance(utterance)
	}
}

func (m *transcriptionManager) handleConnectionClosed(ctx context.Context, gen uint64, err error) {
	m.mu.Lock()
	if m.closed || gen != m.connGen {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.release = nil
	m.mu.Unlock()

	if err == nil {
		err = &speechtotext.ConnectionError{Err: errors.New("connection closed by remote")}
	}
	m.scheduleReconnect(ctx, err)
}

func (m *transcriptionManager) scheduleReconnect(ctx context.Context, cause error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	m.attempt++
	attempt := m.attempt
	if m.backoff.Exhausted(attempt) {
		m.mu.Unlock()
		m.fail(&speechtotext.ConnectionError{
			Err: fmt.Errorf("reconnect attempts exhausted after %d tries: %w", attempt-1, cause),
		})
		return
	}

	delay := m.backoff.Delay(attempt)
	var rateErr *speechtotext.RateLimitError
	if errors.As(cause, &rateErr) || errors.Is(cause, speechtotext.ErrCoolingDown) {
		// Never dial into a cooldown window.
		if remaining := m.gate.CooldownRemaining(); remaining > delay {
			delay = remaining
		}
	}

	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
	}
	m.reconnectTimer = m.clock.AfterFunc(delay, func() { m.redial(ctx) })
	m.mu.Unlock()

	if m.reconnectCounter != nil {
		m.reconnectCounter.Add(ctx, 1)
	}
	logger.Info("transcription reconnect scheduled",
		"attempt", attempt, "delay", delay, "cause", cause)
	if m.callbacks.onReconnecting != nil {
		m.callbacks.onReconnecting(attempt)
	}
}

func (m *transcriptionManager) redial(ctx context.Context) {
	err := m.dial(ctx)
	if err == nil || errors.Is(err, ErrSessionClosed) {
		return
	}

	var authErr *speechtotext.AuthError
	if errors.As(err, &authErr) {
		m.fail(err)
		return
	}

	m.scheduleReconnect(ctx, err)
}

// fail shuts the manager down permanently and surfaces the error.
func (m *transcriptionManager) fail(err error) {
	m.mu.Lock()
	m.closed = true
	timer := m.reconnectTimer
	m.reconnectTimer = nil
	conn := m.conn
	m.conn = nil
	release := m.release
	m.release = nil
	m.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if conn != nil {
		_ = conn.Close(context.Background())
	}
	if release != nil {
		release()
	}

	logger.Error("transcription permanently failed", "error", err)
	if m.callbacks.onFatal != nil {
		m.callbacks.onFatal(err)
	}
}
