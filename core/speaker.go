package callruntime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/koscakluka/tela-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// SynthesisRequest is one outstanding "speak this text" operation. A session
// holds at most one; starting a new one cancels the prior as a precondition.
type SynthesisRequest struct {
	id    string
	text  string
	voice string

	cancelled  atomic.Bool
	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan error
	// finished closes after the outcome has been delivered and the completion
	// callback has returned; End waits on it to order teardown events.
	finished chan struct{}

	startedAt      time.Time
	firstByteNanos atomic.Int64

	genMu     sync.Mutex
	generator texttospeech.SpeechGenerator
}

func (r *SynthesisRequest) ID() string { return r.id }

func (r *SynthesisRequest) Text() string { return r.text }

// Done delivers the request outcome exactly once: nil on completion,
// ErrSpeechInterrupted on cancellation, a SynthesisError on exhausted
// retries.
func (r *SynthesisRequest) Done() <-chan error { return r.done }

// FirstByteLatency reports the time from request start to the first audio
// chunk, if any audio was delivered.
func (r *SynthesisRequest) FirstByteLatency() (time.Duration, bool) {
	firstByte := r.firstByteNanos.Load()
	if firstByte == 0 {
		return 0, false
	}
	return time.Unix(0, firstByte).Sub(r.startedAt), true
}

// cancel is idempotent and stops chunk delivery immediately: the cancelled
// flag is set before the provider is told, so chunks racing the provider-side
// clear are dropped locally.
func (r *SynthesisRequest) cancel() {
	r.cancelOnce.Do(func() {
		r.cancelled.Store(true)
		close(r.cancelCh)

		r.genMu.Lock()
		generator := r.generator
		r.genMu.Unlock()
		if generator != nil {
			_ = generator.Cancel()
		}
	})
}

type speakerCallbacks struct {
	onAudio func(chunk []byte)
	onDone  func(req *SynthesisRequest, err error)
}

// speechSynthesisStreamer owns the single in-flight synthesis of a session
// and its retry loop.
type speechSynthesisStreamer struct {
	synthesizer texttospeech.Synthesizer
	retry       RetryPolicy
	clock       clockwork.Clock

	firstByteHistogram metric.Float64Histogram

	mu      sync.Mutex
	current *SynthesisRequest
}

func newSpeechSynthesisStreamer(synthesizer texttospeech.Synthesizer, retry RetryPolicy, clock clockwork.Clock) *speechSynthesisStreamer {
	firstByteHistogram, err := meter.Float64Histogram("synthesis.first_byte.duration",
		metric.WithUnit("ms"))
	if err != nil {
		logger.Warn("failed to create first-byte latency histogram", "error", err)
	}

	return &speechSynthesisStreamer{
		synthesizer:        synthesizer,
		retry:              retry,
		clock:              clock,
		firstByteHistogram: firstByteHistogram,
	}
}

// speak installs a new request, cancelling any prior one under the same lock
// so supersession is atomic. The request does not run until start, so the
// caller can record it in its own state before any completion callback fires.
func (s *speechSynthesisStreamer) speak(text, voice string) *SynthesisRequest {
	req := &SynthesisRequest{
		id:        uuid.NewString(),
		text:      text,
		voice:     voice,
		cancelCh:  make(chan struct{}),
		done:      make(chan error, 1),
		finished:  make(chan struct{}),
		startedAt: s.clock.Now(),
	}

	s.mu.Lock()
	prior := s.current
	s.current = req
	if prior != nil {
		prior.cancel()
	}
	s.mu.Unlock()

	return req
}

// start drives a request returned by speak on its own goroutine.
func (s *speechSynthesisStreamer) start(ctx context.Context, req *SynthesisRequest, callbacks speakerCallbacks) {
	go s.run(ctx, req, callbacks)
}

func (s *speechSynthesisStreamer) run(ctx context.Context, req *SynthesisRequest, callbacks speakerCallbacks) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if req.cancelled.Load() {
			s.finish(req, callbacks, ErrSpeechInterrupted)
			return
		}

		err := s.attempt(ctx, req, callbacks)
		if err == nil {
			s.finish(req, callbacks, nil)
			return
		}
		if errors.Is(err, ErrSpeechInterrupted) {
			span.AddEvent("synthesis cancelled",
				trace.WithAttributes(attribute.String("request_id", req.id)))
			s.finish(req, callbacks, err)
			return
		}

		lastErr = err
		if !texttospeech.IsTransient(err) {
			break
		}
		if attempt == s.retry.MaxAttempts {
			break
		}

		logger.Warn("synthesis attempt failed, retrying",
			"request_id", req.id, "attempt", attempt, "error", err)
		select {
		case <-req.cancelCh:
			s.finish(req, callbacks, ErrSpeechInterrupted)
			return
		case <-ctx.Done():
			s.finish(req, callbacks, ErrSpeechInterrupted)
			return
		case <-s.clock.After(s.retry.DelayFor(attempt)):
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())

	var synthErr *texttospeech.SynthesisError
	if !errors.As(lastErr, &synthErr) {
		lastErr = &texttospeech.SynthesisError{Err: lastErr}
	}
	s.finish(req, callbacks, lastErr)
}

func (s *speechSynthesisStreamer) attempt(ctx context.Context, req *SynthesisRequest, callbacks speakerCallbacks) error {
	result := make(chan error, 1)
	report := func(err error) {
		select {
		case result <- err:
		default:
		}
	}

	generator, err := s.synthesizer.NewSpeechGenerator(ctx,
		texttospeech.WithVoice(req.voice),
		texttospeech.WithSpeechAudioCallback(func(chunk []byte) {
			if req.cancelled.Load() {
				return
			}
			if req.firstByteNanos.CompareAndSwap(0, s.clock.Now().UnixNano()) {
				if latency, ok := req.FirstByteLatency(); ok && s.firstByteHistogram != nil {
					s.firstByteHistogram.Record(ctx, float64(latency.Milliseconds()))
				}
			}
			callbacks.onAudio(chunk)
		}),
		texttospeech.WithSpeechEndedCallback(func(texttospeech.SpeechEndedReport) {
			report(nil)
		}),
		texttospeech.WithErrorCallback(report),
	)
	if err != nil {
		return err
	}

	req.genMu.Lock()
	if req.cancelled.Load() {
		req.genMu.Unlock()
		_ = generator.Cancel()
		return ErrSpeechInterrupted
	}
	req.generator = generator
	req.genMu.Unlock()

	if err := generator.SendText(req.text); err != nil {
		_ = generator.Close()
		return &texttospeech.SynthesisError{Err: err, Transient: true}
	}
	if err := generator.EndOfText(); err != nil {
		_ = generator.Close()
		return &texttospeech.SynthesisError{Err: err, Transient: true}
	}

	select {
	case err := <-result:
		if err != nil {
			_ = generator.Close()
		}
		return err
	case <-req.cancelCh:
		return ErrSpeechInterrupted
	case <-ctx.Done():
		_ = generator.Cancel()
		return ErrSpeechInterrupted
	}
}

func (s *speechSynthesisStreamer) finish(req *SynthesisRequest, callbacks speakerCallbacks, err error) {
	s.mu.Lock()
	if s.current == req {
		s.current = nil
	}
	s.mu.Unlock()

	req.done <- err
	callbacks.onDone(req, err)
	close(req.finished)
}
