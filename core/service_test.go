package callruntime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/koscakluka/tela-core/core/speechtotext"
)

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *fakeDialer) {
	t.Helper()

	dialer := &fakeDialer{}
	defaults := defaultSessionConfig()
	defaults.SilenceWindow = 0

	options := []ServiceOption{
		WithTranscriptionDialer(dialer),
		WithSynthesizer(newFakeSynthesizer()),
		WithClock(clockwork.NewFakeClock()),
		WithSessionDefaults(defaults),
	}
	options = append(options, opts...)

	service, err := NewService(options...)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, dialer
}

func TestServiceRejectsDuplicateCallID(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.CreateSession(context.Background(), "call-1", &fakeTransport{}); err != nil {
		t.Fatalf("first session failed: %v", err)
	}
	if _, err := service.CreateSession(context.Background(), "call-1", &fakeTransport{}); !errors.Is(err, ErrDuplicateCall) {
		t.Fatalf("expected ErrDuplicateCall, got %v", err)
	}

	// The id becomes reusable once the call ends.
	service.EndSession(context.Background(), "call-1", "caller hung up")
	if _, err := service.CreateSession(context.Background(), "call-1", &fakeTransport{}); err != nil {
		t.Fatalf("expected id reusable after end, got %v", err)
	}
}

func TestServiceLookupTracksLifecycle(t *testing.T) {
	service, _ := newTestService(t)

	session, err := service.CreateSession(context.Background(), "call-1", &fakeTransport{})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	found, ok := service.Lookup("call-1")
	if !ok || found != session {
		t.Fatal("expected lookup to return the live session")
	}
	if got := service.ActiveSessions(); got != 1 {
		t.Fatalf("expected 1 active session, got %d", got)
	}

	session.End(context.Background(), "caller hung up")
	if _, ok := service.Lookup("call-1"); ok {
		t.Fatal("expected session unregistered after end")
	}
	if got := service.ActiveSessions(); got != 0 {
		t.Fatalf("expected 0 active sessions, got %d", got)
	}
}

func TestServiceAdmissionLimit(t *testing.T) {
	service, _ := newTestService(t, WithMaxConcurrentConnections(1))

	if _, err := service.CreateSession(context.Background(), "call-1", &fakeTransport{}); err != nil {
		t.Fatalf("first session failed: %v", err)
	}

	_, err := service.CreateSession(context.Background(), "call-2", &fakeTransport{})
	if !errors.Is(err, speechtotext.ErrConnectionLimit) {
		t.Fatalf("expected connection limit error, got %v", err)
	}

	// The rejected call must not linger in the registry.
	if _, ok := service.Lookup("call-2"); ok {
		t.Fatal("rejected session left registered")
	}
	if got := service.ActiveSessions(); got != 1 {
		t.Fatalf("expected 1 active session, got %d", got)
	}

	// Capacity frees up when a call ends.
	service.EndSession(context.Background(), "call-1", "caller hung up")
	if _, err := service.CreateSession(context.Background(), "call-3", &fakeTransport{}); err != nil {
		t.Fatalf("expected capacity after end, got %v", err)
	}
}

func TestServiceCloseEndsAllSessions(t *testing.T) {
	service, _ := newTestService(t)

	sessions := make([]*CallSession, 0, 4)
	for i := range 4 {
		session, err := service.CreateSession(context.Background(), fmt.Sprintf("call-%d", i), &fakeTransport{})
		if err != nil {
			t.Fatalf("failed to create session %d: %v", i, err)
		}
		sessions = append(sessions, session)
	}

	service.Close(context.Background())

	if got := service.ActiveSessions(); got != 0 {
		t.Fatalf("expected no active sessions, got %d", got)
	}
	for _, session := range sessions {
		if got := session.State(); got != StateTerminated {
			t.Fatalf("expected session %s terminated, got %q", session.CallID(), got)
		}
	}
}

func TestServiceConcurrentCreateAndEnd(t *testing.T) {
	service, _ := newTestService(t)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callID := fmt.Sprintf("call-%d", i)
			session, err := service.CreateSession(context.Background(), callID, &fakeTransport{})
			if err != nil {
				t.Errorf("failed to create %s: %v", callID, err)
				return
			}
			session.End(context.Background(), "done")
		}()
	}
	wg.Wait()

	if got := service.ActiveSessions(); got != 0 {
		t.Fatalf("expected no sessions left, got %d", got)
	}
}
