package speechtotext

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestConnectionGateBoundsActiveConnections(t *testing.T) {
	gate := NewConnectionGate(WithMaxActiveConnections(2))

	if err := gate.Acquire(); err != nil {
		t.Fatalf("unexpected error on first acquire: %v", err)
	}
	if err := gate.Acquire(); err != nil {
		t.Fatalf("unexpected error on second acquire: %v", err)
	}
	if err := gate.Acquire(); !errors.Is(err, ErrConnectionLimit) {
		t.Fatalf("expected connection limit error, got %v", err)
	}

	gate.Release()
	if err := gate.Acquire(); err != nil {
		t.Fatalf("expected acquire to succeed after release, got %v", err)
	}
}

func TestConnectionGateCooldownAfterError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	gate := NewConnectionGate(
		WithMaxActiveConnections(4),
		WithErrorCooldown(5*time.Second),
		WithGateClock(clock),
	)

	gate.ReportError()
	if err := gate.Acquire(); !errors.Is(err, ErrCoolingDown) {
		t.Fatalf("expected cooldown rejection, got %v", err)
	}
	if remaining := gate.CooldownRemaining(); remaining != 5*time.Second {
		t.Fatalf("expected 5s cooldown remaining, got %v", remaining)
	}

	clock.Advance(5 * time.Second)
	if err := gate.Acquire(); err != nil {
		t.Fatalf("expected acquire to succeed after cooldown, got %v", err)
	}
}

func TestConnectionGateConcurrentAcquireRelease(t *testing.T) {
	gate := NewConnectionGate(WithMaxActiveConnections(8))

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gate.Acquire(); err == nil {
				gate.Release()
			}
		}()
	}
	wg.Wait()

	if active := gate.Active(); active != 0 {
		t.Fatalf("expected no active connections after release, got %d", active)
	}
}

func TestConnectionGateReleaseWithoutAcquireIsSafe(t *testing.T) {
	gate := NewConnectionGate(WithMaxActiveConnections(1))

	gate.Release()
	if active := gate.Active(); active != 0 {
		t.Fatalf("expected zero active connections, got %d", active)
	}
}
