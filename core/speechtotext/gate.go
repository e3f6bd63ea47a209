package speechtotext

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrConnectionLimit = errors.New("transcription connection limit reached")
	ErrCoolingDown     = errors.New("transcription connections cooling down")
)

// ConnectionGate bounds concurrent recognition connections process-wide and
// enforces a cooldown window after the most recent connection error. It is
// the only state shared between otherwise independent call sessions.
type ConnectionGate struct {
	mu            sync.Mutex
	active        int
	cooldownUntil time.Time

	maxActive int
	cooldown  time.Duration
	clock     clockwork.Clock

	activeGauge metric.Int64UpDownCounter
}

type GateOptions struct {
	MaxActive int
	Cooldown  time.Duration
	Clock     clockwork.Clock
}

type GateOption func(*GateOptions)

func WithMaxActiveConnections(maxActive int) GateOption {
	return func(o *GateOptions) { o.MaxActive = maxActive }
}

func WithErrorCooldown(cooldown time.Duration) GateOption {
	return func(o *GateOptions) { o.Cooldown = cooldown }
}

func WithGateClock(clock clockwork.Clock) GateOption {
	return func(o *GateOptions) { o.Clock = clock }
}

func NewConnectionGate(opts ...GateOption) *ConnectionGate {
	options := GateOptions{
		MaxActive: 64,
		Cooldown:  10 * time.Second,
		Clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	activeGauge, err := meter.Int64UpDownCounter("transcription.connections.active")
	if err != nil {
		logger.Warn("failed to create active connections gauge", "error", err)
	}

	return &ConnectionGate{
		maxActive:   options.MaxActive,
		cooldown:    options.Cooldown,
		clock:       options.Clock,
		activeGauge: activeGauge,
	}
}

// Acquire admits one connection attempt or reports why it cannot proceed.
func (g *ConnectionGate) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.clock.Now().Before(g.cooldownUntil) {
		return ErrCoolingDown
	}
	if g.active >= g.maxActive {
		return ErrConnectionLimit
	}

	g.active++
	if g.activeGauge != nil {
		g.activeGauge.Add(context.Background(), 1)
	}
	return nil
}

// Release returns a previously acquired slot. Safe to call once per Acquire.
func (g *ConnectionGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active > 0 {
		g.active--
		if g.activeGauge != nil {
			g.activeGauge.Add(context.Background(), -1)
		}
	}
}

// ReportError opens the cooldown window from now.
func (g *ConnectionGate) ReportError() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cooldownUntil = g.clock.Now().Add(g.cooldown)
}

// CooldownRemaining reports how long new attempts will keep being rejected.
func (g *ConnectionGate) CooldownRemaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	remaining := g.cooldownUntil.Sub(g.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Active reports the number of admitted connections.
func (g *ConnectionGate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.active
}
