package chart

import (
	"context"
	"errors"
	"sync"
	"time"

	"smart-grocer/utils"
)

// State is the tri-state result of the chart capability probe.
type State int

const (
	StatePending State = iota
	StateAvailable
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Checker reports whether the rendering capability can be used right now.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Probe polls a Checker in the background until it succeeds, the checker
// reports ErrNoBrowser, or interval x maxAttempts of wall-clock time has
// passed. It never blocks the caller of Start.
type Probe struct {
	checker     Checker
	interval    time.Duration
	maxAttempts int
	logger      *utils.Logger

	once    sync.Once
	mu      sync.RWMutex
	state   State
	settled chan struct{}
}

// NewProbe returns a probe in the Pending state.
func NewProbe(checker Checker, interval time.Duration, maxAttempts int, logger *utils.Logger) *Probe {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Probe{
		checker:     checker,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
		state:       StatePending,
		settled:     make(chan struct{}),
	}
}

// Budget is the longest the probe stays Pending after Start.
func (p *Probe) Budget() time.Duration {
	return p.interval * time.Duration(p.maxAttempts)
}

// Start launches the polling goroutine. Calling it more than once has no effect.
// Cancelling ctx before the probe settles marks it Unavailable.
func (p *Probe) Start(ctx context.Context) {
	p.once.Do(func() {
		go p.run(ctx)
	})
}

func (p *Probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.Budget())
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = p.check(ctx)
		switch {
		case lastErr == nil:
			p.logger.Debug("[chart] Renderer available after %d attempt(s)", attempt)
			p.settle(StateAvailable)
			return
		case errors.Is(lastErr, ErrNoBrowser):
			p.logger.Warn("[chart] Renderer unavailable: %v", lastErr)
			p.settle(StateUnavailable)
			return
		}
		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			p.logger.Warn("[chart] Probe stopped after %d attempt(s): %v (last error: %v)", attempt, ctx.Err(), lastErr)
			p.settle(StateUnavailable)
			return
		case <-ticker.C:
		}
	}

	p.logger.Warn("[chart] Renderer unavailable after %d attempts: %v", p.maxAttempts, lastErr)
	p.settle(StateUnavailable)
}

// check runs one Checker call, giving up when ctx ends even if the checker
// does not honour it.
func (p *Probe) check(ctx context.Context) error {
	result := make(chan error, 1)
	go func() { result <- p.checker.Check(ctx) }()
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Probe) settle(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	close(p.settled)
}

// State returns the current probe result without blocking.
func (p *Probe) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Wait blocks until the probe settles or ctx is done, then returns the state
// at that moment (Pending if ctx ended first).
func (p *Probe) Wait(ctx context.Context) State {
	select {
	case <-p.settled:
	case <-ctx.Done():
	}
	return p.State()
}
