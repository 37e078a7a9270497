package layout

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultFPS is the default tick rate of a Runner.
const DefaultFPS = 60

// Runner drives a Simulation on a single goroutine. Ticks are paced by a
// rate limiter; mutations submitted from other goroutines are applied only
// between ticks, so no tick ever observes a half-applied change.
type Runner struct {
	sim       *Simulation
	limiter   *rate.Limiter
	mutations chan func(*Simulation)
	observe   func(Frame)
	logger    *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFPS sets the tick rate. A value <= 0 removes pacing entirely.
func WithFPS(fps float64) RunnerOption {
	return func(r *Runner) {
		if fps <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(fps), 1)
	}
}

// WithObserver registers fn to receive a frame after every tick and after
// every batch of mutations. fn runs on the runner goroutine.
func WithObserver(fn func(Frame)) RunnerOption {
	return func(r *Runner) {
		r.observe = fn
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner for sim. The runner takes ownership of sim:
// after Run starts, touch it only through Submit.
func NewRunner(sim *Simulation, opts ...RunnerOption) *Runner {
	r := &Runner{
		sim:       sim,
		limiter:   rate.NewLimiter(rate.Limit(DefaultFPS), 1),
		mutations: make(chan func(*Simulation), 64),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit queues fn to run against the simulation between ticks. It blocks
// until the mutation is queued or ctx is done.
func (r *Runner) Submit(ctx context.Context, fn func(*Simulation)) error {
	select {
	case r.mutations <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn between ticks and waits for it to complete.
func (r *Runner) Do(ctx context.Context, fn func(*Simulation)) error {
	done := make(chan struct{})
	err := r.Submit(ctx, func(s *Simulation) {
		defer close(done)
		fn(s)
	})
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks the simulation until ctx is cancelled, which is not an error.
// While the simulation is settled Run sleeps until a mutation arrives.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Debug("layout runner started", zap.Int("nodes", r.sim.Len()))
	defer r.logger.Debug("layout runner stopped", zap.Int("ticks", r.sim.Ticks()))

	for {
		if r.sim.State() == Settled {
			select {
			case <-ctx.Done():
				return nil
			case fn := <-r.mutations:
				fn(r.sim)
				r.drain()
				r.emit()
				if r.sim.State() == Running {
					r.logger.Debug("layout reheated", zap.Float64("alpha", r.sim.Alpha()))
				}
				continue
			}
		}

		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("pacing layout: %w", err)
		}
		if r.drain() {
			r.emit()
		}
		if r.sim.Tick() {
			r.emit()
			if r.sim.State() == Settled {
				r.logger.Debug("layout settled",
					zap.Int("ticks", r.sim.Ticks()),
					zap.Float64("alpha", r.sim.Alpha()))
			}
		}
	}
}

// drain applies every queued mutation without blocking and reports whether
// any ran.
func (r *Runner) drain() bool {
	ran := false
	for {
		select {
		case fn := <-r.mutations:
			fn(r.sim)
			ran = true
		default:
			return ran
		}
	}
}

func (r *Runner) emit() {
	if r.observe != nil {
		r.observe(r.sim.Frame())
	}
}
