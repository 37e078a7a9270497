package layout

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunner_SettlesAndAppliesMutations(t *testing.T) {
	settled := make(chan Frame, 1)
	sim := New(Config{})
	r := NewRunner(sim,
		WithFPS(0),
		WithLogger(zap.NewNop()),
		WithObserver(func(f Frame) {
			if f.State == Settled && len(f.Nodes) > 0 {
				select {
				case settled <- f:
				default:
				}
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	if err := r.Submit(ctx, func(s *Simulation) { s.SetGraph(sampleGraph()) }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case f := <-settled:
		if f.Tick == 0 {
			t.Error("settled frame reports zero ticks")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not settle")
	}

	var n int
	if err := r.Do(ctx, func(s *Simulation) { n = s.Len() }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if n != len(sampleGraph().Nodes) {
		t.Errorf("Len() = %d, want %d", n, len(sampleGraph().Nodes))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after cancel = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRunner_SubmitHonoursContext(t *testing.T) {
	r := NewRunner(New(Config{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Fill the queue; nobody is running the simulation.
	var err error
	for i := 0; i < 1000 && err == nil; i++ {
		err = r.Submit(ctx, func(*Simulation) {})
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() on full queue error = %v, want context.Canceled", err)
	}
}
