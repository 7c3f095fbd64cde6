package combat

import (
	"context"
	"time"
)

// Pacer implements the suspension points inside an ability resolution: cast
// delay, projectile travel and the post-hit pause. Resolution resumes when
// Wait returns, whatever it returns; committed abilities always finish.
type Pacer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// NoDelay is a Pacer that never suspends.
type NoDelay struct{}

// Wait returns immediately.
func (NoDelay) Wait(context.Context, time.Duration) error { return nil }

// ClockPacer suspends on a real timer, returning early when ctx is done.
type ClockPacer struct{}

// Wait blocks for d or until ctx is cancelled.
//
// Postcondition: Returns ctx.Err() if ctx finished first, otherwise nil.
func (ClockPacer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ScaledPacer multiplies every delay by Factor before delegating. A CLI
// uses it to run battles faster than real time.
type ScaledPacer struct {
	Inner  Pacer
	Factor float64
}

// Wait scales d and waits on Inner.
func (s ScaledPacer) Wait(ctx context.Context, d time.Duration) error {
	if s.Inner == nil {
		return nil
	}
	return s.Inner.Wait(ctx, time.Duration(float64(d)*s.Factor))
}
