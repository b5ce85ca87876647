package anyeval

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrBadInterval is returned by RunEvery for a
// non-positive interval.
var ErrBadInterval = errors.New("interval must be positive")

const (
	// DefaultMaxDuration is the evaluation time after which
	// a Schedule shrinks NumEval.
	DefaultMaxDuration = 10 * time.Minute

	// DefaultDecay is the factor a Schedule applies to
	// NumEval after a slow evaluation.
	DefaultDecay = 0.94
)

// A Schedule adapts the number of evaluation episodes so
// that periodic evaluations do not eat up training time.
type Schedule struct {
	// NumEval is the number of episodes for the next
	// evaluation.
	NumEval int

	// MaxDuration is the longest an evaluation may take
	// before NumEval is decayed.
	//
	// If 0, DefaultMaxDuration is used.
	MaxDuration time.Duration

	// Decay is the factor applied to NumEval after a slow
	// evaluation.
	//
	// If 0, DefaultDecay is used.
	Decay float64

	// MinEval is the lower bound for NumEval.
	//
	// If 0, 1 is used.
	MinEval int
}

// Update records the duration of an evaluation and returns
// the new NumEval.
//
// If the evaluation took longer than MaxDuration, NumEval
// is multiplied by Decay and rounded down, but it never
// drops below MinEval.
// Fast evaluations leave NumEval unchanged.
func (s *Schedule) Update(elapsed time.Duration) int {
	maxDuration := s.MaxDuration
	if maxDuration == 0 {
		maxDuration = DefaultMaxDuration
	}
	if elapsed <= maxDuration {
		return s.NumEval
	}
	decay := s.Decay
	if decay == 0 {
		decay = DefaultDecay
	}
	minEval := s.MinEval
	if minEval <= 0 {
		minEval = 1
	}
	s.NumEval = int(math.Floor(float64(s.NumEval) * decay))
	if s.NumEval < minEval {
		s.NumEval = minEval
	}
	return s.NumEval
}

// A Callback is run periodically during training.
type Callback interface {
	Trigger(ctx context.Context) error
}

// PeriodicTrigger runs a Callback every EveryN training
// steps.
type PeriodicTrigger struct {
	Callback Callback

	// EveryN is the step interval.
	// If it is less than 1, every step triggers.
	EveryN int
}

// TriggerStep runs the callback if step is a multiple of
// EveryN.
// Step 0 never triggers.
// It reports whether the callback ran.
func (p *PeriodicTrigger) TriggerStep(ctx context.Context, step int) (bool, error) {
	n := p.EveryN
	if n < 1 {
		n = 1
	}
	if step <= 0 || step%n != 0 {
		return false, nil
	}
	return true, p.Callback.Trigger(ctx)
}

// RunEvery calls fn every interval until ctx is done.
//
// Errors from fn are passed to onErr, if it is non-nil,
// and do not stop the loop.
// A call which is still running when ctx ends is allowed
// to finish before RunEvery returns.
func RunEvery(ctx context.Context, interval time.Duration,
	fn func(ctx context.Context) error, onErr func(err error)) error {
	if interval <= 0 {
		return ErrBadInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fn(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}
