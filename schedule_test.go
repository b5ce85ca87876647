package anyeval

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleUpdate(t *testing.T) {
	s := &Schedule{NumEval: 100}
	assert.Equal(t, 100, s.Update(9*time.Minute))
	assert.Equal(t, 100, s.Update(10*time.Minute))
	assert.Equal(t, 94, s.Update(11*time.Minute))
	assert.Equal(t, 88, s.Update(time.Hour))
	assert.Equal(t, 88, s.NumEval)
}

func TestScheduleFloor(t *testing.T) {
	s := &Schedule{NumEval: 1}
	assert.Equal(t, 1, s.Update(time.Hour))

	s = &Schedule{NumEval: 10, MinEval: 8, Decay: 0.5, MaxDuration: time.Second}
	assert.Equal(t, 8, s.Update(2*time.Second))
	assert.Equal(t, 8, s.Update(2*time.Second))
}

type countingCallback struct {
	calls int
	err   error
}

func (c *countingCallback) Trigger(ctx context.Context) error {
	c.calls++
	return c.err
}

func TestPeriodicTrigger(t *testing.T) {
	cb := &countingCallback{}
	p := &PeriodicTrigger{Callback: cb, EveryN: 3}
	var ran []int
	for step := 0; step <= 10; step++ {
		ok, err := p.TriggerStep(context.Background(), step)
		require.NoError(t, err)
		if ok {
			ran = append(ran, step)
		}
	}
	assert.Equal(t, []int{3, 6, 9}, ran)
	assert.Equal(t, 3, cb.calls)

	cb.err = errors.New("evaluation failed")
	ok, err := p.TriggerStep(context.Background(), 12)
	assert.True(t, ok)
	assert.Equal(t, cb.err, err)
}

func TestRunEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls, failures int64
	done := make(chan error, 1)
	go func() {
		done <- RunEvery(ctx, 5*time.Millisecond, func(ctx context.Context) error {
			if atomic.AddInt64(&calls, 1) >= 3 {
				cancel()
			}
			return errors.New("flaky")
		}, func(err error) {
			atomic.AddInt64(&failures, 1)
		})
	}()

	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunEvery did not return")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(3))
	assert.Equal(t, atomic.LoadInt64(&calls), atomic.LoadInt64(&failures))

	assert.Equal(t, ErrBadInterval, RunEvery(context.Background(), 0, nil, nil))
}
