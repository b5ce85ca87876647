// Package monitor records scalar statistics produced while
// evaluating a policy, such as the mean episode return.
package monitor

import (
	"context"
	"log"
	"sync"

	"github.com/unixpickle/essentials"
)

// Scalar names written by evaluations.
const (
	MeanScore = "mean_score"
	MaxScore  = "max_score"
)

// A Sink receives named scalars.
//
// Sinks must be safe for concurrent use.
type Sink interface {
	PutScalar(ctx context.Context, name string, value float64) error
}

// Log is a Sink which prints every scalar with the log
// package.
type Log struct {
	// Prefix is printed before the scalar name.
	Prefix string
}

// PutScalar logs the scalar.
func (l *Log) PutScalar(ctx context.Context, name string, value float64) error {
	log.Printf("%s%s=%f", l.Prefix, name, value)
	return nil
}

// Multi forwards scalars to every Sink in order.
type Multi []Sink

// PutScalar forwards the scalar to every sink.
//
// Every sink receives the scalar, even if an earlier one
// fails; the first error is returned.
func (m Multi) PutScalar(ctx context.Context, name string, value float64) (err error) {
	for _, s := range m {
		if e := s.PutScalar(ctx, name, value); e != nil && err == nil {
			err = essentials.AddCtx("put "+name, e)
		}
	}
	return
}

// Memory is a Sink which keeps every scalar in memory.
type Memory struct {
	lock   sync.Mutex
	values map[string][]float64
}

// PutScalar appends the value to the scalar's history.
func (m *Memory) PutScalar(ctx context.Context, name string, value float64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.values == nil {
		m.values = map[string][]float64{}
	}
	m.values[name] = append(m.values[name], value)
	return nil
}

// Values returns the history of a scalar.
func (m *Memory) Values(name string) []float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]float64{}, m.values[name]...)
}

// Last returns the most recent value of a scalar.
func (m *Memory) Last(name string) (float64, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	vals := m.values[name]
	if len(vals) == 0 {
		return 0, false
	}
	return vals[len(vals)-1], true
}
