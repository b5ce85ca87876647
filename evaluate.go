package anyeval

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unixpickle/essentials"
)

const (
	// DefaultStartDelay is the pause between starting two
	// workers, which keeps environments from initializing
	// at the same instant.
	DefaultStartDelay = 100 * time.Millisecond

	// DefaultJoinTimeout bounds how long an evaluation
	// waits for workers to finish their last episode.
	DefaultJoinTimeout = 10 * time.Minute
)

var (
	// ErrNoPredictors is returned when an Evaluator has no
	// workers to run.
	ErrNoPredictors = errors.New("no predictors to evaluate with")

	// ErrNoEnvFactory is returned when an Evaluator has no
	// way to create environments.
	ErrNoEnvFactory = errors.New("no environment factory")

	// ErrJoinTimeout is returned along with a partial Result
	// when workers outlive the JoinTimeout.
	ErrJoinTimeout = errors.New("timed out waiting for workers to stop")
)

// Result summarizes an evaluation.
type Result struct {
	// Mean and Max are 0 if no episodes finished.
	Mean float64
	Max  float64
	Min  float64

	// Count is the number of episode returns aggregated.
	// It may exceed the requested number of episodes,
	// since episodes in flight at shutdown are included.
	Count int

	// DeadWorkers is the number of workers which stopped
	// because of an error.
	DeadWorkers int

	Elapsed time.Duration
}

// An Evaluator runs a policy on many environments at once
// and aggregates the episode returns.
type Evaluator struct {
	// Predictors contains one Predictor per worker.
	// The number of workers is len(Predictors).
	Predictors []Predictor

	// MakeEnv is called once by each worker.
	MakeEnv EnvFactory

	// NumEval is the number of episode returns to wait
	// for before stopping the workers.
	NumEval int

	// Epsilon is the exploration rate passed to every
	// Player.
	// See Player.Epsilon.
	Epsilon float64

	// StartDelay is the pause between worker starts.
	//
	// If 0, DefaultStartDelay is used.
	// If negative, workers are started at once.
	StartDelay time.Duration

	// JoinTimeout bounds the wait for workers once enough
	// results have been collected.
	//
	// If 0, DefaultJoinTimeout is used.
	// If negative, the wait is unbounded.
	JoinTimeout time.Duration

	// Seed seeds the exploration noise of the workers.
	//
	// If 0, a time-based seed is used.
	Seed int64

	// Logger, if non-nil, receives status messages.
	//
	// If nil, NewStandardLogger(false) is used.
	Logger Logger
}

// Evaluate runs the workers until NumEval returns have
// been collected, then stops every worker, waits for them
// to finish their current episode, and aggregates every
// return which was produced.
//
// Waiting for in-flight episodes matters: long episodes
// finish last, so dropping them would bias the mean toward
// short episodes.
//
// Worker failures do not cause an error.
// If every worker dies, the Result covers whatever returns
// were collected.
// If ctx is cancelled or the workers do not stop within
// JoinTimeout, a partial Result is returned along with the
// error.
func (e *Evaluator) Evaluate(ctx context.Context) (res *Result, err error) {
	defer essentials.AddCtxTo("evaluate", &err)
	if len(e.Predictors) == 0 {
		return nil, ErrNoPredictors
	}
	if e.MakeEnv == nil {
		return nil, ErrNoEnvFactory
	}
	if e.NumEval <= 0 {
		return &Result{}, nil
	}

	startTime := time.Now()
	l := e.logger()
	l.LogStart(len(e.Predictors), e.NumEval)

	g := &evalGlobals{
		StopChan: make(chan struct{}),
		Queue:    newResultQueue(),
	}
	var dead int64
	var wg sync.WaitGroup
	seed := e.seed()
	for i, pred := range e.Predictors {
		if i > 0 && !e.stagger(ctx) {
			break
		}
		w := &worker{
			ID:        i,
			Predictor: pred,
			MakeEnv:   e.MakeEnv,
			Epsilon:   e.Epsilon,
			Rand:      rand.New(rand.NewSource(seed + int64(i))),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(g); err != nil {
				atomic.AddInt64(&dead, 1)
				l.LogWorkerError(w.ID, err)
			}
		}()
	}
	exited := make(chan struct{})
	go func() {
		wg.Wait()
		close(exited)
	}()

	var stats StatCounter
	fetch := func(x float64) {
		stats.Feed(x)
		l.LogScore(x)
	}
	for i := 0; i < e.NumEval; i++ {
		x, ok, popErr := g.Queue.Pop(ctx, exited)
		if popErr != nil {
			err = popErr
			break
		}
		if !ok {
			break
		}
		fetch(x)
	}

	l.LogWaiting()
	close(g.StopChan)
	if !e.join(exited) && err == nil {
		err = ErrJoinTimeout
	}
	for _, x := range g.Queue.Close() {
		fetch(x)
	}

	res = &Result{
		Count:       stats.Count,
		DeadWorkers: int(atomic.LoadInt64(&dead)),
		Elapsed:     time.Since(startTime),
	}
	if stats.Count > 0 {
		res.Mean = stats.Average()
		res.Max = stats.Max
		res.Min = stats.Min
	}
	l.LogSummary(res)
	return res, err
}

func (e *Evaluator) stagger(ctx context.Context) bool {
	delay := e.StartDelay
	if delay == 0 {
		delay = DefaultStartDelay
	}
	if delay < 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

// join waits for every worker to exit.
// It returns false if JoinTimeout elapses first.
func (e *Evaluator) join(exited <-chan struct{}) bool {
	timeout := e.JoinTimeout
	if timeout == 0 {
		timeout = DefaultJoinTimeout
	}
	if timeout < 0 {
		<-exited
		return true
	}
	select {
	case <-exited:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (e *Evaluator) seed() int64 {
	if e.Seed == 0 {
		return time.Now().UnixNano()
	}
	return e.Seed
}

func (e *Evaluator) logger() Logger {
	if e.Logger == nil {
		return NewStandardLogger(false)
	}
	return e.Logger
}

// Evaluate runs an evaluation with one worker per
// predictor and returns the mean and max episode return.
//
// If verbose is true, every episode return is logged.
func Evaluate(ctx context.Context, predictors []Predictor, numEval int,
	makeEnv EnvFactory, verbose bool) (meanScore, maxScore float64, err error) {
	e := &Evaluator{
		Predictors: predictors,
		MakeEnv:    makeEnv,
		NumEval:    numEval,
		Logger:     NewStandardLogger(verbose),
	}
	res, err := e.Evaluate(ctx)
	if res != nil {
		meanScore, maxScore = res.Mean, res.Max
	}
	return
}

// EvaluateModel evaluates a single predictor, replicating
// it for a worker pool sized to the machine.
func EvaluateModel(ctx context.Context, pred Predictor, numEval int,
	makeEnv EnvFactory, l Logger) (res *Result, err error) {
	defer essentials.AddCtxTo("evaluate model", &err)
	if l == nil {
		l = NewStandardLogger(true)
	}
	preds, err := Replicate(pred, DefaultWorkers(8))
	if err != nil {
		return nil, err
	}
	e := &Evaluator{
		Predictors: preds,
		MakeEnv:    makeEnv,
		NumEval:    numEval,
		Logger:     l,
	}
	return e.Evaluate(ctx)
}

// DefaultWorkers returns half the number of CPUs, capped
// at limit and at least 1.
func DefaultWorkers(limit int) int {
	n := runtime.NumCPU() / 2
	if n > limit {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}
