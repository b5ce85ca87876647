package anyeval

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mmendiet/anyeval/monitor"
	"github.com/unixpickle/essentials"
)

// A Trainer is the training loop an EvalCallback is
// attached to.
type Trainer interface {
	// Predictor creates a predictor which maps the named
	// inputs to the named outputs of the current model.
	Predictor(inputNames, outputNames []string) (Predictor, error)

	// Monitors returns the sink for training statistics.
	Monitors() monitor.Sink
}

// EvalCallback periodically evaluates the model of a
// Trainer and reports the mean and max score.
type EvalCallback struct {
	Schedule    Schedule
	InputNames  []string
	OutputNames []string
	MakeEnv     EnvFactory

	// NumWorkers is the number of evaluation workers.
	//
	// If 0, DefaultWorkers(20) is used.
	NumWorkers int

	// Epsilon, StartDelay and JoinTimeout are passed to the
	// Evaluator.
	Epsilon     float64
	StartDelay  time.Duration
	JoinTimeout time.Duration

	// Logger is passed to the Evaluator.
	Logger Logger

	trainer    Trainer
	predictors []Predictor
}

// Setup obtains one predictor per worker from the trainer.
func (e *EvalCallback) Setup(trainer Trainer) (err error) {
	defer essentials.AddCtxTo("setup eval callback", &err)
	n := e.NumWorkers
	if n == 0 {
		n = DefaultWorkers(20)
	}
	pred, err := trainer.Predictor(e.InputNames, e.OutputNames)
	if err != nil {
		return err
	}
	e.predictors, err = Replicate(pred, n)
	if err != nil {
		return err
	}
	e.trainer = trainer
	return nil
}

// Trigger runs one evaluation, adapts the schedule to its
// duration, and reports mean_score and max_score to the
// trainer's monitors.
//
// A partial evaluation still updates the schedule and the
// monitors, since slow evaluations are the ones which need
// fewer episodes.
// Worker stalls past JoinTimeout are logged rather than
// returned; only cancellation of ctx is returned, after the
// partial result has been reported.
func (e *EvalCallback) Trigger(ctx context.Context) (err error) {
	defer essentials.AddCtxTo("eval callback", &err)
	if e.trainer == nil {
		return errors.New("callback is not set up")
	}
	start := time.Now()
	ev := &Evaluator{
		Predictors:  e.predictors,
		MakeEnv:     e.MakeEnv,
		NumEval:     e.Schedule.NumEval,
		Epsilon:     e.Epsilon,
		StartDelay:  e.StartDelay,
		JoinTimeout: e.JoinTimeout,
		Logger:      e.Logger,
	}
	res, evalErr := ev.Evaluate(ctx)
	if res == nil {
		return evalErr
	}
	e.Schedule.Update(time.Since(start))

	putCtx := context.WithoutCancel(ctx)
	sink := e.trainer.Monitors()
	if err := sink.PutScalar(putCtx, monitor.MeanScore, res.Mean); err != nil {
		return err
	}
	if err := sink.PutScalar(putCtx, monitor.MaxScore, res.Max); err != nil {
		return err
	}

	if evalErr != nil {
		if ctx.Err() != nil {
			return evalErr
		}
		log.Printf("eval callback: partial result: %v", evalErr)
	}
	return nil
}
