package anyeval

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/essentials"
)

// evalGlobals is the state shared by every worker of an
// evaluation.
type evalGlobals struct {
	StopChan chan struct{}
	Queue    *resultQueue
}

// Done returns true once the workers have been told to
// stop.
func (e *evalGlobals) Done() bool {
	select {
	case <-e.StopChan:
		return true
	default:
		return false
	}
}

// A worker plays episodes with its own Predictor and Env
// until the evaluation stops it.
type worker struct {
	ID        int
	Predictor Predictor
	MakeEnv   EnvFactory
	Epsilon   float64
	Rand      *rand.Rand

	// Episodes counts the finished episodes and numbers
	// the episode in worker errors.
	Episodes int
}

// Run plays episodes and pushes their returns.
//
// The stop signal is only observed between episodes, so an
// episode which is running when the evaluation stops is
// still finished and pushed.
// Errors and panics end the worker without affecting the
// other workers.
func (w *worker) Run(g *evalGlobals) (err error) {
	defer essentials.AddCtxTo(fmt.Sprintf("worker %d", w.ID), &err)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in episode %d: %v", w.Episodes+1, r)
		}
	}()

	env, err := w.MakeEnv()
	if err != nil {
		return essentials.AddCtx("create env", err)
	}
	defer closeEnv(env)

	player := &Player{
		Env:       env,
		Predictor: w.Predictor,
		Epsilon:   w.Epsilon,
		Rand:      w.Rand,
	}
	for !g.Done() {
		score, err := player.PlayEpisode()
		if err != nil {
			return essentials.AddCtx(fmt.Sprintf("episode %d", w.Episodes+1), err)
		}
		w.Episodes++
		if !g.Queue.Push(score) {
			return nil
		}
	}
	return nil
}
