package anyeval

import (
	"io"

	"github.com/unixpickle/anyvec"
)

// Env is an instance of an RL environment.
//
// An Env is owned by exactly one worker at a time and need
// not be thread-safe.
type Env interface {
	Reset() (observation anyvec.Vector, err error)
	Step(action anyvec.Vector) (observation anyvec.Vector,
		reward float64, done bool, err error)

	// ActionSpace returns the space from which actions
	// passed to Step are drawn.
	ActionSpace() ActionSpace
}

// A Renderer is an Env which can display its current
// state.
type Renderer interface {
	Render() error
}

// An EnvFactory creates a fresh Env.
//
// Each evaluation worker calls the factory once, so the
// returned environments should not share mutable state.
type EnvFactory func() (Env, error)

// closeEnv closes e if it holds external resources.
func closeEnv(e Env) error {
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
