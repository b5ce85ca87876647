package anyeval

import "github.com/unixpickle/anyvec"

// MaxStepsEnv wraps an Env and ends episodes early if
// they run longer than MaxSteps timesteps.
//
// This bounds the length of an evaluation episode, which
// in turn bounds how long an evaluation waits for its
// workers to finish.
type MaxStepsEnv struct {
	Env
	MaxSteps int

	steps int
}

// Reset resets the environment.
func (m *MaxStepsEnv) Reset() (anyvec.Vector, error) {
	m.steps = 0
	return m.Env.Reset()
}

// Step takes a step in the environment.
func (m *MaxStepsEnv) Step(action anyvec.Vector) (anyvec.Vector, float64, bool, error) {
	obs, rew, done, err := m.Env.Step(action)
	m.steps++
	if m.steps == m.MaxSteps {
		done = true
	}
	return obs, rew, done, err
}

// Close closes the wrapped Env if it holds external
// resources.
func (m *MaxStepsEnv) Close() error {
	return closeEnv(m.Env)
}
