package anyeval

import (
	"errors"
	"sync"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/essentials"
)

var errEnvExhausted = errors.New("no more scripted episodes")

// scriptedEnv plays back a fixed list of episodes, each
// given as its per-step rewards.
type scriptedEnv struct {
	Episodes [][]float64

	// Loop restarts the script after the last episode
	// instead of failing on Reset.
	Loop bool

	// BeforeStep, if non-nil, is called at the start of
	// every step with the 0-based episode index.
	BeforeStep func(episode int)

	Actions []anyvec.Vector
	Renders int
	Closed  bool

	episode int
	step    int
	current []float64
}

func (s *scriptedEnv) Reset() (anyvec.Vector, error) {
	if len(s.Episodes) == 0 || (s.episode >= len(s.Episodes) && !s.Loop) {
		return nil, errEnvExhausted
	}
	s.current = s.Episodes[s.episode%len(s.Episodes)]
	s.episode++
	s.step = 0
	return testObs(), nil
}

func (s *scriptedEnv) Step(action anyvec.Vector) (anyvec.Vector, float64, bool, error) {
	if s.BeforeStep != nil {
		s.BeforeStep(s.episode - 1)
	}
	s.Actions = append(s.Actions, action)
	rew := s.current[s.step]
	s.step++
	return testObs(), rew, s.step >= len(s.current), nil
}

func (s *scriptedEnv) ActionSpace() ActionSpace {
	return &Discrete{N: 2}
}

func (s *scriptedEnv) Render() error {
	s.Renders++
	return nil
}

func (s *scriptedEnv) Close() error {
	s.Closed = true
	return nil
}

func testObs() anyvec.Vector {
	return anyvec64.DefaultCreator{}.MakeVectorData([]float64{0.25, -0.5})
}

// constPredictor always prefers the second action.
func constPredictor() Predictor {
	return PredictorFunc(func(obs anyvec.Vector, batch int) (anyvec.Vector, error) {
		c := obs.Creator()
		return c.MakeVectorData(c.MakeNumericList([]float64{0.1, 0.9})), nil
	})
}

// envList hands out pre-built environments in order.
type envList struct {
	lock sync.Mutex
	envs []Env
	next int
}

func (e *envList) Factory() EnvFactory {
	return func() (Env, error) {
		e.lock.Lock()
		defer e.lock.Unlock()
		if e.next >= len(e.envs) {
			return nil, errors.New("out of environments")
		}
		env := e.envs[e.next]
		e.next++
		return env, nil
	}
}

// recordingLogger keeps track of evaluation events.
type recordingLogger struct {
	lock      sync.Mutex
	scores    []float64
	errs      []error
	onWaiting func()
	summary   *Result
	played    int
}

func (r *recordingLogger) LogStart(numWorkers, numEval int) {}

func (r *recordingLogger) LogScore(score float64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.scores = append(r.scores, score)
}

func (r *recordingLogger) LogWorkerError(workerID int, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingLogger) LogWaiting() {
	if r.onWaiting != nil {
		r.onWaiting()
	}
}

func (r *recordingLogger) LogSummary(res *Result) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.summary = res
}

func (r *recordingLogger) LogPlayed(episode, total int, score float64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.played++
}

func (r *recordingLogger) Errors() []error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]error{}, r.errs...)
}

// rootCause strips context added by essentials.AddCtx and
// standard error wrapping.
func rootCause(err error) error {
	for {
		if ctxErr, ok := err.(*essentials.CtxError); ok {
			err = ctxErr.Original
			continue
		}
		inner := errors.Unwrap(err)
		if inner == nil {
			return err
		}
		err = inner
	}
}
