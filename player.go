package anyeval

import (
	"context"
	"math/rand"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// DefaultEpsilon is the exploration rate used when a
// Player's Epsilon is 0.
const DefaultEpsilon = 0.01

// A Player runs a Predictor on an Env one episode at a
// time.
//
// Actions are chosen epsilon-greedily: usually the argmax
// of the predicted distribution, occasionally a uniformly
// random action.
type Player struct {
	Env       Env
	Predictor Predictor

	// Epsilon is the probability of taking a random
	// action instead of the greedy one.
	//
	// If 0, DefaultEpsilon is used.
	// If negative, actions are always greedy.
	Epsilon float64

	// Rand is the source of exploration noise.
	//
	// If nil, the global source is used.
	Rand *rand.Rand

	// Render, if true, renders the environment after every
	// step if it is a Renderer.
	Render bool
}

// Act chooses an action for a single observation.
func (p *Player) Act(obs anyvec.Vector) (action anyvec.Vector, err error) {
	params, err := p.Predictor.Predict(obs, 1)
	if err != nil {
		return nil, err
	}
	space := p.Env.ActionSpace()
	action = space.Greedy(params)
	if p.randFloat() < p.epsilon() {
		action = space.Sample(obs.Creator(), p.Rand)
	}
	return action, nil
}

// PlayEpisode runs the environment from reset until the
// episode is done and returns the total reward.
func (p *Player) PlayEpisode() (reward float64, err error) {
	defer essentials.AddCtxTo("play episode", &err)

	if r, ok := p.Predictor.(Resetter); ok {
		r.ResetState()
	}
	obs, err := p.Env.Reset()
	if err != nil {
		return 0, err
	}
	renderer, canRender := p.Env.(Renderer)
	for {
		action, err := p.Act(obs)
		if err != nil {
			return reward, err
		}
		var rew float64
		var done bool
		obs, rew, done, err = p.Env.Step(action)
		if err != nil {
			return reward, err
		}
		if p.Render && canRender {
			if err := renderer.Render(); err != nil {
				return reward, err
			}
		}
		reward += rew
		if done {
			return reward, nil
		}
	}
}

func (p *Player) epsilon() float64 {
	if p.Epsilon == 0 {
		return DefaultEpsilon
	}
	return p.Epsilon
}

func (p *Player) randFloat() float64 {
	if p.Rand == nil {
		return rand.Float64()
	}
	return p.Rand.Float64()
}

// PlayOneEpisode plays a single episode with the default
// exploration rate.
func PlayOneEpisode(env Env, pred Predictor, render bool) (float64, error) {
	p := &Player{Env: env, Predictor: pred, Render: render}
	return p.PlayEpisode()
}

// PlayEpisodes plays n episodes in sequence, logging each
// score, and returns the scores.
//
// If ctx is cancelled, PlayEpisodes stops before the next
// episode and returns the scores so far.
func PlayEpisodes(ctx context.Context, p *Player, n int,
	l Logger) (scores []float64, err error) {
	defer essentials.AddCtxTo("play episodes", &err)
	if l == nil {
		l = NewStandardLogger(true)
	}
	for k := 0; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return scores, err
		}
		score, err := p.PlayEpisode()
		if err != nil {
			return scores, err
		}
		l.LogPlayed(k, n, score)
		scores = append(scores, score)
	}
	return scores, nil
}
