package anyeval

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anyvec"
)

// ActionSpace describes the actions an Env accepts.
type ActionSpace interface {
	// Sample produces a uniformly random action.
	Sample(c anyvec.Creator, rng *rand.Rand) anyvec.Vector

	// Greedy produces the most likely action for the
	// first entry of a batch of action distributions.
	Greedy(params anyvec.Vector) anyvec.Vector
}

// Discrete is an ActionSpace with N mutually exclusive
// actions.
// Actions are encoded as one-hot vectors.
type Discrete struct {
	N int
}

// Sample samples a one-hot vector uniformly at random.
func (d *Discrete) Sample(c anyvec.Creator, rng *rand.Rand) anyvec.Vector {
	var idx int
	if rng == nil {
		idx = rand.Intn(d.N)
	} else {
		idx = rng.Intn(d.N)
	}
	return oneHot(c, d.N, idx)
}

// Greedy selects the argmax of the first N parameters.
//
// The parameters may hold a batch of distributions, in
// which case every entry after the first is ignored.
func (d *Discrete) Greedy(params anyvec.Vector) anyvec.Vector {
	if params.Len() < d.N {
		panic(fmt.Sprintf("expected at least %d parameters but got %d",
			d.N, params.Len()))
	}
	first := params
	if params.Len() > d.N {
		first = params.Slice(0, d.N)
	}
	return oneHot(params.Creator(), d.N, anyvec.MaxIndex(first))
}

func oneHot(c anyvec.Creator, n, idx int) anyvec.Vector {
	vec := make([]float64, n)
	vec[idx] = 1
	return c.MakeVectorData(c.MakeNumericList(vec))
}
