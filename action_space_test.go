package anyeval

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestDiscreteGreedy(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	space := &Discrete{N: 3}

	params := c.MakeVectorData([]float64{0.1, 2.5, -1})
	assert.Equal(t, []float64{0, 1, 0}, space.Greedy(params).Data())

	batched := c.MakeVectorData([]float64{3, 0, 1, 0, 0, 9})
	assert.Equal(t, []float64{1, 0, 0}, space.Greedy(batched).Data())
}

func TestDiscreteSample(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	space := &Discrete{N: 4}
	rng := rand.New(rand.NewSource(1337))

	counts := make([]int, 4)
	for i := 0; i < 4000; i++ {
		sample := space.Sample(c, rng)
		assert.Equal(t, 4, sample.Len())
		assert.Equal(t, 1.0, anyvec.Sum(sample).(float64))
		counts[anyvec.MaxIndex(sample)]++
	}
	for i, count := range counts {
		assert.InDelta(t, 1000, count, 150, "action %d", i)
	}
}
