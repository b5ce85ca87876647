package anyeval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxStepsEnv(t *testing.T) {
	inner := &scriptedEnv{Episodes: [][]float64{{1, 1, 1, 1, 1}}, Loop: true}
	env := &MaxStepsEnv{Env: inner, MaxSteps: 3}

	for i := 0; i < 2; i++ {
		score, err := PlayOneEpisode(env, constPredictor(), false)
		require.NoError(t, err)
		assert.Equal(t, 3.0, score)
	}

	short := &MaxStepsEnv{Env: &scriptedEnv{Episodes: [][]float64{{2, 2}}}, MaxSteps: 10}
	score, err := PlayOneEpisode(short, constPredictor(), false)
	require.NoError(t, err)
	assert.Equal(t, 4.0, score)

	require.NoError(t, env.Close())
	assert.True(t, inner.Closed)
}
