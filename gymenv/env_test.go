package gymenv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mmendiet/anyeval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

// fakeServer hosts episodes which last three steps and
// reward the action index.
type fakeServer struct {
	lock    sync.Mutex
	next    int
	steps   map[string]int
	actions []int
	closed  []string
	renders int
}

func newFakeServer() (*httptest.Server, *fakeServer) {
	f := &fakeServer{steps: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/envs/{$}", f.create)
	mux.HandleFunc("GET /v1/envs/{id}/action_space/", func(w http.ResponseWriter,
		r *http.Request) {
		writeJSON(w, map[string]interface{}{"info": Space{Name: "Discrete", N: 2}})
	})
	mux.HandleFunc("GET /v1/envs/{id}/observation_space/", func(w http.ResponseWriter,
		r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"info": Space{Name: "Box", Shape: []int{2, 2}},
		})
	})
	mux.HandleFunc("POST /v1/envs/{id}/reset/", f.reset)
	mux.HandleFunc("POST /v1/envs/{id}/step/", f.step)
	mux.HandleFunc("POST /v1/envs/{id}/close/", f.close)
	return httptest.NewServer(mux), f
}

func (f *fakeServer) create(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["env_id"] == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req["env_id"] != "Fake-v0" {
		http.Error(w, "unknown env", http.StatusBadRequest)
		return
	}
	f.lock.Lock()
	f.next++
	id := fmt.Sprintf("inst%d", f.next)
	f.lock.Unlock()
	writeJSON(w, map[string]string{"instance_id": id})
}

func (f *fakeServer) reset(w http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	f.steps[r.PathValue("id")] = 0
	f.lock.Unlock()
	writeJSON(w, map[string]interface{}{"observation": [][]float64{{1, 2}, {3, 4}}})
}

func (f *fakeServer) step(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action int  `json:"action"`
		Render bool `json:"render"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.lock.Lock()
	id := r.PathValue("id")
	f.steps[id]++
	done := f.steps[id] >= 3
	f.actions = append(f.actions, req.Action)
	if req.Render {
		f.renders++
	}
	f.lock.Unlock()
	writeJSON(w, map[string]interface{}{
		"observation": [][]float64{{0, 0}, {0, float64(req.Action)}},
		"reward":      float64(req.Action),
		"done":        done,
		"info":        map[string]interface{}{},
	})
}

func (f *fakeServer) close(w http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	f.closed = append(f.closed, r.PathValue("id"))
	f.lock.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func preferSecond() anyeval.Predictor {
	return anyeval.PredictorFunc(func(obs anyvec.Vector, batch int) (anyvec.Vector,
		error) {
		c := obs.Creator()
		return c.MakeVectorData(c.MakeNumericList([]float64{0, 1})), nil
	})
}

func TestEnvEpisode(t *testing.T) {
	server, fake := newFakeServer()
	defer server.Close()

	client := NewClient(server.URL + "/")
	c := anyvec64.DefaultCreator{}
	env, err := Factory(c, client, "Fake-v0", false)()
	require.NoError(t, err)

	obs, err := env.Reset()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, obs.Data())
	assert.Equal(t, &anyeval.Discrete{N: 2}, env.ActionSpace())

	player := &anyeval.Player{Env: env, Predictor: preferSecond(), Epsilon: -1}
	score, err := player.PlayEpisode()
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)

	require.NoError(t, env.(*Env).Close())
	assert.Equal(t, []int{1, 1, 1}, fake.actions)
	assert.Equal(t, []string{env.(*Env).ID()}, fake.closed)
}

func TestEnvUnknownID(t *testing.T) {
	server, _ := newFakeServer()
	defer server.Close()

	_, err := Factory(anyvec64.DefaultCreator{}, NewClient(server.URL), "Missing-v0", false)()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown env")
}

func TestEnvEvaluate(t *testing.T) {
	server, fake := newFakeServer()
	defer server.Close()

	makeEnv := Factory(anyvec64.DefaultCreator{}, NewClient(server.URL), "Fake-v0", false)
	preds, err := anyeval.Replicate(preferSecond(), 2)
	require.NoError(t, err)
	e := &anyeval.Evaluator{
		Predictors: preds,
		MakeEnv:    makeEnv,
		NumEval:    4,
		Epsilon:    -1,
		StartDelay: -1,
	}
	res, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Mean)
	assert.Equal(t, 3.0, res.Max)
	assert.GreaterOrEqual(t, res.Count, 4)

	fake.lock.Lock()
	defer fake.lock.Unlock()
	assert.Len(t, fake.closed, 2)
	assert.Equal(t, 0, fake.renders)
}

func TestConverters(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	disc := &discreteConverter{Creator: c, N: 3}
	vec, err := disc.FromGym(2.0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, vec.Data())
	_, err = disc.FromGym(3.0)
	assert.Error(t, err)
	assert.Equal(t, 1, disc.ToGym(c.MakeVectorData([]float64{0.2, 0.7, 0.1})))

	box := &boxConverter{Creator: c}
	vec, err = box.FromGym([]interface{}{[]interface{}{1.0}, []interface{}{2.0, 3.0}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, vec.Data())
	_, err = box.FromGym("pixels")
	assert.Error(t, err)

	_, err = converterForSpace(c, &Space{Name: "Tuple"})
	assert.Error(t, err)
}
