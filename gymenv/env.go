package gymenv

import (
	"errors"
	"fmt"

	"github.com/mmendiet/anyeval"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// Env is an anyeval.Env backed by a remote instance.
type Env struct {
	client *Client
	id     string
	render bool

	actionSpace anyeval.ActionSpace
	actConv     spaceConverter
	obsConv     spaceConverter
}

// New connects to an existing instance.
//
// This will fail if the instance uses an unsupported space
// type or if it fails to fetch space info.
func New(c anyvec.Creator, client *Client, id string, render bool) (env *Env, err error) {
	defer essentials.AddCtxTo("create gym env", &err)
	actSpace, err := client.ActionSpace(id)
	if err != nil {
		return nil, err
	}
	obsSpace, err := client.ObservationSpace(id)
	if err != nil {
		return nil, err
	}
	if actSpace.Name != "Discrete" {
		return nil, errors.New("unsupported action space: " + actSpace.Name)
	}
	actConv, err := converterForSpace(c, actSpace)
	if err != nil {
		return nil, err
	}
	obsConv, err := converterForSpace(c, obsSpace)
	if err != nil {
		return nil, err
	}
	return &Env{
		client:      client,
		id:          id,
		render:      render,
		actionSpace: &anyeval.Discrete{N: actSpace.N},
		actConv:     actConv,
		obsConv:     obsConv,
	}, nil
}

// Factory returns an anyeval.EnvFactory which creates a
// fresh envID instance for every call.
func Factory(c anyvec.Creator, client *Client, envID string, render bool) anyeval.EnvFactory {
	return func() (anyeval.Env, error) {
		id, err := client.Create(envID)
		if err != nil {
			return nil, err
		}
		env, err := New(c, client, id, render)
		if err != nil {
			client.Close(id)
			return nil, err
		}
		return env, nil
	}
}

// ID returns the instance ID.
func (e *Env) ID() string {
	return e.id
}

func (e *Env) Reset() (obsVec anyvec.Vector, err error) {
	defer essentials.AddCtxTo("reset gym env", &err)
	obs, err := e.client.Reset(e.id)
	if err != nil {
		return nil, err
	}
	return e.obsConv.FromGym(obs)
}

func (e *Env) Step(action anyvec.Vector) (obsVec anyvec.Vector, reward float64,
	done bool, err error) {
	defer essentials.AddCtxTo("step gym env", &err)
	var obs interface{}
	obs, reward, done, err = e.client.Step(e.id, e.actConv.ToGym(action), e.render)
	if err != nil {
		return
	}
	obsVec, err = e.obsConv.FromGym(obs)
	return
}

func (e *Env) ActionSpace() anyeval.ActionSpace {
	return e.actionSpace
}

// Close shuts down the remote instance.
func (e *Env) Close() error {
	return e.client.Close(e.id)
}

type spaceConverter interface {
	ToGym(in anyvec.Vector) interface{}
	FromGym(in interface{}) (anyvec.Vector, error)
}

func converterForSpace(c anyvec.Creator, s *Space) (spaceConverter, error) {
	switch s.Name {
	case "Box":
		return &boxConverter{Creator: c}, nil
	case "Discrete":
		return &discreteConverter{Creator: c, N: s.N}, nil
	default:
		return nil, errors.New("unsupported space: " + s.Name)
	}
}

type boxConverter struct {
	Creator anyvec.Creator
}

func (b *boxConverter) ToGym(in anyvec.Vector) interface{} {
	switch data := in.Data().(type) {
	case []float64:
		return data
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	default:
		panic(fmt.Sprintf("unsupported numeric list: %T", data))
	}
}

// FromGym flattens a (possibly nested) JSON array.
func (b *boxConverter) FromGym(in interface{}) (anyvec.Vector, error) {
	var flat []float64
	if err := flatten(in, &flat); err != nil {
		return nil, err
	}
	return b.Creator.MakeVectorData(b.Creator.MakeNumericList(flat)), nil
}

func flatten(in interface{}, out *[]float64) error {
	switch in := in.(type) {
	case float64:
		*out = append(*out, in)
	case []interface{}:
		for _, x := range in {
			if err := flatten(x, out); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unexpected observation type: %T", in)
	}
	return nil
}

type discreteConverter struct {
	Creator anyvec.Creator
	N       int
}

func (d *discreteConverter) ToGym(in anyvec.Vector) interface{} {
	return anyvec.MaxIndex(in)
}

// FromGym one-hot encodes a discrete observation.
func (d *discreteConverter) FromGym(in interface{}) (anyvec.Vector, error) {
	num, ok := in.(float64)
	if !ok {
		return nil, fmt.Errorf("unexpected observation type: %T", in)
	}
	idx := int(num)
	if float64(idx) != num || idx < 0 || idx >= d.N {
		return nil, fmt.Errorf("observation %v out of range [0, %d)", num, d.N)
	}
	vec := make([]float64, d.N)
	vec[idx] = 1
	return d.Creator.MakeVectorData(d.Creator.MakeNumericList(vec)), nil
}
