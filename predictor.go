package anyeval

import (
	"errors"
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// A Predictor maps a batch of observations to a batch of
// action distributions.
//
// From the harness's point of view a Predictor is a pure
// function.
// A Predictor that is shared between workers must be safe
// for concurrent use; see Replicate.
type Predictor interface {
	Predict(obs anyvec.Vector, batch int) (anyvec.Vector, error)
}

// PredictorFunc is a Predictor backed by a function.
//
// If the same PredictorFunc is given to several workers,
// the function is called concurrently.
type PredictorFunc func(obs anyvec.Vector, batch int) (anyvec.Vector, error)

// Predict calls f.
func (f PredictorFunc) Predict(obs anyvec.Vector, batch int) (anyvec.Vector, error) {
	return f(obs, batch)
}

// A Resetter is a Predictor with per-episode state, such
// as an RNN.
// ResetState is called at the start of every episode.
type Resetter interface {
	ResetState()
}

// A Replicator is a Predictor which can produce an
// independent deep copy of itself.
type Replicator interface {
	Replicate() (Predictor, error)
}

// BlockPredictor is a Predictor which steps an RNN block.
//
// The block state carries over between calls to Predict
// until ResetState is called.
// A BlockPredictor is not safe for concurrent use.
type BlockPredictor struct {
	Block anyrnn.Block

	state anyrnn.State
	batch int
}

// Predict feeds the observations to the block.
func (b *BlockPredictor) Predict(obs anyvec.Vector, batch int) (anyvec.Vector, error) {
	if b.state == nil || b.batch != batch {
		b.state = b.Block.Start(batch)
		b.batch = batch
	}
	res := b.Block.Step(b.state, obs)
	b.state = res.State()
	return res.Output(), nil
}

// ResetState clears the block state.
func (b *BlockPredictor) ResetState() {
	b.state = nil
}

// Replicate copies the block with the serializer package.
func (b *BlockPredictor) Replicate() (pred Predictor, err error) {
	defer essentials.AddCtxTo("replicate BlockPredictor", &err)
	newBlock, err := serializer.Copy(b.Block)
	if err != nil {
		return nil, err
	}
	block, ok := newBlock.(anyrnn.Block)
	if !ok {
		return nil, fmt.Errorf("copied block has type %T", newBlock)
	}
	return &BlockPredictor{Block: block}, nil
}

// LayerPredictor is a Predictor which applies a
// feed-forward layer.
//
// Applying a layer does not mutate it, so a LayerPredictor
// may be shared as long as nobody trains the layer during
// evaluation.
type LayerPredictor struct {
	Layer anynet.Layer
}

// Predict applies the layer to the observations.
func (l *LayerPredictor) Predict(obs anyvec.Vector, batch int) (anyvec.Vector, error) {
	return l.Layer.Apply(anydiff.NewConst(obs), batch).Output(), nil
}

// Replicate copies the layer with the serializer package.
func (l *LayerPredictor) Replicate() (pred Predictor, err error) {
	defer essentials.AddCtxTo("replicate LayerPredictor", &err)
	newLayer, err := serializer.Copy(l.Layer)
	if err != nil {
		return nil, err
	}
	layer, ok := newLayer.(anynet.Layer)
	if !ok {
		return nil, fmt.Errorf("copied layer has type %T", newLayer)
	}
	return &LayerPredictor{Layer: layer}, nil
}

// Replicate produces n predictors, one per worker.
//
// If p is a Replicator, every worker gets its own copy.
// Otherwise, p itself is returned n times and must be safe
// for concurrent use.
func Replicate(p Predictor, n int) (preds []Predictor, err error) {
	defer essentials.AddCtxTo("replicate predictor", &err)
	if n <= 0 {
		return nil, errors.New("replica count must be positive")
	}
	r, ok := p.(Replicator)
	if !ok {
		for i := 0; i < n; i++ {
			preds = append(preds, p)
		}
		return preds, nil
	}
	preds = append(preds, p)
	for i := 1; i < n; i++ {
		replica, err := r.Replicate()
		if err != nil {
			return nil, err
		}
		preds = append(preds, replica)
	}
	return preds, nil
}
