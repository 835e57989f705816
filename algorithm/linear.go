package algorithm

import (
	"encoding/json"
	"fmt"
	"math"

	"lukechampine.com/frand"

	"github.com/drivelab/driverl/env"
)

// LinearWeights are the JSON-serializable parameters of a LinearPolicy.
type LinearWeights struct {
	// W has shape [numActions][obsDim].
	W [][]float64 `json:"w"`
	B []float64   `json:"b"`
}

// LinearPolicy is a linear-softmax policy over a discrete action set. In
// training mode it samples from the softmax; in evaluation mode it takes
// the argmax, so evaluation rounds are deterministic for a fixed
// environment.
type LinearPolicy struct {
	weights  LinearWeights
	evalMode bool
	rng      *frand.RNG
}

func NewLinearPolicy(obsDim, numActions int) *LinearPolicy {
	w := make([][]float64, numActions)
	for i := range w {
		w[i] = make([]float64, obsDim)
	}
	return &LinearPolicy{
		weights: LinearWeights{W: w, B: make([]float64, numActions)},
		rng:     frand.New(),
	}
}

func (p *LinearPolicy) Eval()  { p.evalMode = true }
func (p *LinearPolicy) Train() { p.evalMode = false }

func (p *LinearPolicy) InitialPredictState(batchSize int) State {
	return nil
}

func (p *LinearPolicy) Predict(ts env.TimeStep, state State) ([]env.Action, State) {
	actions := make([]env.Action, ts.BatchSize())
	for i, obs := range ts.Observations {
		logits := make([]float64, len(p.weights.W))
		for a := range p.weights.W {
			logits[a] = p.weights.B[a]
			for j := 0; j < len(obs) && j < len(p.weights.W[a]); j++ {
				logits[a] += p.weights.W[a][j] * obs[j]
			}
		}
		var choice int
		if p.evalMode {
			choice = argmax(logits)
		} else {
			choice = sampleCategorical(softmax(logits), p.rng)
		}
		actions[i] = env.Action{float64(choice)}
	}
	return actions, state
}

func (p *LinearPolicy) StateDict() ([]byte, error) {
	return json.Marshal(p.weights)
}

func (p *LinearPolicy) LoadStateDict(blob []byte) error {
	var w LinearWeights
	if err := json.Unmarshal(blob, &w); err != nil {
		return fmt.Errorf("loading linear policy state: %w", err)
	}
	if len(w.W) != len(p.weights.W) {
		return fmt.Errorf("state dict has %d actions, policy has %d", len(w.W), len(p.weights.W))
	}
	p.weights = w
	return nil
}

// SetWeights replaces the parameters directly; the trainer side uses this
// between rounds in the demo.
func (p *LinearPolicy) SetWeights(w LinearWeights) {
	p.weights = w
}

func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	values := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		values[i] = math.Exp(v - maxLogit)
		sum += values[i]
	}
	for i := range values {
		values[i] /= sum
	}
	return values
}

func sampleCategorical(probs []float64, rng *frand.RNG) int {
	threshold := rng.Float64()
	var cumulative float64
	for i, prob := range probs {
		cumulative += prob
		if threshold <= cumulative {
			return i
		}
	}
	return len(probs) - 1
}

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
