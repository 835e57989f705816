// Package algorithm defines the trainable-policy surface the evaluator
// drives, and a small linear-softmax policy used by the demo binaries.
package algorithm

import "github.com/drivelab/driverl/env"

// State is the policy's recurrent predict state, threaded through Predict
// calls. Stateless policies return nil.
type State any

// Algorithm is the trainable policy. The evaluator only ever calls the
// evaluation-side methods; parameters are mutated exclusively through
// LoadStateDict.
type Algorithm interface {
	// Eval switches the policy to evaluation mode (deterministic where
	// applicable). Train switches it back.
	Eval()
	Train()
	// Predict maps one batched time step to one action per slot, along
	// with the next predict state.
	Predict(ts env.TimeStep, state State) ([]env.Action, State)
	// InitialPredictState returns the predict state for a fresh batch.
	InitialPredictState(batchSize int) State
	// StateDict serializes the full parameter state.
	StateDict() ([]byte, error)
	// LoadStateDict replaces the full parameter state with a snapshot
	// produced by StateDict.
	LoadStateDict(blob []byte) error
}
