package evaluator

import (
	"sync"

	"github.com/drivelab/driverl/algorithm"
	"github.com/drivelab/driverl/env"
)

// stubAlgorithm always emits action 0 and records every snapshot it loads.
// If loadGate is non-nil, LoadStateDict blocks until the gate is closed,
// which lets tests hold the worker in the "loading" state.
type stubAlgorithm struct {
	mu       sync.Mutex
	evalMode bool
	loaded   [][]byte
	loadGate chan struct{}
}

func (a *stubAlgorithm) Eval()  { a.evalMode = true }
func (a *stubAlgorithm) Train() { a.evalMode = false }

func (a *stubAlgorithm) InitialPredictState(batchSize int) algorithm.State {
	return nil
}

func (a *stubAlgorithm) Predict(ts env.TimeStep, state algorithm.State) ([]env.Action, algorithm.State) {
	actions := make([]env.Action, ts.BatchSize())
	for i := range actions {
		actions[i] = env.Action{0}
	}
	return actions, state
}

func (a *stubAlgorithm) StateDict() ([]byte, error) {
	return []byte(`{"stub":true}`), nil
}

func (a *stubAlgorithm) LoadStateDict(blob []byte) error {
	if a.loadGate != nil {
		<-a.loadGate
	}
	a.mu.Lock()
	a.loaded = append(a.loaded, blob)
	a.mu.Unlock()
	return nil
}

func (a *stubAlgorithm) loadedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.loaded)
}

// adjustableEnv is a scalar env with a settable episode length and
// terminal reward, shared through pointers so tests can move the target
// between rounds.
type adjustableEnv struct {
	length *int
	reward *float64
	step   int
}

func (e *adjustableEnv) Reset() env.Observation {
	e.step = 0
	return env.Observation{0}
}

func (e *adjustableEnv) Step(_ env.Action) (env.Observation, float64, bool) {
	e.step++
	if e.step >= *e.length {
		return env.Observation{1}, *e.reward, true
	}
	return env.Observation{0}, 0, false
}

func (e *adjustableEnv) ObservationSpec() env.Spec {
	return env.Spec{Shape: []int{1}}
}

func (e *adjustableEnv) Close() error { return nil }

// fixedParallel builds a batched env whose slot i runs episodes of
// exactly lengths[i] steps paying rewards[i] at termination.
func fixedParallel(lengths []int, rewards []float64) env.Environment {
	envs := make([]env.ScalarEnv, len(lengths))
	for i := range lengths {
		envs[i] = env.NewFixedLengthEnv(lengths[i], rewards[i])
	}
	p, err := env.NewParallelEnv(envs)
	if err != nil {
		panic(err)
	}
	return p
}
