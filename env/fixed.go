package env

import "lukechampine.com/frand"

// FixedLengthEnv is a scalar environment that terminates after exactly
// `length` steps, paying `terminalReward` on the terminal step and zero
// otherwise. It ignores actions. Useful for deterministic evaluation
// checks and as a placeholder world in the demo binaries.
type FixedLengthEnv struct {
	length         int
	terminalReward float64
	step           int
}

func NewFixedLengthEnv(length int, terminalReward float64) *FixedLengthEnv {
	return &FixedLengthEnv{length: length, terminalReward: terminalReward}
}

func (f *FixedLengthEnv) Reset() Observation {
	f.step = 0
	return f.observe()
}

func (f *FixedLengthEnv) Step(_ Action) (Observation, float64, bool) {
	f.step++
	if f.step >= f.length {
		return f.observe(), f.terminalReward, true
	}
	return f.observe(), 0, false
}

func (f *FixedLengthEnv) ObservationSpec() Spec {
	return Spec{Shape: []int{1}}
}

func (f *FixedLengthEnv) Close() error {
	return nil
}

func (f *FixedLengthEnv) observe() Observation {
	return Observation{float64(f.step) / float64(f.length)}
}

// NoisyFixedLengthEnv behaves like FixedLengthEnv but jitters the terminal
// reward, so repeated evaluation rounds produce distinguishable averages.
type NoisyFixedLengthEnv struct {
	FixedLengthEnv
	noise float64
	rng   *frand.RNG
}

func NewNoisyFixedLengthEnv(length int, terminalReward, noise float64, seed uint64) *NoisyFixedLengthEnv {
	var key [32]byte
	for i := 0; i < 8; i++ {
		key[i] = byte(seed >> (8 * i))
	}
	return &NoisyFixedLengthEnv{
		FixedLengthEnv: FixedLengthEnv{length: length, terminalReward: terminalReward},
		noise:          noise,
		rng:            frand.NewCustom(key[:], 64, 12),
	}
}

func (n *NoisyFixedLengthEnv) Step(a Action) (Observation, float64, bool) {
	obs, reward, done := n.FixedLengthEnv.Step(a)
	if done {
		reward += (n.rng.Float64()*2 - 1) * n.noise
	}
	return obs, reward, done
}
