package env

// StepType marks where a time step falls within an episode.
type StepType int8

const (
	// StepFirst is the step produced by a reset; it carries no reward.
	StepFirst StepType = iota
	// StepMid is any step strictly inside an episode.
	StepMid
	// StepLast is the terminal step of an episode.
	StepLast
)

func (st StepType) String() string {
	switch st {
	case StepFirst:
		return "FIRST"
	case StepMid:
		return "MID"
	case StepLast:
		return "LAST"
	}
	return "UNKNOWN"
}

// Action is one action for one environment slot.
type Action []float64

// TimeStep is one batched observation of the environment. All slices have
// length BatchSize. Rewards are the rewards for the action that produced
// this step; a FIRST step always has reward 0.
type TimeStep struct {
	StepTypes    []StepType
	Rewards      []float64
	Discounts    []float64
	Observations []Observation
}

// Observation is the flattened observation tensor for one slot.
type Observation []float64

func (ts TimeStep) BatchSize() int {
	return len(ts.StepTypes)
}

// Clone makes a deep copy of the step types and a shallow copy of the rest.
// The rollout loop overrides step types on a copy so that metrics do not
// see episodes past a slot's quota; rewards and observations are never
// mutated, so sharing them is fine.
func (ts TimeStep) Clone() TimeStep {
	cp := ts
	cp.StepTypes = make([]StepType, len(ts.StepTypes))
	copy(cp.StepTypes, ts.StepTypes)
	return cp
}

// Spec describes the shape of one slot's observation.
type Spec struct {
	Shape []int
}

// NumElements returns the flattened observation size.
func (s Spec) NumElements() int {
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	if len(s.Shape) == 0 {
		return 0
	}
	return n
}
