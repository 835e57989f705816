// Package metrics implements accumulating episode statistics fed by the
// evaluation rollout loop. Metrics update once per batched time step and
// only commit a value to their buffer when a slot's episode completes, so
// forcing a slot's step type to FIRST freezes its contribution.
package metrics

import "github.com/drivelab/driverl/env"

// Canonical metric names, used for summary records and best-checkpoint
// selection.
const (
	AverageReturnName           = "AverageReturn"
	AverageEpisodeLengthName    = "AverageEpisodeLength"
	AverageDiscountedReturnName = "AverageDiscountedReturn"
	AverageRewardName           = "AverageReward"
)

// StepMetric is an accumulating statistic over episodes.
type StepMetric interface {
	Name() string
	// Update consumes one batched time step.
	Update(ts env.TimeStep)
	// Result returns the current aggregate over buffered episodes.
	Result() float64
	Reset()
}

// Sampler is implemented by metrics that expose their raw per-episode
// samples, for confidence-interval logging.
type Sampler interface {
	Samples() []float64
}

type episodicBase struct {
	name   string
	buffer *Buffer
}

func (b *episodicBase) Name() string {
	return b.name
}

func (b *episodicBase) Result() float64 {
	return b.buffer.Mean()
}

func (b *episodicBase) Samples() []float64 {
	return b.buffer.Values()
}

// Episodes returns how many completed episodes are buffered.
func (b *episodicBase) Episodes() int {
	return b.buffer.Len()
}

// AverageReturnMetric averages the undiscounted episode return.
type AverageReturnMetric struct {
	episodicBase
	returns []float64
}

func NewAverageReturnMetric(bufferSize, batchSize int) *AverageReturnMetric {
	return &AverageReturnMetric{
		episodicBase: episodicBase{name: AverageReturnName, buffer: NewBuffer(bufferSize)},
		returns:      make([]float64, batchSize),
	}
}

func (m *AverageReturnMetric) Update(ts env.TimeStep) {
	for i, st := range ts.StepTypes {
		switch st {
		case env.StepFirst:
			m.returns[i] = 0
		case env.StepMid:
			m.returns[i] += ts.Rewards[i]
		case env.StepLast:
			m.returns[i] += ts.Rewards[i]
			m.buffer.Add(m.returns[i])
			m.returns[i] = 0
		}
	}
}

func (m *AverageReturnMetric) Reset() {
	m.buffer.Reset()
	for i := range m.returns {
		m.returns[i] = 0
	}
}

// AverageEpisodeLengthMetric averages the number of transitions per episode.
type AverageEpisodeLengthMetric struct {
	episodicBase
	lengths []int
}

func NewAverageEpisodeLengthMetric(bufferSize, batchSize int) *AverageEpisodeLengthMetric {
	return &AverageEpisodeLengthMetric{
		episodicBase: episodicBase{name: AverageEpisodeLengthName, buffer: NewBuffer(bufferSize)},
		lengths:      make([]int, batchSize),
	}
}

func (m *AverageEpisodeLengthMetric) Update(ts env.TimeStep) {
	for i, st := range ts.StepTypes {
		switch st {
		case env.StepFirst:
			m.lengths[i] = 0
		case env.StepMid:
			m.lengths[i]++
		case env.StepLast:
			m.lengths[i]++
			m.buffer.Add(float64(m.lengths[i]))
			m.lengths[i] = 0
		}
	}
}

func (m *AverageEpisodeLengthMetric) Reset() {
	m.buffer.Reset()
	for i := range m.lengths {
		m.lengths[i] = 0
	}
}

// AverageDiscountedReturnMetric averages the gamma-discounted episode
// return, discounting from the start of each episode.
type AverageDiscountedReturnMetric struct {
	episodicBase
	gamma   float64
	returns []float64
	pows    []float64
}

func NewAverageDiscountedReturnMetric(bufferSize, batchSize int, gamma float64) *AverageDiscountedReturnMetric {
	m := &AverageDiscountedReturnMetric{
		episodicBase: episodicBase{name: AverageDiscountedReturnName, buffer: NewBuffer(bufferSize)},
		gamma:        gamma,
		returns:      make([]float64, batchSize),
		pows:         make([]float64, batchSize),
	}
	for i := range m.pows {
		m.pows[i] = 1
	}
	return m
}

func (m *AverageDiscountedReturnMetric) Update(ts env.TimeStep) {
	for i, st := range ts.StepTypes {
		switch st {
		case env.StepFirst:
			m.returns[i] = 0
			m.pows[i] = 1
		case env.StepMid:
			m.returns[i] += m.pows[i] * ts.Rewards[i]
			m.pows[i] *= m.gamma
		case env.StepLast:
			m.returns[i] += m.pows[i] * ts.Rewards[i]
			m.buffer.Add(m.returns[i])
			m.returns[i] = 0
			m.pows[i] = 1
		}
	}
}

func (m *AverageDiscountedReturnMetric) Reset() {
	m.buffer.Reset()
	for i := range m.returns {
		m.returns[i] = 0
		m.pows[i] = 1
	}
}

// AverageRewardMetric averages the per-step reward within each episode.
type AverageRewardMetric struct {
	episodicBase
	sums  []float64
	steps []int
}

func NewAverageRewardMetric(bufferSize, batchSize int) *AverageRewardMetric {
	return &AverageRewardMetric{
		episodicBase: episodicBase{name: AverageRewardName, buffer: NewBuffer(bufferSize)},
		sums:         make([]float64, batchSize),
		steps:        make([]int, batchSize),
	}
}

func (m *AverageRewardMetric) Update(ts env.TimeStep) {
	for i, st := range ts.StepTypes {
		switch st {
		case env.StepFirst:
			m.sums[i] = 0
			m.steps[i] = 0
		case env.StepMid:
			m.sums[i] += ts.Rewards[i]
			m.steps[i]++
		case env.StepLast:
			m.sums[i] += ts.Rewards[i]
			m.steps[i]++
			m.buffer.Add(m.sums[i] / float64(m.steps[i]))
			m.sums[i] = 0
			m.steps[i] = 0
		}
	}
}

func (m *AverageRewardMetric) Reset() {
	m.buffer.Reset()
	for i := range m.sums {
		m.sums[i] = 0
		m.steps[i] = 0
	}
}
