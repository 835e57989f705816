package metrics

import (
	"testing"

	"github.com/matryer/is"

	"github.com/drivelab/driverl/env"
)

func step(types []env.StepType, rewards []float64) env.TimeStep {
	return env.TimeStep{
		StepTypes: types,
		Rewards:   rewards,
		Discounts: make([]float64, len(types)),
	}
}

func TestAverageReturnAcrossEpisodes(t *testing.T) {
	is := is.New(t)

	m := NewAverageReturnMetric(10, 1)

	// Episode 1: rewards 1, 2, 3. Episode 2: rewards 0, 0, 10.
	script := []struct {
		st env.StepType
		r  float64
	}{
		{env.StepFirst, 0}, {env.StepMid, 1}, {env.StepMid, 2}, {env.StepLast, 3},
		{env.StepFirst, 0}, {env.StepMid, 0}, {env.StepMid, 0}, {env.StepLast, 10},
	}
	for _, s := range script {
		m.Update(step([]env.StepType{s.st}, []float64{s.r}))
	}

	is.Equal(m.Episodes(), 2)
	is.True(FuzzyEqual(m.Result(), 8.0)) // (6 + 10) / 2
	is.Equal(m.Samples(), []float64{6, 10})
}

func TestForcedFirstFreezesSlot(t *testing.T) {
	is := is.New(t)

	// Slot 1 is held at FIRST after its quota; nothing it does afterwards
	// may reach the buffer.
	m := NewAverageReturnMetric(10, 2)
	m.Update(step([]env.StepType{env.StepFirst, env.StepFirst}, []float64{0, 0}))
	m.Update(step([]env.StepType{env.StepLast, env.StepFirst}, []float64{5, 100}))
	m.Update(step([]env.StepType{env.StepFirst, env.StepFirst}, []float64{0, 100}))
	m.Update(step([]env.StepType{env.StepLast, env.StepFirst}, []float64{7, 100}))

	is.Equal(m.Episodes(), 2)
	is.True(FuzzyEqual(m.Result(), 6.0))
}

func TestAverageEpisodeLength(t *testing.T) {
	is := is.New(t)

	m := NewAverageEpisodeLengthMetric(10, 1)
	for _, st := range []env.StepType{
		env.StepFirst, env.StepMid, env.StepLast, // 2 transitions
		env.StepFirst, env.StepMid, env.StepMid, env.StepMid, env.StepLast, // 4
	} {
		m.Update(step([]env.StepType{st}, []float64{0}))
	}

	is.Equal(m.Episodes(), 2)
	is.True(FuzzyEqual(m.Result(), 3.0))
}

func TestAverageDiscountedReturn(t *testing.T) {
	is := is.New(t)

	// gamma=0.5, rewards 1 then 1: 1*1 + 0.5*1 = 1.5.
	m := NewAverageDiscountedReturnMetric(10, 1, 0.5)
	m.Update(step([]env.StepType{env.StepFirst}, []float64{0}))
	m.Update(step([]env.StepType{env.StepMid}, []float64{1}))
	m.Update(step([]env.StepType{env.StepLast}, []float64{1}))

	is.Equal(m.Episodes(), 1)
	is.True(FuzzyEqual(m.Result(), 1.5))
}

func TestAverageReward(t *testing.T) {
	is := is.New(t)

	m := NewAverageRewardMetric(10, 1)
	m.Update(step([]env.StepType{env.StepFirst}, []float64{0}))
	m.Update(step([]env.StepType{env.StepMid}, []float64{2}))
	m.Update(step([]env.StepType{env.StepLast}, []float64{4}))

	is.True(FuzzyEqual(m.Result(), 3.0)) // (2 + 4) / 2 transitions
}

func TestBufferRingOverwrite(t *testing.T) {
	is := is.New(t)

	b := NewBuffer(3)
	for _, v := range []float64{1, 2, 3} {
		b.Add(v)
	}
	is.Equal(b.Len(), 3)
	is.Equal(b.Values(), []float64{1, 2, 3})

	// A fourth value evicts the oldest.
	b.Add(4)
	is.Equal(b.Len(), 3)
	is.Equal(b.Values(), []float64{2, 3, 4})
	is.True(FuzzyEqual(b.Mean(), 3.0))

	b.Reset()
	is.Equal(b.Len(), 0)
	is.True(FuzzyEqual(b.Mean(), 0))
}

func TestStatistic(t *testing.T) {
	is := is.New(t)

	s := Statistic{}
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Push(v)
	}
	is.Equal(s.Iterations(), 8)
	is.True(FuzzyEqual(s.Mean(), 5.0))
	is.True(FuzzyEqual(s.Variance(), 32.0/7.0))
	is.True(FuzzyEqual(s.Last(), 9.0))
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(float64(int(ZVal(95)*100))/100.0, 1.95))
	is.True(FuzzyEqual(float64(int(ZVal(99)*100))/100.0, 2.57))
}
