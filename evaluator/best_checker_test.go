package evaluator

import (
	"testing"

	"github.com/matryer/is"

	"github.com/drivelab/driverl/env"
	"github.com/drivelab/driverl/metrics"
)

// fixedMetric reports a constant result under a given name.
type fixedMetric struct {
	name  string
	value float64
}

func (m *fixedMetric) Name() string          { return m.name }
func (m *fixedMetric) Update(_ env.TimeStep) {}
func (m *fixedMetric) Result() float64       { return m.value }
func (m *fixedMetric) Reset()                {}

func TestBestCheckerMonotonicity(t *testing.T) {
	is := is.New(t)

	checker := NewBestEvalChecker("")

	type round struct {
		counter int64
		value   float64
		best    bool
	}
	// The round at counter 0 is the untrained baseline: recorded, never
	// best. Afterwards only strict improvements over the running max win.
	rounds := []round{
		{0, 5.0, false},
		{1, 4.0, false},
		{2, 5.0, false}, // ties the baseline, not strictly greater
		{3, 6.0, true},
		{4, 6.0, false},
		{5, 5.5, false},
		{6, 7.0, true},
	}
	for _, r := range rounds {
		got, err := checker.Check(r.counter, []metrics.StepMetric{
			&fixedMetric{name: metrics.AverageReturnName, value: r.value},
		})
		is.NoErr(err)
		is.Equal(got, r.best) // counter=r.counter value=r.value
	}
	is.True(metrics.FuzzyEqual(checker.Best(), 7.0))
}

func TestBestCheckerMissingMetric(t *testing.T) {
	is := is.New(t)

	checker := NewBestEvalChecker("AverageSpeed")
	_, err := checker.Check(1, []metrics.StepMetric{
		&fixedMetric{name: metrics.AverageReturnName, value: 1.0},
	})
	is.True(err != nil)
}

func TestBestCheckerFirstRoundPastZeroCounter(t *testing.T) {
	is := is.New(t)

	// Resumed training: if the first round the checker ever sees is past
	// counter 0, any finite value beats the initial -inf.
	checker := NewBestEvalChecker("")
	got, err := checker.Check(10, []metrics.StepMetric{
		&fixedMetric{name: metrics.AverageReturnName, value: -3.0},
	})
	is.NoErr(err)
	is.True(got)
}
