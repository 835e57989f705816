package evaluator

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/drivelab/driverl/metrics"
)

// BestEvalChecker decides whether one round's metrics are the best seen so
// far. The running best is monotonically non-decreasing once past the
// first round.
//
// The first invocation at global counter 0 is the untrained, randomly
// initialized model: it records the observed value as the baseline but is
// deliberately never itself "best". This is policy, not an edge-case bug;
// do not fix it away.
type BestEvalChecker struct {
	metricName string
	bestMetric float64
}

// NewBestEvalChecker tracks the metric with the given name, defaulting to
// the average-return metric. Metric results here are scalar, so the name
// selects a whole metric; there is no sub-field selection for
// vector-valued results.
func NewBestEvalChecker(metricName string) *BestEvalChecker {
	if metricName == "" {
		metricName = metrics.AverageReturnName
	}
	return &BestEvalChecker{
		metricName: metricName,
		bestMetric: math.Inf(-1),
	}
}

// Check returns whether this round is a new best. A missing metric of the
// configured name is a configuration bug, reported as an error.
func (c *BestEvalChecker) Check(globalCounter int64, ms []metrics.StepMetric) (bool, error) {
	m, ok := lo.Find(ms, func(m metrics.StepMetric) bool {
		return m.Name() == c.metricName
	})
	if !ok {
		return false, fmt.Errorf("no metric named %q in the evaluation results", c.metricName)
	}
	value := m.Result()
	if globalCounter == 0 {
		c.bestMetric = value
		return false, nil
	}
	if value > c.bestMetric {
		c.bestMetric = value
		return true, nil
	}
	return false, nil
}

// Best returns the running best value.
func (c *BestEvalChecker) Best() float64 {
	return c.bestMetric
}
