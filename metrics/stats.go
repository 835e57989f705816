package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Epsilon is the tolerance used when comparing metric results.
const Epsilon = 1e-6

// FuzzyEqual reports whether two metric values agree within Epsilon.
func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// ZVal returns the two-tailed z-value for a confidence interval given in
// percent, e.g. ZVal(95) for the bound logged next to each metric result.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	return dist.Quantile(area)
}

// Z95 and Z99 are the z-values for the confidence bounds the evaluator
// logs with each metric.
var (
	Z95 = ZVal(95)
	Z99 = ZVal(99)
)

// Statistic accumulates a running mean and variance over per-episode
// samples (Welford's algorithm). It backs the standard errors reported
// alongside each evaluation metric.
type Statistic struct {
	totalIterations int
	last            float64

	oldM float64
	newM float64
	oldS float64
	newS float64
}

func (s *Statistic) Push(val float64) {
	s.last = val
	s.totalIterations++
	if s.totalIterations == 1 {
		s.oldM = val
		s.newM = val
		s.oldS = 0
	} else {
		s.newM = s.oldM + (val-s.oldM)/float64(s.totalIterations)
		s.newS = s.oldS + (val-s.oldM)*(val-s.newM)
		s.oldM = s.newM
		s.oldS = s.newS
	}
}

func (s *Statistic) Mean() float64 {
	if s.totalIterations > 0 {
		return s.newM
	}
	return 0.0
}

func (s *Statistic) Variance() float64 {
	if s.totalIterations <= 1 {
		return 0.0
	}
	return s.newS / float64(s.totalIterations-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Last() float64 {
	return s.last
}

// StandardError returns the standard error of the mean, 0 before any
// sample arrives.
func (s *Statistic) StandardError() float64 {
	if s.totalIterations == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.totalIterations))
}

func (s *Statistic) Iterations() int {
	return s.totalIterations
}
