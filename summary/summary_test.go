package summary

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivelab/driverl/env"
	"github.com/drivelab/driverl/metrics"
)

func completedReturnMetric(t *testing.T, episodeReturns ...float64) metrics.StepMetric {
	t.Helper()
	m := metrics.NewAverageReturnMetric(len(episodeReturns), 1)
	for _, r := range episodeReturns {
		m.Update(env.TimeStep{StepTypes: []env.StepType{env.StepFirst}, Rewards: []float64{0}})
		m.Update(env.TimeStep{StepTypes: []env.StepType{env.StepLast}, Rewards: []float64{r}})
	}
	return m
}

func TestWriteThenRead(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root, false)
	require.NoError(t, err)

	steps := map[string]int64{"EnvironmentSteps": 1000}
	require.NoError(t, w.Write(5, steps, []metrics.StepMetric{completedReturnMetric(t, 1, 3)}))
	require.NoError(t, w.Write(6, map[string]int64{"EnvironmentSteps": 2000},
		[]metrics.StepMetric{completedReturnMetric(t, 5)}))
	require.NoError(t, w.Close())

	recs, err := Read(filepath.Join(root, "eval", "summaries.jsonl"))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, int64(5), recs[0].GlobalCounter)
	assert.Equal(t, metrics.AverageReturnName, recs[0].Metric)
	assert.InDelta(t, 2.0, recs[0].Value, 1e-9)
	assert.Equal(t, 2, recs[0].Episodes)
	assert.Equal(t, int64(1000), recs[0].StepMetrics["EnvironmentSteps"])

	assert.Equal(t, int64(6), recs[1].GlobalCounter)
	assert.InDelta(t, 5.0, recs[1].Value, 1e-9)
}

func TestCompressedRoundTrip(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root, true)
	require.NoError(t, err)
	require.NoError(t, w.Write(1, nil, []metrics.StepMetric{completedReturnMetric(t, 2)}))
	require.NoError(t, w.Close())

	recs, err := Read(filepath.Join(root, "eval", "summaries.jsonl.gz"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 2.0, recs[0].Value, 1e-9)
}

func TestWriteAfterClose(t *testing.T) {
	w, err := NewWriter(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.Write(1, nil, []metrics.StepMetric{completedReturnMetric(t, 1)}))
	assert.NoError(t, w.Close())
}
