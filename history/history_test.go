package history

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "eval", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndQueryRounds(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.RecordRound(0, 0, map[string]float64{
		"AverageReturn":        1.0,
		"AverageEpisodeLength": 10.0,
	}, false))
	require.NoError(t, s.RecordRound(100, 5000, map[string]float64{
		"AverageReturn":        2.5,
		"AverageEpisodeLength": 12.0,
	}, true))

	rounds, err := s.Rounds("AverageReturn")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, int64(0), rounds[0].GlobalCounter)
	assert.InDelta(t, 1.0, rounds[0].Value, 1e-9)
	assert.False(t, rounds[0].Best)
	assert.Equal(t, int64(100), rounds[1].GlobalCounter)
	assert.Equal(t, int64(5000), rounds[1].EnvSteps)
	assert.True(t, rounds[1].Best)
}

func TestBestRound(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.RecordRound(1, 100, map[string]float64{"AverageReturn": 1.0}, true))
	require.NoError(t, s.RecordRound(2, 200, map[string]float64{"AverageReturn": 0.5}, false))
	require.NoError(t, s.RecordRound(3, 300, map[string]float64{"AverageReturn": 2.0}, true))

	best, err := s.BestRound("AverageReturn")
	require.NoError(t, err)
	assert.Equal(t, int64(3), best.GlobalCounter)
	assert.InDelta(t, 2.0, best.Value, 1e-9)
}

func TestBestRoundEmpty(t *testing.T) {
	s := openStore(t)
	_, err := s.BestRound("AverageReturn")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordRound(7, 700, map[string]float64{"AverageReturn": 3.0}, false))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	rounds, err := s.Rounds("AverageReturn")
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, int64(7), rounds[0].GlobalCounter)
}
