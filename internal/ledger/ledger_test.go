package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndQueryUnits(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	first := UnitResult{
		Sample: "S2", Region: "chr1:1-1000", Caller: "freebayes",
		Targets: 5, Kept: 3, DemotedRef: 1, DemotedNoCall: 1,
		WallTime: 1500 * time.Millisecond,
	}
	second := UnitResult{
		Sample: "S1", Region: "chr1:1-1000", Caller: "freebayes",
		Resumed: true,
	}
	require.NoError(t, s.RecordUnit(first))
	require.NoError(t, s.RecordUnit(second))

	units, err := s.Units()
	require.NoError(t, err)
	require.Len(t, units, 2)

	// Ordered by region then sample.
	assert.Equal(t, "S1", units[0].Sample)
	assert.True(t, units[0].Resumed)
	assert.Equal(t, "S2", units[1].Sample)
	assert.Equal(t, first.Targets, units[1].Targets)
	assert.Equal(t, first.Kept, units[1].Kept)
	assert.Equal(t, first.DemotedRef, units[1].DemotedRef)
	assert.Equal(t, first.DemotedNoCall, units[1].DemotedNoCall)
	assert.Equal(t, first.WallTime, units[1].WallTime)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	units, err := s.Units()
	require.NoError(t, err)
	assert.Empty(t, units)
}
