package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_InfoField(t *testing.T) {
	r := &Record{Info: "DP=20;AO=9,3;INDEL;TYPE=snp"}

	v, ok := r.InfoField("DP")
	assert.True(t, ok)
	assert.Equal(t, "20", v)

	v, ok = r.InfoField("INDEL")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = r.InfoField("AF")
	assert.False(t, ok)

	// "DP" must not match the "NDP" suffix of another key.
	r2 := &Record{Info: "NDP=5"}
	_, ok = r2.InfoField("DP")
	assert.False(t, ok)
}

func TestRecord_InfoInt(t *testing.T) {
	r := &Record{Info: "DP=20;AO=9,3;BAD=x"}

	dp, ok := r.InfoInt("DP")
	assert.True(t, ok)
	assert.Equal(t, int64(20), dp)

	// Multi-valued keys sum across alleles.
	ao, ok := r.InfoInt("AO")
	assert.True(t, ok)
	assert.Equal(t, int64(12), ao)

	_, ok = r.InfoInt("BAD")
	assert.False(t, ok)
	_, ok = r.InfoInt("MISSING")
	assert.False(t, ok)
}

func TestRecord_SetSampleField(t *testing.T) {
	r := &Record{
		Format:  []string{"GT", "DP"},
		Samples: [][]string{{"0/1", "20"}},
	}

	r.SetSampleField(0, "GT", "0/0")
	gt, ok := r.SampleField(0, "GT")
	require.True(t, ok)
	assert.Equal(t, "0/0", gt)

	// Undeclared keys are appended to FORMAT and padded in.
	r.SetSampleField(0, "GQ", "99")
	assert.Equal(t, []string{"GT", "DP", "GQ"}, r.Format)
	gq, ok := r.SampleField(0, "GQ")
	require.True(t, ok)
	assert.Equal(t, "99", gq)
}

func TestRecord_String(t *testing.T) {
	r := &Record{
		Chrom:   "chr1",
		Pos:     100,
		Ref:     "A",
		Alt:     []string{"T", "G"},
		Qual:    50.5,
		Filter:  "PASS",
		Info:    "DP=20",
		Format:  []string{"GT"},
		Samples: [][]string{{"0/1"}, {"1/2"}},
	}
	assert.Equal(t, "chr1\t100\t.\tA\tT,G\t50.5\tPASS\tDP=20\tGT\t0/1\t1/2", r.String())

	noCall := &Record{Chrom: "chr2", Pos: 5, Ref: "N", Qual: MissingQual}
	assert.Equal(t, "chr2\t5\t.\tN\t.\t.\t.\t.", noCall.String())
}

func TestSplitGenotype(t *testing.T) {
	assert.Equal(t, []string{"0", "1"}, SplitGenotype("0/1"))
	assert.Equal(t, []string{"1", "2"}, SplitGenotype("1|2"))
	assert.Equal(t, []string{"1"}, SplitGenotype("1"))
	assert.Equal(t, []string{".", "."}, SplitGenotype("./."))
	assert.Equal(t, []string{"0", "1", "1"}, SplitGenotype("0/1|1"))
}
