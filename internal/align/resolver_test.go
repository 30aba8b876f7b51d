package align

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner serves canned `samtools view -H` output per alignment path
// and counts header scans.
type fakeRunner struct {
	headers map[string]string
	scans   int
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	return nil
}

func (f *fakeRunner) RunToFile(ctx context.Context, outPath, name string, args ...string) error {
	return nil
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.scans++
	path := args[len(args)-1]
	h, ok := f.headers[path]
	if !ok {
		return nil, fmt.Errorf("no header for %s", path)
	}
	return []byte(h), nil
}

func TestResolve_ScanAndCacheHit(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{headers: map[string]string{
		"a.bam": "@HD\tVN:1.6\n@RG\tID:rg1\tSM:NA12878\tPL:illumina\n",
		"b.bam": "@RG\tID:rg2\tSM:NA12891\n@RG\tID:rg3\tSM:NA12892\n",
	}}

	rs := NewResolver(runner)
	m, err := rs.Resolve(context.Background(), []string{"a.bam", "b.bam"}, "ref.fa", dir)
	require.NoError(t, err)

	assert.Equal(t, Map{
		"NA12878": {Path: "a.bam", Kind: BAM},
		"NA12891": {Path: "b.bam", Kind: BAM},
		"NA12892": {Path: "b.bam", Kind: BAM},
	}, m)
	assert.Equal(t, 2, runner.scans)

	// Second resolution of the same set must come from the cache without
	// re-scanning any header.
	m2, err := rs.Resolve(context.Background(), []string{"a.bam", "b.bam"}, "ref.fa", dir)
	require.NoError(t, err)
	assert.Equal(t, m, m2)
	assert.Equal(t, 2, runner.scans)
}

func TestResolve_FingerprintSensitivity(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{headers: map[string]string{
		"a.bam": "@RG\tID:rg1\tSM:S1\n",
		"b.bam": "@RG\tID:rg2\tSM:S2\n",
	}}

	rs := NewResolver(runner)
	_, err := rs.Resolve(context.Background(), []string{"a.bam"}, "ref.fa", dir)
	require.NoError(t, err)
	assert.Equal(t, 1, runner.scans)

	// Different count: fresh resolution.
	_, err = rs.Resolve(context.Background(), []string{"a.bam", "b.bam"}, "ref.fa", dir)
	require.NoError(t, err)
	assert.Equal(t, 3, runner.scans)

	// Different first path: fresh resolution.
	_, err = rs.Resolve(context.Background(), []string{"b.bam"}, "ref.fa", dir)
	require.NoError(t, err)
	assert.Equal(t, 4, runner.scans)
}

func TestResolve_DuplicateSampleLastWins(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{headers: map[string]string{
		"old.bam": "@RG\tID:rg1\tSM:S1\n",
		"new.bam": "@RG\tID:rg2\tSM:S1\n",
	}}

	rs := NewResolver(runner)
	m, err := rs.Resolve(context.Background(), []string{"old.bam", "new.bam"}, "ref.fa", dir)
	require.NoError(t, err)
	assert.Equal(t, Source{Path: "new.bam", Kind: BAM}, m["S1"])
}

func TestResolve_NoSampleTag(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{headers: map[string]string{
		"a.bam": "@HD\tVN:1.6\n",
	}}

	rs := NewResolver(runner)
	_, err := rs.Resolve(context.Background(), []string{"a.bam"}, "ref.fa", dir)
	assert.ErrorContains(t, err, "no @RG SM sample")
}

func TestResolve_CachePersistedFormat(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{headers: map[string]string{
		"a.bam": "@RG\tID:rg1\tSM:S1\n",
	}}

	rs := NewResolver(runner)
	files := []string{"a.bam"}
	m, err := rs.Resolve(context.Background(), files, "ref.fa", dir)
	require.NoError(t, err)

	// The persisted mapping round-trips through its on-disk format.
	cached, err := loadCache(filepath.Join(dir, "sample-alignments-"+Fingerprint(files)+".json"))
	require.NoError(t, err)
	assert.Equal(t, m, cached)
}

func TestResolve_Empty(t *testing.T) {
	rs := NewResolver(&fakeRunner{})
	m, err := rs.Resolve(context.Background(), nil, "ref.fa", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, CRAM, KindOf("reads.cram"))
	assert.Equal(t, CRAM, KindOf("reads.CRAM"))
	assert.Equal(t, BAM, KindOf("reads.bam"))
	assert.True(t, IsAlignmentFile("x.bam"))
	assert.True(t, IsAlignmentFile("x.cram"))
	assert.False(t, IsAlignmentFile("x.vcf"))
}
