package caller

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantops/vcfsquare/internal/region"
	"github.com/variantops/vcfsquare/internal/vcf"
)

func writeRaw(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "raw.vcf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func targetSet(keys ...vcf.Key) vcf.PositionSet {
	s := make(vcf.PositionSet)
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func readAll(t *testing.T, path string) []*vcf.Record {
	t.Helper()
	p, err := vcf.NewParser(path)
	require.NoError(t, err)
	defer p.Close()
	var out []*vcf.Record
	for {
		r, err := p.Next()
		require.NoError(t, err)
		if r == nil {
			return out
		}
		out = append(out, r)
	}
}

const rawHeader = `##fileformat=VCFv4.2
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	unknown
`

func TestPostProcess_RestrictedToTargets(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir, rawHeader+
		"chr1\t100\t.\tA\tT\t90\t.\tDP=30;AO=20\tGT\t0/1\n"+
		"chr1\t105\t.\tG\tC\t90\t.\tDP=30;AO=20\tGT\t0/1\n") // 105 not requested

	req := Request{
		Sample:  "S1",
		Region:  region.Region{Chrom: "chr1", Start: 1, End: 200},
		Targets: targetSet(vcf.Key{Chrom: "chr1", Pos: 100}, vcf.Key{Chrom: "chr1", Pos: 150}),
	}
	out := filepath.Join(dir, "out.vcf")
	require.NoError(t, postProcess(raw, out, req, postOptions{
		thresholds: freebayesThresholds,
		evidence:   freebayesEvidence,
	}))

	recs := readAll(t, out)
	require.Len(t, recs, 2)

	// The adjacent call at 105 is dropped; the requested 100 survives.
	assert.Equal(t, int64(100), recs[0].Pos)
	gt, _ := recs[0].SampleField(0, "GT")
	assert.Equal(t, "0/1", gt)

	// The silent target 150 is synthesized as an explicit no-call.
	assert.Equal(t, int64(150), recs[1].Pos)
	gt, _ = recs[1].SampleField(0, "GT")
	assert.Equal(t, "./.", gt)
	assert.Equal(t, float64(vcf.MissingQual), recs[1].Qual)
}

func TestPostProcess_DemotionAndClamp(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir, rawHeader+
		// low quality, supported: demoted to reference, QUAL clamped
		"chr1\t100\t.\tA\tT\t0.8\t.\tDP=20;AO=5\tGT\t0/1\n"+
		// zero support, shallow: explicit no-call
		"chr1\t110\t.\tG\tC\t30\t.\tDP=2;AO=0\tGT\t0/1\n"+
		// strong call with a duplicated alternate allele
		"chr1\t120\t.\tT\tG,G\t80\t.\tDP=40;AO=30\tGT\t1/1\n")

	req := Request{
		Sample: "S1",
		Region: region.Region{Chrom: "chr1", Start: 1, End: 200},
		Targets: targetSet(
			vcf.Key{Chrom: "chr1", Pos: 100},
			vcf.Key{Chrom: "chr1", Pos: 110},
			vcf.Key{Chrom: "chr1", Pos: 120},
		),
	}
	out := filepath.Join(dir, "out.vcf")
	require.NoError(t, postProcess(raw, out, req, postOptions{
		thresholds: freebayesThresholds,
		evidence:   freebayesEvidence,
		dedupeAlts: true,
		clampQual:  true,
	}))

	recs := readAll(t, out)
	require.Len(t, recs, 3)

	gt, _ := recs[0].SampleField(0, "GT")
	assert.Equal(t, "0/0", gt, "low-quality supported call demotes to reference, not no-call")
	assert.Equal(t, float64(1), recs[0].Qual)
	assert.Equal(t, "PASS", recs[0].Filter)

	gt, _ = recs[1].SampleField(0, "GT")
	assert.Equal(t, "./.", gt, "zero support below depth floor demotes to no-call")
	assert.Equal(t, float64(vcf.MissingQual), recs[1].Qual)

	gt, _ = recs[2].SampleField(0, "GT")
	assert.Equal(t, "1/1", gt)
	assert.Equal(t, float64(80), recs[2].Qual)
	assert.Equal(t, []string{"G"}, recs[2].Alt, "redundant alternate alleles deduplicate")
}

func TestPostProcess_PloidyAwareGenotypes(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir, rawHeader+
		"chrM\t100\t.\tA\tT\t0.5\t.\tDP=20;AO=5\tGT\t1\n")

	req := Request{
		Sample:  "S1",
		Region:  region.Region{Chrom: "chrM", Start: 1, End: 200},
		Targets: targetSet(vcf.Key{Chrom: "chrM", Pos: 100}, vcf.Key{Chrom: "chrM", Pos: 150}),
		Ploidy:  1,
	}
	out := filepath.Join(dir, "out.vcf")
	require.NoError(t, postProcess(raw, out, req, postOptions{
		thresholds: freebayesThresholds,
		evidence:   freebayesEvidence,
	}))

	recs := readAll(t, out)
	require.Len(t, recs, 2)
	gt, _ := recs[0].SampleField(0, "GT")
	assert.Equal(t, "0", gt)
	gt, _ = recs[1].SampleField(0, "GT")
	assert.Equal(t, ".", gt)
}

func TestPostProcess_ForcePassAndHeaderFixes(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir, `##fileformat=VCFv4.2
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
##FORMAT=<ID=AD,Number=R,Type=Integer,Description="Allelic depths for the ref and alt alleles">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	unknown
chr1	100	.	A	T	90	badReads	TC=30;TR=20	GT	0/1
`)

	req := Request{
		Sample:  "S1",
		Region:  region.Region{Chrom: "chr1", Start: 1, End: 200},
		Targets: targetSet(vcf.Key{Chrom: "chr1", Pos: 100}),
	}
	out := filepath.Join(dir, "out.vcf")
	require.NoError(t, postProcess(raw, out, req, postOptions{
		thresholds:  platypusThresholds,
		evidence:    platypusEvidence,
		forcePass:   true,
		headerFixes: mpileupHeaderFixes,
	}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "##FORMAT=<ID=AD,Number=.,")
	assert.NotContains(t, text, "Number=R")
	assert.Contains(t, text, "\tS1\n", "sample column renamed")

	recs := readAll(t, out)
	require.Len(t, recs, 1)
	assert.Equal(t, "PASS", recs[0].Filter, "raw filter status is not reusable")
	gt, _ := recs[0].SampleField(0, "GT")
	assert.Equal(t, "0/1", gt)
}

func TestEvidenceExtraction(t *testing.T) {
	fb := &vcf.Record{Qual: 50, Info: "DP=30;AO=9,3", Format: []string{"GT"}, Samples: [][]string{{"0/1"}}}
	e := freebayesEvidence(fb)
	assert.Equal(t, Evidence{Qual: 50, Depth: 30, AltSupport: 12}, e)

	fbSample := &vcf.Record{Qual: 50, Info: ".", Format: []string{"GT", "DP", "AO"}, Samples: [][]string{{"0/1", "25", "7,2"}}}
	e = freebayesEvidence(fbSample)
	assert.Equal(t, Evidence{Qual: 50, Depth: 25, AltSupport: 9}, e)

	pl := &vcf.Record{Qual: 70, Info: "TC=40;TR=18"}
	e = platypusEvidence(pl)
	assert.Equal(t, Evidence{Qual: 70, Depth: 40, AltSupport: 18}, e)

	mp := &vcf.Record{Qual: 60, Info: "DP=44;DP4=10,12,11,9"}
	e = mpileupEvidence(mp)
	assert.Equal(t, Evidence{Qual: 60, Depth: 44, AltSupport: 20}, e)

	mpAD := &vcf.Record{Qual: 60, Info: "DP=20", Format: []string{"GT", "AD"}, Samples: [][]string{{"0/1", "12,8"}}}
	e = mpileupEvidence(mpAD)
	assert.Equal(t, Evidence{Qual: 60, Depth: 20, AltSupport: 8}, e)
}

func TestSelect(t *testing.T) {
	for _, name := range []string{NameFreebayes, NamePlatypus, NameMpileup} {
		b, err := Select(name, versionRunner{})
		require.NoError(t, err)
		assert.Equal(t, name, b.Name())
	}

	_, err := Select("gatk", versionRunner{})
	assert.ErrorContains(t, err, "unsupported caller")

	_, err = Select(strings.ToUpper(NameFreebayes), versionRunner{})
	assert.Error(t, err)
}
