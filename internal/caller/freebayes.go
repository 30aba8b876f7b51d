package caller

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/variantops/vcfsquare/internal/tools"
	"github.com/variantops/vcfsquare/internal/vcf"
)

// freebayesThresholds tunes the shared demotion policy to freebayes QUAL
// semantics.
var freebayesThresholds = Thresholds{
	QualFloor:   5,
	DepthFloor:  4,
	LowAFDepth:  13,
	LowAFQual:   10,
	HighAFQual:  50,
	NoCallDepth: 4,
}

// Freebayes is the primary SNP/indel recall backend.
type Freebayes struct {
	Exe    string
	runner tools.Runner
}

// NewFreebayes returns the freebayes backend.
func NewFreebayes(r tools.Runner) *Freebayes {
	return &Freebayes{Exe: "freebayes", runner: r}
}

func (f *Freebayes) Name() string { return NameFreebayes }

// Recall runs freebayes restricted to the target positions and normalizes
// the output: sub-threshold calls are demoted to reference rather than
// no-call, zero-support low-depth positions become explicit no-calls,
// surviving QUAL is clamped to at least 1 (downstream consumers reject 0)
// and redundant alternate alleles are deduplicated.
func (f *Freebayes) Recall(ctx context.Context, req Request) (vcf.File, error) {
	raw := filepath.Join(req.WorkDir, "recall-freebayes-raw.vcf")

	args := []string{
		"-f", req.Reference,
		"--region", req.Region.String(),
		"--targets", req.TargetsBED,
		"--genotype-qualities",
	}
	if req.Ploidy > 0 {
		args = append(args, "--ploidy", strconv.Itoa(req.Ploidy))
	}
	args = append(args, req.Alignment.Path)

	if err := f.runner.RunToFile(ctx, raw, f.Exe, args...); err != nil {
		return vcf.File{}, fmt.Errorf("freebayes recall %s %s: %w", req.Sample, req.Region, err)
	}

	out := req.outFile(NameFreebayes)
	err := postProcess(raw, out, req, postOptions{
		thresholds: freebayesThresholds,
		evidence:   freebayesEvidence,
		dedupeAlts: true,
		clampQual:  true,
	})
	if err != nil {
		return vcf.File{}, fmt.Errorf("freebayes postprocess %s %s: %w", req.Sample, req.Region, err)
	}
	return vcf.File{Path: out}, nil
}

// freebayesEvidence reads depth (DP) and alternate observations (AO,
// summed over alleles), preferring the sample fields over INFO.
func freebayesEvidence(r *vcf.Record) Evidence {
	e := Evidence{Qual: r.Qual}

	if v, ok := r.SampleField(0, "DP"); ok {
		e.Depth, _ = strconv.ParseInt(v, 10, 64)
	} else if dp, ok := r.InfoInt("DP"); ok {
		e.Depth = dp
	}

	if v, ok := r.SampleField(0, "AO"); ok {
		e.AltSupport = sumCSV(v)
	} else if ao, ok := r.InfoInt("AO"); ok {
		e.AltSupport = ao
	}

	return e
}

func sumCSV(v string) int64 {
	var total int64
	for _, part := range splitCSV(v) {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0
		}
		total += n
	}
	return total
}

func splitCSV(v string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				parts = append(parts, v[start:i])
			}
			start = i + 1
		}
	}
	return parts
}
