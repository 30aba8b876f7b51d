package caller

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/variantops/vcfsquare/internal/tools"
	"github.com/variantops/vcfsquare/internal/vcf"
)

// mpileupThresholds tunes the shared demotion policy to bcftools-call
// score semantics.
var mpileupThresholds = Thresholds{
	QualFloor:   5,
	DepthFloor:  4,
	LowAFDepth:  13,
	LowAFQual:   10,
	HighAFQual:  30,
	NoCallDepth: 4,
}

// mpileupHeaderFixes adjusts two FORMAT declarations whose mpileup
// cardinality/type choices downstream merge tools reject.
var mpileupHeaderFixes = map[string]string{
	"##FORMAT=<ID=AD,Number=R": `##FORMAT=<ID=AD,Number=.,Type=Integer,Description="Allelic depths">`,
	"##FORMAT=<ID=PL,Number=G": `##FORMAT=<ID=PL,Number=.,Type=Integer,Description="List of Phred-scaled genotype likelihoods">`,
}

// Mpileup is the pileup-based recall backend, driven as a two-step
// bcftools mpileup + bcftools call invocation.
type Mpileup struct {
	Exe      string // bcftools executable
	runner   tools.Runner
	bcftools *tools.Bcftools
}

// NewMpileup returns the pileup backend.
func NewMpileup(r tools.Runner) *Mpileup {
	return &Mpileup{Exe: "bcftools", runner: r, bcftools: tools.NewBcftools(r)}
}

func (m *Mpileup) Name() string { return NameMpileup }

// Recall pileups the alignment at the target positions and calls genotypes,
// then normalizes multi-allelic and indel representation against the
// reference before the demotion policy runs.
func (m *Mpileup) Recall(ctx context.Context, req Request) (vcf.File, error) {
	pileup := filepath.Join(req.WorkDir, "recall-mpileup-pileup.vcf")
	args := []string{
		"mpileup",
		"-f", req.Reference,
		"-r", req.Region.String(),
		"-T", req.TargetsBED,
		"-a", "AD,DP",
		"-O", "v",
		"-o", pileup,
		req.Alignment.Path,
	}
	if err := m.runner.Run(ctx, m.Exe, args...); err != nil {
		return vcf.File{}, fmt.Errorf("mpileup recall %s %s: %w", req.Sample, req.Region, err)
	}

	raw := filepath.Join(req.WorkDir, "recall-mpileup-raw.vcf")
	callArgs := []string{"call", "-m", "-A", "-O", "v", "-o", raw}
	if req.Ploidy == 1 {
		callArgs = append(callArgs, "--ploidy", "1")
	}
	callArgs = append(callArgs, pileup)
	if err := m.runner.Run(ctx, m.Exe, callArgs...); err != nil {
		return vcf.File{}, fmt.Errorf("mpileup call %s %s: %w", req.Sample, req.Region, err)
	}

	norm := filepath.Join(req.WorkDir, "recall-mpileup-norm.vcf")
	if err := m.bcftools.Norm(ctx, raw, req.Reference, norm); err != nil {
		return vcf.File{}, fmt.Errorf("mpileup recall %s %s: %w", req.Sample, req.Region, err)
	}

	out := req.outFile(NameMpileup)
	err := postProcess(norm, out, req, postOptions{
		thresholds:  mpileupThresholds,
		evidence:    mpileupEvidence,
		headerFixes: mpileupHeaderFixes,
	})
	if err != nil {
		return vcf.File{}, fmt.Errorf("mpileup postprocess %s %s: %w", req.Sample, req.Region, err)
	}
	return vcf.File{Path: out}, nil
}

// mpileupEvidence reads depth from INFO DP and alternate support from the
// last two DP4 counts (alt-forward, alt-reverse).
func mpileupEvidence(r *vcf.Record) Evidence {
	e := Evidence{Qual: r.Qual}
	if dp, ok := r.InfoInt("DP"); ok {
		e.Depth = dp
	}
	if v, ok := r.InfoField("DP4"); ok {
		parts := splitCSV(v)
		if len(parts) == 4 {
			fwd, err1 := strconv.ParseInt(parts[2], 10, 64)
			rev, err2 := strconv.ParseInt(parts[3], 10, 64)
			if err1 == nil && err2 == nil {
				e.AltSupport = fwd + rev
			}
		}
	} else if v, ok := r.SampleField(0, "AD"); ok {
		parts := splitCSV(v)
		for _, p := range parts[1:] { // first AD entry is the ref allele
			if n, err := strconv.ParseInt(p, 10, 64); err == nil {
				e.AltSupport += n
			}
		}
	}
	return e
}
