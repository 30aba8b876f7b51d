package caller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/variantops/vcfsquare/internal/tools"
	"github.com/variantops/vcfsquare/internal/vcf"
)

// platypusThresholds tunes the shared demotion policy to platypus
// posterior-score semantics.
var platypusThresholds = Thresholds{
	QualFloor:   10,
	DepthFloor:  4,
	LowAFDepth:  13,
	LowAFQual:   20,
	HighAFQual:  75,
	NoCallDepth: 4,
}

// Platypus is the alternate SNP/indel recall backend.
type Platypus struct {
	Exe      string
	runner   tools.Runner
	bcftools *tools.Bcftools
}

// NewPlatypus returns the platypus backend.
func NewPlatypus(r tools.Runner) *Platypus {
	return &Platypus{Exe: "platypus", runner: r, bcftools: tools.NewBcftools(r)}
}

func (p *Platypus) Name() string { return NamePlatypus }

// Recall runs platypus over the target positions. Raw output gets its
// indel representation normalized against the reference first, and its
// per-position FILTER column reset to PASS (the raw filter semantics are
// not reusable across positions) before the demotion policy re-filters.
func (p *Platypus) Recall(ctx context.Context, req Request) (vcf.File, error) {
	regionsFile := filepath.Join(req.WorkDir, "platypus-regions.txt")
	if err := writePlatypusRegions(regionsFile, req.Targets); err != nil {
		return vcf.File{}, err
	}

	raw := filepath.Join(req.WorkDir, "recall-platypus-raw.vcf")
	args := []string{
		"callVariants",
		"--bamFiles=" + req.Alignment.Path,
		"--refFile=" + req.Reference,
		"--output=" + raw,
		"--regions=" + regionsFile,
		"--minPosterior=0",
	}
	if err := p.runner.Run(ctx, p.Exe, args...); err != nil {
		return vcf.File{}, fmt.Errorf("platypus recall %s %s: %w", req.Sample, req.Region, err)
	}

	norm := filepath.Join(req.WorkDir, "recall-platypus-norm.vcf")
	if err := p.bcftools.Norm(ctx, raw, req.Reference, norm); err != nil {
		return vcf.File{}, fmt.Errorf("platypus recall %s %s: %w", req.Sample, req.Region, err)
	}

	out := req.outFile(NamePlatypus)
	err := postProcess(norm, out, req, postOptions{
		thresholds: platypusThresholds,
		evidence:   platypusEvidence,
		forcePass:  true,
	})
	if err != nil {
		return vcf.File{}, fmt.Errorf("platypus postprocess %s %s: %w", req.Sample, req.Region, err)
	}
	return vcf.File{Path: out}, nil
}

// writePlatypusRegions writes one single-position region per target line.
func writePlatypusRegions(path string, targets vcf.PositionSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create platypus regions file: %w", err)
	}
	defer f.Close()
	for _, k := range targets.Sorted() {
		if _, err := fmt.Fprintf(f, "%s:%d-%d\n", k.Chrom, k.Pos, k.Pos); err != nil {
			return fmt.Errorf("write platypus regions file: %w", err)
		}
	}
	return f.Close()
}

// platypusEvidence reads total coverage (TC) and variant-supporting reads
// (TR) from INFO.
func platypusEvidence(r *vcf.Record) Evidence {
	e := Evidence{Qual: r.Qual}
	if tc, ok := r.InfoInt("TC"); ok {
		e.Depth = tc
	} else if v, ok := r.SampleField(0, "NR"); ok {
		e.Depth = sumCSV(v)
	}
	if tr, ok := r.InfoInt("TR"); ok {
		e.AltSupport = tr
	} else if v, ok := r.SampleField(0, "NV"); ok {
		e.AltSupport = sumCSV(v)
	}
	return e
}
