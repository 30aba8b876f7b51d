package square

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/variantops/vcfsquare/internal/align"
	"github.com/variantops/vcfsquare/internal/caller"
	"github.com/variantops/vcfsquare/internal/ledger"
	"github.com/variantops/vcfsquare/internal/region"
	"github.com/variantops/vcfsquare/internal/tools"
	"github.com/variantops/vcfsquare/internal/vcf"
)

const regionResultFile = "region.vcf.gz"

// Orchestrator squares one region at a time: it fans per-sample squaring
// out over a bounded worker pool and merges the results in deterministic
// sample order.
type Orchestrator struct {
	backend caller.Backend
	runner  tools.Runner
	union   UnionBuilder
	merger  Merger
	cores   int
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator with the default union builder
// and bcftools merger.
func NewOrchestrator(backend caller.Backend, runner tools.Runner, cores int) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		runner:  runner,
		union:   PositionUnion{},
		merger:  tools.NewBcftools(runner),
		cores:   cores,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for progress and warning messages.
func (o *Orchestrator) SetLogger(l *zap.Logger) { o.logger = l }

// SetUnionBuilder overrides the union collaborator.
func (o *Orchestrator) SetUnionBuilder(u UnionBuilder) { o.union = u }

// SetMerger overrides the merge collaborator.
func (o *Orchestrator) SetMerger(m Merger) { o.merger = m }

// sampleUnit is one per-sample squaring assignment within a region.
type sampleUnit struct {
	Sample string
	Input  vcf.File
	Source *align.Source
}

// sampleOutcome is the per-sample result collected by SquareRegion.
type sampleOutcome struct {
	Out   vcf.File
	Stats ledger.UnitResult
}

// SquareRegion produces the squared multi-sample call set for one region.
// Every sample called anywhere in the inputs gets an explicit call at
// every union position. Any per-sample failure aborts the whole region:
// a region's output represents all samples or none.
func (o *Orchestrator) SquareRegion(ctx context.Context, inputs []vcf.File,
	alignments align.Map, r region.Region, reference string, dirs Dirs) (vcf.File, []ledger.UnitResult, error) {

	regionDir := dirs.RegionDir(r)
	if err := ensureDir(regionDir); err != nil {
		return vcf.File{}, nil, err
	}

	regionOut := filepath.Join(regionDir, regionResultFile)
	if indexedReady(regionOut) {
		o.logger.Info("region already squared", zap.Stringer("region", r))
		return vcf.File{Path: regionOut}, nil, nil
	}

	union, err := o.union.Union(ctx, inputs, r)
	if err != nil {
		return vcf.File{}, nil, fmt.Errorf("union %s: %w", r, err)
	}

	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.Path
	}
	ploidy, err := vcf.InferPloidy(paths, r)
	if err != nil {
		return vcf.File{}, nil, fmt.Errorf("ploidy %s: %w", r, err)
	}

	units, err := enumerateSamples(inputs, alignments)
	if err != nil {
		return vcf.File{}, nil, err
	}

	o.logger.Info("squaring region",
		zap.Stringer("region", r),
		zap.Int("samples", len(units)),
		zap.Int("union_positions", len(union)),
		zap.Int("ploidy", ploidy))

	results := runBounded(units, o.cores, func(u sampleUnit) (sampleOutcome, error) {
		out, stats, err := o.SquareSample(ctx, u.Sample, u.Input, u.Source,
			union, r, reference, dirs.UnitDir(r, u.Sample), ploidy)
		if err != nil {
			return sampleOutcome{}, fmt.Errorf("sample %s region %s: %w", u.Sample, r, err)
		}
		return sampleOutcome{Out: out, Stats: stats}, nil
	})

	// Units were submitted sorted by sample name, so ordered collection
	// yields a deterministic column order no matter which worker finishes
	// first.
	var merged []string
	var stats []ledger.UnitResult
	err = orderedCollect(results, func(res taskResult[sampleUnit, sampleOutcome]) error {
		if res.Err != nil {
			return res.Err
		}
		merged = append(merged, res.Out.Out.Path)
		stats = append(stats, res.Out.Stats)
		return nil
	})
	if err != nil {
		return vcf.File{}, nil, err
	}

	if err := o.merger.MergeSamples(ctx, merged, regionOut); err != nil {
		return vcf.File{}, nil, fmt.Errorf("merge region %s: %w", r, err)
	}

	return vcf.File{Path: regionOut}, stats, nil
}

// enumerateSamples lists the distinct samples across all inputs, sorted by
// name, each bound to the input that carries it and to its alignment
// source (nil when the sample has no read evidence). The driver has
// already rejected samples appearing in more than one input.
func enumerateSamples(inputs []vcf.File, alignments align.Map) ([]sampleUnit, error) {
	byName := make(map[string]vcf.File)
	for _, in := range inputs {
		names, err := vcf.SampleNamesOf(in.Path)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if _, ok := byName[name]; !ok {
				byName[name] = in
			}
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	units := make([]sampleUnit, 0, len(names))
	for _, name := range names {
		u := sampleUnit{Sample: name, Input: byName[name]}
		if src, ok := alignments[name]; ok {
			srcCopy := src
			u.Source = &srcCopy
		}
		units = append(units, u)
	}
	return units, nil
}
