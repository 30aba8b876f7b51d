package square

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/variantops/vcfsquare/internal/align"
	"github.com/variantops/vcfsquare/internal/caller"
	"github.com/variantops/vcfsquare/internal/ledger"
	"github.com/variantops/vcfsquare/internal/region"
	"github.com/variantops/vcfsquare/internal/tools"
	"github.com/variantops/vcfsquare/internal/vcf"
)

// Per-unit stage outputs. Each stage writes a distinct file and is skipped
// when that file already exists; stage outputs are never mutated.
const (
	subsetFile   = "subset.vcf"
	existingFile = "existing.vcf"
	needCallFile = "needcall.bed"
	recallFile   = "recall.vcf"
	resultFile   = "result.vcf"
)

// SquareSample produces a complete call set for one sample in one region:
// the sample's existing calls at union positions plus freshly recalled
// calls at the positions it lacked. With no alignment source the existing
// calls are passed through unchanged and gaps remain gaps; recall needs
// read evidence.
func (o *Orchestrator) SquareSample(ctx context.Context, sample string, input vcf.File,
	src *align.Source, union vcf.PositionSet, r region.Region, reference, unitDir string,
	ploidy int) (vcf.File, ledger.UnitResult, error) {

	start := time.Now()
	stats := ledger.UnitResult{
		Sample: sample,
		Region: r.String(),
		Caller: o.backend.Name(),
	}

	if err := ensureDir(unitDir); err != nil {
		return vcf.File{}, stats, err
	}

	finalGz := filepath.Join(unitDir, resultFile+".gz")
	if indexedReady(finalGz) {
		stats.Resumed = true
		stats.WallTime = time.Since(start)
		return vcf.File{Path: finalGz}, stats, nil
	}

	// Subset: this sample's called records at the region.
	subsetPath := filepath.Join(unitDir, subsetFile)
	if !outputReady(subsetPath) {
		if err := subsetSample(input.Path, sample, r, subsetPath); err != nil {
			return vcf.File{}, stats, fmt.Errorf("subset %s %s: %w", sample, r, err)
		}
	}

	if src == nil {
		// No read evidence: existing calls stand, missing positions stay
		// missing. Documented limitation, not an error.
		out, err := o.publishResult(ctx, unitDir, subsetPath, "")
		stats.WallTime = time.Since(start)
		return out, stats, err
	}

	subsetPositions, err := vcf.ReadPositions(subsetPath, r)
	if err != nil {
		return vcf.File{}, stats, fmt.Errorf("subset positions %s %s: %w", sample, r, err)
	}

	// Existing: subset records at positions present in the union.
	existingPath := filepath.Join(unitDir, existingFile)
	if !outputReady(existingPath) {
		if err := intersectPositions(subsetPath, union, existingPath); err != nil {
			return vcf.File{}, stats, fmt.Errorf("existing %s %s: %w", sample, r, err)
		}
	}

	// NeedCall: union positions this sample has no call at.
	needCall := make(vcf.PositionSet)
	for k := range union {
		if !subsetPositions.Has(k) {
			needCall.Add(k)
		}
	}
	stats.Targets = int64(len(needCall))

	needCallPath := filepath.Join(unitDir, needCallFile)
	if err := writeTargetsBED(needCallPath, needCall); err != nil {
		return vcf.File{}, stats, fmt.Errorf("needcall %s %s: %w", sample, r, err)
	}

	// Recall: drive the caller backend over the missing positions.
	recallPath := filepath.Join(unitDir, recallFile)
	if len(needCall) == 0 {
		if err := writeEmptySampleVCF(recallPath, sample); err != nil {
			return vcf.File{}, stats, err
		}
	} else if !recallReady(recallPath, r, needCall) {
		req := caller.Request{
			Sample:     sample,
			Region:     r,
			TargetsBED: needCallPath,
			Targets:    needCall,
			Alignment:  *src,
			Reference:  reference,
			Ploidy:     ploidy,
			WorkDir:    unitDir,
			OutFile:    recallPath,
		}
		if _, err := o.backend.Recall(ctx, req); err != nil {
			return vcf.File{}, stats, err
		}
	}

	if err := countRecallStats(recallPath, &stats); err != nil {
		return vcf.File{}, stats, err
	}

	// Combine: union of existing and recalled calls.
	out, err := o.publishResult(ctx, unitDir, existingPath, recallPath)
	stats.WallTime = time.Since(start)
	return out, stats, err
}

// publishResult combines stage outputs into result.vcf, then compresses
// and indexes it. recallPath may be empty (no-alignment fallback).
func (o *Orchestrator) publishResult(ctx context.Context, unitDir, existingPath, recallPath string) (vcf.File, error) {
	resultPath := filepath.Join(unitDir, resultFile)
	paths := []string{existingPath}
	if recallPath != "" {
		paths = append(paths, recallPath)
	}
	if err := combineRecords(paths, resultPath); err != nil {
		return vcf.File{}, err
	}
	gz, err := tools.BgzipIndex(ctx, o.runner, resultPath)
	if err != nil {
		return vcf.File{}, err
	}
	return vcf.File{Path: gz}, nil
}

// recallReady reports whether an earlier recall output can be reused: it
// must parse to completion and cover every requested target. Anything less
// (a truncated file, a changed target set) is re-requested from the
// backend, which replaces the file wholesale.
func recallReady(path string, r region.Region, targets vcf.PositionSet) bool {
	if !outputReady(path) {
		return false
	}
	got, err := vcf.ReadPositions(path, r)
	if err != nil {
		return false
	}
	for k := range targets {
		if !got.Has(k) {
			return false
		}
	}
	return true
}

// subsetSample writes the single-sample records of one sample at a region.
// Records where the sample has no called allele are dropped; an explicit
// call at those positions is exactly what squaring adds back later.
func subsetSample(inPath, sample string, r region.Region, outPath string) error {
	p, err := vcf.NewParser(inPath)
	if err != nil {
		return err
	}
	defer p.Close()

	idx := -1
	for i, name := range p.SampleNames() {
		if name == sample {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("sample %q not in %s", sample, inPath)
	}

	header := rewriteSingleSampleHeader(p.Header(), sample)

	return publishFile(outPath, func(f *os.File) error {
		w := vcf.NewWriter(f, header)
		for {
			rec, err := p.Next()
			if err != nil {
				return err
			}
			if rec == nil {
				break
			}
			if !r.Contains(rec.Chrom, rec.Pos) {
				continue
			}
			if idx >= len(rec.Samples) {
				continue
			}
			if !hasCalledAllele(rec, idx) {
				continue
			}
			rec.Samples = [][]string{rec.Samples[idx]}
			if err := w.WriteRecord(rec); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

func hasCalledAllele(rec *vcf.Record, sampleIdx int) bool {
	alleles := rec.GenotypeAlleles(sampleIdx)
	if len(alleles) == 0 {
		// Sites-only or GT-less record: treat as called for the sample.
		return true
	}
	for _, a := range alleles {
		if a != "." {
			return true
		}
	}
	return false
}

// intersectPositions writes the records of in whose positions are in keep.
func intersectPositions(inPath string, keep vcf.PositionSet, outPath string) error {
	p, err := vcf.NewParser(inPath)
	if err != nil {
		return err
	}
	defer p.Close()

	return publishFile(outPath, func(f *os.File) error {
		w := vcf.NewWriter(f, p.Header())
		for {
			rec, err := p.Next()
			if err != nil {
				return err
			}
			if rec == nil {
				break
			}
			if !keep.Has(rec.PosKey()) {
				continue
			}
			if err := w.WriteRecord(rec); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

// writeTargetsBED writes positions as single-base BED intervals.
func writeTargetsBED(path string, targets vcf.PositionSet) error {
	return publishFile(path, func(f *os.File) error {
		for _, k := range targets.Sorted() {
			if _, err := fmt.Fprintf(f, "%s\t%d\t%d\n", k.Chrom, k.Pos-1, k.Pos); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
		return nil
	})
}

func writeEmptySampleVCF(path, sample string) error {
	return publishFile(path, func(f *os.File) error {
		w := vcf.NewWriter(f, vcf.MinimalHeader(sample))
		return w.Flush()
	})
}

// combineRecords unions the records of the inputs (same single sample),
// ordered by position. Headers are merged with ## lines deduplicated in
// first-seen order.
func combineRecords(inPaths []string, outPath string) error {
	var header []string
	seenHeader := make(map[string]bool)
	var chromLine string
	var records []*vcf.Record

	for _, in := range inPaths {
		p, err := vcf.NewParser(in)
		if err != nil {
			return err
		}
		for _, line := range p.Header() {
			if len(line) > 1 && line[1] == 'C' { // #CHROM
				chromLine = line
				continue
			}
			if !seenHeader[line] {
				seenHeader[line] = true
				header = append(header, line)
			}
		}
		for {
			rec, err := p.Next()
			if err != nil {
				p.Close()
				return err
			}
			if rec == nil {
				break
			}
			records = append(records, rec)
		}
		p.Close()
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Chrom != records[j].Chrom {
			return records[i].Chrom < records[j].Chrom
		}
		return records[i].Pos < records[j].Pos
	})

	return publishFile(outPath, func(f *os.File) error {
		w := vcf.NewWriter(f, append(header, chromLine))
		for _, rec := range records {
			if err := w.WriteRecord(rec); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

// rewriteSingleSampleHeader keeps ## lines and narrows #CHROM to sample.
func rewriteSingleSampleHeader(header []string, sample string) []string {
	out := make([]string, 0, len(header))
	for _, line := range header {
		if len(line) > 1 && line[1] == 'C' {
			out = append(out,
				"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t"+sample)
			continue
		}
		out = append(out, line)
	}
	return out
}

// countRecallStats classifies recalled genotypes for the run ledger.
func countRecallStats(path string, stats *ledger.UnitResult) error {
	p, err := vcf.NewParser(path)
	if err != nil {
		return err
	}
	defer p.Close()

	for {
		rec, err := p.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		alleles := rec.GenotypeAlleles(0)
		switch classifyGenotype(alleles) {
		case DemoteNoCallClass:
			stats.DemotedNoCall++
		case ReferenceClass:
			stats.DemotedRef++
		default:
			stats.Kept++
		}
	}
}

// Genotype classes for ledger accounting.
const (
	VariantClass = iota
	ReferenceClass
	DemoteNoCallClass
)

func classifyGenotype(alleles []string) int {
	if len(alleles) == 0 {
		return DemoteNoCallClass
	}
	allMissing, allRef := true, true
	for _, a := range alleles {
		if a != "." {
			allMissing = false
		}
		if a != "0" && a != "." {
			allRef = false
		}
	}
	switch {
	case allMissing:
		return DemoteNoCallClass
	case allRef:
		return ReferenceClass
	default:
		return VariantClass
	}
}
