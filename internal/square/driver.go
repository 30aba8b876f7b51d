package square

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/variantops/vcfsquare/internal/align"
	"github.com/variantops/vcfsquare/internal/caller"
	"github.com/variantops/vcfsquare/internal/ledger"
	"github.com/variantops/vcfsquare/internal/region"
	"github.com/variantops/vcfsquare/internal/tools"
	"github.com/variantops/vcfsquare/internal/vcf"
)

// Options configures one squaring run.
type Options struct {
	OutFile   string
	Reference string
	Inputs    []string     // vcf, bam, cram or list files
	Region    string       // chrom:start-end, BED path, or empty for whole genome
	Cores     int
	Caller    string
	WorkDir   string       // defaults next to OutFile
	Ledger    bool         // record per-unit statistics in a DuckDB ledger
	Runner    tools.Runner // nil means running the real subprocesses
}

// CombineVariantSets is the pipeline driver: it resolves the
// sample→alignment mapping, validates tool versions and input sample
// uniqueness, squares every region, and concatenates the region outputs
// into the final compressed, indexed multi-sample file.
func CombineVariantSets(ctx context.Context, opts Options, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(opts.Reference); err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	if opts.Cores < 1 {
		opts.Cores = 1
	}
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(filepath.Dir(opts.OutFile), "vcfsquare-work")
	}

	inputs, alignmentFiles, err := ClassifyInputs(opts.Inputs)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no variant files among inputs")
	}

	var runner tools.Runner = tools.ExecRunner{}
	if opts.Runner != nil {
		runner = opts.Runner
	}

	backend, err := caller.Select(opts.Caller, runner)
	if err != nil {
		return err
	}
	// Old freebayes releases miscall outside the target set instead of
	// erroring, so a stale version is a hard failure, not a warning.
	if backend.Name() == caller.NameFreebayes {
		if err := caller.CheckFreebayesVersion(ctx, runner); err != nil {
			return err
		}
	}

	dirs := Dirs{Root: opts.WorkDir}
	if err := ensureDir(dirs.CacheDir()); err != nil {
		return err
	}

	resolver := align.NewResolver(runner)
	resolver.SetLogger(logger)
	alignments, err := resolver.Resolve(ctx, alignmentFiles, opts.Reference, dirs.CacheDir())
	if err != nil {
		return err
	}

	if err := rejectDuplicateSamples(inputs); err != nil {
		return err
	}

	splitter, err := region.SplitterFor(opts.Region, opts.Reference)
	if err != nil {
		return err
	}
	regions, err := splitter.Regions()
	if err != nil {
		return err
	}

	var store *ledger.Store
	if opts.Ledger {
		store, err = ledger.Open(filepath.Join(dirs.CacheDir(), "runs.duckdb"))
		if err != nil {
			return err
		}
		defer store.Close()
	}

	orch := NewOrchestrator(backend, runner, opts.Cores)
	orch.SetLogger(logger)

	logger.Info("squaring",
		zap.Int("variant_files", len(inputs)),
		zap.Int("alignment_files", len(alignmentFiles)),
		zap.Int("regions", len(regions)),
		zap.String("caller", backend.Name()),
		zap.Int("cores", opts.Cores))

	results := runBounded(regions, opts.Cores, func(r region.Region) (regionOutcome, error) {
		out, stats, err := orch.SquareRegion(ctx, inputs, alignments, r, opts.Reference, dirs)
		if err != nil {
			return regionOutcome{}, err
		}
		return regionOutcome{Out: out, Stats: stats}, nil
	})

	// The collector is the single goroutine that touches the ledger.
	var regionOuts []string
	err = orderedCollect(results, func(res taskResult[region.Region, regionOutcome]) error {
		if res.Err != nil {
			return res.Err
		}
		regionOuts = append(regionOuts, res.Out.Out.Path)
		if store != nil {
			for _, u := range res.Out.Stats {
				if err := store.RecordUnit(u); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	merger := tools.NewBcftools(runner)
	if err := merger.Concat(ctx, regionOuts, opts.OutFile); err != nil {
		return err
	}

	logger.Info("wrote squared call set", zap.String("out", opts.OutFile))
	return nil
}

type regionOutcome struct {
	Out   vcf.File
	Stats []ledger.UnitResult
}

// ClassifyInputs expands list files and splits the remaining paths into
// variant and alignment files. Every referenced path must exist.
func ClassifyInputs(paths []string) (inputs []vcf.File, alignmentFiles []string, err error) {
	for _, path := range paths {
		expanded, err := expandListFile(path)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range expanded {
			if _, err := os.Stat(p); err != nil {
				return nil, nil, fmt.Errorf("input: %w", err)
			}
			switch {
			case isVariantFile(p):
				inputs = append(inputs, vcf.File{Path: p})
			case align.IsAlignmentFile(p):
				alignmentFiles = append(alignmentFiles, p)
			default:
				return nil, nil, fmt.Errorf("input %s: not a vcf, bam, cram or list file", p)
			}
		}
	}
	return inputs, alignmentFiles, nil
}

func isVariantFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".vcf") || strings.HasSuffix(lower, ".vcf.gz")
}

func isListFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".txt") ||
		strings.HasSuffix(lower, ".list") ||
		strings.HasSuffix(lower, ".fofn")
}

// expandListFile returns the paths named by a plain-text list file, or the
// path itself when it is not a list file. Blank lines and # comments are
// skipped; relative entries resolve against the list file's directory.
func expandListFile(path string) ([]string, error) {
	if !isListFile(path) {
		return []string{path}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list file: %w", err)
	}
	defer f.Close()

	base := filepath.Dir(path)
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list file %s: %w", path, err)
	}
	return out, nil
}

// rejectDuplicateSamples fails when a sample name occurs in more than one
// input variant file; which file should win would be ambiguous.
func rejectDuplicateSamples(inputs []vcf.File) error {
	owner := make(map[string]string)
	for _, in := range inputs {
		names, err := vcf.SampleNamesOf(in.Path)
		if err != nil {
			return err
		}
		for _, name := range names {
			if prev, dup := owner[name]; dup {
				return fmt.Errorf("sample %q occurs in both %s and %s", name, prev, in.Path)
			}
			owner[name] = in.Path
		}
	}
	return nil
}
