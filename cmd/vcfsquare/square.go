package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/variantops/vcfsquare/internal/caller"
	"github.com/variantops/vcfsquare/internal/square"
)

func runSquare(args []string) int {
	fs := flag.NewFlagSet("square", flag.ExitOnError)

	var (
		cores      int
		callerName string
		regionOpt  string
		workDir    string
		useLedger  bool
		quiet      bool
	)

	fs.IntVar(&cores, "cores", viper.GetInt("cores"), "Number of parallel workers")
	fs.StringVar(&callerName, "caller", viper.GetString("caller"), "Recall backend: freebayes, platypus or mpileup")
	fs.StringVar(&regionOpt, "region", "", "Region (chrom:start-end) or BED file (default: whole genome)")
	fs.StringVar(&workDir, "work-dir", "", "Working directory for intermediate files (default: next to out-file)")
	fs.BoolVar(&useLedger, "ledger", false, "Record per-unit statistics in a DuckDB ledger")
	fs.BoolVar(&quiet, "quiet", false, "Suppress progress logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Square off variant call sets so every sample has an explicit call
(variant, reference or no-call) at every position any sample was called at.

Usage:
  vcfsquare square [options] <out-file> <ref-file> <vcf|bam|cram|list-files>...

Arguments:
  <out-file>   Squared multi-sample VCF to write (bgzipped, indexed)
  <ref-file>   Reference FASTA (a .fai index must exist for whole-genome runs)
  inputs       Variant files, alignment files, or plain-text lists of either

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  vcfsquare square squared.vcf.gz ref.fa a.vcf.gz a.bam b.vcf.gz b.bam
  vcfsquare square --region calls.bed --cores 4 out.vcf.gz ref.fa inputs.txt
`)
	}

	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if fs.NArg() < 3 {
		fmt.Fprintf(os.Stderr, "Error: out-file, ref-file and at least one input required\n\n")
		fs.Usage()
		return ExitUsage
	}

	if cores < 1 {
		cores = 1
	}
	if callerName == "" {
		callerName = caller.NameFreebayes
	}

	logger := zap.NewNop()
	if !quiet {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		cfg.DisableStacktrace = true
		var err error
		logger, err = cfg.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitError
		}
		defer logger.Sync()
	}

	opts := square.Options{
		OutFile:   fs.Arg(0),
		Reference: fs.Arg(1),
		Inputs:    fs.Args()[2:],
		Region:    regionOpt,
		Cores:     cores,
		Caller:    callerName,
		WorkDir:   workDir,
		Ledger:    useLedger,
	}

	if err := square.CombineVariantSets(context.Background(), opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	return ExitSuccess
}
