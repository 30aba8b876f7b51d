// Package main provides the vcfsquare command-line tool.
package main

import (
	"flag"
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Parse()

	if showVersion {
		fmt.Printf("vcfsquare version %s (%s) built %s\n", version, commit, date)
		return ExitSuccess
	}

	initConfig()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return ExitUsage
	}

	switch args[0] {
	case "square":
		return runSquare(args[1:])
	case "config":
		cmd := newConfigCmd()
		cmd.SetArgs(args[1:])
		if err := cmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitError
		}
		return ExitSuccess
	case "version":
		fmt.Printf("vcfsquare version %s (%s) built %s\n", version, commit, date)
		return ExitSuccess
	case "help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		return ExitUsage
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `vcfsquare - square off per-sample variant call sets

Usage:
  vcfsquare [options] <command> [arguments]

Commands:
  square      Square off variant call sets over the union of called positions
  config      Manage vcfsquare configuration
  version     Show version information
  help        Show this help message

Global Options:
  --version   Show version information

Examples:
  # Square two single-sample VCFs with their alignment files
  vcfsquare square squared.vcf.gz ref.fa a.vcf.gz a.bam b.vcf.gz b.bam

  # Restrict to one region and use 8 workers
  vcfsquare square --cores 8 --region chr1:1-249250621 out.vcf.gz ref.fa in.txt

  # Recall missing positions with the pileup backend
  vcfsquare square --caller mpileup out.vcf.gz ref.fa calls.vcf.gz reads.bam

For more information on a command, use:
  vcfsquare <command> --help
`)
}
