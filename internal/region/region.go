// Package region provides genomic region types and region-list parsing.
package region

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is a genomic interval with 1-based, inclusive coordinates.
// Regions are value types and never modified after creation.
type Region struct {
	Chrom string
	Start int64
	End   int64
}

// String renders the region in samtools/tabix form, e.g. "chr1:100-300".
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// Token renders the region as a filesystem-safe directory name.
func (r Region) Token() string {
	return fmt.Sprintf("%s_%d_%d", r.Chrom, r.Start, r.End)
}

// Contains reports whether the 1-based position pos falls inside the region.
func (r Region) Contains(chrom string, pos int64) bool {
	return chrom == r.Chrom && pos >= r.Start && pos <= r.End
}

// Less orders regions by (chrom, start, end).
func (r Region) Less(o Region) bool {
	if r.Chrom != o.Chrom {
		return r.Chrom < o.Chrom
	}
	if r.Start != o.Start {
		return r.Start < o.Start
	}
	return r.End < o.End
}

// Parse parses a region string of the form "chrom:start-end" or bare
// "chrom" (which yields Start=0, End=0 meaning the whole contig).
// Commas in coordinates are accepted and stripped.
func Parse(s string) (Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Region{}, fmt.Errorf("empty region string")
	}

	colon := strings.LastIndex(s, ":")
	if colon < 0 {
		return Region{Chrom: s}, nil
	}

	chrom := s[:colon]
	if chrom == "" {
		return Region{}, fmt.Errorf("region %q: missing chromosome", s)
	}

	span := strings.ReplaceAll(s[colon+1:], ",", "")
	dash := strings.Index(span, "-")
	if dash < 0 {
		return Region{}, fmt.Errorf("region %q: expected chrom:start-end", s)
	}

	start, err := strconv.ParseInt(span[:dash], 10, 64)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: bad start: %w", s, err)
	}
	end, err := strconv.ParseInt(span[dash+1:], 10, 64)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: bad end: %w", s, err)
	}
	if start < 1 || end < start {
		return Region{}, fmt.Errorf("region %q: invalid interval %d-%d", s, start, end)
	}

	return Region{Chrom: chrom, Start: start, End: end}, nil
}
