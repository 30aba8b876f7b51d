package vcf

import (
	"fmt"

	"github.com/variantops/vcfsquare/internal/region"
)

// ploidyScanLimit bounds how many genotype-bearing records are examined
// per input. Scanning a prefix is an approximation: a region whose higher
// ploidy genotypes appear only late in a large file can be underestimated.
const ploidyScanLimit = 100

// InferPloidy returns the maximum genotype cardinality observed across the
// given files restricted to the region, scanning at most ploidyScanLimit
// genotype records per file. It returns 0 when no genotypes are found,
// which callers treat as "use the caller backend's default".
func InferPloidy(paths []string, r region.Region) (int, error) {
	max := 0
	for _, path := range paths {
		p, err := NewParser(path)
		if err != nil {
			return 0, err
		}

		scanned := 0
		for scanned < ploidyScanLimit {
			rec, err := p.Next()
			if err != nil {
				p.Close()
				return 0, fmt.Errorf("%s: %w", path, err)
			}
			if rec == nil {
				break
			}
			if r.Chrom != "" && !r.Contains(rec.Chrom, rec.Pos) {
				continue
			}
			if rec.FormatIndex("GT") < 0 {
				continue
			}
			scanned++
			for i := range rec.Samples {
				if n := len(rec.GenotypeAlleles(i)); n > max {
					max = n
				}
			}
		}
		p.Close()
	}
	return max, nil
}
