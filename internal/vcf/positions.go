package vcf

import (
	"fmt"
	"sort"

	"github.com/variantops/vcfsquare/internal/region"
)

// PositionSet is the set of called positions in a file or region.
type PositionSet map[Key]struct{}

// Add inserts a position.
func (s PositionSet) Add(k Key) { s[k] = struct{}{} }

// Has reports membership.
func (s PositionSet) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the positions ordered by (chrom, pos).
func (s PositionSet) Sorted() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Chrom != keys[j].Chrom {
			return keys[i].Chrom < keys[j].Chrom
		}
		return keys[i].Pos < keys[j].Pos
	})
	return keys
}

// ReadPositions collects the positions of all records in a file that fall
// inside the region. A zero-valued region matches everything.
func ReadPositions(path string, r region.Region) (PositionSet, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	set := make(PositionSet)
	for {
		rec, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if rec == nil {
			break
		}
		if r.Chrom != "" && !r.Contains(rec.Chrom, rec.Pos) {
			continue
		}
		set.Add(rec.PosKey())
	}
	return set, nil
}
