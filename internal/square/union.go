package square

import (
	"context"

	"github.com/variantops/vcfsquare/internal/region"
	"github.com/variantops/vcfsquare/internal/vcf"
)

// UnionBuilder computes the set of positions called in any input at a
// region. It is a collaborator contract so the merge engine can be
// swapped; the default implementation works off the position index alone.
type UnionBuilder interface {
	Union(ctx context.Context, inputs []vcf.File, r region.Region) (vcf.PositionSet, error)
}

// PositionUnion is the default union builder: the positions of every
// record of every input inside the region, deduplicated.
type PositionUnion struct{}

func (PositionUnion) Union(ctx context.Context, inputs []vcf.File, r region.Region) (vcf.PositionSet, error) {
	union := make(vcf.PositionSet)
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := vcf.ReadPositions(in.Path, r)
		if err != nil {
			return nil, err
		}
		for k := range set {
			union.Add(k)
		}
	}
	return union, nil
}

// Merger merges per-sample region results into one multi-sample file, and
// region files into the final output. The default implementation is the
// bcftools wrapper in internal/tools.
type Merger interface {
	MergeSamples(ctx context.Context, inputs []string, out string) error
	Concat(ctx context.Context, inputs []string, out string) error
}
