package tools

import (
	"context"
	"fmt"
)

// Bcftools wraps the bcftools operations the pipeline delegates:
// multi-sample merge, region concatenation and indel normalization.
type Bcftools struct {
	Exe    string // defaults to "bcftools"
	Runner Runner
}

// NewBcftools returns a wrapper using the given runner.
func NewBcftools(r Runner) *Bcftools {
	return &Bcftools{Exe: "bcftools", Runner: r}
}

func (b *Bcftools) exe() string {
	if b.Exe == "" {
		return "bcftools"
	}
	return b.Exe
}

// MergeSamples merges per-sample VCFs (one sample column each) into a
// single multi-sample VCF, compressed and indexed. Inputs must already be
// bgzipped and indexed; the column order follows the input order.
func (b *Bcftools) MergeSamples(ctx context.Context, inputs []string, out string) error {
	if len(inputs) == 1 {
		// Nothing to merge; re-emit the single input.
		args := []string{"view", "-O", "z", "-o", out, inputs[0]}
		if err := b.Runner.Run(ctx, b.exe(), args...); err != nil {
			return fmt.Errorf("merge samples: %w", err)
		}
		return b.index(ctx, out)
	}

	args := append([]string{"merge", "-m", "all", "-O", "z", "-o", out}, inputs...)
	if err := b.Runner.Run(ctx, b.exe(), args...); err != nil {
		return fmt.Errorf("merge samples: %w", err)
	}
	return b.index(ctx, out)
}

// Concat concatenates region-level VCFs (same samples, disjoint regions)
// into one compressed, indexed file.
func (b *Bcftools) Concat(ctx context.Context, inputs []string, out string) error {
	if len(inputs) == 1 {
		args := []string{"view", "-O", "z", "-o", out, inputs[0]}
		if err := b.Runner.Run(ctx, b.exe(), args...); err != nil {
			return fmt.Errorf("concat regions: %w", err)
		}
		return b.index(ctx, out)
	}

	args := append([]string{"concat", "-a", "-O", "z", "-o", out}, inputs...)
	if err := b.Runner.Run(ctx, b.exe(), args...); err != nil {
		return fmt.Errorf("concat regions: %w", err)
	}
	return b.index(ctx, out)
}

// Norm left-aligns and normalizes indels and splits multi-allelic records
// against the reference, writing plain VCF to out.
func (b *Bcftools) Norm(ctx context.Context, in, reference, out string) error {
	args := []string{"norm", "-f", reference, "-m", "-any", "-O", "v", "-o", out, in}
	if err := b.Runner.Run(ctx, b.exe(), args...); err != nil {
		return fmt.Errorf("normalize %s: %w", in, err)
	}
	return nil
}

func (b *Bcftools) index(ctx context.Context, path string) error {
	if err := b.Runner.Run(ctx, b.exe(), "index", "-f", "-t", path); err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	return nil
}
