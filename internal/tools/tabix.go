package tools

import (
	"context"
	"fmt"
)

// BgzipIndex compresses a plain VCF with bgzip and builds a tabix index,
// returning the .gz path. The uncompressed input is replaced.
func BgzipIndex(ctx context.Context, r Runner, path string) (string, error) {
	if err := r.Run(ctx, "bgzip", "-f", path); err != nil {
		return "", fmt.Errorf("bgzip %s: %w", path, err)
	}
	gz := path + ".gz"
	if err := r.Run(ctx, "tabix", "-f", "-p", "vcf", gz); err != nil {
		return "", fmt.Errorf("tabix %s: %w", gz, err)
	}
	return gz, nil
}
