package tools

import (
	"context"
	"fmt"
	"strings"
)

// AlignmentHeaderSamples extracts the distinct sample names (@RG SM tags)
// from a BAM or CRAM header via `samtools view -H`. CRAM decoding needs the
// reference; BAM ignores it. Order of first appearance is preserved.
func AlignmentHeaderSamples(ctx context.Context, r Runner, path, reference string, isCRAM bool) ([]string, error) {
	args := []string{"view", "-H"}
	if isCRAM && reference != "" {
		args = append(args, "-T", reference)
	}
	args = append(args, path)

	out, err := r.Output(ctx, "samtools", args...)
	if err != nil {
		return nil, fmt.Errorf("read alignment header %s: %w", path, err)
	}

	seen := make(map[string]bool)
	var samples []string
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "@RG") {
			continue
		}
		for _, field := range strings.Split(line, "\t") {
			if strings.HasPrefix(field, "SM:") {
				sm := field[3:]
				if sm != "" && !seen[sm] {
					seen[sm] = true
					samples = append(samples, sm)
				}
			}
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("alignment file %s declares no @RG SM sample", path)
	}
	return samples, nil
}
