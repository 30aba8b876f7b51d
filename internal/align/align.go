// Package align maps sample names to their alignment evidence files and
// caches that mapping per alignment-file set.
package align

import (
	"path/filepath"
	"strings"
)

// Kind distinguishes the supported alignment container formats.
type Kind string

const (
	BAM  Kind = "bam"
	CRAM Kind = "cram"
)

// Source is one sample's alignment evidence.
type Source struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// Map associates sample names with alignment sources. A sample absent from
// the map has no read evidence and cannot be recalled.
type Map map[string]Source

// KindOf classifies an alignment file by extension.
func KindOf(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".cram") {
		return CRAM
	}
	return BAM
}

// IsAlignmentFile reports whether a path looks like a BAM or CRAM file.
func IsAlignmentFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".bam" || ext == ".cram"
}
