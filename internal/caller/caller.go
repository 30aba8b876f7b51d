// Package caller dispatches recall work to the supported variant-calling
// backends and normalizes their raw output into comparable calls.
package caller

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/variantops/vcfsquare/internal/align"
	"github.com/variantops/vcfsquare/internal/region"
	"github.com/variantops/vcfsquare/internal/tools"
	"github.com/variantops/vcfsquare/internal/vcf"
)

// Backend names accepted by configuration.
const (
	NameFreebayes = "freebayes"
	NamePlatypus  = "platypus"
	NameMpileup   = "mpileup"
)

// Request describes one recall unit: call exactly the target positions for
// one sample in one region.
type Request struct {
	Sample     string
	Region     region.Region
	TargetsBED string          // BED file of positions needing calls
	Targets    vcf.PositionSet // same positions, parsed
	Alignment  align.Source
	Reference  string
	Ploidy     int    // 0 means the backend's own default
	WorkDir    string // scratch directory owned by this (sample, region) unit
	OutFile    string // where the normalized result is written; defaults into WorkDir
}

// outFile resolves the result path for a backend.
func (r Request) outFile(backend string) string {
	if r.OutFile != "" {
		return r.OutFile
	}
	return filepath.Join(r.WorkDir, "recall-"+backend+".vcf")
}

// Backend recalls variants restricted to a fixed position set. Every
// requested position appears in the result as a variant, reference call or
// no-call; positions are never silently dropped.
type Backend interface {
	Name() string
	Recall(ctx context.Context, req Request) (vcf.File, error)
}

// KnownName reports whether name selects a supported backend.
func KnownName(name string) bool {
	switch name {
	case NameFreebayes, NamePlatypus, NameMpileup:
		return true
	}
	return false
}

// Select returns the backend for a configuration name.
func Select(name string, runner tools.Runner) (Backend, error) {
	switch name {
	case NameFreebayes:
		return NewFreebayes(runner), nil
	case NamePlatypus:
		return NewPlatypus(runner), nil
	case NameMpileup:
		return NewMpileup(runner), nil
	default:
		return nil, fmt.Errorf("unsupported caller %q (want %s, %s or %s)",
			name, NameFreebayes, NamePlatypus, NameMpileup)
	}
}
