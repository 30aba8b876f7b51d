package align

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/variantops/vcfsquare/internal/tools"
)

// Resolver builds sample→alignment maps by scanning alignment-file headers,
// with a persistent cache so a rerun over the same file set skips the scans.
type Resolver struct {
	runner tools.Runner
	logger *zap.Logger
}

// NewResolver creates a resolver using the given command runner.
func NewResolver(r tools.Runner) *Resolver {
	return &Resolver{runner: r, logger: zap.NewNop()}
}

// SetLogger sets the logger for warning and info messages.
func (rs *Resolver) SetLogger(l *zap.Logger) {
	rs.logger = l
}

// Resolve returns the sample→alignment mapping for the given file set.
// The mapping is cached under cacheDir keyed by a fingerprint of the set
// (first path + count); the cache never self-invalidates, so the key must
// change when the inputs change. On a miss every header is scanned and the
// result is published atomically before being returned.
func (rs *Resolver) Resolve(ctx context.Context, alignmentFiles []string, reference, cacheDir string) (Map, error) {
	if len(alignmentFiles) == 0 {
		return Map{}, nil
	}

	cachePath := rs.cachePath(cacheDir, alignmentFiles)
	if m, err := loadCache(cachePath); err == nil {
		rs.logger.Info("sample-alignment cache hit",
			zap.String("cache", cachePath),
			zap.Int("samples", len(m)))
		return m, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read sample-alignment cache %s: %w", cachePath, err)
	}

	m := make(Map, len(alignmentFiles))
	for _, path := range alignmentFiles {
		kind := KindOf(path)
		samples, err := tools.AlignmentHeaderSamples(ctx, rs.runner, path, reference, kind == CRAM)
		if err != nil {
			return nil, err
		}
		for _, sample := range samples {
			if prev, dup := m[sample]; dup {
				// Last file wins, matching historical behavior, but the
				// override is surfaced instead of being silent.
				rs.logger.Warn("sample declared by multiple alignment files, keeping the later one",
					zap.String("sample", sample),
					zap.String("dropped", prev.Path),
					zap.String("kept", path))
			}
			m[sample] = Source{Path: path, Kind: kind}
		}
	}

	if err := saveCache(cachePath, m); err != nil {
		return nil, err
	}
	rs.logger.Info("resolved sample alignments",
		zap.Int("files", len(alignmentFiles)),
		zap.Int("samples", len(m)),
		zap.String("cache", cachePath))

	return m, nil
}

// cachePath derives the cache file for an alignment-file set.
func (rs *Resolver) cachePath(cacheDir string, alignmentFiles []string) string {
	return filepath.Join(cacheDir, "sample-alignments-"+Fingerprint(alignmentFiles)+".json")
}

// Fingerprint identifies an alignment-file set by its first path and count.
func Fingerprint(alignmentFiles []string) string {
	sum := sha1.Sum(fmt.Appendf(nil, "%s|%d", alignmentFiles[0], len(alignmentFiles)))
	return fmt.Sprintf("%x", sum[:8])
}

func loadCache(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return m, nil
}

// saveCache publishes the mapping transactionally: write a temp file in the
// same directory, then rename into place, so an overlapping run never sees
// a half-written cache.
func saveCache(path string, m Map) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sample-alignment cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sample-alignments-*.json")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish cache: %w", err)
	}
	return nil
}
