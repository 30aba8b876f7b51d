package square

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/variantops/vcfsquare/internal/region"
)

// Dirs scopes the run's intermediate artifacts. Each (sample, region)
// unit owns a disjoint directory, which is what lets units run
// concurrently without any in-process synchronization.
type Dirs struct {
	Root string
}

// RegionDir is where one region's union, per-sample results and merged
// output live.
func (d Dirs) RegionDir(r region.Region) string {
	return filepath.Join(d.Root, "square", r.Token())
}

// UnitDir is one (sample, region) unit's working directory.
func (d Dirs) UnitDir(r region.Region, sample string) string {
	return filepath.Join(d.RegionDir(r), sample)
}

// CacheDir holds the sample-alignment cache and the run ledger.
func (d Dirs) CacheDir() string {
	return filepath.Join(d.Root, "cache")
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	return nil
}

// outputReady reports whether a stage already produced its declared
// output. Stage outputs are published by rename (publishFile), so a
// non-empty file at the final name means the write ran to completion and
// the stage is skipped on rerun, which is the pipeline's only recovery
// mechanism.
func outputReady(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// indexedReady reports whether a compressed output and its tabix index are
// both present. The index is written last, so it doubles as the commit
// marker: a .gz without a .tbi means the publish was interrupted and the
// stage reruns.
func indexedReady(path string) bool {
	return outputReady(path) && outputReady(path+".tbi")
}

// publishFile writes path through a sibling temp file and renames it into
// place after a successful write, so an interrupted write never leaves a
// partial file at a name outputReady accepts.
func publishFile(path string, write func(*os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}
