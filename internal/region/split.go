package region

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadBED parses a BED file into regions. BED coordinates are 0-based
// half-open; they are converted to the 1-based inclusive convention used
// throughout. Lines starting with "#", "track" or "browser" are skipped.
func ReadBED(path string) ([]Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}
	defer f.Close()

	var regions []Region
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s:%d: expected at least 3 BED columns", path, lineNo)
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad start: %w", path, lineNo, err)
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad end: %w", path, lineNo, err)
		}
		if end <= start {
			return nil, fmt.Errorf("%s:%d: empty interval %d-%d", path, lineNo, start, end)
		}

		regions = append(regions, Region{Chrom: fields[0], Start: start + 1, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read bed file: %w", err)
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%s: no regions", path)
	}

	return regions, nil
}

// ReadFaidx derives one whole-contig region per sequence in a FASTA index
// (.fai) file, in file order.
func ReadFaidx(path string) ([]Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fasta index: %w", err)
	}
	defer f.Close()

	var regions []Region
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: expected tab-separated .fai columns", path, lineNo)
		}
		length, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad sequence length: %w", path, lineNo, err)
		}
		regions = append(regions, Region{Chrom: fields[0], Start: 1, End: length})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fasta index: %w", err)
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%s: no sequences", path)
	}

	return regions, nil
}

// Splitter yields the list of regions a run should process.
type Splitter interface {
	Regions() ([]Region, error)
}

// FixedSplitter returns a predetermined region list.
type FixedSplitter []Region

func (s FixedSplitter) Regions() ([]Region, error) { return s, nil }

// BEDSplitter reads regions from a BED file on demand.
type BEDSplitter struct{ Path string }

func (s BEDSplitter) Regions() ([]Region, error) { return ReadBED(s.Path) }

// FaidxSplitter derives whole-contig regions from a reference .fai index.
type FaidxSplitter struct{ Reference string }

func (s FaidxSplitter) Regions() ([]Region, error) {
	return ReadFaidx(s.Reference + ".fai")
}

// SplitterFor selects a splitter from the --region option: empty means the
// whole genome via the reference index, a path ending in .bed means a BED
// file, anything else is parsed as a region string.
func SplitterFor(regionOpt, reference string) (Splitter, error) {
	switch {
	case regionOpt == "":
		return FaidxSplitter{Reference: reference}, nil
	case strings.HasSuffix(strings.ToLower(regionOpt), ".bed"):
		if _, err := os.Stat(regionOpt); err != nil {
			return nil, fmt.Errorf("region bed file: %w", err)
		}
		return BEDSplitter{Path: regionOpt}, nil
	default:
		r, err := Parse(regionOpt)
		if err != nil {
			return nil, err
		}
		return FixedSplitter{r}, nil
	}
}
