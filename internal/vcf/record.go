// Package vcf provides VCF file parsing and writing functionality.
package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// MissingQual marks a "." QUAL column.
const MissingQual = -1

// Record represents a single VCF data line, possibly spanning many samples.
type Record struct {
	Chrom   string
	Pos     int64 // 1-based genomic position
	ID      string
	Ref     string
	Alt     []string // alternate alleles after splitting on ","
	Qual    float64  // MissingQual when the column is "."
	Filter  string
	Info    string     // raw INFO column
	Format  []string   // FORMAT keys, empty for sites-only records
	Samples [][]string // per-sample values, parallel to Format
}

// IsSNV returns true if the record is a single nucleotide variant.
func (r *Record) IsSNV() bool {
	if len(r.Ref) != 1 {
		return false
	}
	for _, alt := range r.Alt {
		if len(alt) != 1 {
			return false
		}
	}
	return len(r.Alt) > 0
}

// InfoField returns the value of an INFO key, with ok=false when absent.
// Flag keys return an empty value with ok=true.
func (r *Record) InfoField(key string) (string, bool) {
	for _, kv := range strings.Split(r.Info, ";") {
		if kv == key {
			return "", true
		}
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// InfoInt returns an INFO key parsed as an integer. Multi-valued keys
// (e.g. per-alt AO) return the sum, the convention used when collapsing
// alternate alleles into a single support count.
func (r *Record) InfoInt(key string) (int64, bool) {
	v, ok := r.InfoField(key)
	if !ok || v == "" || v == "." {
		return 0, false
	}
	var total int64
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, false
		}
		total += n
	}
	return total, true
}

// FormatIndex returns the position of a FORMAT key, or -1.
func (r *Record) FormatIndex(key string) int {
	for i, k := range r.Format {
		if k == key {
			return i
		}
	}
	return -1
}

// SampleField returns the value of a FORMAT key for sample i.
func (r *Record) SampleField(i int, key string) (string, bool) {
	idx := r.FormatIndex(key)
	if idx < 0 || i < 0 || i >= len(r.Samples) || idx >= len(r.Samples[i]) {
		return "", false
	}
	return r.Samples[i][idx], true
}

// SetSampleField overwrites the value of a FORMAT key for sample i,
// appending the key to FORMAT if it is not declared yet.
func (r *Record) SetSampleField(i int, key, value string) {
	idx := r.FormatIndex(key)
	if idx < 0 {
		r.Format = append(r.Format, key)
		idx = len(r.Format) - 1
	}
	for len(r.Samples[i]) <= idx {
		r.Samples[i] = append(r.Samples[i], ".")
	}
	r.Samples[i][idx] = value
}

// GenotypeAlleles splits sample i's GT value on phased and unphased
// separators. Missing alleles (".") are returned as-is.
func (r *Record) GenotypeAlleles(i int) []string {
	gt, ok := r.SampleField(i, "GT")
	if !ok || gt == "" {
		return nil
	}
	return SplitGenotype(gt)
}

// SplitGenotype splits a GT value on "/" and "|".
func SplitGenotype(gt string) []string {
	return strings.FieldsFunc(gt, func(c rune) bool {
		return c == '/' || c == '|'
	})
}

// String renders the record as a tab-separated VCF line without a
// trailing newline.
func (r *Record) String() string {
	qual := "."
	if r.Qual >= 0 {
		qual = strconv.FormatFloat(r.Qual, 'g', -1, 64)
	}
	alt := "."
	if len(r.Alt) > 0 {
		alt = strings.Join(r.Alt, ",")
	}
	id := r.ID
	if id == "" {
		id = "."
	}
	filter := r.Filter
	if filter == "" {
		filter = "."
	}
	info := r.Info
	if info == "" {
		info = "."
	}

	fields := []string{
		r.Chrom,
		strconv.FormatInt(r.Pos, 10),
		id,
		r.Ref,
		alt,
		qual,
		filter,
		info,
	}
	if len(r.Format) > 0 {
		fields = append(fields, strings.Join(r.Format, ":"))
		for _, s := range r.Samples {
			fields = append(fields, strings.Join(s, ":"))
		}
	}
	return strings.Join(fields, "\t")
}

// Key identifies a called position for union/set arithmetic.
type Key struct {
	Chrom string
	Pos   int64
}

// PosKey returns the record's position key.
func (r *Record) PosKey() Key {
	return Key{Chrom: r.Chrom, Pos: r.Pos}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Chrom, k.Pos)
}
