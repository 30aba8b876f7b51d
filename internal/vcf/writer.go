package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Writer writes VCF header lines and records.
type Writer struct {
	w           *bufio.Writer
	headerLines []string
	wroteHeader bool
}

// NewWriter creates a writer that emits the given header lines (## and
// #CHROM) before the first record.
func NewWriter(w io.Writer, headerLines []string) *Writer {
	return &Writer{
		w:           bufio.NewWriter(w),
		headerLines: headerLines,
	}
}

// WriteHeader writes the header lines. Calling it is optional; the first
// WriteRecord triggers it.
func (vw *Writer) WriteHeader() error {
	if vw.wroteHeader {
		return nil
	}
	vw.wroteHeader = true
	for _, line := range vw.headerLines {
		if _, err := vw.w.WriteString(line); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := vw.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return nil
}

// WriteRecord writes one data line.
func (vw *Writer) WriteRecord(r *Record) error {
	if err := vw.WriteHeader(); err != nil {
		return err
	}
	if _, err := vw.w.WriteString(r.String()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := vw.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Flush flushes buffered output.
func (vw *Writer) Flush() error {
	if err := vw.WriteHeader(); err != nil {
		return err
	}
	return vw.w.Flush()
}

// MinimalHeader builds a bare header for intermediate single-sample files.
func MinimalHeader(samples ...string) []string {
	chrom := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"
	if len(samples) > 0 {
		chrom += "\tFORMAT\t" + strings.Join(samples, "\t")
	}
	return []string{
		"##fileformat=VCFv4.2",
		`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
		chrom,
	}
}
