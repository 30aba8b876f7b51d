package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// File is a VCF on disk. Identity is the path; the content behind a path
// is never mutated once written (new results are new files).
type File struct {
	Path string
}

// Parser reads records from a VCF file. Plain and gzip/bgzip-compressed
// inputs are both supported (bgzip frames are valid gzip members).
type Parser struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	sampleNames []string // sample names from the #CHROM header line
}

// ParseError describes a malformed line in a VCF file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// NewParser creates a new VCF parser for the given file.
func NewParser(path string) (*Parser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	if _, err := file.Read(buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		var err error
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{reader: bufio.NewReader(r)}
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// parseHeader reads and stores VCF header lines up to #CHROM.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				p.sampleNames = fields[9:]
			}
			return nil
		}

		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}
	return &ParseError{Line: p.lineNumber, Message: "missing #CHROM header line"}
}

// Header returns the raw header lines including the #CHROM line.
func (p *Parser) Header() []string { return p.header }

// SampleNames returns the sample columns declared in the #CHROM line.
func (p *Parser) SampleNames() []string { return p.sampleNames }

// Next returns the next record, or nil at end of file.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read vcf line: %w", err)
		}
		atEOF := err == io.EOF

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if atEOF {
				return nil, nil
			}
			p.lineNumber++
			continue
		}
		p.lineNumber++

		return p.parseLine(line)
	}
}

func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{Line: p.lineNumber, Message: "expected at least 8 columns"}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: "bad POS: " + fields[1]}
	}

	qual := float64(MissingQual)
	if fields[5] != "." {
		qual, err = strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, &ParseError{Line: p.lineNumber, Message: "bad QUAL: " + fields[5]}
		}
	}

	r := &Record{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Qual:   qual,
		Filter: fields[6],
		Info:   fields[7],
	}
	if fields[4] != "." && fields[4] != "" {
		r.Alt = strings.Split(fields[4], ",")
	}
	if r.ID == "." {
		r.ID = ""
	}

	if len(fields) > 9 {
		r.Format = strings.Split(fields[8], ":")
		r.Samples = make([][]string, 0, len(fields)-9)
		for _, s := range fields[9:] {
			r.Samples = append(r.Samples, strings.Split(s, ":"))
		}
	}

	return r, nil
}

// Close releases the underlying file handles.
func (p *Parser) Close() error {
	var firstErr error
	if p.gzipReader != nil {
		if err := p.gzipReader.Close(); err != nil {
			firstErr = err
		}
	}
	if p.file != nil {
		if err := p.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SampleNamesOf opens a VCF just long enough to read its sample columns.
func SampleNamesOf(path string) ([]string, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return append([]string(nil), p.sampleNames...), nil
}
