package caller

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/variantops/vcfsquare/internal/vcf"
)

// postOptions selects which normalization stages a backend applies on top
// of the shared demotion policy.
type postOptions struct {
	thresholds  Thresholds
	evidence    func(*vcf.Record) Evidence
	forcePass   bool              // reset FILTER to PASS before re-filtering
	dedupeAlts  bool              // drop redundant alternate alleles
	clampQual   bool              // raise surviving QUAL to at least 1
	headerFixes map[string]string // header-line prefix → replacement line
}

// postProcess turns a backend's raw region output into the normalized
// per-sample call set: restrict to the requested targets, apply the
// demotion policy, and synthesize explicit no-calls for targets the caller
// produced nothing for. The result covers every requested position.
func postProcess(rawPath, outPath string, req Request, o postOptions) error {
	p, err := vcf.NewParser(rawPath)
	if err != nil {
		return err
	}
	defer p.Close()

	ploidy := req.Ploidy
	if ploidy <= 0 {
		ploidy = 2
	}
	refGT := genotype("0", ploidy)
	noCallGT := genotype(".", ploidy)

	covered := make(vcf.PositionSet)
	var out []*vcf.Record

	for {
		rec, err := p.Next()
		if err != nil {
			return fmt.Errorf("%s: %w", rawPath, err)
		}
		if rec == nil {
			break
		}
		if !req.Targets.Has(rec.PosKey()) {
			// Callers may emit calls adjacent to a target; the contract is
			// exactly the requested positions.
			continue
		}
		if covered.Has(rec.PosKey()) {
			continue
		}
		covered.Add(rec.PosKey())

		if o.forcePass {
			rec.Filter = "PASS"
		}
		if o.dedupeAlts {
			rec.Alt = dedupe(rec.Alt)
		}
		if len(rec.Samples) == 0 {
			rec.Format = []string{"GT"}
			rec.Samples = [][]string{{noCallGT}}
		}

		switch o.thresholds.Evaluate(o.evidence(rec)) {
		case Keep:
			if o.clampQual && rec.Qual >= 0 && rec.Qual < 1 {
				rec.Qual = 1
			}
		case DemoteReference:
			rec.SetSampleField(0, "GT", refGT)
			rec.Filter = "PASS"
			if o.clampQual && rec.Qual >= 0 && rec.Qual < 1 {
				rec.Qual = 1
			}
		case DemoteNoCall:
			rec.SetSampleField(0, "GT", noCallGT)
			rec.Qual = vcf.MissingQual
		}
		out = append(out, rec)
	}

	// Targets the caller stayed silent on become explicit no-calls.
	for _, k := range req.Targets.Sorted() {
		if covered.Has(k) {
			continue
		}
		out = append(out, &vcf.Record{
			Chrom:   k.Chrom,
			Pos:     k.Pos,
			Ref:     "N",
			Qual:    vcf.MissingQual,
			Filter:  ".",
			Info:    ".",
			Format:  []string{"GT"},
			Samples: [][]string{{noCallGT}},
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Chrom != out[j].Chrom {
			return out[i].Chrom < out[j].Chrom
		}
		return out[i].Pos < out[j].Pos
	})

	header := rewriteHeader(p.Header(), req.Sample, o.headerFixes)

	// Write through a temp file and rename, so an interrupted run never
	// leaves a partial result at the name resume checks look for.
	tmp := outPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := vcf.NewWriter(f, header)
	for _, rec := range out {
		if err := w.WriteRecord(rec); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, outPath)
}

// rewriteHeader applies backend header fixes and renames the sample column.
func rewriteHeader(header []string, sample string, fixes map[string]string) []string {
	out := make([]string, 0, len(header))
	for _, line := range header {
		if strings.HasPrefix(line, "#CHROM") {
			out = append(out,
				"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t"+sample)
			continue
		}
		replaced := line
		for prefix, repl := range fixes {
			if strings.HasPrefix(line, prefix) {
				replaced = repl
				break
			}
		}
		out = append(out, replaced)
	}
	return out
}

func genotype(allele string, ploidy int) string {
	parts := make([]string, ploidy)
	for i := range parts {
		parts[i] = allele
	}
	return strings.Join(parts, "/")
}

func dedupe(alts []string) []string {
	if len(alts) < 2 {
		return alts
	}
	seen := make(map[string]bool, len(alts))
	out := alts[:0]
	for _, a := range alts {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
