package caller

// Raw caller output is not comparable across samples or callers. Every
// backend therefore runs its records through the same demotion policy
// shape, with thresholds tuned to its own score semantics: a call survives
// only if its quality and depth clear the thresholds selected by whether
// the computed allele frequency exceeds 0.5. Calls that fail are demoted
// to an explicit reference call when alternate support exists, or to an
// explicit no-call when it does not. Records are never dropped.

// Verdict is the outcome of evaluating one call.
type Verdict int

const (
	Keep Verdict = iota
	DemoteReference
	DemoteNoCall
)

// Evidence is the per-call support a verdict is based on.
type Evidence struct {
	Qual       float64
	Depth      int64
	AltSupport int64 // reads supporting any alternate allele
}

// AlleleFreq is the alternate allele frequency, 0 when depth is unknown.
func (e Evidence) AlleleFreq() float64 {
	if e.Depth <= 0 {
		return 0
	}
	return float64(e.AltSupport) / float64(e.Depth)
}

// Thresholds is one backend's tuning of the shared demotion policy.
type Thresholds struct {
	QualFloor   float64 // below this the call never survives
	DepthFloor  int64   // below this the call never survives
	LowAFDepth  int64   // AF <= 0.5: depth under this also needs LowAFQual
	LowAFQual   float64
	HighAFQual  float64 // AF > 0.5: quality needed when depth is under DepthFloor
	NoCallDepth int64   // zero support and depth under this → no-call
}

// Evaluate applies the demotion policy to one call.
func (t Thresholds) Evaluate(e Evidence) Verdict {
	if e.AltSupport == 0 && e.Depth < t.NoCallDepth {
		return DemoteNoCall
	}

	fail := e.Qual < t.QualFloor
	if !fail {
		if e.AlleleFreq() > 0.5 {
			fail = e.Depth < t.DepthFloor && e.Qual < t.HighAFQual
		} else {
			fail = e.Depth < t.DepthFloor ||
				(e.Depth < t.LowAFDepth && e.Qual < t.LowAFQual)
		}
	}
	if !fail {
		return Keep
	}
	if e.AltSupport == 0 {
		return DemoteNoCall
	}
	return DemoteReference
}
