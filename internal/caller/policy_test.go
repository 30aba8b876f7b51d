package caller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholds_Evaluate(t *testing.T) {
	th := freebayesThresholds

	tests := []struct {
		name string
		e    Evidence
		want Verdict
	}{
		{
			name: "strong variant kept",
			e:    Evidence{Qual: 100, Depth: 30, AltSupport: 15},
			want: Keep,
		},
		{
			name: "zero support below depth floor is an explicit no-call",
			e:    Evidence{Qual: 30, Depth: 2, AltSupport: 0},
			want: DemoteNoCall,
		},
		{
			name: "zero support with depth is quality-filtered to no-call",
			e:    Evidence{Qual: 2, Depth: 20, AltSupport: 0},
			want: DemoteNoCall,
		},
		{
			name: "low quality with support becomes a reference call",
			e:    Evidence{Qual: 3, Depth: 20, AltSupport: 4},
			want: DemoteReference,
		},
		{
			name: "low AF shallow depth fails outright",
			e:    Evidence{Qual: 90, Depth: 3, AltSupport: 1},
			want: DemoteReference,
		},
		{
			name: "low AF mid depth needs quality",
			e:    Evidence{Qual: 8, Depth: 10, AltSupport: 3},
			want: DemoteReference,
		},
		{
			name: "low AF mid depth with quality survives",
			e:    Evidence{Qual: 15, Depth: 10, AltSupport: 3},
			want: Keep,
		},
		{
			name: "high AF shallow depth survives on quality",
			e:    Evidence{Qual: 60, Depth: 3, AltSupport: 3},
			want: Keep,
		},
		{
			name: "high AF shallow depth low quality fails",
			e:    Evidence{Qual: 20, Depth: 3, AltSupport: 3},
			want: DemoteReference,
		},
		{
			name: "zero support but deep coverage is a reference call",
			e:    Evidence{Qual: 40, Depth: 30, AltSupport: 0},
			want: Keep, // clears low-AF thresholds: genuine reference call
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.Evaluate(tt.e))
		})
	}
}

func TestEvidence_AlleleFreq(t *testing.T) {
	assert.InDelta(t, 0.5, Evidence{Depth: 30, AltSupport: 15}.AlleleFreq(), 1e-9)
	assert.Zero(t, Evidence{Depth: 0, AltSupport: 5}.AlleleFreq())
}
