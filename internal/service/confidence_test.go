package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvidenceConfidence(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   float64
	}{
		{name: "no scores", scores: nil, want: 0},
		{name: "single mid score", scores: []float32{0.81}, want: 0.81},
		{name: "top score capped", scores: []float32{0.99}, want: 0.95},
		{name: "zero score", scores: []float32{0}, want: 0},
		{name: "negative score", scores: []float32{-0.3}, want: 0},
		{
			// all followers within the cluster window: full 20% discount
			name:   "fully clustered",
			scores: []float32{0.80, 0.79, 0.78, 0.77},
			want:   0.64,
		},
		{
			// well-separated followers: no discount
			name:   "clear winner",
			scores: []float32{0.80, 0.50, 0.40, 0.30},
			want:   0.80,
		},
		{
			// one of three followers clustered: a third of the discount
			name:   "partially clustered",
			scores: []float32{0.90, 0.88, 0.50, 0.40},
			want:   0.84,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EvidenceConfidence(tt.scores), 1e-9)
		})
	}
}

func TestEvidenceConfidence_NeverExceedsCap(t *testing.T) {
	for _, scores := range [][]float32{
		{1.0},
		{1.0, 0.1},
		{2.5, 0.1}, // out-of-range input clamps rather than overflows
	} {
		assert.LessOrEqual(t, EvidenceConfidence(scores), maxConfidence)
	}
}
