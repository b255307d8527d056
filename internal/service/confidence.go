package service

import "math"

// ConfidenceFunc maps retrieval scores (descending) to a confidence
// value in [0, 1].
type ConfidenceFunc func(scores []float32) float64

const (
	// maxConfidence keeps the service from ever claiming certainty.
	maxConfidence = 0.95

	// clusterWindow and clusterMaxDiscount penalize undifferentiated
	// evidence: when every hit scores about the same, the top score says
	// less about the answer than when one passage clearly dominates.
	clusterWindow      = 0.05
	clusterMaxDiscount = 0.20
)

// EvidenceConfidence is the default ConfidenceFunc: the top similarity
// score, discounted by up to 20% as the remaining scores cluster within
// 0.05 of it, capped at 0.95.
func EvidenceConfidence(scores []float32) float64 {
	if len(scores) == 0 {
		return 0
	}

	top := float64(scores[0])
	if top <= 0 {
		return 0
	}
	if top > 1 {
		top = 1
	}

	discount := 0.0
	if len(scores) > 1 {
		clustered := 0
		for _, s := range scores[1:] {
			if top-float64(s) <= clusterWindow {
				clustered++
			}
		}
		discount = clusterMaxDiscount * float64(clustered) / float64(len(scores)-1)
	}

	c := top * (1 - discount)
	if c > maxConfidence {
		c = maxConfidence
	}
	return math.Round(c*100) / 100
}
