package domain

// Answer is the terminal result of a query: generated text, the distinct
// source document ids that backed it (in similarity-rank order of first
// appearance), and a [0,1] confidence derived from retrieval evidence.
// Transient; never persisted by the core.
type Answer struct {
	Text       string
	Sources    []string
	Confidence float64
	// InsufficientEvidence marks the deterministic no-evidence answer.
	// It is a valid terminal state, not an error.
	InsufficientEvidence bool
}
