package domain

import "time"

// Chunk is a contiguous span of a document's extracted text used as a
// retrieval unit. Start and End are rune offsets into the extracted text;
// neighbouring chunks overlap by design.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
	Start      int
	End        int
}

// ChunkRecord is the durable form of a chunk stored in the vector index.
type ChunkRecord struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Text       string
	Embedding  []float32
	IngestedAt time.Time
}

// RetrievedChunk is one search hit: chunk text, its source document and
// the similarity score the index assigned.
type RetrievedChunk struct {
	ChunkID    string
	DocumentID string
	Text       string
	Score      float32
}

// RetrievalResult is the ordered, thresholded outcome of one query against
// the vector index. Transient; constructed per query.
type RetrievalResult struct {
	Chunks []RetrievedChunk
}

// Empty reports whether retrieval produced no usable evidence.
func (r *RetrievalResult) Empty() bool {
	return r == nil || len(r.Chunks) == 0
}

// TopScore returns the highest similarity score, or zero when empty.
func (r *RetrievalResult) TopScore() float32 {
	if r.Empty() {
		return 0
	}
	return r.Chunks[0].Score
}

// Scores returns the similarity scores in result order.
func (r *RetrievalResult) Scores() []float32 {
	if r.Empty() {
		return nil
	}
	scores := make([]float32, len(r.Chunks))
	for i, c := range r.Chunks {
		scores[i] = c.Score
	}
	return scores
}
