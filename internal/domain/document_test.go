package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContentType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ContentType
		ok    bool
	}{
		{"plain mime", "text/plain", ContentTypeText, true},
		{"mime with charset", "text/plain; charset=utf-8", ContentTypeText, true},
		{"txt extension", ".txt", ContentTypeText, true},
		{"csv mime", "text/csv", ContentTypeCSV, true},
		{"csv alternative mime", "application/csv", ContentTypeCSV, true},
		{"pdf mime", "application/pdf", ContentTypePDF, true},
		{"pdf extension upper", ".PDF", ContentTypePDF, true},
		{"docx rejected", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", false},
		{"empty rejected", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeContentType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDocument(t *testing.T) {
	valid := &Document{
		ID:          "doc-1",
		Content:     []byte("hello"),
		ContentType: ContentTypeText,
	}
	assert.NoError(t, ValidateDocument(valid))

	assert.Error(t, ValidateDocument(nil))

	noID := &Document{Content: []byte("hello"), ContentType: ContentTypeText}
	assert.Error(t, ValidateDocument(noID))

	empty := &Document{ID: "doc-2", ContentType: ContentTypeText}
	assert.Equal(t, ErrEmptyDocument, ValidateDocument(empty))

	badType := &Document{ID: "doc-3", Content: []byte("x"), ContentType: "image/png"}
	assert.Equal(t, ErrUnsupportedFormat, ValidateDocument(badType))
}

func TestRetrievalResult_Helpers(t *testing.T) {
	var nilResult *RetrievalResult
	assert.True(t, nilResult.Empty())
	assert.Zero(t, nilResult.TopScore())
	assert.Nil(t, nilResult.Scores())

	result := &RetrievalResult{Chunks: []RetrievedChunk{
		{ChunkID: "c1", DocumentID: "d1", Score: 0.81},
		{ChunkID: "c2", DocumentID: "d2", Score: 0.44},
	}}
	assert.False(t, result.Empty())
	assert.Equal(t, float32(0.81), result.TopScore())
	assert.Equal(t, []float32{0.81, 0.44}, result.Scores())
}

func TestPartialIngestionError(t *testing.T) {
	cause := errors.New("embedding provider unreachable")
	err := &PartialIngestionError{DocumentID: "doc-1", Committed: 2, Err: cause}

	assert.Contains(t, err.Error(), ErrCodePartialIngestion)
	assert.Contains(t, err.Error(), "2 chunks")
	assert.Equal(t, cause, errors.Unwrap(err))

	var partial *PartialIngestionError
	assert.True(t, errors.As(err, &partial))
	assert.Equal(t, 2, partial.Committed)
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewDomainErrorWithCause(ErrCodeEmbeddingUnavailable, "embedding failed", cause)

	assert.Contains(t, err.Error(), ErrCodeEmbeddingUnavailable)
	assert.Equal(t, cause, errors.Unwrap(err))
}
