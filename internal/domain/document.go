package domain

import (
	"strings"
	"time"
)

// ContentType identifies the declared format of an uploaded document.
type ContentType string

const (
	ContentTypeText ContentType = "text/plain"
	ContentTypeCSV  ContentType = "text/csv"
	ContentTypePDF  ContentType = "application/pdf"
)

// NormalizeContentType maps common aliases (file extensions, parameterised
// MIME types) onto a canonical ContentType. Returns false when the format
// is not one docqa ingests.
func NormalizeContentType(raw string) (ContentType, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(value, ";"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	switch value {
	case "text/plain", "txt", ".txt", "text":
		return ContentTypeText, true
	case "text/csv", "application/csv", "csv", ".csv":
		return ContentTypeCSV, true
	case "application/pdf", "pdf", ".pdf":
		return ContentTypePDF, true
	}
	return "", false
}

// Document is a raw uploaded document. It is owned by the ingestion
// pipeline for the duration of one Ingest call and not retained after
// chunking.
type Document struct {
	ID          string
	Content     []byte
	ContentType ContentType
	UploadedAt  time.Time
}

// ValidateDocument checks that a document can enter the ingestion pipeline.
func ValidateDocument(d *Document) error {
	if d == nil {
		return ErrEmptyDocument
	}
	if d.ID == "" {
		return NewDomainError(ErrCodeInvalidInput, "document id is required")
	}
	if len(d.Content) == 0 {
		return ErrEmptyDocument
	}
	if _, ok := NormalizeContentType(string(d.ContentType)); !ok {
		return ErrUnsupportedFormat
	}
	return nil
}

// IngestResult reports the outcome of a successful ingestion.
type IngestResult struct {
	DocumentID    string
	ChunksIndexed int
	ChunkIDs      []string
}
