// Package parser extracts plain text from uploaded documents.
package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"unicode"

	"github.com/cloo-solutions/docqa/internal/domain"
)

// Extractor turns raw document bytes into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte, contentType domain.ContentType) (string, error)
}

// TextExtractor dispatches extraction per content type.
type TextExtractor struct {
	pdf *PDFExtractor
}

// New creates a TextExtractor with the default pdftotext-backed PDF extractor.
func New() *TextExtractor {
	return &TextExtractor{pdf: NewPDFExtractor()}
}

// NewWithPDF creates a TextExtractor with an explicit PDF extractor,
// used by tests to inject a command runner.
func NewWithPDF(pdf *PDFExtractor) *TextExtractor {
	return &TextExtractor{pdf: pdf}
}

// ExtractText extracts and normalises text for the given content type.
func (e *TextExtractor) ExtractText(ctx context.Context, data []byte, contentType domain.ContentType) (string, error) {
	normalized, ok := domain.NormalizeContentType(string(contentType))
	if !ok {
		return "", domain.ErrUnsupportedFormat
	}

	var text string
	var err error
	switch normalized {
	case domain.ContentTypeText:
		text = string(data)
	case domain.ContentTypeCSV:
		text, err = extractCSV(data)
	case domain.ContentTypePDF:
		text, err = e.pdf.Extract(ctx, data)
	default:
		return "", domain.ErrUnsupportedFormat
	}
	if err != nil {
		return "", err
	}

	return CleanText(text), nil
}

// extractCSV flattens CSV rows into comma-joined lines so cell values stay
// adjacent to their row context for embedding.
func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeParseError, "failed to parse csv", err)
	}

	var b strings.Builder
	for _, record := range records {
		b.WriteString(strings.Join(record, ", "))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// CleanText normalises extracted text: strips control characters (except
// newlines and tabs), collapses runs of spaces, and trims each line.
func CleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}

	cleaned := strings.Join(lines, "\n")
	// Collapse runs of blank lines left behind by extraction.
	for strings.Contains(cleaned, "\n\n\n") {
		cleaned = strings.ReplaceAll(cleaned, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(cleaned)
}
