package parser

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cloo-solutions/docqa/internal/domain"
)

const pdfTool = "pdftotext"

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFExtractor extracts text from PDFs by shelling out to pdftotext.
type PDFExtractor struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// NewPDFExtractor creates a PDFExtractor backed by os/exec.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{runner: execRunner{}, lookPath: exec.LookPath}
}

// NewPDFExtractorWithRunner creates a PDFExtractor with an injected runner,
// used by tests.
func NewPDFExtractorWithRunner(runner CommandRunner) *PDFExtractor {
	return &PDFExtractor{runner: runner, lookPath: func(string) (string, error) { return pdfTool, nil }}
}

// Extract writes the PDF bytes to a temp file and runs pdftotext over it.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if _, err := e.lookPath(pdfTool); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnsupportedFormat,
			"pdftotext not found in PATH; install poppler-utils to ingest PDFs", err)
	}

	tmpDir, err := os.MkdirTemp("", "docqa-pdf-*")
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeParseError, "failed to create temp dir", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeParseError, "failed to write temp pdf", err)
	}

	// "-" sends extracted text to stdout; -layout keeps table-ish text readable.
	out, err := e.runner.Run(ctx, pdfTool, "-layout", pdfPath, "-")
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeParseError, "pdftotext failed", err)
	}

	return string(out), nil
}
