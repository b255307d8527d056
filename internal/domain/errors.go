package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeInvalidConfig         = "INVALID_CONFIG"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeDimensionMismatch     = "DIMENSION_MISMATCH"
	ErrCodeEmbeddingUnavailable  = "EMBEDDING_UNAVAILABLE"
	ErrCodeGenerationUnavailable = "GENERATION_UNAVAILABLE"
	ErrCodeRateLimited           = "RATE_LIMITED"
	ErrCodeUnsupportedFormat     = "UNSUPPORTED_FORMAT"
	ErrCodeParseError            = "PARSE_ERROR"
	ErrCodePartialIngestion      = "PARTIAL_INGESTION"
	ErrCodeNotReady              = "NOT_READY"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidChunkConfig = NewDomainError(ErrCodeInvalidConfig, "chunk overlap must be non-negative and smaller than chunk size")
	ErrEmbedderMismatch   = NewDomainError(ErrCodeInvalidConfig, "embedder configuration does not match the one bound to the index")
	ErrEmptyQuery         = NewDomainError(ErrCodeInvalidInput, "query cannot be empty")
	ErrEmptyText          = NewDomainError(ErrCodeInvalidInput, "text cannot be empty")
	ErrEmptyDocument      = NewDomainError(ErrCodeInvalidInput, "document has no content")
)

// External capability errors
var (
	ErrDimensionMismatch     = NewDomainError(ErrCodeDimensionMismatch, "vector length does not match index dimensionality")
	ErrEmbeddingUnavailable  = NewDomainError(ErrCodeEmbeddingUnavailable, "embedding provider unreachable after retries")
	ErrGenerationUnavailable = NewDomainError(ErrCodeGenerationUnavailable, "generation provider unreachable after retries")
	ErrRateLimited           = NewDomainError(ErrCodeRateLimited, "provider rate limit exceeded")
	ErrUnsupportedFormat     = NewDomainError(ErrCodeUnsupportedFormat, "unsupported document content type")
)

// PartialIngestionError reports how many chunks were committed before an
// ingestion failed. Already-committed chunks are not rolled back;
// deterministic chunk ids make a whole-document retry convergent.
type PartialIngestionError struct {
	DocumentID string
	Committed  int
	Err        error
}

func (e *PartialIngestionError) Error() string {
	return fmt.Sprintf("[%s] ingestion of document %s failed after committing %d chunks: %v",
		ErrCodePartialIngestion, e.DocumentID, e.Committed, e.Err)
}

func (e *PartialIngestionError) Unwrap() error {
	return e.Err
}
