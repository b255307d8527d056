package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloo-solutions/docqa/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// CommittedChunks is set for partial-ingestion errors so callers know
	// how much of the document made it into the index before the failure.
	CommittedChunks *int `json:"committed_chunks,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DomainErrorToHTTP maps domain errors to HTTP status codes
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var partial *domain.PartialIngestionError
	if errors.As(err, &partial) {
		// Status follows the underlying cause: a rate-limited provider is
		// still 429 even when the failure left chunks behind.
		return DomainErrorToHTTP(partial.Err)
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case domain.ErrCodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case domain.ErrCodeParseError:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case domain.ErrCodeEmbeddingUnavailable, domain.ErrCodeGenerationUnavailable, domain.ErrCodeNotReady:
		return http.StatusServiceUnavailable
	case domain.ErrCodeInvalidConfig, domain.ErrCodeDimensionMismatch, domain.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes an appropriate error response based on the error type
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)

	resp := ErrorResponse{Error: err.Error()}

	var partial *domain.PartialIngestionError
	if errors.As(err, &partial) {
		resp.Code = domain.ErrCodePartialIngestion
		committed := partial.Committed
		resp.CommittedChunks = &committed
	} else {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			resp.Code = domainErr.Code
		}
	}

	JSON(w, status, resp)
}
