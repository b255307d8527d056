package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/cloo-solutions/docqa/internal/api"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/go-chi/chi/v5"
)

type RAGService interface {
	Query(ctx context.Context, query, language string) (*domain.Answer, error)
	Ingest(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error)
	DocumentChunkCount(ctx context.Context, documentID string) (int, error)
	DeleteDocument(ctx context.Context, documentID string) (int64, error)
	IsReady(ctx context.Context) bool
}

// DocumentArchiver keeps a copy of the raw upload, typically in object
// storage. Archival on ingest is best effort and never fails an
// ingestion; the archived copy backs re-ingestion and download links.
type DocumentArchiver interface {
	Put(ctx context.Context, documentID string, contentType string, data []byte) error
	Fetch(ctx context.Context, documentID string) ([]byte, string, error)
	DownloadURL(ctx context.Context, documentID string) (string, error)
	Delete(ctx context.Context, documentID string) error
}

type RAGHandler struct {
	svc      RAGService
	archiver DocumentArchiver
}

func NewRAGHandler(svc RAGService) *RAGHandler {
	return &RAGHandler{svc: svc}
}

// NewRAGHandlerWithArchiver creates a RAG handler that also archives raw uploads.
func NewRAGHandlerWithArchiver(svc RAGService, archiver DocumentArchiver) *RAGHandler {
	return &RAGHandler{svc: svc, archiver: archiver}
}

type IngestResponse struct {
	DocumentID    string   `json:"document_id"`
	ChunksIndexed int      `json:"chunks_indexed"`
	ChunkIDs      []string `json:"chunk_ids"`
}

type QueryRequest struct {
	Query    string `json:"query"`
	Language string `json:"lang,omitempty"`
}

type QueryResponse struct {
	Answer               string   `json:"answer"`
	Sources              []string `json:"sources"`
	Confidence           float64  `json:"confidence"`
	InsufficientEvidence bool     `json:"insufficient_evidence"`
}

type DocumentResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
	DownloadURL   string `json:"download_url,omitempty"`
}

type DeleteDocumentResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksDeleted int64  `json:"chunks_deleted"`
}

type ReadyResponse struct {
	Ready bool `json:"ready"`
}

const maxMultipartMemory = 8 << 20

// IngestDocument accepts a multipart upload and indexes it synchronously.
// The form must carry a "file" part; an optional "document_id" field
// overrides the filename as the document's identity.
func (h *RAGHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	documentID := r.FormValue("document_id")
	if documentID == "" {
		documentID = header.Filename
	}
	if documentID == "" {
		api.Error(w, http.StatusBadRequest, "document_id or filename is required")
		return
	}

	contentType, ok := resolveContentType(header.Header.Get("Content-Type"), header.Filename)
	if !ok {
		api.HandleError(w, domain.ErrUnsupportedFormat)
		return
	}

	doc := &domain.Document{
		ID:          documentID,
		Content:     data,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}

	if h.archiver != nil {
		if err := h.archiver.Put(r.Context(), documentID, string(contentType), data); err != nil {
			log.Printf("failed to archive document %s: %v", documentID, err)
		}
	}

	result, err := h.svc.Ingest(r.Context(), doc)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, IngestResponse{
		DocumentID:    result.DocumentID,
		ChunksIndexed: result.ChunksIndexed,
		ChunkIDs:      result.ChunkIDs,
	})
}

// Query answers a question from the indexed documents.
func (h *RAGHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	answer, err := h.svc.Query(r.Context(), req.Query, req.Language)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}

	api.Success(w, http.StatusOK, QueryResponse{
		Answer:               answer.Text,
		Sources:              sources,
		Confidence:           answer.Confidence,
		InsufficientEvidence: answer.InsufficientEvidence,
	})
}

// GetDocument reports a document's index footprint: how many chunks it
// contributed, plus a presigned download link when an archive is
// configured.
func (h *RAGHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	count, err := h.svc.DocumentChunkCount(r.Context(), documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if count == 0 {
		api.Error(w, http.StatusNotFound, "document not found")
		return
	}

	resp := DocumentResponse{DocumentID: documentID, ChunksIndexed: count}
	if h.archiver != nil {
		url, err := h.archiver.DownloadURL(r.Context(), documentID)
		if err != nil {
			log.Printf("failed to presign download for document %s: %v", documentID, err)
		} else {
			resp.DownloadURL = url
		}
	}

	api.Success(w, http.StatusOK, resp)
}

// DeleteDocument removes a document's chunks from the index and, when an
// archive is configured, its archived copy.
func (h *RAGHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	deleted, err := h.svc.DeleteDocument(r.Context(), documentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if deleted == 0 {
		api.Error(w, http.StatusNotFound, "document not found")
		return
	}

	if h.archiver != nil {
		if err := h.archiver.Delete(r.Context(), documentID); err != nil {
			log.Printf("failed to delete archived document %s: %v", documentID, err)
		}
	}

	api.Success(w, http.StatusOK, DeleteDocumentResponse{
		DocumentID:    documentID,
		ChunksDeleted: deleted,
	})
}

// ReingestDocument re-runs the ingestion pipeline from the archived raw
// upload, refreshing the index after a chunking or embedding change.
// Chunk ids are deterministic per document, so re-ingestion converges
// instead of duplicating.
func (h *RAGHandler) ReingestDocument(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		api.Error(w, http.StatusNotImplemented, "document archive is not configured")
		return
	}

	documentID := chi.URLParam(r, "documentID")

	data, contentType, err := h.archiver.Fetch(r.Context(), documentID)
	if err != nil {
		api.Error(w, http.StatusNotFound, "document not found in archive")
		return
	}

	ct, ok := domain.NormalizeContentType(contentType)
	if !ok {
		api.HandleError(w, domain.ErrUnsupportedFormat)
		return
	}

	result, err := h.svc.Ingest(r.Context(), &domain.Document{
		ID:          documentID,
		Content:     data,
		ContentType: ct,
		UploadedAt:  time.Now().UTC(),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IngestResponse{
		DocumentID:    result.DocumentID,
		ChunksIndexed: result.ChunksIndexed,
		ChunkIDs:      result.ChunkIDs,
	})
}

// Ready reports whether the service can answer queries.
func (h *RAGHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.svc.IsReady(r.Context()) {
		api.JSON(w, http.StatusServiceUnavailable, api.SuccessResponse{Data: ReadyResponse{Ready: false}})
		return
	}
	api.Success(w, http.StatusOK, ReadyResponse{Ready: true})
}

// resolveContentType picks the document format from the multipart header,
// falling back to the filename extension.
func resolveContentType(headerValue, filename string) (domain.ContentType, bool) {
	if headerValue != "" && headerValue != "application/octet-stream" {
		if ct, ok := domain.NormalizeContentType(headerValue); ok {
			return ct, true
		}
	}
	if ext := filepath.Ext(filename); ext != "" {
		if ct, ok := domain.NormalizeContentType(ext); ok {
			return ct, true
		}
	}
	return "", false
}
