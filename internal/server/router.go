package server

import (
	"net/http"

	"github.com/cloo-solutions/docqa/internal/api"
	"github.com/cloo-solutions/docqa/internal/api/handlers"
	"github.com/cloo-solutions/docqa/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	RAGHandler *handlers.RAGHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Uploads dominate body size; pdftotext output for anything bigger is
	// rarely useful as retrieval context anyway.
	const maxBodyBytes int64 = 32 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", cfg.RAGHandler.Ready)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", cfg.RAGHandler.IngestDocument)
		r.Get("/{documentID}", cfg.RAGHandler.GetDocument)
		r.Delete("/{documentID}", cfg.RAGHandler.DeleteDocument)
		r.Post("/{documentID}/reingest", cfg.RAGHandler.ReingestDocument)
	})
	r.Post("/query", cfg.RAGHandler.Query)

	return r
}
