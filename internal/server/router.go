package server

import (
	"net/http"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/api"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/api/handlers"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	KeyValidator    middleware.KeyValidator
	DocumentHandler *handlers.DocumentHandler
	ChunkHandler    *handlers.ChunkHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.KeyValidator))

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Register)
			r.Get("/{knowledgeBaseId}", cfg.DocumentHandler.List)
			r.Get("/{knowledgeBaseId}/{documentId}", cfg.DocumentHandler.Get)
			r.Delete("/{knowledgeBaseId}/{documentId}", cfg.DocumentHandler.Delete)
			r.Post("/{knowledgeBaseId}/{documentId}/ingest", cfg.DocumentHandler.Ingest)
		})

		r.Post("/chunks/index", cfg.ChunkHandler.Index)
	})

	return r
}
