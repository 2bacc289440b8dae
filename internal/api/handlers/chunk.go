package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/api"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
)

// ChunkIndexer processes one chunk event synchronously.
type ChunkIndexer interface {
	IndexChunk(ctx context.Context, event *domain.ChunkEvent) (*domain.IndexChunkResult, error)
}

// ChunkHandler exposes the synchronous chunk-indexing entry point used by the
// upstream pipeline. The request and response bodies are the pipeline's
// camelCase wire contract, not the service's own API shape.
type ChunkHandler struct {
	indexer ChunkIndexer
}

func NewChunkHandler(indexer ChunkIndexer) *ChunkHandler {
	return &ChunkHandler{indexer: indexer}
}

func (h *ChunkHandler) Index(w http.ResponseWriter, r *http.Request) {
	var event domain.ChunkEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.indexer.IndexChunk(r.Context(), &event)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	// The result is returned verbatim, without the data envelope.
	api.JSON(w, http.StatusOK, result)
}
