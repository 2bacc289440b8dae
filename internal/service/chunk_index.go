package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/google/uuid"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkWriter persists indexed chunk embeddings.
type ChunkWriter interface {
	Upsert(ctx context.Context, chunk *domain.DocumentChunk) error
}

// ChunkIndexService embeds chunk text and writes it to the vector store. It
// satisfies the orchestrator's VectorIndexer dependency.
type ChunkIndexService struct {
	client EmbeddingClient
	chunks ChunkWriter
	newID  func() string
}

// NewChunkIndexService creates a new ChunkIndexService instance
func NewChunkIndexService(client EmbeddingClient, chunks ChunkWriter) *ChunkIndexService {
	return &ChunkIndexService{
		client: client,
		chunks: chunks,
		newID:  uuid.NewString,
	}
}

// Index embeds one chunk's text and upserts it under a fresh opaque ID, which
// is returned to the caller.
func (s *ChunkIndexService) Index(ctx context.Context, orgID string, doc *domain.DocumentRecord, chunkKey, text string) (string, error) {
	embedding, err := s.client.GenerateEmbedding(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to generate chunk embedding: %w", err)
	}

	chunk := &domain.DocumentChunk{
		ID:              s.newID(),
		OrgID:           orgID,
		KnowledgeBaseID: doc.KnowledgeBaseID,
		DocumentID:      doc.DocumentID,
		ChunkKey:        chunkKey,
		Content:         text,
		Embedding:       embedding,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.chunks.Upsert(ctx, chunk); err != nil {
		return "", fmt.Errorf("failed to store chunk embedding: %w", err)
	}

	return chunk.ID, nil
}
