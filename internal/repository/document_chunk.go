package repository

import (
	"context"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DocumentChunkRepository persists indexed chunk embeddings.
type DocumentChunkRepository struct {
	db dbtx
}

func NewDocumentChunkRepository(pool *pgxpool.Pool) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: pool}
}

func NewDocumentChunkRepositoryWithTx(tx dbtx) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: tx}
}

// Upsert writes one chunk's embedding. A re-delivered chunk key overwrites
// the previous row instead of duplicating it.
func (r *DocumentChunkRepository) Upsert(ctx context.Context, chunk *domain.DocumentChunk) error {
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO document_chunks
			(id, org_id, knowledge_base_id, document_id, chunk_key, content, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (knowledge_base_id, document_id, chunk_key)
		 DO UPDATE SET id = EXCLUDED.id,
		               content = EXCLUDED.content,
		               embedding = EXCLUDED.embedding,
		               created_at = EXCLUDED.created_at`,
		chunk.ID,
		chunk.OrgID,
		chunk.KnowledgeBaseID,
		chunk.DocumentID,
		chunk.ChunkKey,
		chunk.Content,
		pgvector.NewVector(chunk.Embedding),
		createdAt,
	)
	return err
}

// DeleteByDocument removes all chunks for a document.
func (r *DocumentChunkRepository) DeleteByDocument(ctx context.Context, knowledgeBaseID, documentID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM document_chunks WHERE knowledge_base_id = $1 AND document_id = $2`,
		knowledgeBaseID, documentID,
	)
	return err
}

// CountByDocument reports how many chunks a document has in the index.
func (r *DocumentChunkRepository) CountByDocument(ctx context.Context, knowledgeBaseID, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE knowledge_base_id = $1 AND document_id = $2`,
		knowledgeBaseID, documentID,
	).Scan(&count)
	return count, err
}
