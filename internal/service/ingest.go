package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/docstore"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/google/uuid"
)

// IngestDocumentRepository is the document record access the ingest flow needs.
type IngestDocumentRepository interface {
	GetDocument(ctx context.Context, knowledgeBaseID, documentID string) (*domain.DocumentRecord, error)
	UpdateIndexStatus(ctx context.Context, key docstore.RecordKey, status domain.IndexStatus, updatedAt time.Time) error
}

// IngestBlobStore reads uploaded documents and writes chunk objects.
type IngestBlobStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// ChunkJobCreator enqueues chunk-indexing jobs.
type ChunkJobCreator interface {
	Create(ctx context.Context, job *domain.ChunkJob) error
}

// IngestService splits an uploaded document into chunk objects and fans out
// one indexing job per chunk. Chunk indices are 1-based so the last chunk's
// index equals the total.
type IngestService struct {
	docs     IngestDocumentRepository
	blobs    IngestBlobStore
	jobs     ChunkJobCreator
	chunkCfg ChunkConfig
	newID    func() string
}

// NewIngestService creates a new IngestService instance
func NewIngestService(docs IngestDocumentRepository, blobs IngestBlobStore, jobs ChunkJobCreator) *IngestService {
	return &IngestService{
		docs:     docs,
		blobs:    blobs,
		jobs:     jobs,
		chunkCfg: DefaultChunkConfig(),
		newID:    uuid.NewString,
	}
}

// StartIndexing reads the uploaded document, writes its chunks to blob
// storage, enqueues one job per chunk, and flips the record to INDEXING.
// Returns the number of chunks enqueued.
func (s *IngestService) StartIndexing(ctx context.Context, knowledgeBaseID, documentID string) (int, error) {
	record, err := s.docs.GetDocument(ctx, knowledgeBaseID, documentID)
	if err != nil {
		return 0, err
	}
	if record.StorageKey == "" {
		return 0, domain.ErrDocumentNotUploaded
	}

	data, err := s.blobs.GetObject(ctx, "", record.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read document: %w", err)
	}

	chunks := chunkText(string(data), s.chunkCfg)
	if len(chunks) == 0 {
		return 0, domain.NewDomainError(domain.ErrCodeValidation, "document has no extractable text")
	}

	now := time.Now().UTC()
	for i, chunk := range chunks {
		chunkKey := fmt.Sprintf("chunks/%s/chunk-%d.txt", documentID, i+1)
		if err := s.blobs.PutObject(ctx, chunkKey, []byte(chunk), "text/plain"); err != nil {
			return 0, fmt.Errorf("failed to write chunk %d: %w", i+1, err)
		}

		job := &domain.ChunkJob{
			ID:              s.newID(),
			OrgID:           record.OrgID,
			KnowledgeBaseID: knowledgeBaseID,
			DocumentID:      documentID,
			ChunkKey:        chunkKey,
			ChunkIndex:      i + 1,
			TotalChunks:     len(chunks),
			Status:          domain.ChunkJobStatusPending,
			CreatedAt:       now,
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			return 0, fmt.Errorf("failed to enqueue chunk job %d: %w", i+1, err)
		}
	}

	key := docstore.RecordKey{
		PartitionKey: domain.DocumentPartitionKey,
		SortKey:      record.SortKey(),
	}
	if err := s.docs.UpdateIndexStatus(ctx, key, domain.IndexStatusIndexing, now); err != nil {
		return 0, fmt.Errorf("failed to mark document indexing: %w", err)
	}

	return len(chunks), nil
}
