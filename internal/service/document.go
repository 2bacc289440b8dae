package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/pagination"
	"github.com/google/uuid"
)

// DocumentStorageClient is the blob storage access the document flow needs.
type DocumentStorageClient interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// DocumentRepositoryInterface is the record access the document flow needs.
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, record *domain.DocumentRecord) error
	GetDocument(ctx context.Context, knowledgeBaseID, documentID string) (*domain.DocumentRecord, error)
	ListByKnowledgeBase(ctx context.Context, knowledgeBaseID string, cursor *pagination.Cursor, limit int) ([]*domain.DocumentRecord, error)
	Delete(ctx context.Context, knowledgeBaseID, documentID string) error
}

// DocumentChunkDeleter removes a deleted document's chunks from the index.
type DocumentChunkDeleter interface {
	DeleteByDocument(ctx context.Context, knowledgeBaseID, documentID string) error
}

// DocumentService manages document records and their uploaded content.
type DocumentService struct {
	docs    DocumentRepositoryInterface
	storage DocumentStorageClient
	chunks  DocumentChunkDeleter
	newID   func() string
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(docs DocumentRepositoryInterface, storage DocumentStorageClient, chunks DocumentChunkDeleter) *DocumentService {
	return &DocumentService{
		docs:    docs,
		storage: storage,
		chunks:  chunks,
		newID:   uuid.NewString,
	}
}

type RegisterDocumentInput struct {
	OrgID           string
	KnowledgeBaseID string
	Filename        string
	ContentType     string
}

type RegisterDocumentResult struct {
	Document  *domain.DocumentRecord
	UploadURL string
}

// Register creates a PENDING document record and returns a presigned URL the
// caller uploads the content to.
func (s *DocumentService) Register(ctx context.Context, input RegisterDocumentInput) (*RegisterDocumentResult, error) {
	if input.OrgID == "" || input.KnowledgeBaseID == "" || input.Filename == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "orgId, knowledgeBaseId and filename are required")
	}

	documentID := s.newID()
	storageKey := fmt.Sprintf("documents/%s/%s", documentID, input.Filename)

	record := domain.NewDocumentRecord(documentID, input.KnowledgeBaseID, input.OrgID,
		input.Filename, input.ContentType, storageKey, time.Now().UTC())

	if err := domain.ValidateDocumentRecord(record); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document record", err)
	}

	if err := s.docs.Create(ctx, record); err != nil {
		return nil, err
	}

	uploadURL, err := s.storage.GenerateUploadURL(ctx, storageKey, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &RegisterDocumentResult{
		Document:  record,
		UploadURL: uploadURL,
	}, nil
}

// Get returns one document record.
func (s *DocumentService) Get(ctx context.Context, knowledgeBaseID, documentID string) (*domain.DocumentRecord, error) {
	return s.docs.GetDocument(ctx, knowledgeBaseID, documentID)
}

// List pages through a knowledge base's documents, newest first.
func (s *DocumentService) List(ctx context.Context, knowledgeBaseID, cursor string, limit int) (*pagination.PageResult[*domain.DocumentRecord], error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	decoded, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	records, err := s.docs.ListByKnowledgeBase(ctx, knowledgeBaseID, decoded, limit)
	if err != nil {
		return nil, err
	}

	next := pagination.CreateNextCursor(records, limit,
		func(r *domain.DocumentRecord) string { return r.DocumentID },
		func(r *domain.DocumentRecord) time.Time { return r.CreatedAt },
	)

	return &pagination.PageResult[*domain.DocumentRecord]{
		Items:   records,
		Cursor:  next,
		HasMore: next != "",
	}, nil
}

// Delete removes the record, its indexed chunks, and the stored content. The
// record goes first so racing chunk events observe the deletion and skip.
func (s *DocumentService) Delete(ctx context.Context, knowledgeBaseID, documentID string) error {
	record, err := s.docs.GetDocument(ctx, knowledgeBaseID, documentID)
	if err != nil {
		return err
	}

	if err := s.docs.Delete(ctx, knowledgeBaseID, documentID); err != nil {
		return err
	}

	if err := s.chunks.DeleteByDocument(ctx, knowledgeBaseID, documentID); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}

	if record.StorageKey != "" {
		if err := s.storage.DeleteObject(ctx, record.StorageKey); err != nil {
			return fmt.Errorf("failed to delete document content: %w", err)
		}
	}

	return nil
}
