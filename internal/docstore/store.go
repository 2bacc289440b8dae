// Package docstore defines the composite-key record store contract consumed by
// the chunk indexing core. The physical store is Postgres here, but the
// interface mirrors a single-table key-value layout (fixed partition key,
// composite sort key) so the indexing logic stays independent of the backend.
package docstore

import (
	"context"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
)

// RecordKey identifies one record in the single-table store.
type RecordKey struct {
	PartitionKey string
	SortKey      string
}

// Store is the document record store used by the indexing pipeline.
type Store interface {
	// GetDocument fetches the document record for a knowledge base + document
	// pair. Returns domain.ErrDocumentNotFound on a miss.
	GetDocument(ctx context.Context, knowledgeBaseID, documentID string) (*domain.DocumentRecord, error)

	// QueryKeysByPrefix returns the keys of all records under partitionKey
	// whose sort key begins with sortKeyPrefix. Keys-only projection; the
	// targeted completion path needs nothing else.
	QueryKeysByPrefix(ctx context.Context, partitionKey, sortKeyPrefix string) ([]RecordKey, error)

	// ScanPartitionKeys pages through every key under partitionKey in sort-key
	// order. startAfter is the continuation token from the previous page (the
	// last sort key seen); empty means start from the beginning. An empty
	// nextToken means the partition is exhausted.
	ScanPartitionKeys(ctx context.Context, partitionKey, startAfter string, limit int) (keys []RecordKey, nextToken string, err error)

	// UpdateIndexStatus applies a single unconditional field-level update to
	// one record. Idempotent: writing the same terminal status twice is safe.
	UpdateIndexStatus(ctx context.Context, key RecordKey, status domain.IndexStatus, updatedAt time.Time) error
}
