package domain

import (
	"fmt"
	"time"
)

// IndexStatus represents the indexing state of a document
type IndexStatus string

const (
	IndexStatusPending  IndexStatus = "PENDING"
	IndexStatusIndexing IndexStatus = "INDEXING"
	IndexStatusIndexed  IndexStatus = "INDEXED"
	IndexStatusFailed   IndexStatus = "FAILED"
)

// DocumentPartitionKey is the fixed partition key under which all document
// metadata records live in the single-table store.
const DocumentPartitionKey = "DOCUMENT"

// DocumentSortKey builds the composite sort key for a document record.
func DocumentSortKey(knowledgeBaseID, documentID string) string {
	return "KB#" + knowledgeBaseID + "#DOC#" + documentID
}

// DocumentSortKeyPrefix builds the begins-with prefix used by targeted
// completion queries. Identical to DocumentSortKey today; kept separate so the
// query contract is explicit.
func DocumentSortKeyPrefix(knowledgeBaseID, documentID string) string {
	return DocumentSortKey(knowledgeBaseID, documentID)
}

// DocumentRecord identifies a document owned by a knowledge base.
type DocumentRecord struct {
	DocumentID      string
	KnowledgeBaseID string
	OrgID           string
	Filename        string
	ContentType     string
	StorageKey      string
	IndexStatus     IndexStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SortKey returns the record's composite sort key.
func (d *DocumentRecord) SortKey() string {
	return DocumentSortKey(d.KnowledgeBaseID, d.DocumentID)
}

// NewDocumentRecord creates a new DocumentRecord in the PENDING state.
func NewDocumentRecord(documentID, knowledgeBaseID, orgID, filename, contentType, storageKey string, now time.Time) *DocumentRecord {
	return &DocumentRecord{
		DocumentID:      documentID,
		KnowledgeBaseID: knowledgeBaseID,
		OrgID:           orgID,
		Filename:        filename,
		ContentType:     contentType,
		StorageKey:      storageKey,
		IndexStatus:     IndexStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ValidateDocumentRecord validates a DocumentRecord instance
func ValidateDocumentRecord(d *DocumentRecord) error {
	if d == nil {
		return fmt.Errorf("document record cannot be nil")
	}

	if d.DocumentID == "" {
		return fmt.Errorf("document DocumentID is required")
	}

	if d.KnowledgeBaseID == "" {
		return fmt.Errorf("document KnowledgeBaseID is required")
	}

	if d.OrgID == "" {
		return fmt.Errorf("document OrgID is required")
	}

	if !isValidIndexStatus(d.IndexStatus) {
		return fmt.Errorf("document IndexStatus is invalid: %s", d.IndexStatus)
	}

	return nil
}

// isValidIndexStatus checks if an IndexStatus is valid
func isValidIndexStatus(s IndexStatus) bool {
	switch s {
	case IndexStatusPending, IndexStatusIndexing, IndexStatusIndexed, IndexStatusFailed:
		return true
	}
	return false
}
