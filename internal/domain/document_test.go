package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentSortKey(t *testing.T) {
	sk := DocumentSortKey("kb1", "doc-123")
	assert.Equal(t, "KB#kb1#DOC#doc-123", sk)
}

func TestDocumentSortKeyPrefix_MatchesSortKey(t *testing.T) {
	assert.Equal(t,
		DocumentSortKey("kb1", "doc-123"),
		DocumentSortKeyPrefix("kb1", "doc-123"),
	)
}

func TestNewDocumentRecord(t *testing.T) {
	now := time.Now().UTC()
	d := NewDocumentRecord("doc-1", "kb-1", "org-1", "rfp.pdf", "application/pdf", "uploads/doc-1.pdf", now)

	assert.Equal(t, "doc-1", d.DocumentID)
	assert.Equal(t, "kb-1", d.KnowledgeBaseID)
	assert.Equal(t, "org-1", d.OrgID)
	assert.Equal(t, IndexStatusPending, d.IndexStatus)
	assert.Equal(t, now, d.CreatedAt)
	assert.Equal(t, now, d.UpdatedAt)
	assert.Equal(t, "KB#kb-1#DOC#doc-1", d.SortKey())
}

func TestValidateDocumentRecord_Valid(t *testing.T) {
	now := time.Now().UTC()
	d := NewDocumentRecord("doc-1", "kb-1", "org-1", "rfp.pdf", "application/pdf", "uploads/doc-1.pdf", now)

	assert.NoError(t, ValidateDocumentRecord(d))
}

func TestValidateDocumentRecord_Nil(t *testing.T) {
	err := ValidateDocumentRecord(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be nil")
}

func TestValidateDocumentRecord_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DocumentRecord)
		wantMsg string
	}{
		{"missing document id", func(d *DocumentRecord) { d.DocumentID = "" }, "DocumentID is required"},
		{"missing knowledge base id", func(d *DocumentRecord) { d.KnowledgeBaseID = "" }, "KnowledgeBaseID is required"},
		{"missing org id", func(d *DocumentRecord) { d.OrgID = "" }, "OrgID is required"},
		{"invalid status", func(d *DocumentRecord) { d.IndexStatus = "SOMETHING" }, "IndexStatus is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocumentRecord("doc-1", "kb-1", "org-1", "", "", "", time.Now().UTC())
			tt.mutate(d)

			err := ValidateDocumentRecord(d)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestIndexStatus_AllValid(t *testing.T) {
	for _, s := range []IndexStatus{IndexStatusPending, IndexStatusIndexing, IndexStatusIndexed, IndexStatusFailed} {
		assert.True(t, isValidIndexStatus(s), "expected %s to be valid", s)
	}
	assert.False(t, isValidIndexStatus("indexed"))
}
