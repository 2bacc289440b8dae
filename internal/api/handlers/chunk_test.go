package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChunkIndexer struct {
	mock.Mock
}

func (m *MockChunkIndexer) IndexChunk(ctx context.Context, event *domain.ChunkEvent) (*domain.IndexChunkResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexChunkResult), args.Error(1)
}

func TestChunkHandler_Index_Success(t *testing.T) {
	mockIndexer := new(MockChunkIndexer)
	handler := NewChunkHandler(mockIndexer)

	result := &domain.IndexChunkResult{
		Success:       true,
		DocumentID:    "doc-123",
		ChunkKey:      "chunks/doc-123/chunk-4.txt",
		PineconeIndex: "documents",
		MarkedIndexed: true,
		PineconeID:    "vec-final",
	}

	mockIndexer.On("IndexChunk", mock.Anything, mock.MatchedBy(func(e *domain.ChunkEvent) bool {
		return e.OrgID == "org1" && e.DocumentID == "doc-123" &&
			e.Index != nil && *e.Index == 5 && e.TotalChunks != nil && *e.TotalChunks == 5
	})).Return(result, nil)

	body := `{"orgId":"org1","knowledgeBaseId":"kb1","documentId":"doc-123","chunkKey":"chunks/doc-123/chunk-4.txt","text":"Final chunk content","index":5,"totalChunks":5}`
	req := httptest.NewRequest(http.MethodPost, "/chunks/index", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Index(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got domain.IndexChunkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.True(t, got.MarkedIndexed)
	assert.Equal(t, "documents", got.PineconeIndex)
	assert.Equal(t, "vec-final", got.PineconeID)
}

func TestChunkHandler_Index_MissingFields(t *testing.T) {
	mockIndexer := new(MockChunkIndexer)
	handler := NewChunkHandler(mockIndexer)

	mockIndexer.On("IndexChunk", mock.Anything, mock.Anything).
		Return(nil, domain.NewMissingFieldsError("orgId", "documentId"))

	body := `{"knowledgeBaseId":"kb1","chunkKey":"chunks/x/chunk-1.txt"}`
	req := httptest.NewRequest(http.MethodPost, "/chunks/index", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Index(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing required fields: orgId, documentId")
}

func TestChunkHandler_Index_SkippedResult(t *testing.T) {
	mockIndexer := new(MockChunkIndexer)
	handler := NewChunkHandler(mockIndexer)

	result := &domain.IndexChunkResult{
		Success:       true,
		DocumentID:    "doc-123",
		ChunkKey:      "chunks/doc-123/chunk-1.txt",
		PineconeIndex: "documents",
		Skipped:       true,
		SkipReason:    domain.SkipReasonDocumentDeleted,
	}
	mockIndexer.On("IndexChunk", mock.Anything, mock.Anything).Return(result, nil)

	body := `{"orgId":"org1","knowledgeBaseId":"kb1","documentId":"doc-123","chunkKey":"chunks/doc-123/chunk-1.txt","text":"content"}`
	req := httptest.NewRequest(http.MethodPost, "/chunks/index", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Index(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"skipped":true`)
	assert.Contains(t, w.Body.String(), `"skipReason":"document_deleted"`)
}

func TestChunkHandler_Index_MalformedBody(t *testing.T) {
	mockIndexer := new(MockChunkIndexer)
	handler := NewChunkHandler(mockIndexer)

	req := httptest.NewRequest(http.MethodPost, "/chunks/index", bytes.NewReader([]byte(`{not json`)))
	w := httptest.NewRecorder()

	handler.Index(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockIndexer.AssertNotCalled(t, "IndexChunk", mock.Anything, mock.Anything)
}

func TestChunkHandler_Index_NonStringTextStillAccepted(t *testing.T) {
	mockIndexer := new(MockChunkIndexer)
	handler := NewChunkHandler(mockIndexer)

	result := &domain.IndexChunkResult{Success: true, DocumentID: "doc-123", PineconeIndex: "documents"}
	mockIndexer.On("IndexChunk", mock.Anything, mock.MatchedBy(func(e *domain.ChunkEvent) bool {
		_, isString := e.Text.(string)
		return !isString && e.Text != nil
	})).Return(result, nil)

	// text is an array: structurally valid JSON, resolved via blob fetch.
	body := `{"orgId":"org1","knowledgeBaseId":"kb1","documentId":"doc-123","chunkKey":"chunks/doc-123/chunk-1.txt","text":["not","a","string"]}`
	req := httptest.NewRequest(http.MethodPost, "/chunks/index", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Index(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockIndexer.AssertExpectations(t)
}
