package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/docstore"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockVectorIndexer struct {
	mock.Mock
}

func (m *MockVectorIndexer) Index(ctx context.Context, orgID string, doc *domain.DocumentRecord, chunkKey, text string) (string, error) {
	args := m.Called(ctx, orgID, doc, chunkKey, text)
	return args.String(0), args.Error(1)
}

func intPtr(v int) *int { return &v }

type orchestratorFixture struct {
	store        *MockStore
	blobs        *MockBlobStore
	vector       *MockVectorIndexer
	orchestrator *Orchestrator
}

func newOrchestratorFixture() *orchestratorFixture {
	store := new(MockStore)
	blobs := new(MockBlobStore)
	vector := new(MockVectorIndexer)
	resolver := NewChunkTextResolver(blobs, "autorfp-documents")
	executor, _ := newTestRetryExecutor(store, 1.0)
	marker := NewCompletionMarker(store, executor)
	return &orchestratorFixture{
		store:        store,
		blobs:        blobs,
		vector:       vector,
		orchestrator: NewOrchestrator(store, resolver, vector, marker),
	}
}

func validEvent() *domain.ChunkEvent {
	return &domain.ChunkEvent{
		OrgID:           "org1",
		KnowledgeBaseID: "kb1",
		DocumentID:      "doc-123",
		ChunkKey:        "chunks/doc-123/chunk-1.txt",
		Text:            "chunk body",
	}
}

func TestOrchestrator_IndexChunk_MissingFields(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.ChunkEvent)
		expected string
	}{
		{
			name:     "missing orgId",
			mutate:   func(e *domain.ChunkEvent) { e.OrgID = "" },
			expected: "missing required fields: orgId",
		},
		{
			name:     "missing documentId",
			mutate:   func(e *domain.ChunkEvent) { e.DocumentID = "" },
			expected: "missing required fields: documentId",
		},
		{
			name:     "missing chunkKey",
			mutate:   func(e *domain.ChunkEvent) { e.ChunkKey = "" },
			expected: "missing required fields: chunkKey",
		},
		{
			name:     "missing knowledgeBaseId",
			mutate:   func(e *domain.ChunkEvent) { e.KnowledgeBaseID = "" },
			expected: "missing required fields: knowledgeBaseId",
		},
		{
			name: "all fields missing",
			mutate: func(e *domain.ChunkEvent) {
				*e = domain.ChunkEvent{Text: e.Text}
			},
			expected: "missing required fields: orgId, documentId, chunkKey, knowledgeBaseId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrchestratorFixture()
			event := validEvent()
			tt.mutate(event)

			result, err := f.orchestrator.IndexChunk(context.Background(), event)

			assert.Nil(t, result)
			assert.EqualError(t, err, tt.expected)
			var missingErr *domain.MissingFieldsError
			assert.ErrorAs(t, err, &missingErr)
			// Validation fails before any collaborator is touched.
			f.store.AssertNotCalled(t, "GetDocument", mock.Anything, mock.Anything, mock.Anything)
			f.blobs.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything, mock.Anything)
			f.vector.AssertNotCalled(t, "Index", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestOrchestrator_IndexChunk_DeletedDocumentSkips(t *testing.T) {
	f := newOrchestratorFixture()
	event := validEvent()

	f.store.On("GetDocument", mock.Anything, "kb1", "doc-123").
		Return(nil, domain.ErrDocumentNotFound)

	result, err := f.orchestrator.IndexChunk(context.Background(), event)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Skipped)
	assert.Equal(t, domain.SkipReasonDocumentDeleted, result.SkipReason)
	assert.False(t, result.MarkedIndexed)
	assert.Empty(t, result.PineconeID)
	f.vector.AssertNotCalled(t, "Index", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_IndexChunk_LookupErrorPropagates(t *testing.T) {
	f := newOrchestratorFixture()
	event := validEvent()

	lookupErr := errors.New("connection refused")
	f.store.On("GetDocument", mock.Anything, "kb1", "doc-123").
		Return(nil, lookupErr)

	result, err := f.orchestrator.IndexChunk(context.Background(), event)

	assert.Nil(t, result)
	assert.Equal(t, lookupErr, err)
}

func TestOrchestrator_IndexChunk_NonLastChunk(t *testing.T) {
	f := newOrchestratorFixture()
	event := validEvent()
	event.Index = intPtr(2)
	event.TotalChunks = intPtr(5)

	doc := &domain.DocumentRecord{DocumentID: "doc-123", KnowledgeBaseID: "kb1", OrgID: "org1"}
	f.store.On("GetDocument", mock.Anything, "kb1", "doc-123").Return(doc, nil)
	f.vector.On("Index", mock.Anything, "org1", doc, event.ChunkKey, "chunk body").
		Return("vec-42", nil)

	result, err := f.orchestrator.IndexChunk(context.Background(), event)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.MarkedIndexed)
	assert.Equal(t, "vec-42", result.PineconeID)
	assert.Equal(t, domain.VectorIndexName, result.PineconeIndex)
	f.store.AssertNotCalled(t, "QueryKeysByPrefix", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_IndexChunk_UnknownPositionDoesNotComplete(t *testing.T) {
	f := newOrchestratorFixture()
	event := validEvent() // Index and TotalChunks both nil

	doc := &domain.DocumentRecord{DocumentID: "doc-123", KnowledgeBaseID: "kb1", OrgID: "org1"}
	f.store.On("GetDocument", mock.Anything, "kb1", "doc-123").Return(doc, nil)
	f.vector.On("Index", mock.Anything, "org1", doc, event.ChunkKey, "chunk body").
		Return("vec-1", nil)

	result, err := f.orchestrator.IndexChunk(context.Background(), event)

	assert.NoError(t, err)
	assert.False(t, result.MarkedIndexed)
	f.store.AssertNotCalled(t, "QueryKeysByPrefix", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_IndexChunk_VectorErrorPropagates(t *testing.T) {
	f := newOrchestratorFixture()
	event := validEvent()

	doc := &domain.DocumentRecord{DocumentID: "doc-123", KnowledgeBaseID: "kb1", OrgID: "org1"}
	vecErr := errors.New("embedding quota exhausted")
	f.store.On("GetDocument", mock.Anything, "kb1", "doc-123").Return(doc, nil)
	f.vector.On("Index", mock.Anything, "org1", doc, event.ChunkKey, "chunk body").
		Return("", vecErr)

	result, err := f.orchestrator.IndexChunk(context.Background(), event)

	assert.Nil(t, result)
	assert.Equal(t, vecErr, err)
	f.store.AssertNotCalled(t, "QueryKeysByPrefix", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_IndexChunk_CompletionErrorPropagates(t *testing.T) {
	f := newOrchestratorFixture()
	event := validEvent()
	event.Index = intPtr(3)
	event.TotalChunks = intPtr(3)

	doc := &domain.DocumentRecord{DocumentID: "doc-123", KnowledgeBaseID: "kb1", OrgID: "org1"}
	markErr := errors.New("update rejected")
	f.store.On("GetDocument", mock.Anything, "kb1", "doc-123").Return(doc, nil)
	f.vector.On("Index", mock.Anything, "org1", doc, event.ChunkKey, "chunk body").
		Return("vec-3", nil)
	f.store.On("QueryKeysByPrefix", mock.Anything, domain.DocumentPartitionKey, "KB#kb1#DOC#doc-123").
		Return([]docstore.RecordKey{{PartitionKey: domain.DocumentPartitionKey, SortKey: "KB#kb1#DOC#doc-123"}}, nil)
	f.store.On("UpdateIndexStatus", mock.Anything, mock.Anything, domain.IndexStatusIndexed, mock.Anything).
		Return(markErr)

	result, err := f.orchestrator.IndexChunk(context.Background(), event)

	assert.Nil(t, result)
	assert.Equal(t, markErr, err)
}

// Last chunk of a five-chunk document, with inline text: the chunk is indexed
// and the document flips to INDEXED in the same invocation.
func TestOrchestrator_IndexChunk_LastChunkMarksIndexed(t *testing.T) {
	f := newOrchestratorFixture()
	event := &domain.ChunkEvent{
		OrgID:           "org1",
		KnowledgeBaseID: "kb1",
		DocumentID:      "doc-123",
		ChunkKey:        "chunks/doc-123/chunk-4.txt",
		Text:            "Final chunk content",
		Index:           intPtr(5),
		TotalChunks:     intPtr(5),
	}

	doc := &domain.DocumentRecord{
		DocumentID:      "doc-123",
		KnowledgeBaseID: "kb1",
		OrgID:           "org1",
		IndexStatus:     domain.IndexStatusIndexing,
	}
	key := docstore.RecordKey{
		PartitionKey: domain.DocumentPartitionKey,
		SortKey:      domain.DocumentSortKey("kb1", "doc-123"),
	}

	f.store.On("GetDocument", mock.Anything, "kb1", "doc-123").Return(doc, nil)
	f.vector.On("Index", mock.Anything, "org1", doc, event.ChunkKey, "Final chunk content").
		Return("vec-final", nil)
	f.store.On("QueryKeysByPrefix", mock.Anything, domain.DocumentPartitionKey, key.SortKey).
		Return([]docstore.RecordKey{key}, nil)
	f.store.On("UpdateIndexStatus", mock.Anything, key, domain.IndexStatusIndexed, mock.Anything).
		Return(nil)

	result, err := f.orchestrator.IndexChunk(context.Background(), event)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.MarkedIndexed)
	assert.False(t, result.Skipped)
	assert.Equal(t, "doc-123", result.DocumentID)
	assert.Equal(t, "chunks/doc-123/chunk-4.txt", result.ChunkKey)
	assert.Equal(t, "documents", result.PineconeIndex)
	assert.Equal(t, "vec-final", result.PineconeID)
	f.blobs.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything, mock.Anything)
	f.store.AssertExpectations(t)
}
