package indexer

import (
	"context"
	"errors"
	"log"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/docstore"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/telemetry"
)

// VectorIndexer embeds and upserts one chunk's text into the vector index
// scoped to the org and document, returning an opaque identifier.
type VectorIndexer interface {
	Index(ctx context.Context, orgID string, doc *domain.DocumentRecord, chunkKey, text string) (string, error)
}

// Orchestrator is the entry point for one chunk-indexing invocation. Each
// invocation is stateless; concurrent invocations for chunks of the same
// document race freely and only the last-chunk signal triggers completion.
type Orchestrator struct {
	store    docstore.Store
	resolver *ChunkTextResolver
	vector   VectorIndexer
	marker   *CompletionMarker
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(store docstore.Store, resolver *ChunkTextResolver, vector VectorIndexer, marker *CompletionMarker) *Orchestrator {
	return &Orchestrator{
		store:    store,
		resolver: resolver,
		vector:   vector,
		marker:   marker,
	}
}

// IndexChunk processes one chunk event: validate, resolve text, look up the
// owning document, index the chunk, and mark the document indexed when this is
// the last chunk. A missing document record is converted to a successful
// skipped result, because deletions race with in-flight chunk fan-out.
func (o *Orchestrator) IndexChunk(ctx context.Context, event *domain.ChunkEvent) (*domain.IndexChunkResult, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "Orchestrator.IndexChunk", telemetry.SpanAttributes{
		OrgID:           event.OrgID,
		KnowledgeBaseID: event.KnowledgeBaseID,
		DocumentID:      event.DocumentID,
		Operation:       "index_chunk",
	})
	defer span.End()

	text, err := o.resolver.Resolve(ctx, event)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	doc, err := o.store.GetDocument(ctx, event.KnowledgeBaseID, event.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			log.Printf("warn: document %s deleted mid-pipeline, skipping chunk %s", event.DocumentID, event.ChunkKey)
			return &domain.IndexChunkResult{
				Success:       true,
				DocumentID:    event.DocumentID,
				ChunkKey:      event.ChunkKey,
				PineconeIndex: domain.VectorIndexName,
				MarkedIndexed: false,
				Skipped:       true,
				SkipReason:    domain.SkipReasonDocumentDeleted,
			}, nil
		}
		span.SetError(err)
		return nil, err
	}

	pineconeID, err := o.vector.Index(ctx, event.OrgID, doc, event.ChunkKey, text)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	markedIndexed := false
	if event.IsLastChunk() {
		if err := o.marker.MarkDocumentIndexed(ctx, event.DocumentID, event.KnowledgeBaseID); err != nil {
			// The chunk itself was indexed; a terminal completion failure
			// leaves the document in a non-INDEXED state for the step-level
			// retry to repair.
			span.SetError(err)
			return nil, err
		}
		markedIndexed = true
	}

	return &domain.IndexChunkResult{
		Success:       true,
		DocumentID:    event.DocumentID,
		ChunkKey:      event.ChunkKey,
		PineconeIndex: domain.VectorIndexName,
		MarkedIndexed: markedIndexed,
		PineconeID:    pineconeID,
	}, nil
}

// validateEvent checks required fields before any I/O happens. The error
// message names every missing field.
func validateEvent(event *domain.ChunkEvent) error {
	var missing []string
	if event.OrgID == "" {
		missing = append(missing, "orgId")
	}
	if event.DocumentID == "" {
		missing = append(missing, "documentId")
	}
	if event.ChunkKey == "" {
		missing = append(missing, "chunkKey")
	}
	if event.KnowledgeBaseID == "" {
		missing = append(missing, "knowledgeBaseId")
	}
	if len(missing) > 0 {
		return domain.NewMissingFieldsError(missing...)
	}
	return nil
}
