package indexer

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/docstore"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
)

// scanPageSize bounds each fallback scan page. The DOCUMENT partition is small
// enough that the scan stays acceptable for a once-per-document operation.
const scanPageSize = 100

// CompletionMarker transitions every record scoped to a document to INDEXED
// once the document's last chunk has been indexed.
type CompletionMarker struct {
	store   docstore.Store
	retrier *RetryExecutor
	now     func() time.Time
}

// NewCompletionMarker creates a CompletionMarker.
func NewCompletionMarker(store docstore.Store, retrier *RetryExecutor) *CompletionMarker {
	return &CompletionMarker{
		store:   store,
		retrier: retrier,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// MarkDocumentIndexed flips every record for documentID to INDEXED. With a
// known knowledgeBaseID it uses a targeted sort-key prefix query; without one,
// or when the targeted query fails, it falls back to scanning the whole
// DOCUMENT partition. Individual record update failures propagate after
// retries are exhausted; already-applied updates are not rolled back.
func (m *CompletionMarker) MarkDocumentIndexed(ctx context.Context, documentID, knowledgeBaseID string) error {
	if documentID == "" {
		return domain.ErrMissingDocumentID
	}

	if knowledgeBaseID != "" {
		keys, err := m.store.QueryKeysByPrefix(ctx,
			domain.DocumentPartitionKey,
			domain.DocumentSortKeyPrefix(knowledgeBaseID, documentID),
		)
		if err == nil {
			return m.updateAll(ctx, keys)
		}
		// The targeted query is an optimization, not a correctness
		// requirement; fall back to the full scan.
		log.Printf("warn: targeted completion query failed for document %s: %v; falling back to partition scan", documentID, err)
	}

	return m.markByScan(ctx, documentID)
}

// markByScan pages through the DOCUMENT partition and updates every record
// whose sort key ends with documentID. No sort-key filter is pushed to the
// store: each page's matches are updated before the next page is fetched.
func (m *CompletionMarker) markByScan(ctx context.Context, documentID string) error {
	startAfter := ""
	for {
		keys, nextToken, err := m.store.ScanPartitionKeys(ctx, domain.DocumentPartitionKey, startAfter, scanPageSize)
		if err != nil {
			return err
		}

		var matched []docstore.RecordKey
		for _, key := range keys {
			if strings.HasSuffix(key.SortKey, documentID) {
				matched = append(matched, key)
			}
		}

		if err := m.updateAll(ctx, matched); err != nil {
			return err
		}

		if nextToken == "" {
			return nil
		}
		startAfter = nextToken
	}
}

// updateAll applies the INDEXED transition to each key sequentially.
func (m *CompletionMarker) updateAll(ctx context.Context, keys []docstore.RecordKey) error {
	now := m.now()
	for _, key := range keys {
		if err := m.retrier.UpdateIndexStatus(ctx, key, domain.IndexStatusIndexed, now); err != nil {
			return err
		}
	}
	return nil
}
