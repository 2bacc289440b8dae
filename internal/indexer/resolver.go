// Package indexer implements the per-chunk indexing step of the document
// ingestion pipeline: resolving chunk text, delegating to the vector index,
// and marking documents indexed once their last chunk lands.
package indexer

import (
	"context"
	"strings"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
)

// BlobStore fetches chunk objects from blob storage.
type BlobStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// ChunkTextResolver produces the authoritative text content for a chunk
// event, preferring inline text and falling back to blob storage.
type ChunkTextResolver struct {
	blobs         BlobStore
	defaultBucket string
}

// NewChunkTextResolver creates a resolver. defaultBucket is used when the
// event does not name a bucket.
func NewChunkTextResolver(blobs BlobStore, defaultBucket string) *ChunkTextResolver {
	return &ChunkTextResolver{
		blobs:         blobs,
		defaultBucket: defaultBucket,
	}
}

// Resolve returns the chunk's text. Inline text is used only when the event
// carries an actual non-empty string; arrays, objects, numbers, and null all
// fall through to the fetch path. Upstream steps have been observed emitting
// all of those shapes in the text field.
func (r *ChunkTextResolver) Resolve(ctx context.Context, event *domain.ChunkEvent) (string, error) {
	if s, ok := event.Text.(string); ok && strings.TrimSpace(s) != "" {
		return s, nil
	}

	bucket := event.Bucket
	if bucket == "" {
		bucket = r.defaultBucket
	}

	data, err := r.blobs.GetObject(ctx, bucket, event.ChunkKey)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", domain.NewChunkFetchError(bucket, event.ChunkKey)
	}

	return string(data), nil
}
