package domain

import (
	"fmt"
	"time"
)

// ChunkEvent describes one unit of chunk-indexing work. It is produced by the
// upstream pipeline step (or the fan-out worker), consumed exactly once by the
// chunk indexing orchestrator, and never persisted.
//
// The JSON field names are the upstream pipeline's wire contract and are
// intentionally camelCase, unlike the service's own API responses.
type ChunkEvent struct {
	OrgID           string `json:"orgId"`
	KnowledgeBaseID string `json:"knowledgeBaseId"`
	DocumentID      string `json:"documentId"`
	Bucket          string `json:"bucket,omitempty"`
	ChunkKey        string `json:"chunkKey"`
	// Text may be absent, or present with any JSON type. Only a non-empty
	// string is usable inline; everything else forces a blob fetch.
	Text        any  `json:"text,omitempty"`
	Index       *int `json:"index,omitempty"`
	TotalChunks *int `json:"totalChunks,omitempty"`
}

// IsLastChunk reports whether the event carries the pipeline's last-chunk
// signal. The literal index == totalChunks comparison is the upstream
// convention; no 0-based/1-based normalization is applied here.
func (e *ChunkEvent) IsLastChunk() bool {
	return e.Index != nil && e.TotalChunks != nil && *e.Index == *e.TotalChunks
}

// VectorIndexName is the logical index all chunks are written to.
const VectorIndexName = "documents"

// IndexChunkResult is the orchestrator's response for one chunk event.
type IndexChunkResult struct {
	Success       bool   `json:"success"`
	DocumentID    string `json:"documentId"`
	ChunkKey      string `json:"chunkKey"`
	PineconeIndex string `json:"pineconeIndex"`
	MarkedIndexed bool   `json:"markedIndexed"`
	PineconeID    string `json:"pineconeId,omitempty"`
	Skipped       bool   `json:"skipped,omitempty"`
	SkipReason    string `json:"skipReason,omitempty"`
}

// SkipReasonDocumentDeleted is returned when the owning document disappeared
// mid-pipeline. Deletions racing with in-flight chunk fan-out are tolerated.
const SkipReasonDocumentDeleted = "document_deleted"

// ChunkJobStatus represents the status of a chunk indexing job
type ChunkJobStatus string

const (
	ChunkJobStatusPending    ChunkJobStatus = "pending"
	ChunkJobStatusProcessing ChunkJobStatus = "processing"
	ChunkJobStatusCompleted  ChunkJobStatus = "completed"
	ChunkJobStatusFailed     ChunkJobStatus = "failed"
)

// ChunkJob is the persisted fan-out unit: one row per chunk, claimed and
// processed by the background worker.
type ChunkJob struct {
	ID              string
	OrgID           string
	KnowledgeBaseID string
	DocumentID      string
	Bucket          string
	ChunkKey        string
	ChunkIndex      int
	TotalChunks     int
	Status          ChunkJobStatus
	Retries         int32
	Error           string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}

// Event builds the ChunkEvent this job represents. Chunk text is never stored
// on the job; the resolver fetches it from blob storage.
func (j *ChunkJob) Event() *ChunkEvent {
	index := j.ChunkIndex
	total := j.TotalChunks
	return &ChunkEvent{
		OrgID:           j.OrgID,
		KnowledgeBaseID: j.KnowledgeBaseID,
		DocumentID:      j.DocumentID,
		Bucket:          j.Bucket,
		ChunkKey:        j.ChunkKey,
		Index:           &index,
		TotalChunks:     &total,
	}
}

// ValidateChunkJob validates a ChunkJob instance
func ValidateChunkJob(j *ChunkJob) error {
	if j == nil {
		return fmt.Errorf("chunk job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("chunk job ID is required")
	}

	if j.DocumentID == "" {
		return fmt.Errorf("chunk job DocumentID is required")
	}

	if j.ChunkKey == "" {
		return fmt.Errorf("chunk job ChunkKey is required")
	}

	if !isValidChunkJobStatus(j.Status) {
		return fmt.Errorf("chunk job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("chunk job Retries cannot be negative")
	}

	return nil
}

func isValidChunkJobStatus(s ChunkJobStatus) bool {
	switch s {
	case ChunkJobStatusPending, ChunkJobStatusProcessing,
		ChunkJobStatusCompleted, ChunkJobStatusFailed:
		return true
	}
	return false
}

// DocumentChunk is one indexed chunk in the vector store. Its ID is the opaque
// identifier returned to callers as pineconeId.
type DocumentChunk struct {
	ID              string
	OrgID           string
	KnowledgeBaseID string
	DocumentID      string
	ChunkKey        string
	Content         string
	Embedding       []float32
	CreatedAt       time.Time
}
