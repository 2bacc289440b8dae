package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
)

const (
	// MaxRetries is the maximum number of attempts for a failed chunk job
	MaxRetries = 3

	// DefaultBatchSize bounds how many jobs one poll claims
	DefaultBatchSize = 10
)

// ChunkJobRepository defines the interface for chunk job persistence
type ChunkJobRepository interface {
	// ClaimPending atomically claims up to limit pending jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.ChunkJob, error)

	// UpdateStatus updates the status of a chunk job
	UpdateStatus(ctx context.Context, id string, status domain.ChunkJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// ChunkIndexer processes one chunk event end to end.
type ChunkIndexer interface {
	IndexChunk(ctx context.Context, event *domain.ChunkEvent) (*domain.IndexChunkResult, error)
}

// ChunkWorker claims pending chunk jobs and runs each through the indexing
// orchestrator. A failure re-queues the job until MaxRetries is reached;
// validation failures are permanent and fail immediately.
type ChunkWorker struct {
	repo      ChunkJobRepository
	indexer   ChunkIndexer
	batchSize int
}

// NewChunkWorker creates a new ChunkWorker instance
func NewChunkWorker(repo ChunkJobRepository, indexer ChunkIndexer, batchSize int) *ChunkWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkWorker{
		repo:      repo,
		indexer:   indexer,
		batchSize: batchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ChunkWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending chunk jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *ChunkWorker) processJob(ctx context.Context, job *domain.ChunkJob) error {
	log.Printf("Processing job %s for chunk %s (%d/%d)", job.ID, job.ChunkKey, job.ChunkIndex, job.TotalChunks)

	result, err := w.indexer.IndexChunk(ctx, job.Event())
	if err != nil {
		var missingErr *domain.MissingFieldsError
		if errors.As(err, &missingErr) {
			// Malformed jobs never become valid; no point retrying.
			if updErr := w.repo.UpdateStatus(ctx, job.ID, domain.ChunkJobStatusFailed, err.Error()); updErr != nil {
				return fmt.Errorf("failed to update job status to failed: %w", updErr)
			}
			return nil
		}
		return w.handleJobFailure(ctx, job, err)
	}

	if result.Skipped {
		log.Printf("Job %s skipped: %s", job.ID, result.SkipReason)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.ChunkJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *ChunkWorker) handleJobFailure(ctx context.Context, job *domain.ChunkJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.ChunkJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.ChunkJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
