package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkJobRepository persists the per-chunk fan-out jobs the background
// worker claims and processes.
type ChunkJobRepository struct {
	db dbtx
}

func NewChunkJobRepository(pool *pgxpool.Pool) *ChunkJobRepository {
	return &ChunkJobRepository{db: pool}
}

func NewChunkJobRepositoryWithTx(tx pgx.Tx) *ChunkJobRepository {
	return &ChunkJobRepository{db: tx}
}

const chunkJobColumns = `id, org_id, knowledge_base_id, document_id, bucket, chunk_key, chunk_index, total_chunks, status, retries, error, created_at, processed_at`

func (r *ChunkJobRepository) Create(ctx context.Context, job *domain.ChunkJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chunk_jobs (`+chunkJobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		job.ID, job.OrgID, job.KnowledgeBaseID, job.DocumentID,
		nullableString(job.Bucket), job.ChunkKey, job.ChunkIndex, job.TotalChunks,
		job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *ChunkJobRepository) GetByID(ctx context.Context, id string) (*domain.ChunkJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+chunkJobColumns+` FROM chunk_jobs WHERE id = $1`, id,
	)
	job, err := scanChunkJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending atomically flips up to limit pending jobs to processing and
// returns them. FOR UPDATE SKIP LOCKED lets concurrent workers claim disjoint
// batches.
func (r *ChunkJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.ChunkJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM chunk_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE chunk_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE chunk_jobs.id = cte.id
		 RETURNING `+qualifiedChunkJobColumns(),
		domain.ChunkJobStatusPending, limit, domain.ChunkJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ChunkJob
	for rows.Next() {
		job, err := scanChunkJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *ChunkJobRepository) UpdateStatus(ctx context.Context, id string, status domain.ChunkJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.ChunkJobStatusCompleted || status == domain.ChunkJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE chunk_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChunkJobNotFound
	}
	return nil
}

func (r *ChunkJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE chunk_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChunkJobNotFound
	}
	return nil
}

// CountByDocument reports outstanding (pending or processing) jobs for a
// document, used to surface indexing progress.
func (r *ChunkJobRepository) CountByDocument(ctx context.Context, knowledgeBaseID, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunk_jobs
		 WHERE knowledge_base_id = $1 AND document_id = $2 AND status IN ($3, $4)`,
		knowledgeBaseID, documentID,
		domain.ChunkJobStatusPending, domain.ChunkJobStatusProcessing,
	).Scan(&count)
	return count, err
}

func qualifiedChunkJobColumns() string {
	return `chunk_jobs.id, chunk_jobs.org_id, chunk_jobs.knowledge_base_id, chunk_jobs.document_id,
	        chunk_jobs.bucket, chunk_jobs.chunk_key, chunk_jobs.chunk_index, chunk_jobs.total_chunks,
	        chunk_jobs.status, chunk_jobs.retries, chunk_jobs.error, chunk_jobs.created_at, chunk_jobs.processed_at`
}

func scanChunkJob(row pgx.Row) (*domain.ChunkJob, error) {
	var job domain.ChunkJob
	var bucket, errMsg pgtype.Text
	err := row.Scan(
		&job.ID, &job.OrgID, &job.KnowledgeBaseID, &job.DocumentID,
		&bucket, &job.ChunkKey, &job.ChunkIndex, &job.TotalChunks,
		&job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	if bucket.Valid {
		job.Bucket = bucket.String
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}
