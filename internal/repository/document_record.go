package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/docstore"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRecordRepository persists document records in a single table keyed
// by (partition_key, sort_key). It implements docstore.Store.
type DocumentRecordRepository struct {
	db dbtx
}

func NewDocumentRecordRepository(pool *pgxpool.Pool) *DocumentRecordRepository {
	return &DocumentRecordRepository{db: pool}
}

func NewDocumentRecordRepositoryWithTx(tx pgx.Tx) *DocumentRecordRepository {
	return &DocumentRecordRepository{db: tx}
}

const documentRecordColumns = `document_id, knowledge_base_id, org_id, filename, content_type, storage_key, index_status, created_at, updated_at`

func (r *DocumentRecordRepository) Create(ctx context.Context, record *domain.DocumentRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO document_records
			(partition_key, sort_key, `+documentRecordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		domain.DocumentPartitionKey,
		record.SortKey(),
		record.DocumentID,
		record.KnowledgeBaseID,
		record.OrgID,
		record.Filename,
		record.ContentType,
		record.StorageKey,
		record.IndexStatus,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDocumentAlreadyExists
		}
		return err
	}
	return nil
}

func (r *DocumentRecordRepository) GetDocument(ctx context.Context, knowledgeBaseID, documentID string) (*domain.DocumentRecord, error) {
	var record domain.DocumentRecord
	err := r.db.QueryRow(ctx,
		`SELECT `+documentRecordColumns+`
		 FROM document_records
		 WHERE partition_key = $1 AND sort_key = $2`,
		domain.DocumentPartitionKey,
		domain.DocumentSortKey(knowledgeBaseID, documentID),
	).Scan(
		&record.DocumentID,
		&record.KnowledgeBaseID,
		&record.OrgID,
		&record.Filename,
		&record.ContentType,
		&record.StorageKey,
		&record.IndexStatus,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *DocumentRecordRepository) QueryKeysByPrefix(ctx context.Context, partitionKey, sortKeyPrefix string) ([]docstore.RecordKey, error) {
	rows, err := r.db.Query(ctx,
		`SELECT partition_key, sort_key
		 FROM document_records
		 WHERE partition_key = $1 AND sort_key LIKE $2 || '%'
		 ORDER BY sort_key ASC`,
		partitionKey, sortKeyPrefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []docstore.RecordKey
	for rows.Next() {
		var key docstore.RecordKey
		if err := rows.Scan(&key.PartitionKey, &key.SortKey); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *DocumentRecordRepository) ScanPartitionKeys(ctx context.Context, partitionKey, startAfter string, limit int) ([]docstore.RecordKey, string, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT partition_key, sort_key
		 FROM document_records
		 WHERE partition_key = $1 AND sort_key > $2
		 ORDER BY sort_key ASC
		 LIMIT $3`,
		partitionKey, startAfter, limit,
	)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var keys []docstore.RecordKey
	for rows.Next() {
		var key docstore.RecordKey
		if err := rows.Scan(&key.PartitionKey, &key.SortKey); err != nil {
			return nil, "", err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	// A full page may have more rows behind it; the last sort key is the
	// continuation token.
	nextToken := ""
	if len(keys) == limit {
		nextToken = keys[len(keys)-1].SortKey
	}
	return keys, nextToken, nil
}

func (r *DocumentRecordRepository) UpdateIndexStatus(ctx context.Context, key docstore.RecordKey, status domain.IndexStatus, updatedAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE document_records
		 SET index_status = $1, updated_at = $2
		 WHERE partition_key = $3 AND sort_key = $4`,
		status, updatedAt, key.PartitionKey, key.SortKey,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ListByKnowledgeBase pages through a knowledge base's documents ordered by
// creation time, newest first.
func (r *DocumentRecordRepository) ListByKnowledgeBase(ctx context.Context, knowledgeBaseID string, cursor *pagination.Cursor, limit int) ([]*domain.DocumentRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+documentRecordColumns+`
			 FROM document_records
			 WHERE partition_key = $1 AND knowledge_base_id = $2
			   AND (created_at, document_id) < ($3, $4)
			 ORDER BY created_at DESC, document_id DESC
			 LIMIT $5`,
			domain.DocumentPartitionKey, knowledgeBaseID, cursor.Timestamp, cursor.LastID, limit,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+documentRecordColumns+`
			 FROM document_records
			 WHERE partition_key = $1 AND knowledge_base_id = $2
			 ORDER BY created_at DESC, document_id DESC
			 LIMIT $3`,
			domain.DocumentPartitionKey, knowledgeBaseID, limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.DocumentRecord
	for rows.Next() {
		var record domain.DocumentRecord
		if err := rows.Scan(
			&record.DocumentID,
			&record.KnowledgeBaseID,
			&record.OrgID,
			&record.Filename,
			&record.ContentType,
			&record.StorageKey,
			&record.IndexStatus,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

func (r *DocumentRecordRepository) Delete(ctx context.Context, knowledgeBaseID, documentID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM document_records WHERE partition_key = $1 AND sort_key = $2`,
		domain.DocumentPartitionKey,
		domain.DocumentSortKey(knowledgeBaseID, documentID),
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
