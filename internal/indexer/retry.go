package indexer

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/docstore"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
)

const (
	// MaxUpdateAttempts bounds retries for a single record update. After this
	// many failed throttled attempts the error propagates to the caller.
	MaxUpdateAttempts = 5

	initialRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 32 * time.Second
)

// RetryExecutor applies single-record status updates, retrying throttled
// writes with exponential backoff and full jitter. Updates must be issued
// sequentially per document to avoid amplifying contention on the partition.
type RetryExecutor struct {
	store docstore.Store

	// sleep and jitter are injection points for tests.
	sleep  func(time.Duration)
	jitter func() float64
}

// NewRetryExecutor creates a RetryExecutor backed by the given store.
func NewRetryExecutor(store docstore.Store) *RetryExecutor {
	return &RetryExecutor{
		store:  store,
		sleep:  time.Sleep,
		jitter: rand.Float64,
	}
}

// UpdateIndexStatus sets the record's index status, retrying on throttling
// signatures up to MaxUpdateAttempts total attempts. Non-throttling errors
// propagate immediately, unchanged.
func (e *RetryExecutor) UpdateIndexStatus(ctx context.Context, key docstore.RecordKey, status domain.IndexStatus, updatedAt time.Time) error {
	for attempt := 0; ; attempt++ {
		err := e.store.UpdateIndexStatus(ctx, key, status, updatedAt)
		if err == nil {
			return nil
		}

		if !docstore.IsThrottling(err) {
			return err
		}

		if attempt >= MaxUpdateAttempts-1 {
			return err
		}

		delay := backoffDelay(attempt, e.jitter())
		log.Printf("warn: update throttled for %s/%s (attempt %d/%d), backing off %v",
			key.PartitionKey, key.SortKey, attempt+1, MaxUpdateAttempts, delay)
		e.sleep(delay)
	}
}

// backoffDelay computes min(initial * 2^attempt, max) scaled by jitter in
// [0, 1). Full jitter: the wait can collapse to zero, which is intended.
func backoffDelay(attempt int, jitter float64) time.Duration {
	delay := initialRetryDelay << uint(attempt)
	if delay > maxRetryDelay || delay <= 0 {
		delay = maxRetryDelay
	}
	return time.Duration(float64(delay) * jitter)
}
