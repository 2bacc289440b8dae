package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/docstore"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStore mocks the document record store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetDocument(ctx context.Context, knowledgeBaseID, documentID string) (*domain.DocumentRecord, error) {
	args := m.Called(ctx, knowledgeBaseID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRecord), args.Error(1)
}

func (m *MockStore) QueryKeysByPrefix(ctx context.Context, partitionKey, sortKeyPrefix string) ([]docstore.RecordKey, error) {
	args := m.Called(ctx, partitionKey, sortKeyPrefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]docstore.RecordKey), args.Error(1)
}

func (m *MockStore) ScanPartitionKeys(ctx context.Context, partitionKey, startAfter string, limit int) ([]docstore.RecordKey, string, error) {
	args := m.Called(ctx, partitionKey, startAfter, limit)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]docstore.RecordKey), args.String(1), args.Error(2)
}

func (m *MockStore) UpdateIndexStatus(ctx context.Context, key docstore.RecordKey, status domain.IndexStatus, updatedAt time.Time) error {
	args := m.Called(ctx, key, status, updatedAt)
	return args.Error(0)
}

// newTestRetryExecutor returns an executor whose sleeps are recorded instead
// of real, with a fixed jitter factor.
func newTestRetryExecutor(store docstore.Store, jitter float64) (*RetryExecutor, *[]time.Duration) {
	slept := make([]time.Duration, 0, MaxUpdateAttempts)
	e := NewRetryExecutor(store)
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	e.jitter = func() float64 { return jitter }
	return e, &slept
}

func testKey() docstore.RecordKey {
	return docstore.RecordKey{
		PartitionKey: domain.DocumentPartitionKey,
		SortKey:      domain.DocumentSortKey("kb1", "doc-123"),
	}
}

func TestRetryExecutor_SuccessFirstAttempt(t *testing.T) {
	mockStore := new(MockStore)
	now := time.Now().UTC()
	key := testKey()

	mockStore.On("UpdateIndexStatus", mock.Anything, key, domain.IndexStatusIndexed, now).Return(nil).Once()

	executor, slept := newTestRetryExecutor(mockStore, 1.0)
	err := executor.UpdateIndexStatus(context.Background(), key, domain.IndexStatusIndexed, now)

	assert.NoError(t, err)
	assert.Empty(t, *slept)
	mockStore.AssertExpectations(t)
}

func TestRetryExecutor_NonThrottlingFailsImmediately(t *testing.T) {
	mockStore := new(MockStore)
	now := time.Now().UTC()
	key := testKey()
	storeErr := errors.New("record does not exist")

	mockStore.On("UpdateIndexStatus", mock.Anything, key, domain.IndexStatusIndexed, now).Return(storeErr).Once()

	executor, slept := newTestRetryExecutor(mockStore, 1.0)
	err := executor.UpdateIndexStatus(context.Background(), key, domain.IndexStatusIndexed, now)

	assert.Equal(t, storeErr, err)
	assert.Empty(t, *slept)
	mockStore.AssertNumberOfCalls(t, "UpdateIndexStatus", 1)
}

func TestRetryExecutor_ThrottledRetriesThenSucceeds(t *testing.T) {
	mockStore := new(MockStore)
	now := time.Now().UTC()
	key := testKey()
	throttled := docstore.NewThrottlingError(errors.New("capacity exceeded"))

	mockStore.On("UpdateIndexStatus", mock.Anything, key, domain.IndexStatusIndexed, now).Return(throttled).Twice()
	mockStore.On("UpdateIndexStatus", mock.Anything, key, domain.IndexStatusIndexed, now).Return(nil).Once()

	executor, slept := newTestRetryExecutor(mockStore, 1.0)
	err := executor.UpdateIndexStatus(context.Background(), key, domain.IndexStatusIndexed, now)

	assert.NoError(t, err)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
	mockStore.AssertNumberOfCalls(t, "UpdateIndexStatus", 3)
}

// Exactly MaxUpdateAttempts failed attempts before the error propagates.
func TestRetryExecutor_RetryCeiling(t *testing.T) {
	mockStore := new(MockStore)
	now := time.Now().UTC()
	key := testKey()
	throttled := docstore.NewThrottlingError(errors.New("throughput exceeded"))

	mockStore.On("UpdateIndexStatus", mock.Anything, key, domain.IndexStatusIndexed, now).Return(throttled)

	executor, slept := newTestRetryExecutor(mockStore, 1.0)
	err := executor.UpdateIndexStatus(context.Background(), key, domain.IndexStatusIndexed, now)

	assert.Equal(t, throttled, err)
	mockStore.AssertNumberOfCalls(t, "UpdateIndexStatus", MaxUpdateAttempts)
	// One backoff between each pair of attempts.
	assert.Len(t, *slept, MaxUpdateAttempts-1)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}, *slept)
}

func TestRetryExecutor_JitterScalesDelay(t *testing.T) {
	mockStore := new(MockStore)
	now := time.Now().UTC()
	key := testKey()
	throttled := docstore.NewThrottlingError(errors.New("throttled"))

	mockStore.On("UpdateIndexStatus", mock.Anything, key, domain.IndexStatusIndexed, now).Return(throttled).Once()
	mockStore.On("UpdateIndexStatus", mock.Anything, key, domain.IndexStatusIndexed, now).Return(nil).Once()

	executor, slept := newTestRetryExecutor(mockStore, 0.5)
	err := executor.UpdateIndexStatus(context.Background(), key, domain.IndexStatusIndexed, now)

	assert.NoError(t, err)
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, *slept)
}

func TestBackoffDelay_CapsAtMax(t *testing.T) {
	// 100ms * 2^10 would be ~102s; the cap holds it at 32s.
	assert.Equal(t, maxRetryDelay, backoffDelay(10, 1.0))
	// Far past any overflow point.
	assert.Equal(t, maxRetryDelay, backoffDelay(60, 1.0))
}

func TestBackoffDelay_FullJitterCanCollapseToZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), backoffDelay(3, 0.0))
}
