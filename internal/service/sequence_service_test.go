package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hrops-platform/hrops-api/internal/models"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

type memoryCounter struct {
	mu   sync.Mutex
	seqs map[string]int64
	err  error
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{seqs: make(map[string]int64)}
}

func (m *memoryCounter) Next(ctx context.Context, class models.EntityClass, year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	key := fmt.Sprintf("%s:%d", class, year)
	m.seqs[key]++
	return m.seqs[key], nil
}

func newSequenceServiceForTest(counter sequenceCounter) *SequenceService {
	svc := NewSequenceService(counter, time.Second, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAllocateFormatsJobIdentifier(t *testing.T) {
	svc := newSequenceServiceForTest(newMemoryCounter())

	id, err := svc.Allocate(context.Background(), models.EntityClassJobPosting)
	require.NoError(t, err)
	assert.Equal(t, "JOB-2026-0001", id)

	id, err = svc.Allocate(context.Background(), models.EntityClassJobPosting)
	require.NoError(t, err)
	assert.Equal(t, "JOB-2026-0002", id)
}

func TestAllocateFormatsAssetIdentifier(t *testing.T) {
	svc := newSequenceServiceForTest(newMemoryCounter())

	id, err := svc.Allocate(context.Background(), models.EntityClassAsset)
	require.NoError(t, err)
	assert.Equal(t, "ASSET-2026-000001", id)
}

func TestAllocateClassesCountIndependently(t *testing.T) {
	counter := newMemoryCounter()
	svc := newSequenceServiceForTest(counter)

	_, err := svc.Allocate(context.Background(), models.EntityClassJobPosting)
	require.NoError(t, err)

	id, err := svc.Allocate(context.Background(), models.EntityClassAsset)
	require.NoError(t, err)
	assert.Equal(t, "ASSET-2026-000001", id)
}

func TestAllocateConcurrentBurstYieldsDistinctContiguousIDs(t *testing.T) {
	svc := newSequenceServiceForTest(newMemoryCounter())

	const n = 50
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = svc.Allocate(context.Background(), models.EntityClassJobPosting)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	sort.Strings(ids)
	for i, id := range ids {
		assert.Equal(t, fmt.Sprintf("JOB-2026-%04d", i+1), id)
	}
}

func TestAllocateCounterFailureIsResourceUnavailable(t *testing.T) {
	counter := newMemoryCounter()
	counter.err = fmt.Errorf("connection refused")
	svc := newSequenceServiceForTest(counter)

	_, err := svc.Allocate(context.Background(), models.EntityClassAsset)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrResourceUnavailable))
}

func TestAllocateUnknownClassFailsValidation(t *testing.T) {
	svc := newSequenceServiceForTest(newMemoryCounter())

	_, err := svc.Allocate(context.Background(), models.EntityClass("invoice"))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
