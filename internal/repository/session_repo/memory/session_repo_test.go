package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinreport/internal/domain"
)

func TestGet_UnknownChatReturnsIdleRecord(t *testing.T) {
	repo := NewSessionRepository()
	txn, err := repo.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), txn.ChatID)
	assert.Equal(t, domain.StatusIdle, txn.Status)
	assert.False(t, txn.HasVIN())
}

func TestUpdate_PersistsMutation(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	updated, err := repo.Update(ctx, 7, func(txn *domain.Transaction) error {
		txn.VIN = "1HGCM82633A004352"
		txn.Status = domain.StatusVerified
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1HGCM82633A004352", updated.VIN)

	got, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, got.Status)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestUpdate_ErrorLeavesRecordUntouched(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	_, err := repo.Update(ctx, 7, func(txn *domain.Transaction) error {
		txn.VIN = "SHOULD-NOT-STICK00"
		return errors.New("boom")
	})
	require.Error(t, err)

	got, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, got.HasVIN())
	assert.Equal(t, domain.StatusIdle, got.Status)
}

func TestUpdate_PerKeyReadModifyWriteIsAtomic(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, 1, func(txn *domain.Transaction) error {
				// read-modify-write through the VIN field as a counter
				txn.VIN += "x"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got.VIN, workers, "lost update detected")
}
