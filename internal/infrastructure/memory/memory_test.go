package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

func TestTxRunner_RollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.TxRunner().Run(ctx, func(ctx context.Context, entries repository.LedgerEntryRepository, levels repository.StockLevelRepository) error {
		require.NoError(t, levels.Upsert(ctx, &entity.StockLevel{ItemID: "i", LocationID: "l", Quantity: decimal.NewFromInt(5)}))
		require.NoError(t, entries.Append(ctx, &entity.LedgerEntry{ID: "e1", ItemID: "i", LocationID: "l", Quantity: decimal.NewFromInt(5)}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	level, err := store.Levels().Get(ctx, "i", "l")
	require.NoError(t, err)
	assert.True(t, level.Quantity.IsZero())
	last, err := store.Entries().Last(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestLocker_TimesOutWithConflict(t *testing.T) {
	locker := memory.NewLocker(50 * time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "ledger:i:a", "ledger:i:b")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "ledger:i:b")
	assert.ErrorIs(t, err, domain.ErrConflict)

	release()
	release() // idempotente

	again, err := locker.Acquire(ctx, "ledger:i:a", "ledger:i:b")
	require.NoError(t, err)
	again()
}

func TestLocker_EvictsIdleSlots(t *testing.T) {
	locker := memory.NewLocker(50 * time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "ledger:i:a", "ledger:i:b")
	require.NoError(t, err)
	assert.Equal(t, 2, locker.SlotCount())

	_, err = locker.Acquire(ctx, "ledger:i:c", "ledger:i:b")
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 2, locker.SlotCount(), "el intento fallido no deja semáforos")

	release()
	assert.Zero(t, locker.SlotCount())

	for i := 0; i < 100; i++ {
		r, err := locker.Acquire(ctx, "ledger:x:y")
		require.NoError(t, err)
		r()
	}
	assert.Zero(t, locker.SlotCount())
}

func TestLocker_WaiterGetsKeyAfterRelease(t *testing.T) {
	locker := memory.NewLocker(time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "ledger:i:a")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		r, err := locker.Acquire(ctx, "ledger:i:a")
		if err == nil {
			r()
		}
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	release()
	require.NoError(t, <-done)
	assert.Zero(t, locker.SlotCount())
}

func TestCatalog_DuplicateCodes(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Items().Create(ctx, &entity.Item{ID: "1", SKU: "abc", Name: "A"}))
	assert.ErrorIs(t, store.Items().Create(ctx, &entity.Item{ID: "2", SKU: "ABC", Name: "B"}), domain.ErrDuplicate)

	require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: "1", Code: "MAIN", Name: "Main"}))
	assert.ErrorIs(t, store.Locations().Create(ctx, &entity.Location{ID: "2", Code: "main", Name: "Other"}), domain.ErrDuplicate)

	missing, err := store.Items().GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIdempotencyStore_SetNXAndExpiry(t *testing.T) {
	store := memory.NewIdempotencyStore()
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "k", "pending", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetNX(ctx, "k", "other", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "done", time.Hour))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	require.NoError(t, store.Del(ctx, "k"))
	v, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, store.Set(ctx, "short", "x", -time.Second))
	v, err = store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Empty(t, v)
}
