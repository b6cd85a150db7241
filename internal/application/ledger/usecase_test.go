package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	itemWidget = "item-widget"
	locA       = "loc-a"
	locB       = "loc-b"
)

var (
	staff  = entity.Actor{UserID: "user-staff", Role: entity.RoleStaff}
	admin  = entity.Actor{UserID: "user-admin", Role: entity.RoleAdmin}
	viewer = entity.Actor{UserID: "user-viewer", Role: entity.RoleViewer}
)

type fixture struct {
	store   *memory.Store
	uc      *ledger.LedgerUseCase
	metrics *recordingMetrics
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *recordingMetrics) ObserveMovement(_ entity.TransactionType, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Items().Create(ctx, &entity.Item{ID: itemWidget, SKU: "W-1", Name: "Widget"}))
	require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: locA, Code: "A", Name: "Bodega A"}))
	require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: locB, Code: "B", Name: "Bodega B"}))

	metrics := &recordingMetrics{}
	uc := ledger.NewLedgerUseCase(
		store.TxRunner(),
		memory.NewLocker(2*time.Second),
		store.Items(),
		store.Locations(),
		store.Entries(),
		store.Levels(),
		ledger.WithMetrics(metrics),
	)
	return &fixture{store: store, uc: uc, metrics: metrics}
}

func q(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *fixture) stock(t *testing.T, loc string) decimal.Decimal {
	t.Helper()
	level, err := f.uc.GetStock(context.Background(), viewer, itemWidget, loc)
	require.NoError(t, err)
	return level.Quantity
}

func (f *fixture) in(t *testing.T, loc string, qty int64) {
	t.Helper()
	_, err := f.uc.StockIn(context.Background(), staff, ledger.MovementInput{ItemID: itemWidget, LocationID: loc, Quantity: q(qty)})
	require.NoError(t, err)
}

// assertConsistent comprueba que proyección, suma del kardex y último running balance coinciden.
func (f *fixture) assertConsistent(t *testing.T, loc string) {
	t.Helper()
	res, err := f.uc.Reconcile(context.Background(), admin, itemWidget, loc, false)
	require.NoError(t, err)
	assert.True(t, res.InSync, "proyección %s vs kardex %s", res.ProjectedBalance, res.LedgerBalance)
	assert.True(t, res.ChainValid, res.ChainError)

	history, err := f.store.Entries().ListForPair(context.Background(), itemWidget, loc)
	require.NoError(t, err)
	if len(history) > 0 {
		assert.True(t, history[len(history)-1].RunningBalance.Equal(res.ProjectedBalance))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos simples
// ──────────────────────────────────────────────────────────────────────────────

func TestStockInThenOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.uc.StockIn(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(10), Notes: "compra"})
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionIN, entry.Type)
	assert.True(t, entry.Quantity.Equal(q(10)))
	assert.True(t, entry.RunningBalance.Equal(q(10)))
	assert.Equal(t, staff.UserID, entry.CreatedBy)

	out, err := f.uc.StockOut(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(4)})
	require.NoError(t, err)
	assert.True(t, out.Quantity.Equal(q(-4)))
	assert.True(t, out.RunningBalance.Equal(q(6)))
	assert.True(t, f.stock(t, locA).Equal(q(6)))
	f.assertConsistent(t, locA)
}

func TestStockOut_InsufficientLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	f.in(t, locA, 6)

	_, err := f.uc.StockOut(context.Background(), staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(100)})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, f.stock(t, locA).Equal(q(6)))
	history, err := f.store.Entries().ListForPair(context.Background(), itemWidget, locA)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Contains(t, f.metrics.outcomes, "insufficient_stock")
}

func TestStockOut_NeverMovedPair(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.StockOut(context.Background(), staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locB, Quantity: q(1)})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.stock(t, locB).IsZero())
}

func TestMovement_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   ledger.MovementInput
		want error
	}{
		{"cantidad cero", ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(0)}, domain.ErrInvalidInput},
		{"cantidad negativa", ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(-3)}, domain.ErrInvalidInput},
		{"sin ítem", ledger.MovementInput{LocationID: locA, Quantity: q(1)}, domain.ErrInvalidInput},
		{"ítem inexistente", ledger.MovementInput{ItemID: "nope", LocationID: locA, Quantity: q(1)}, domain.ErrNotFound},
		{"ubicación inexistente", ledger.MovementInput{ItemID: itemWidget, LocationID: "nope", Quantity: q(1)}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.StockIn(ctx, staff, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	history, err := f.store.Entries().ListForPair(ctx, itemWidget, locA)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMovement_QuantityPrecisionAndRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tooPrecise := decimal.RequireFromString("0.00015")
	tooLarge := decimal.New(1, 14)

	_, err := f.uc.StockIn(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: tooPrecise})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.StockIn(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: tooLarge})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.StockAdjustment(ctx, admin, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: tooPrecise})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.StockTransfer(ctx, staff, ledger.TransferInput{ItemID: itemWidget, FromLocationID: locA, ToLocationID: locB, Quantity: tooPrecise})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// cuatro decimales y ceros a la derecha son válidos
	_, err = f.uc.StockIn(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: decimal.RequireFromString("0.0001")})
	require.NoError(t, err)
	_, err = f.uc.StockIn(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: decimal.RequireFromString("1.500000")})
	require.NoError(t, err)

	// el saldo tampoco puede salir del rango
	almostMax := decimal.New(1, 14).Sub(q(1))
	_, err = f.uc.StockIn(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: almostMax})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.True(t, f.stock(t, locA).Equal(decimal.RequireFromString("1.5001")))
	f.assertConsistent(t, locA)
}

func TestMovement_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(5)}

	_, err := f.uc.StockIn(ctx, viewer, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.StockIn(ctx, entity.Actor{}, in)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.uc.StockAdjustment(ctx, staff, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.StockIn(ctx, entity.Actor{UserID: "root", Role: entity.RoleSuperAdmin}, in)
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestStockAdjustment_SetsAbsoluteQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.in(t, locA, 3)

	entry, err := f.uc.StockAdjustment(ctx, admin, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(8), Notes: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionADJUSTMENT, entry.Type)
	assert.True(t, entry.Quantity.Equal(q(5)), "el asiento registra el delta")
	assert.True(t, entry.RunningBalance.Equal(q(8)))

	entry, err = f.uc.StockAdjustment(ctx, admin, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(0)})
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(q(-8)))
	assert.True(t, f.stock(t, locA).IsZero())

	_, err = f.uc.StockAdjustment(ctx, admin, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.assertConsistent(t, locA)
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestStockTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.in(t, locA, 6)

	res, err := f.uc.StockTransfer(ctx, staff, ledger.TransferInput{ItemID: itemWidget, FromLocationID: locA, ToLocationID: locB, Quantity: q(5)})
	require.NoError(t, err)
	assert.Equal(t, res.TransactionID, res.Out.TransactionID)
	assert.Equal(t, res.TransactionID, res.In.TransactionID)
	assert.Equal(t, entity.TransactionTRANSFER, res.Out.Type)
	assert.True(t, res.Out.Quantity.Equal(q(-5)))
	assert.True(t, res.In.Quantity.Equal(q(5)))

	assert.True(t, f.stock(t, locA).Equal(q(1)))
	assert.True(t, f.stock(t, locB).Equal(q(5)))
	f.assertConsistent(t, locA)
	f.assertConsistent(t, locB)
}

func TestStockTransfer_RoundTripRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.in(t, locA, 7)

	_, err := f.uc.StockTransfer(ctx, staff, ledger.TransferInput{ItemID: itemWidget, FromLocationID: locA, ToLocationID: locB, Quantity: q(4)})
	require.NoError(t, err)
	_, err = f.uc.StockTransfer(ctx, staff, ledger.TransferInput{ItemID: itemWidget, FromLocationID: locB, ToLocationID: locA, Quantity: q(4)})
	require.NoError(t, err)

	assert.True(t, f.stock(t, locA).Equal(q(7)))
	assert.True(t, f.stock(t, locB).IsZero())
}

func TestStockTransfer_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.in(t, locA, 2)

	_, err := f.uc.StockTransfer(ctx, staff, ledger.TransferInput{ItemID: itemWidget, FromLocationID: locA, ToLocationID: locA, Quantity: q(1)})
	assert.ErrorIs(t, err, domain.ErrSameLocation)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.StockTransfer(ctx, staff, ledger.TransferInput{ItemID: itemWidget, FromLocationID: locA, ToLocationID: locB, Quantity: q(3)})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Ninguna pata quedó aplicada
	assert.True(t, f.stock(t, locA).Equal(q(2)))
	assert.True(t, f.stock(t, locB).IsZero())
	entries, err := f.uc.GetLedger(ctx, viewer, repository.LedgerFilter{Type: entity.TransactionTRANSFER})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestConcurrentOutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.in(t, locA, 10)

	const workers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.StockOut(context.Background(), staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(1)})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, domain.ErrInsufficientStock), "error inesperado: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.True(t, f.stock(t, locA).IsZero())
	f.assertConsistent(t, locA)
}

func TestConcurrentOpposingTransfers(t *testing.T) {
	f := newFixture(t)
	f.in(t, locA, 50)
	f.in(t, locB, 50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.uc.StockTransfer(context.Background(), staff, ledger.TransferInput{ItemID: itemWidget, FromLocationID: locA, ToLocationID: locB, Quantity: q(1)})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.uc.StockTransfer(context.Background(), staff, ledger.TransferInput{ItemID: itemWidget, FromLocationID: locB, ToLocationID: locA, Quantity: q(1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, f.stock(t, locA).Add(f.stock(t, locB)).Equal(q(100)))
	f.assertConsistent(t, locA)
	f.assertConsistent(t, locB)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas y conciliación
// ──────────────────────────────────────────────────────────────────────────────

func TestGetLedger_FiltersAndOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var tick int
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Items().Create(ctx, &entity.Item{ID: itemWidget, SKU: "W-1", Name: "Widget"}))
	require.NoError(t, store.Locations().Create(ctx, &entity.Location{ID: locA, Code: "A", Name: "Bodega A"}))
	uc := ledger.NewLedgerUseCase(store.TxRunner(), memory.NewLocker(0), store.Items(), store.Locations(), store.Entries(), store.Levels(), ledger.WithClock(clock))

	for i := 0; i < 3; i++ {
		_, err := uc.StockIn(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(2)})
		require.NoError(t, err)
	}
	_, err := uc.StockOut(ctx, staff, ledger.MovementInput{ItemID: itemWidget, LocationID: locA, Quantity: q(1)})
	require.NoError(t, err)

	all, err := uc.GetLedger(ctx, viewer, repository.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, entity.TransactionOUT, all[0].Type, "más reciente primero")

	ins, err := uc.GetLedger(ctx, viewer, repository.LedgerFilter{Type: entity.TransactionIN, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, ins, 2)

	from, to := base.Add(5*time.Minute), base
	_, err = uc.GetLedger(ctx, viewer, repository.LedgerFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.GetLedger(ctx, viewer, repository.LedgerFilter{Type: "LOAN"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReconcile_DetectsAndRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.in(t, locA, 9)
	f.store.ForceLevel(itemWidget, locA, q(4))

	_, err := f.uc.Reconcile(ctx, viewer, itemWidget, locA, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	res, err := f.uc.Reconcile(ctx, admin, itemWidget, locA, false)
	require.NoError(t, err)
	assert.False(t, res.InSync)
	assert.True(t, res.ChainValid)
	assert.True(t, res.LedgerBalance.Equal(q(9)))
	assert.True(t, res.ProjectedBalance.Equal(q(4)))

	_, err = f.uc.Reconcile(ctx, staff, itemWidget, locA, true)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.True(t, f.stock(t, locA).Equal(q(4)))

	res, err = f.uc.Reconcile(ctx, admin, itemWidget, locA, true)
	require.NoError(t, err)
	assert.True(t, res.Repaired)
	assert.True(t, f.stock(t, locA).Equal(q(9)))
	f.assertConsistent(t, locA)
}

func TestStockByItemAndLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.in(t, locA, 3)
	f.in(t, locB, 4)

	byItem, err := f.uc.StockByItem(ctx, viewer, itemWidget)
	require.NoError(t, err)
	require.Len(t, byItem, 2)
	assert.Equal(t, locA, byItem[0].LocationID)

	byLoc, err := f.uc.StockByLocation(ctx, viewer, locB)
	require.NoError(t, err)
	require.Len(t, byLoc, 1)
	assert.True(t, byLoc[0].Quantity.Equal(q(4)))

	_, err = f.uc.StockByLocation(ctx, viewer, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", ledger.Outcome(nil))
	assert.Equal(t, "validation", ledger.Outcome(domain.ErrSameLocation))
	assert.Equal(t, "insufficient_stock", ledger.Outcome(domain.ErrInsufficientStock))
	assert.Equal(t, "conflict", ledger.Outcome(domain.ErrConflict))
	assert.Equal(t, "error", ledger.Outcome(errors.New("boom")))
}
