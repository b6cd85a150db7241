package ledger_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestApply(t *testing.T) {
	cases := []struct {
		name      string
		typ       entity.TransactionType
		current   decimal.Decimal
		qty       decimal.Decimal
		wantDelta decimal.Decimal
		wantBal   decimal.Decimal
		wantErr   error
	}{
		{"entrada", entity.TransactionIN, d(0), d(10), d(10), d(10), nil},
		{"entrada cero", entity.TransactionIN, d(5), d(0), decimal.Zero, decimal.Zero, domain.ErrInvalidInput},
		{"entrada negativa", entity.TransactionIN, d(5), d(-1), decimal.Zero, decimal.Zero, domain.ErrInvalidInput},
		{"salida", entity.TransactionOUT, d(10), d(4), d(-4), d(6), nil},
		{"salida exacta", entity.TransactionOUT, d(6), d(6), d(-6), d(0), nil},
		{"salida insuficiente", entity.TransactionOUT, d(6), d(100), decimal.Zero, decimal.Zero, domain.ErrInsufficientStock},
		{"salida cero", entity.TransactionOUT, d(6), d(0), decimal.Zero, decimal.Zero, domain.ErrInvalidInput},
		{"ajuste hacia arriba", entity.TransactionADJUSTMENT, d(3), d(8), d(5), d(8), nil},
		{"ajuste hacia abajo", entity.TransactionADJUSTMENT, d(8), d(3), d(-5), d(3), nil},
		{"ajuste a cero", entity.TransactionADJUSTMENT, d(8), d(0), d(-8), d(0), nil},
		{"ajuste sin cambio", entity.TransactionADJUSTMENT, d(4), d(4), d(0), d(4), nil},
		{"ajuste negativo", entity.TransactionADJUSTMENT, d(4), d(-1), decimal.Zero, decimal.Zero, domain.ErrInvalidInput},
		{"transfer directo", entity.TransactionTRANSFER, d(4), d(1), decimal.Zero, decimal.Zero, domain.ErrInvalidInput},
		{"entrada con cinco decimales", entity.TransactionIN, d(0), decimal.RequireFromString("0.00015"), decimal.Zero, decimal.Zero, domain.ErrInvalidInput},
		{"entrada que desborda el saldo", entity.TransactionIN, ledger.MaxQuantity.Sub(d(1)), d(1), decimal.Zero, decimal.Zero, domain.ErrInvalidInput},
		{"ajuste fuera de rango", entity.TransactionADJUSTMENT, d(0), ledger.MaxQuantity, decimal.Zero, decimal.Zero, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ledger.Apply(tc.typ, tc.current, tc.qty)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "error esperado %v, obtenido %v", tc.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.wantDelta.Equal(p.Delta), "delta %s", p.Delta)
			assert.True(t, tc.wantBal.Equal(p.Balance), "balance %s", p.Balance)
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	valid := []string{"0", "1", "0.0001", "2.5000", "1.250000", "99999999999999.9999"}
	for _, v := range valid {
		assert.NoError(t, ledger.ValidateQuantity(decimal.RequireFromString(v)), v)
	}
	invalid := []string{"0.00001", "0.00015", "100000000000000", "-100000000000000"}
	for _, v := range invalid {
		assert.ErrorIs(t, ledger.ValidateQuantity(decimal.RequireFromString(v)), domain.ErrInvalidInput, v)
	}
}

func TestApplyTransfer(t *testing.T) {
	out, in, err := ledger.ApplyTransfer(d(6), d(2), d(5))
	require.NoError(t, err)
	assert.True(t, d(-5).Equal(out.Delta))
	assert.True(t, d(1).Equal(out.Balance))
	assert.True(t, d(5).Equal(in.Delta))
	assert.True(t, d(7).Equal(in.Balance))
	// conservación: la suma de las patas es cero
	assert.True(t, out.Delta.Add(in.Delta).IsZero())

	_, _, err = ledger.ApplyTransfer(d(1), d(0), d(5))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func entry(id string, qty, bal int64) *entity.LedgerEntry {
	return &entity.LedgerEntry{ID: id, Quantity: d(qty), RunningBalance: d(bal)}
}

func TestReplay(t *testing.T) {
	entries := []*entity.LedgerEntry{
		entry("a", 10, 10),
		entry("b", -4, 6),
		entry("c", 2, 8),
	}
	bal, err := ledger.Replay(entries)
	require.NoError(t, err)
	assert.True(t, d(8).Equal(bal))
	assert.True(t, d(8).Equal(ledger.Sum(entries)))

	bal, err = ledger.Replay(nil)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestReplay_CadenaRota(t *testing.T) {
	entries := []*entity.LedgerEntry{
		entry("a", 10, 10),
		entry("b", -4, 7),
	}
	_, err := ledger.Replay(entries)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrBrokenChain)

	var chainErr *ledger.ChainError
	require.True(t, errors.As(err, &chainErr))
	assert.Equal(t, 1, chainErr.Index)
	assert.Equal(t, "b", chainErr.EntryID)
	assert.True(t, d(6).Equal(chainErr.Expected))
}

func TestReplay_SaldoNegativo(t *testing.T) {
	_, err := ledger.Replay([]*entity.LedgerEntry{entry("a", -1, -1)})
	assert.ErrorIs(t, err, ledger.ErrBrokenChain)
}

func TestLockKeys_OrdenDeterminista(t *testing.T) {
	a := ledger.LockKeys("item", "loc-b", "loc-a")
	b := ledger.LockKeys("item", "loc-a", "loc-b")
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"ledger:item:loc-a", "ledger:item:loc-b"}, a)

	assert.Equal(t, []string{"ledger:item:x"}, ledger.LockKeys("item", "x", "x"))
	assert.Equal(t, []string{"a", "b"}, ledger.SortedLocations("b", "a"))
}
