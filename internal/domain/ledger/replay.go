package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ErrBrokenChain el running balance de un asiento no coincide con saldo anterior + cantidad.
var ErrBrokenChain = errors.New("cadena de saldos inconsistente")

// ChainError detalla el primer asiento que rompe la continuidad.
type ChainError struct {
	Index    int
	EntryID  string
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("asiento %d (%s): running_balance %s, esperado %s",
		e.Index, e.EntryID, e.Actual.String(), e.Expected.String())
}

func (e *ChainError) Unwrap() error { return ErrBrokenChain }

// Replay recorre los asientos de UN par (ítem, ubicación) en orden de creación y devuelve
// el saldo final. Verifica que cada RunningBalance sea saldo previo + Quantity y que
// ningún saldo intermedio sea negativo.
func Replay(entries []*entity.LedgerEntry) (decimal.Decimal, error) {
	balance := decimal.Zero
	for i, e := range entries {
		balance = balance.Add(e.Quantity)
		if !e.RunningBalance.Equal(balance) {
			return balance, &ChainError{Index: i, EntryID: e.ID, Expected: balance, Actual: e.RunningBalance}
		}
		if balance.IsNegative() {
			return balance, &ChainError{Index: i, EntryID: e.ID, Expected: decimal.Zero, Actual: balance}
		}
	}
	return balance, nil
}

// Sum suma las cantidades firmadas sin verificar continuidad.
func Sum(entries []*entity.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Quantity)
	}
	return total
}

// LockKey clave de serialización de un par (ítem, ubicación).
func LockKey(itemID, locationID string) string {
	return "ledger:" + itemID + ":" + locationID
}

// LockKeys devuelve las claves de los pares afectados ordenadas lexicográficamente por
// ubicación y sin duplicados. Adquirirlas siempre en este orden evita deadlocks.
func LockKeys(itemID string, locationIDs ...string) []string {
	ids := make([]string, 0, len(locationIDs))
	seen := make(map[string]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = LockKey(itemID, id)
	}
	return keys
}

// SortedLocations ordena ubicaciones en el mismo orden que LockKeys.
func SortedLocations(locationIDs ...string) []string {
	out := append([]string(nil), locationIDs...)
	sort.Strings(out)
	return out
}
