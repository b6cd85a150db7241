package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// LedgerEntryRepository kardex en memoria: slice en orden de inserción, nunca se modifica.
type LedgerEntryRepository struct{ s *Store }

func (r *LedgerEntryRepository) Append(ctx context.Context, entry *entity.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *entry
	r.s.entries = append(r.s.entries, &cp)
	return nil
}

func (r *LedgerEntryRepository) List(ctx context.Context, filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	matched := make([]*entity.LedgerEntry, 0)
	// Recorre de atrás hacia adelante: más reciente primero, desempate por orden de inserción.
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		e := r.s.entries[i]
		if !matchesFilter(e, filter) {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	r.s.mu.RUnlock()
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *LedgerEntryRepository) ListForPair(ctx context.Context, itemID, locationID string) ([]*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.LedgerEntry, 0)
	for _, e := range r.s.entries {
		if e.ItemID == itemID && e.LocationID == locationID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *LedgerEntryRepository) Last(ctx context.Context) (*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if len(r.s.entries) == 0 {
		return nil, nil
	}
	cp := *r.s.entries[len(r.s.entries)-1]
	return &cp, nil
}

// ForceLevel escribe la proyección de un par sin asiento; deja el par desalineado (tests de conciliación).
func (s *Store) ForceLevel(itemID, locationID string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{itemID, locationID}
	if level, ok := s.levels[key]; ok {
		level.Quantity = qty
		return
	}
	s.levels[key] = &entity.StockLevel{ItemID: itemID, LocationID: locationID, Quantity: qty}
}

func matchesFilter(e *entity.LedgerEntry, f repository.LedgerFilter) bool {
	if f.ItemID != "" && e.ItemID != f.ItemID {
		return false
	}
	if f.LocationID != "" && e.LocationID != f.LocationID {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// StockLevelRepository proyección de existencias en memoria.
type StockLevelRepository struct{ s *Store }

func (r *StockLevelRepository) Get(ctx context.Context, itemID, locationID string) (*entity.StockLevel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if level, ok := r.s.levels[pairKey{itemID, locationID}]; ok {
		cp := *level
		return &cp, nil
	}
	return &entity.StockLevel{ItemID: itemID, LocationID: locationID, Quantity: decimal.Zero}, nil
}

// GetForUpdate dentro de TxRunner la exclusión ya la garantiza txMu.
func (r *StockLevelRepository) GetForUpdate(ctx context.Context, itemID, locationID string) (*entity.StockLevel, error) {
	return r.Get(ctx, itemID, locationID)
}

func (r *StockLevelRepository) Upsert(ctx context.Context, level *entity.StockLevel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *level
	r.s.levels[pairKey{level.ItemID, level.LocationID}] = &cp
	return nil
}

func (r *StockLevelRepository) ListByItem(ctx context.Context, itemID string) ([]*entity.StockLevel, error) {
	return r.list(func(k pairKey) bool { return k.itemID == itemID }), nil
}

func (r *StockLevelRepository) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockLevel, error) {
	return r.list(func(k pairKey) bool { return k.locationID == locationID }), nil
}

func (r *StockLevelRepository) list(match func(pairKey) bool) []*entity.StockLevel {
	r.s.mu.RLock()
	out := make([]*entity.StockLevel, 0)
	for k, level := range r.s.levels {
		if match(k) {
			cp := *level
			out = append(out, &cp)
		}
	}
	r.s.mu.RUnlock()
	sortedLevels(out)
	return out
}
