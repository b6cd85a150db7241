package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ReportRepository implementa repository.ReportRepository.
type ReportRepository struct{ s *Store }

func (r *ReportRepository) StockOnHand(ctx context.Context, filter repository.StockOnHandFilter) ([]repository.StockOnHandRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	rows := make([]repository.StockOnHandRow, 0)
	for k, level := range r.s.levels {
		if filter.ItemID != "" && k.itemID != filter.ItemID {
			continue
		}
		if filter.LocationID != "" && k.locationID != filter.LocationID {
			continue
		}
		item, ok := r.s.items[k.itemID]
		if !ok {
			continue
		}
		loc, ok := r.s.locations[k.locationID]
		if !ok {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.SKU), search) {
			continue
		}
		rows = append(rows, repository.StockOnHandRow{
			ItemID:       item.ID,
			ItemName:     item.Name,
			SKU:          item.SKU,
			LocationID:   loc.ID,
			LocationName: loc.Name,
			LocationCode: loc.Code,
			Quantity:     level.Quantity,
			UpdatedAt:    level.UpdatedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemName != rows[j].ItemName {
			return rows[i].ItemName < rows[j].ItemName
		}
		return rows[i].LocationName < rows[j].LocationName
	})
	return rows, nil
}

func (r *ReportRepository) Movements(ctx context.Context, filter repository.LedgerFilter) ([]repository.MovementRow, error) {
	entries, err := r.s.Entries().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := make([]repository.MovementRow, 0, len(entries))
	for _, e := range entries {
		row := repository.MovementRow{Entry: e}
		if item, ok := r.s.items[e.ItemID]; ok {
			row.ItemName, row.SKU = item.Name, item.SKU
		}
		if loc, ok := r.s.locations[e.LocationID]; ok {
			row.LocationName = loc.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *ReportRepository) CountLowStockItems(ctx context.Context, threshold decimal.Decimal) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	low := make(map[string]struct{})
	for k, level := range r.s.levels {
		if level.Quantity.IsPositive() && level.Quantity.LessThanOrEqual(threshold) {
			low[k.itemID] = struct{}{}
		}
	}
	return len(low), nil
}
