package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de reportes (solo lectura) sobre PostgreSQL.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// StockOnHand proyección unida al catálogo, filtrada por ítem, ubicación y texto (nombre o SKU).
func (r *ReportRepo) StockOnHand(ctx context.Context, f repository.StockOnHandFilter) ([]repository.StockOnHandRow, error) {
	query := `
		SELECT s.item_id, i.name, i.sku, s.location_id, l.name, l.code, s.quantity, s.updated_at
		FROM stock_levels s
		JOIN items i ON i.id = s.item_id
		JOIN locations l ON l.id = s.location_id
		WHERE 1=1`
	var args []any
	if f.ItemID != "" {
		if !isUUID(f.ItemID) {
			return []repository.StockOnHandRow{}, nil
		}
		args = append(args, f.ItemID)
		query += fmt.Sprintf(" AND s.item_id = $%d", len(args))
	}
	if f.LocationID != "" {
		if !isUUID(f.LocationID) {
			return []repository.StockOnHandRow{}, nil
		}
		args = append(args, f.LocationID)
		query += fmt.Sprintf(" AND s.location_id = $%d", len(args))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		query += fmt.Sprintf(" AND (i.name ILIKE $%d OR i.sku ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY i.name, l.name"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stock on hand: %w", err)
	}
	defer rows.Close()
	out := make([]repository.StockOnHandRow, 0)
	for rows.Next() {
		var row repository.StockOnHandRow
		if err := rows.Scan(&row.ItemID, &row.ItemName, &row.SKU, &row.LocationID, &row.LocationName,
			&row.LocationCode, &row.Quantity, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock on hand: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Movements asientos filtrados con nombres de ítem y ubicación, más reciente primero.
func (r *ReportRepo) Movements(ctx context.Context, f repository.LedgerFilter) ([]repository.MovementRow, error) {
	where, args, ok := ledgerWhere(f, "le.")
	if !ok {
		return []repository.MovementRow{}, nil
	}
	query := `
		SELECT le.id, le.transaction_id, le.item_id, le.location_id, le.transaction_type, le.quantity,
		       le.running_balance, le.notes, le.created_at, le.created_by,
		       i.name, i.sku, l.name
		FROM ledger_entries le
		JOIN items i ON i.id = le.item_id
		JOIN locations l ON l.id = le.location_id` + where +
		fmt.Sprintf(" ORDER BY le.created_at DESC, le.seq DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("movements: %w", err)
	}
	defer rows.Close()
	out := make([]repository.MovementRow, 0)
	for rows.Next() {
		var (
			e         entity.LedgerEntry
			txType    string
			createdBy *string
			row       repository.MovementRow
		)
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.ItemID, &e.LocationID, &txType, &e.Quantity,
			&e.RunningBalance, &e.Notes, &e.CreatedAt, &createdBy,
			&row.ItemName, &row.SKU, &row.LocationName); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		e.Type = entity.TransactionType(txType)
		if createdBy != nil {
			e.CreatedBy = *createdBy
		}
		row.Entry = &e
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountLowStockItems ítems distintos con alguna existencia en (0, threshold].
func (r *ReportRepo) CountLowStockItems(ctx context.Context, threshold decimal.Decimal) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(DISTINCT item_id) FROM stock_levels
		WHERE quantity > 0 AND quantity <= $1`, threshold).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count low stock: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
