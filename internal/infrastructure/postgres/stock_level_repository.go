package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo proyección de existencias sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const stockLevelColumns = `item_id, location_id, quantity, updated_at`

// Get obtiene la existencia de un par; cero si la fila no existe.
func (r *StockLevelRepo) Get(ctx context.Context, itemID, locationID string) (*entity.StockLevel, error) {
	if !isUUID(itemID) || !isUUID(locationID) {
		return zeroLevel(itemID, locationID), nil
	}
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE item_id = $1 AND location_id = $2`
	var s entity.StockLevel
	err := r.q.QueryRow(ctx, query, itemID, locationID).Scan(&s.ItemID, &s.LocationID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroLevel(itemID, locationID), nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &s, nil
}

// GetForUpdate crea la fila en cero si falta y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
// Crearla primero garantiza que un par sin historia también quede serializado.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, itemID, locationID string) (*entity.StockLevel, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (item_id, location_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (item_id, location_id) DO NOTHING`, itemID, locationID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock level: %w", err)
	}
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels
		WHERE item_id = $1 AND location_id = $2
		FOR UPDATE`
	var s entity.StockLevel
	if err := r.q.QueryRow(ctx, query, itemID, locationID).Scan(&s.ItemID, &s.LocationID, &s.Quantity, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad (por ítem y ubicación).
func (r *StockLevelRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (item_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, level.ItemID, level.LocationID, level.Quantity, level.UpdatedAt); err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// ListByItem existencias del ítem en todas sus ubicaciones.
func (r *StockLevelRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.StockLevel, error) {
	if !isUUID(itemID) {
		return []*entity.StockLevel{}, nil
	}
	return r.list(ctx, `SELECT `+stockLevelColumns+` FROM stock_levels WHERE item_id = $1 ORDER BY location_id`, itemID)
}

// ListByLocation existencias de todos los ítems en la ubicación.
func (r *StockLevelRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockLevel, error) {
	if !isUUID(locationID) {
		return []*entity.StockLevel{}, nil
	}
	return r.list(ctx, `SELECT `+stockLevelColumns+` FROM stock_levels WHERE location_id = $1 ORDER BY item_id`, locationID)
}

func (r *StockLevelRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockLevel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.StockLevel, 0)
	for rows.Next() {
		var s entity.StockLevel
		if err := rows.Scan(&s.ItemID, &s.LocationID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func zeroLevel(itemID, locationID string) *entity.StockLevel {
	return &entity.StockLevel{ItemID: itemID, LocationID: locationID, Quantity: decimal.Zero}
}
