package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// StockLevelRepository puerto para consultar/actualizar la proyección de existencias.
// Las escrituras solo ocurren dentro de TxRunner, junto con el asiento del kardex.
type StockLevelRepository interface {
	// Get devuelve la existencia del par; cantidad cero si la fila no existe.
	Get(ctx context.Context, itemID, locationID string) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila del par hasta el fin de la transacción (la crea en cero si falta).
	GetForUpdate(ctx context.Context, itemID, locationID string) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
	ListByItem(ctx context.Context, itemID string) ([]*entity.StockLevel, error)
	ListByLocation(ctx context.Context, locationID string) ([]*entity.StockLevel, error)
}
