package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// StockOnHandFilter filtros del reporte de existencias.
type StockOnHandFilter struct {
	ItemID     string
	LocationID string
	Search     string // coincide con nombre o SKU del ítem, sin distinguir mayúsculas
}

// StockOnHandRow fila cruda del reporte de existencias (proyección + nombres del catálogo).
type StockOnHandRow struct {
	ItemID       string
	ItemName     string
	SKU          string
	LocationID   string
	LocationName string
	LocationCode string
	Quantity     decimal.Decimal
	UpdatedAt    time.Time
}

// MovementRow asiento del kardex con los nombres de ítem y ubicación.
type MovementRow struct {
	Entry        *entity.LedgerEntry
	ItemName     string
	SKU          string
	LocationName string
}

// ReportRepository consultas de solo lectura para reportes.
// Las implementaciones no modifican datos.
type ReportRepository interface {
	StockOnHand(ctx context.Context, filter StockOnHandFilter) ([]StockOnHandRow, error)
	Movements(ctx context.Context, filter LedgerFilter) ([]MovementRow, error)
	// CountLowStockItems ítems distintos con alguna existencia en (0, threshold].
	CountLowStockItems(ctx context.Context, threshold decimal.Decimal) (int, error)
}
