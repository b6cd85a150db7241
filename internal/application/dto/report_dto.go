package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryDTO respuesta de GET /inventory/reports/summary (widget del dashboard).
type SummaryDTO struct {
	TotalItems          int        `json:"total_items"`
	TotalLocations      int        `json:"total_locations"`
	LowStockItemsCount  int        `json:"low_stock_items_count"`
	LowStockThreshold   string     `json:"low_stock_threshold"`
	LastTransactionDate *time.Time `json:"last_transaction_date"`
}

// StockOnHandRowDTO fila del reporte de existencias.
type StockOnHandRowDTO struct {
	ItemID       string          `json:"item_id"`
	ItemName     string          `json:"item_name"`
	SKU          string          `json:"sku"`
	LocationID   string          `json:"location_id"`
	LocationName string          `json:"location_name"`
	LocationCode string          `json:"location_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// StockOnHandDTO reporte de existencias con total.
type StockOnHandDTO struct {
	Rows          []StockOnHandRowDTO `json:"rows"`
	TotalQuantity decimal.Decimal     `json:"total_quantity"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// MovementRowDTO asiento con nombres de ítem y ubicación.
type MovementRowDTO struct {
	LedgerEntryResponse
	ItemName     string `json:"item_name"`
	SKU          string `json:"sku"`
	LocationName string `json:"location_name"`
}

// MovementTotalsDTO totales del historial de movimientos.
type MovementTotalsDTO struct {
	Count    int             `json:"count"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
}

// MovementHistoryDTO respuesta de GET /inventory/reports/movements.
type MovementHistoryDTO struct {
	Rows   []MovementRowDTO  `json:"rows"`
	Totals MovementTotalsDTO `json:"totals"`
}
