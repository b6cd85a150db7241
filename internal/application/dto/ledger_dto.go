package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockMovementRequest body de POST /inventory/stock/in, /out y /adjustment.
// En /adjustment Quantity es la existencia absoluta final (puede ser 0).
type StockMovementRequest struct {
	ItemID     string          `json:"item_id" validate:"required"`
	LocationID string          `json:"location_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Notes      string          `json:"notes" validate:"max=500"`
}

// StockTransferRequest body de POST /inventory/stock/transfer.
type StockTransferRequest struct {
	ItemID         string          `json:"item_id" validate:"required"`
	FromLocationID string          `json:"from_location_id" validate:"required"`
	ToLocationID   string          `json:"to_location_id" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	Notes          string          `json:"notes" validate:"max=500"`
}

// ReconcileRequest body de POST /inventory/stock/reconcile.
type ReconcileRequest struct {
	ItemID     string `json:"item_id" validate:"required"`
	LocationID string `json:"location_id" validate:"required"`
	Repair     bool   `json:"repair"`
}

// LedgerQuery parámetros de GET /inventory/stock/ledger.
type LedgerQuery struct {
	ItemID     string `query:"item_id"`
	LocationID string `query:"location_id"`
	Type       string `query:"type" validate:"omitempty,oneof=IN OUT TRANSFER ADJUSTMENT in out transfer adjustment"`
	DateFrom   string `query:"date_from"`
	DateTo     string `query:"date_to"`
	Skip       int    `query:"skip" validate:"min=0"`
	Limit      int    `query:"limit" validate:"min=0,max=1000"`
}

// LedgerEntryResponse asiento del kardex.
type LedgerEntryResponse struct {
	ID             string          `json:"id"`
	TransactionID  string          `json:"transaction_id"`
	ItemID         string          `json:"item_id"`
	LocationID     string          `json:"location_id"`
	Type           string          `json:"transaction_type"`
	Quantity       decimal.Decimal `json:"quantity"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by"`
}

// TransferResponse las dos patas de un traslado.
type TransferResponse struct {
	TransactionID string              `json:"transaction_id"`
	Out           LedgerEntryResponse `json:"out"`
	In            LedgerEntryResponse `json:"in"`
}

// StockLevelResponse existencia proyectada de un par (ítem, ubicación).
type StockLevelResponse struct {
	ItemID     string          `json:"item_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"last_updated"`
}

// ReconcileResponse resultado de conciliar kardex y proyección.
type ReconcileResponse struct {
	ItemID           string          `json:"item_id"`
	LocationID       string          `json:"location_id"`
	EntryCount       int             `json:"entry_count"`
	LedgerBalance    decimal.Decimal `json:"ledger_balance"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
	InSync           bool            `json:"in_sync"`
	ChainValid       bool            `json:"chain_valid"`
	ChainError       string          `json:"chain_error,omitempty"`
	Repaired         bool            `json:"repaired"`
}
