package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel existencia actual de un ítem en una ubicación (proyección materializada del kardex).
// Quantity siempre es la suma de las cantidades firmadas de sus asientos.
type StockLevel struct {
	ItemID     string
	LocationID string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}
