package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de movimiento del kardex.
type TransactionType string

// Tipos de movimiento de inventario.
const (
	TransactionIN         TransactionType = "IN"         // entrada
	TransactionOUT        TransactionType = "OUT"        // salida
	TransactionTRANSFER   TransactionType = "TRANSFER"   // traslado entre ubicaciones
	TransactionADJUSTMENT TransactionType = "ADJUSTMENT" // ajuste a cantidad absoluta
)

// Valid indica si el tipo es conocido.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIN, TransactionOUT, TransactionTRANSFER, TransactionADJUSTMENT:
		return true
	}
	return false
}

// RequiredRole rol mínimo para registrar el movimiento.
func (t TransactionType) RequiredRole() Role {
	if t == TransactionADJUSTMENT {
		return RoleAdmin
	}
	return RoleStaff
}

// LedgerEntry asiento inmutable del kardex. RunningBalance es la existencia del par
// (ItemID, LocationID) inmediatamente después de aplicar este asiento.
type LedgerEntry struct {
	ID             string
	TransactionID  string // agrupa las dos patas de un TRANSFER
	ItemID         string
	LocationID     string
	Type           TransactionType
	Quantity       decimal.Decimal // firmada: positiva entrada, negativa salida
	RunningBalance decimal.Decimal
	Notes          string
	CreatedAt      time.Time
	CreatedBy      string
}
