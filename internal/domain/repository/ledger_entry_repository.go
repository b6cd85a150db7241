package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LedgerFilter criterios de consulta del kardex. Campos vacíos/nil no filtran.
type LedgerFilter struct {
	ItemID     string
	LocationID string
	Type       entity.TransactionType
	From       *time.Time // inclusive
	To         *time.Time // inclusive
	Limit      int
	Offset     int
}

// LedgerEntryRepository puerto de persistencia del kardex (solo inserción y lectura).
type LedgerEntryRepository interface {
	// Append inserta un asiento. Nunca se actualiza ni elimina.
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	// List devuelve asientos ordenados por created_at descendente.
	List(ctx context.Context, filter LedgerFilter) ([]*entity.LedgerEntry, error)
	// ListForPair devuelve todos los asientos del par en orden de creación (ascendente) para replay.
	ListForPair(ctx context.Context, itemID, locationID string) ([]*entity.LedgerEntry, error)
	// Last devuelve el asiento más reciente del sistema o nil.
	Last(ctx context.Context) (*entity.LedgerEntry, error)
}
