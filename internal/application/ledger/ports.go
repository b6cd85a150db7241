package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que el asiento del kardex y la actualización de la proyección se confirmen juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		entries repository.LedgerEntryRepository,
		levels repository.StockLevelRepository,
	) error) error
}

// Locker serializa el acceso a pares (ítem, ubicación).
// Acquire toma las claves en el orden recibido (ver ledger.LockKeys) y devuelve la función
// que las libera. Si no logra tomarlas devuelve domain.ErrConflict.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// Metrics registra el resultado de cada movimiento. Puede ser nil.
type Metrics interface {
	ObserveMovement(txType entity.TransactionType, outcome string, elapsed time.Duration)
}
