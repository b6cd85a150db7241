package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para Location (DIP).
// Create devuelve domain.ErrDuplicate si el código ya existe.
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	GetByCode(ctx context.Context, code string) (*entity.Location, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Location, error)
	Count(ctx context.Context) (int, error)
}
