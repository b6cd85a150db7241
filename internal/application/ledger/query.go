package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

const (
	defaultLedgerLimit = 100
	maxLedgerLimit     = 1000
)

// GetLedger consulta el kardex (más reciente primero). Requiere VIEWER.
func (uc *LedgerUseCase) GetLedger(ctx context.Context, actor entity.Actor, filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	if err := authorize(actor, entity.RoleViewer); err != nil {
		return nil, err
	}
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return uc.entries.List(ctx, filter)
}

// NormalizeFilter aplica límites por defecto y valida rango de fechas y tipo.
func NormalizeFilter(filter repository.LedgerFilter) (repository.LedgerFilter, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLedgerLimit
	}
	if filter.Limit > maxLedgerLimit {
		filter.Limit = maxLedgerLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return filter, domain.Invalid("tipo de movimiento desconocido: %s", filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, domain.Invalid("la fecha inicial es posterior a la final")
	}
	return filter, nil
}

// GetStock existencia proyectada de un par. Cero si nunca tuvo movimientos.
func (uc *LedgerUseCase) GetStock(ctx context.Context, actor entity.Actor, itemID, locationID string) (*entity.StockLevel, error) {
	if err := authorize(actor, entity.RoleViewer); err != nil {
		return nil, err
	}
	if itemID == "" || locationID == "" {
		return nil, domain.Invalid("item_id y location_id son requeridos")
	}
	if err := uc.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}
	if err := uc.ensureLocation(ctx, locationID); err != nil {
		return nil, err
	}
	return uc.levels.Get(ctx, itemID, locationID)
}

// StockByItem existencias del ítem en todas las ubicaciones donde tuvo movimientos.
func (uc *LedgerUseCase) StockByItem(ctx context.Context, actor entity.Actor, itemID string) ([]*entity.StockLevel, error) {
	if err := authorize(actor, entity.RoleViewer); err != nil {
		return nil, err
	}
	if err := uc.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}
	return uc.levels.ListByItem(ctx, itemID)
}

// StockByLocation existencias de todos los ítems en la ubicación.
func (uc *LedgerUseCase) StockByLocation(ctx context.Context, actor entity.Actor, locationID string) ([]*entity.StockLevel, error) {
	if err := authorize(actor, entity.RoleViewer); err != nil {
		return nil, err
	}
	if err := uc.ensureLocation(ctx, locationID); err != nil {
		return nil, err
	}
	return uc.levels.ListByLocation(ctx, locationID)
}

// ReconcileResult comparación entre el kardex de un par y su proyección.
type ReconcileResult struct {
	ItemID           string
	LocationID       string
	EntryCount       int
	LedgerBalance    decimal.Decimal
	ProjectedBalance decimal.Decimal
	InSync           bool
	ChainValid       bool
	ChainError       string
	Repaired         bool
}

// Reconcile reproduce el kardex del par y lo compara con la proyección (solo ADMIN o superior).
// Con repair=true reescribe la proyección con la suma del kardex; el kardex no se toca.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, actor entity.Actor, itemID, locationID string, repair bool) (*ReconcileResult, error) {
	if err := authorize(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if itemID == "" || locationID == "" {
		return nil, domain.Invalid("item_id y location_id son requeridos")
	}
	if err := uc.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}
	if err := uc.ensureLocation(ctx, locationID); err != nil {
		return nil, err
	}

	release, err := uc.locker.Acquire(ctx, ledger.LockKeys(itemID, locationID)...)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &ReconcileResult{ItemID: itemID, LocationID: locationID}
	err = uc.txRunner.Run(ctx, func(
		ctx context.Context,
		entries repository.LedgerEntryRepository,
		levels repository.StockLevelRepository,
	) error {
		level, err := levels.GetForUpdate(ctx, itemID, locationID)
		if err != nil {
			return err
		}
		history, err := entries.ListForPair(ctx, itemID, locationID)
		if err != nil {
			return err
		}
		result.EntryCount = len(history)
		result.ProjectedBalance = level.Quantity
		result.ChainValid = true
		if _, chainErr := ledger.Replay(history); chainErr != nil {
			var ce *ledger.ChainError
			if !errors.As(chainErr, &ce) {
				return chainErr
			}
			result.ChainValid = false
			result.ChainError = ce.Error()
		}
		result.LedgerBalance = ledger.Sum(history)
		result.InSync = result.LedgerBalance.Equal(level.Quantity)

		if !repair || result.InSync {
			return nil
		}
		level.Quantity = result.LedgerBalance
		level.UpdatedAt = uc.now()
		if err := levels.Upsert(ctx, level); err != nil {
			return err
		}
		result.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.InSync || !result.ChainValid {
		uc.log.Warn().
			Str("item_id", itemID).
			Str("location_id", locationID).
			Str("ledger_balance", result.LedgerBalance.String()).
			Str("projected_balance", result.ProjectedBalance.String()).
			Bool("chain_valid", result.ChainValid).
			Bool("repaired", result.Repaired).
			Msg("proyección desalineada con el kardex")
	}
	return result, nil
}
