package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// LedgerUseCase motor del kardex: valida y aplica movimientos (IN, OUT, TRANSFER, ADJUSTMENT)
// serializando por (ítem, ubicación) con Locker + SELECT FOR UPDATE y confirmando asiento
// y proyección en la misma transacción.
type LedgerUseCase struct {
	txRunner  TxRunner
	locker    Locker
	items     repository.ItemRepository
	locations repository.LocationRepository
	entries   repository.LedgerEntryRepository
	levels    repository.StockLevelRepository
	metrics   Metrics
	log       zerolog.Logger
	now       func() time.Time
}

// Option configura dependencias opcionales del caso de uso.
type Option func(*LedgerUseCase)

// WithMetrics registra duración y resultado de cada movimiento.
func WithMetrics(m Metrics) Option { return func(uc *LedgerUseCase) { uc.metrics = m } }

// WithLogger asigna el logger estructurado.
func WithLogger(l zerolog.Logger) Option { return func(uc *LedgerUseCase) { uc.log = l } }

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option { return func(uc *LedgerUseCase) { uc.now = now } }

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	locker Locker,
	items repository.ItemRepository,
	locations repository.LocationRepository,
	entries repository.LedgerEntryRepository,
	levels repository.StockLevelRepository,
	opts ...Option,
) *LedgerUseCase {
	uc := &LedgerUseCase{
		txRunner:  txRunner,
		locker:    locker,
		items:     items,
		locations: locations,
		entries:   entries,
		levels:    levels,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// MovementInput entrada de IN, OUT y ADJUSTMENT.
// En ADJUSTMENT Quantity es la existencia absoluta final.
type MovementInput struct {
	ItemID     string
	LocationID string
	Quantity   decimal.Decimal
	Notes      string
}

// TransferInput entrada de TRANSFER.
type TransferInput struct {
	ItemID         string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	Notes          string
}

// TransferResult las dos patas de un traslado (mismo TransactionID).
type TransferResult struct {
	TransactionID string
	Out           *entity.LedgerEntry
	In            *entity.LedgerEntry
}

// StockIn suma Quantity a la existencia del par.
func (uc *LedgerUseCase) StockIn(ctx context.Context, actor entity.Actor, in MovementInput) (*entity.LedgerEntry, error) {
	return uc.postSingle(ctx, actor, entity.TransactionIN, in)
}

// StockOut resta Quantity; falla con ErrInsufficientStock si la existencia quedaría negativa.
func (uc *LedgerUseCase) StockOut(ctx context.Context, actor entity.Actor, in MovementInput) (*entity.LedgerEntry, error) {
	return uc.postSingle(ctx, actor, entity.TransactionOUT, in)
}

// StockAdjustment fija la existencia en Quantity (absoluto). Solo ADMIN o superior.
// El asiento registra el delta aplicado (nuevo - anterior).
func (uc *LedgerUseCase) StockAdjustment(ctx context.Context, actor entity.Actor, in MovementInput) (*entity.LedgerEntry, error) {
	return uc.postSingle(ctx, actor, entity.TransactionADJUSTMENT, in)
}

func (uc *LedgerUseCase) postSingle(ctx context.Context, actor entity.Actor, t entity.TransactionType, in MovementInput) (created *entity.LedgerEntry, err error) {
	start := uc.now()
	defer func() { uc.observe(t, start, err) }()

	if err := authorize(actor, t.RequiredRole()); err != nil {
		return nil, err
	}
	if err := validateSingle(t, in); err != nil {
		return nil, err
	}
	if err := uc.ensureItem(ctx, in.ItemID); err != nil {
		return nil, err
	}
	if err := uc.ensureLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}

	release, err := uc.locker.Acquire(ctx, ledger.LockKeys(in.ItemID, in.LocationID)...)
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(
		ctx context.Context,
		entries repository.LedgerEntryRepository,
		levels repository.StockLevelRepository,
	) error {
		// Bloquea la fila del par (SELECT FOR UPDATE) antes de leer el saldo
		level, err := levels.GetForUpdate(ctx, in.ItemID, in.LocationID)
		if err != nil {
			return err
		}
		posting, err := ledger.Apply(t, level.Quantity, in.Quantity)
		if err != nil {
			return err
		}
		now := uc.now()
		level.Quantity = posting.Balance
		level.UpdatedAt = now
		if err := levels.Upsert(ctx, level); err != nil {
			return err
		}
		entry := &entity.LedgerEntry{
			ID:             uuid.New().String(),
			TransactionID:  uuid.New().String(),
			ItemID:         in.ItemID,
			LocationID:     in.LocationID,
			Type:           t,
			Quantity:       posting.Delta,
			RunningBalance: posting.Balance,
			Notes:          in.Notes,
			CreatedAt:      now,
			CreatedBy:      actor.UserID,
		}
		if err := entries.Append(ctx, entry); err != nil {
			return err
		}
		created = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("type", string(t)).
		Str("item_id", created.ItemID).
		Str("location_id", created.LocationID).
		Str("quantity", created.Quantity.String()).
		Str("running_balance", created.RunningBalance.String()).
		Str("user_id", actor.UserID).
		Msg("movimiento registrado")
	return created, nil
}

// StockTransfer equivale a StockOut(origen) + StockIn(destino) de forma atómica:
// o se aplican ambas patas o ninguna. Los locks se toman en orden lexicográfico de ubicación.
func (uc *LedgerUseCase) StockTransfer(ctx context.Context, actor entity.Actor, in TransferInput) (result *TransferResult, err error) {
	start := uc.now()
	defer func() { uc.observe(entity.TransactionTRANSFER, start, err) }()

	if err := authorize(actor, entity.TransactionTRANSFER.RequiredRole()); err != nil {
		return nil, err
	}
	if in.ItemID == "" || in.FromLocationID == "" || in.ToLocationID == "" {
		return nil, domain.Invalid("item_id, from_location_id y to_location_id son requeridos")
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, domain.ErrSameLocation
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if err := ledger.ValidateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if err := uc.ensureItem(ctx, in.ItemID); err != nil {
		return nil, err
	}
	if err := uc.ensureLocation(ctx, in.FromLocationID); err != nil {
		return nil, err
	}
	if err := uc.ensureLocation(ctx, in.ToLocationID); err != nil {
		return nil, err
	}

	release, err := uc.locker.Acquire(ctx, ledger.LockKeys(in.ItemID, in.FromLocationID, in.ToLocationID)...)
	if err != nil {
		return nil, err
	}
	defer release()

	txID := uuid.New().String()
	err = uc.txRunner.Run(ctx, func(
		ctx context.Context,
		entries repository.LedgerEntryRepository,
		levels repository.StockLevelRepository,
	) error {
		locked := make(map[string]*entity.StockLevel, 2)
		for _, locationID := range ledger.SortedLocations(in.FromLocationID, in.ToLocationID) {
			level, err := levels.GetForUpdate(ctx, in.ItemID, locationID)
			if err != nil {
				return err
			}
			locked[locationID] = level
		}
		origin, dest := locked[in.FromLocationID], locked[in.ToLocationID]

		outPosting, inPosting, err := ledger.ApplyTransfer(origin.Quantity, dest.Quantity, in.Quantity)
		if err != nil {
			return err
		}
		now := uc.now()
		origin.Quantity, origin.UpdatedAt = outPosting.Balance, now
		dest.Quantity, dest.UpdatedAt = inPosting.Balance, now
		if err := levels.Upsert(ctx, origin); err != nil {
			return err
		}
		if err := levels.Upsert(ctx, dest); err != nil {
			return err
		}

		outEntry := &entity.LedgerEntry{
			ID:             uuid.New().String(),
			TransactionID:  txID,
			ItemID:         in.ItemID,
			LocationID:     in.FromLocationID,
			Type:           entity.TransactionTRANSFER,
			Quantity:       outPosting.Delta,
			RunningBalance: outPosting.Balance,
			Notes:          in.Notes,
			CreatedAt:      now,
			CreatedBy:      actor.UserID,
		}
		if err := entries.Append(ctx, outEntry); err != nil {
			return err
		}
		inEntry := &entity.LedgerEntry{
			ID:             uuid.New().String(),
			TransactionID:  txID,
			ItemID:         in.ItemID,
			LocationID:     in.ToLocationID,
			Type:           entity.TransactionTRANSFER,
			Quantity:       inPosting.Delta,
			RunningBalance: inPosting.Balance,
			Notes:          in.Notes,
			CreatedAt:      now,
			CreatedBy:      actor.UserID,
		}
		if err := entries.Append(ctx, inEntry); err != nil {
			return err
		}
		result = &TransferResult{TransactionID: txID, Out: outEntry, In: inEntry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("type", string(entity.TransactionTRANSFER)).
		Str("transaction_id", txID).
		Str("item_id", in.ItemID).
		Str("from_location_id", in.FromLocationID).
		Str("to_location_id", in.ToLocationID).
		Str("quantity", in.Quantity.String()).
		Str("user_id", actor.UserID).
		Msg("traslado registrado")
	return result, nil
}

func validateSingle(t entity.TransactionType, in MovementInput) error {
	if in.ItemID == "" || in.LocationID == "" {
		return domain.Invalid("item_id y location_id son requeridos")
	}
	if t == entity.TransactionADJUSTMENT {
		if in.Quantity.IsNegative() {
			return domain.Invalid("el ajuste no puede dejar existencia negativa")
		}
		return ledger.ValidateQuantity(in.Quantity)
	}
	if !in.Quantity.IsPositive() {
		return domain.Invalid("la cantidad debe ser mayor que cero")
	}
	return ledger.ValidateQuantity(in.Quantity)
}

func authorize(actor entity.Actor, min entity.Role) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	if !actor.Can(min) {
		return fmt.Errorf("%w: se requiere rol %s o superior", domain.ErrForbidden, min)
	}
	return nil
}

func (uc *LedgerUseCase) ensureItem(ctx context.Context, id string) error {
	item, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, id)
	}
	return nil
}

func (uc *LedgerUseCase) ensureLocation(ctx context.Context, id string) error {
	loc, err := uc.locations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	return nil
}

func (uc *LedgerUseCase) observe(t entity.TransactionType, start time.Time, err error) {
	result := Outcome(err)
	if uc.metrics != nil {
		uc.metrics.ObserveMovement(t, result, uc.now().Sub(start))
	}
	if result == "error" {
		uc.log.Error().Err(err).Str("type", string(t)).Msg("movimiento fallido")
	} else if err != nil {
		uc.log.Debug().Err(err).Str("type", string(t)).Str("outcome", result).Msg("movimiento rechazado")
	}
}

// Outcome clasifica un error del motor para métricas y logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
