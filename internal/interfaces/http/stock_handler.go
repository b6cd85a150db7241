package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/report"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StockHandler movimientos del kardex, existencias y conciliación (protegido).
type StockHandler struct {
	uc      *ledger.LedgerUseCase
	reports *report.ReportUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *ledger.LedgerUseCase, reports *report.ReportUseCase) *StockHandler {
	return &StockHandler{uc: uc, reports: reports}
}

// StockIn godoc
// @Summary      Registrar entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.StockMovementRequest  true  "item_id, location_id, quantity > 0"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/stock/in [post]
func (h *StockHandler) StockIn(c *fiber.Ctx) error {
	return h.postSingle(c, h.uc.StockIn)
}

// StockOut godoc
// @Summary      Registrar salida de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.StockMovementRequest  true  "item_id, location_id, quantity > 0"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK o CONFLICT"
// @Router       /api/v1/inventory/stock/out [post]
func (h *StockHandler) StockOut(c *fiber.Ctx) error {
	return h.postSingle(c, h.uc.StockOut)
}

// StockAdjustment godoc
// @Summary      Ajustar stock a una cantidad absoluta
// @Description  quantity es la existencia final (>= 0). Requiere ADMIN.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockMovementRequest  true  "item_id, location_id, quantity >= 0"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/stock/adjustment [post]
func (h *StockHandler) StockAdjustment(c *fiber.Ctx) error {
	return h.postSingle(c, h.uc.StockAdjustment)
}

type postFunc func(ctx context.Context, actor entity.Actor, in ledger.MovementInput) (*entity.LedgerEntry, error)

func (h *StockHandler) postSingle(c *fiber.Ctx, post postFunc) error {
	var in dto.StockMovementRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	entry, err := post(c.UserContext(), GetActor(c), ledger.MovementInput{
		ItemID:     in.ItemID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		Notes:      in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLedgerEntryResponse(entry))
}

// StockTransfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Description  Registra dos asientos TRANSFER con el mismo transaction_id; todo o nada.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para reintentos seguros"
// @Param        body  body  dto.StockTransferRequest  true  "item_id, from_location_id, to_location_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse  "VALIDATION o SAME_LOCATION"
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/stock/transfer [post]
func (h *StockHandler) StockTransfer(c *fiber.Ctx) error {
	var in dto.StockTransferRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.StockTransfer(c.UserContext(), GetActor(c), ledger.TransferInput{
		ItemID:         in.ItemID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Notes:          in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		TransactionID: res.TransactionID,
		Out:           dto.ToLedgerEntryResponse(res.Out),
		In:            dto.ToLedgerEntryResponse(res.In),
	})
}

// Reconcile godoc
// @Summary      Conciliar kardex y proyección de un par
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  true  "item_id, location_id, repair"
// @Success      200   {object}  dto.ReconcileResponse
// @Router       /api/v1/inventory/stock/reconcile [post]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	var in dto.ReconcileRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.Reconcile(c.UserContext(), GetActor(c), in.ItemID, in.LocationID, in.Repair)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReconcileResponse{
		ItemID:           res.ItemID,
		LocationID:       res.LocationID,
		EntryCount:       res.EntryCount,
		LedgerBalance:    res.LedgerBalance,
		ProjectedBalance: res.ProjectedBalance,
		InSync:           res.InSync,
		ChainValid:       res.ChainValid,
		ChainError:       res.ChainError,
		Repaired:         res.Repaired,
	})
}

// Ledger godoc
// @Summary      Consultar el kardex
// @Description  Asientos del más reciente al más antiguo. date_from/date_to aceptan YYYY-MM-DD o RFC3339.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item_id      query  string  false  "Ítem"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        type         query  string  false  "IN | OUT | TRANSFER | ADJUSTMENT"
// @Param        date_from    query  string  false  "Desde"
// @Param        date_to      query  string  false  "Hasta (inclusive)"
// @Param        skip         query  int     false  "Offset"  default(0)
// @Param        limit        query  int     false  "Límite"  default(100)
// @Success      200  {array}   dto.LedgerEntryResponse
// @Router       /api/v1/inventory/stock/ledger [get]
func (h *StockHandler) Ledger(c *fiber.Ctx) error {
	filter, err := ledgerFilterFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	entries, err := h.uc.GetLedger(c.UserContext(), GetActor(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ToLedgerEntryResponse(e))
	}
	return c.JSON(out)
}

// Current godoc
// @Summary      Existencias actuales
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item_id      query  string  false  "Ítem"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        search       query  string  false  "Busca en nombre o SKU"
// @Success      200  {object}  dto.StockOnHandDTO
// @Router       /api/v1/inventory/stock/current [get]
func (h *StockHandler) Current(c *fiber.Ctx) error {
	out, err := h.reports.StockOnHand(c.UserContext(), GetActor(c), stockOnHandFilterFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ByItem existencias de un ítem en todas sus ubicaciones.
// GET /api/v1/inventory/items/:id/stock
func (h *StockHandler) ByItem(c *fiber.Ctx) error {
	levels, err := h.uc.StockByItem(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockLevels(levels))
}

// ByLocation existencias de todos los ítems en una ubicación.
// GET /api/v1/inventory/locations/:id/stock
func (h *StockHandler) ByLocation(c *fiber.Ctx) error {
	levels, err := h.uc.StockByLocation(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockLevels(levels))
}

func toStockLevels(levels []*entity.StockLevel) []dto.StockLevelResponse {
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.ToStockLevelResponse(l))
	}
	return out
}

func ledgerFilterFromQuery(c *fiber.Ctx) (repository.LedgerFilter, error) {
	var q dto.LedgerQuery
	if err := parseQuery(c, &q); err != nil {
		return repository.LedgerFilter{}, err
	}
	from, to, err := report.ParseDateRange(q.DateFrom, q.DateTo, time.UTC)
	if err != nil {
		return repository.LedgerFilter{}, err
	}
	return repository.LedgerFilter{
		ItemID:     q.ItemID,
		LocationID: q.LocationID,
		Type:       entity.TransactionType(strings.ToUpper(q.Type)),
		From:       from,
		To:         to,
		Limit:      q.Limit,
		Offset:     q.Skip,
	}, nil
}

func stockOnHandFilterFromQuery(c *fiber.Ctx) repository.StockOnHandFilter {
	return repository.StockOnHandFilter{
		ItemID:     c.Query("item_id"),
		LocationID: c.Query("location_id"),
		Search:     strings.TrimSpace(c.Query("search")),
	}
}
