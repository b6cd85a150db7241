package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/report"
)

// ReportHandler reportes de solo lectura.
type ReportHandler struct {
	uc *report.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *report.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Summary godoc
// @Summary      KPIs del dashboard
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SummaryDTO
// @Router       /api/v1/inventory/reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.UserContext(), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// StockOnHand existencias con nombres y total.
// GET /api/v1/inventory/reports/stock-on-hand
func (h *ReportHandler) StockOnHand(c *fiber.Ctx) error {
	out, err := h.uc.StockOnHand(c.UserContext(), GetActor(c), stockOnHandFilterFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// StockOnHandPDF godoc
// @Summary      Existencias en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/v1/inventory/reports/stock-on-hand.pdf [get]
func (h *ReportHandler) StockOnHandPDF(c *fiber.Ctx) error {
	pdf, filename, err := h.uc.StockOnHandPDF(c.UserContext(), GetActor(c), stockOnHandFilterFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+strconv.Quote(filename))
	return c.Send(pdf)
}

// Movements godoc
// @Summary      Historial de movimientos
// @Description  Mismos filtros que el kardex, con nombres de ítem/ubicación y totales.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MovementHistoryDTO
// @Router       /api/v1/inventory/reports/movements [get]
func (h *ReportHandler) Movements(c *fiber.Ctx) error {
	filter, err := ledgerFilterFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Movements(c.UserContext(), GetActor(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
