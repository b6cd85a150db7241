// Package report contiene las vistas de solo lectura sobre la proyección y el kardex:
// existencias actuales, historial de movimientos, resumen del dashboard y PDF.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ReportUseCase arma los reportes. Ninguna operación modifica datos.
type ReportUseCase struct {
	reports           repository.ReportRepository
	items             repository.ItemRepository
	locations         repository.LocationRepository
	entries           repository.LedgerEntryRepository
	pdf               StockOnHandPDFGenerator
	lowStockThreshold decimal.Decimal
	now               func() time.Time
}

// NewReportUseCase construye el caso de uso. pdf puede ser nil (el PDF queda deshabilitado).
func NewReportUseCase(
	reports repository.ReportRepository,
	items repository.ItemRepository,
	locations repository.LocationRepository,
	entries repository.LedgerEntryRepository,
	pdf StockOnHandPDFGenerator,
	lowStockThreshold decimal.Decimal,
) *ReportUseCase {
	return &ReportUseCase{
		reports:           reports,
		items:             items,
		locations:         locations,
		entries:           entries,
		pdf:               pdf,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// StockOnHand existencias actuales con nombres de ítem y ubicación, más el total.
func (uc *ReportUseCase) StockOnHand(ctx context.Context, actor entity.Actor, filter repository.StockOnHandFilter) (*dto.StockOnHandDTO, error) {
	if err := viewer(actor); err != nil {
		return nil, err
	}
	rows, err := uc.reports.StockOnHand(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.StockOnHandDTO{
		Rows:          make([]dto.StockOnHandRowDTO, 0, len(rows)),
		TotalQuantity: decimal.Zero,
		GeneratedAt:   uc.now(),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, dto.StockOnHandRowDTO{
			ItemID:       r.ItemID,
			ItemName:     r.ItemName,
			SKU:          r.SKU,
			LocationID:   r.LocationID,
			LocationName: r.LocationName,
			LocationCode: r.LocationCode,
			Quantity:     r.Quantity,
			LastUpdated:  r.UpdatedAt,
		})
		out.TotalQuantity = out.TotalQuantity.Add(r.Quantity)
	}
	return out, nil
}

// StockOnHandPDF el mismo reporte renderizado como PDF.
func (uc *ReportUseCase) StockOnHandPDF(ctx context.Context, actor entity.Actor, filter repository.StockOnHandFilter) ([]byte, string, error) {
	if uc.pdf == nil {
		return nil, "", fmt.Errorf("generador de PDF no configurado")
	}
	report, err := uc.StockOnHand(ctx, actor, filter)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.pdf.GenerateStockOnHand(ctx, "Existencias por ubicación", report)
	if err != nil {
		return nil, "", fmt.Errorf("generar PDF de existencias: %w", err)
	}
	filename := fmt.Sprintf("existencias-%s.pdf", report.GeneratedAt.Format("20060102-1504"))
	return pdfBytes, filename, nil
}

// Movements historial del kardex con nombres y totales de entradas/salidas.
// Entradas = asientos con cantidad positiva (IN, pata destino de TRANSFER, ajuste al alza);
// salidas = valor absoluto de los negativos.
func (uc *ReportUseCase) Movements(ctx context.Context, actor entity.Actor, filter repository.LedgerFilter) (*dto.MovementHistoryDTO, error) {
	if err := viewer(actor); err != nil {
		return nil, err
	}
	filter, err := ledger.NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	rows, err := uc.reports.Movements(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.MovementHistoryDTO{
		Rows:   make([]dto.MovementRowDTO, 0, len(rows)),
		Totals: dto.MovementTotalsDTO{TotalIn: decimal.Zero, TotalOut: decimal.Zero},
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, dto.MovementRowDTO{
			LedgerEntryResponse: dto.ToLedgerEntryResponse(r.Entry),
			ItemName:            r.ItemName,
			SKU:                 r.SKU,
			LocationName:        r.LocationName,
		})
		switch {
		case r.Entry.Quantity.IsPositive():
			out.Totals.TotalIn = out.Totals.TotalIn.Add(r.Entry.Quantity)
		case r.Entry.Quantity.IsNegative():
			out.Totals.TotalOut = out.Totals.TotalOut.Add(r.Entry.Quantity.Abs())
		}
	}
	out.Totals.Count = len(out.Rows)
	return out, nil
}

// Summary KPIs del dashboard. Las cuatro consultas son independientes y corren en paralelo.
func (uc *ReportUseCase) Summary(ctx context.Context, actor entity.Actor) (*dto.SummaryDTO, error) {
	if err := viewer(actor); err != nil {
		return nil, err
	}
	out := &dto.SummaryDTO{LowStockThreshold: uc.lowStockThreshold.String()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := uc.items.Count(gctx)
		if err != nil {
			return fmt.Errorf("contar ítems: %w", err)
		}
		out.TotalItems = n
		return nil
	})
	g.Go(func() error {
		n, err := uc.locations.Count(gctx)
		if err != nil {
			return fmt.Errorf("contar ubicaciones: %w", err)
		}
		out.TotalLocations = n
		return nil
	})
	g.Go(func() error {
		n, err := uc.reports.CountLowStockItems(gctx, uc.lowStockThreshold)
		if err != nil {
			return fmt.Errorf("contar ítems con stock bajo: %w", err)
		}
		out.LowStockItemsCount = n
		return nil
	})
	g.Go(func() error {
		last, err := uc.entries.Last(gctx)
		if err != nil {
			return fmt.Errorf("último movimiento: %w", err)
		}
		if last != nil {
			t := last.CreatedAt
			out.LastTransactionDate = &t
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func viewer(actor entity.Actor) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	if !actor.Can(entity.RoleViewer) {
		return domain.ErrForbidden
	}
	return nil
}
