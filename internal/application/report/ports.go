package report

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
)

// StockOnHandPDFGenerator renderiza el reporte de existencias como PDF.
type StockOnHandPDFGenerator interface {
	GenerateStockOnHand(ctx context.Context, title string, report *dto.StockOnHandDTO) ([]byte, error)
}
