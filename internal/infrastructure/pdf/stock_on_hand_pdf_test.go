package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
)

func TestGenerateStockOnHand(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	report := &dto.StockOnHandDTO{
		Rows: []dto.StockOnHandRowDTO{
			{SKU: "W-1", ItemName: "Widget", LocationCode: "A", LocationName: "Bodega A", Quantity: decimal.NewFromInt(1200), LastUpdated: now},
			{SKU: "W-1", ItemName: "Widget", LocationCode: "B", LocationName: "Bodega B", Quantity: decimal.RequireFromString("3.5"), LastUpdated: now},
		},
		TotalQuantity: decimal.RequireFromString("1203.5"),
		GeneratedAt:   now,
	}

	out, err := NewMarotoPDFGenerator("Acme").GenerateStockOnHand(context.Background(), "Existencias", report)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGenerateStockOnHand_Empty(t *testing.T) {
	out, err := NewMarotoPDFGenerator("").GenerateStockOnHand(context.Background(), "Existencias", &dto.StockOnHandDTO{GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = NewMarotoPDFGenerator("").GenerateStockOnHand(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestFormatQuantity(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"999":      "999",
		"25000":    "25.000",
		"1000000":  "1.000.000",
		"-1234.5":  "-1.234,5",
		"1203.125": "1.203,125",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatQuantity(in), in)
	}
}
