package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func TestLedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveMovement(entity.TransactionOUT, "ok", 5*time.Millisecond)
	m.ObserveMovement(entity.TransactionOUT, "insufficient_stock", time.Millisecond)
	m.ObserveMovement(entity.TransactionOUT, "ok", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.movements.WithLabelValues("OUT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.movements.WithLabelValues("OUT", "insufficient_stock")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNilSafe(t *testing.T) {
	var lm *LedgerMetrics
	lm.ObserveMovement(entity.TransactionIN, "ok", time.Second)
	NewLedgerMetrics(nil).ObserveMovement(entity.TransactionIN, "ok", time.Second)

	var hm *HTTPMetrics
	hm.ObserveRequest("GET", "/health", 200, time.Millisecond)
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.ObserveRequest("POST", "/api/v1/inventory/stock/in", 201, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/v1/inventory/stock/in", "201")))
}
