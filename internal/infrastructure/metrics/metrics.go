// Package metrics expone contadores e histogramas Prometheus del kardex y de la API HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

const namespace = "stock_ledger"

// LedgerMetrics métricas de movimientos. Un valor nil o sin registrar no hace nada.
type LedgerMetrics struct {
	movements *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewLedgerMetrics registra las métricas del motor en reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_total",
		Help:      "Movimientos procesados por tipo y resultado.",
	}, []string{"type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "movement_duration_seconds",
		Help:      "Duración de un movimiento, incluida la espera de locks.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"})
	reg.MustRegister(movements, duration)
	return &LedgerMetrics{movements: movements, duration: duration}
}

// ObserveMovement implementa ledger.Metrics.
func (m *LedgerMetrics) ObserveMovement(txType entity.TransactionType, outcome string, elapsed time.Duration) {
	if m == nil || m.movements == nil {
		return
	}
	t := normalizeLabel(string(txType))
	m.movements.WithLabelValues(t, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(t).Observe(elapsed.Seconds())
}

// HTTPMetrics métricas de peticiones HTTP.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registra las métricas HTTP en reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Peticiones HTTP por método, ruta y status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latencia de peticiones HTTP.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// ObserveRequest registra una petición terminada.
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
