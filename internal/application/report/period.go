package report

import (
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// ParseDateRange convierte date_from/date_to en punteros a time.Time. Acepta fecha
// (2006-01-02, date_to inclusive hasta el final del día) o RFC3339. Vacío no filtra.
func ParseDateRange(fromStr, toStr string, loc *time.Location) (from, to *time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	if s := strings.TrimSpace(fromStr); s != "" {
		t, _, err := parseInstant(s, loc)
		if err != nil {
			return nil, nil, domain.Invalid("date_from inválido: %s", s)
		}
		from = &t
	}
	if s := strings.TrimSpace(toStr); s != "" {
		t, dateOnly, err := parseInstant(s, loc)
		if err != nil {
			return nil, nil, domain.Invalid("date_to inválido: %s", s)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, domain.Invalid("date_from no puede ser posterior a date_to")
	}
	return from, to, nil
}

func parseInstant(s string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}
