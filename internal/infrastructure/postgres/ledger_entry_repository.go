package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.LedgerEntryRepository = (*LedgerEntryRepo)(nil)

// LedgerEntryRepo kardex sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT;
// la tabla además rechaza UPDATE/DELETE con un trigger.
type LedgerEntryRepo struct {
	q Querier
}

// NewLedgerEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerEntryRepository(q Querier) *LedgerEntryRepo {
	return &LedgerEntryRepo{q: q}
}

const ledgerColumns = `id, transaction_id, item_id, location_id, transaction_type, quantity, running_balance, notes, created_at, created_by`

// Append persiste un asiento.
func (r *LedgerEntryRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.TransactionID, e.ItemID, e.LocationID, string(e.Type),
		e.Quantity, e.RunningBalance, e.Notes, e.CreatedAt, nullableUUID(e.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// List asientos filtrados, más reciente primero. Los filtros de fecha se resuelven en SQL.
func (r *LedgerEntryRepo) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	where, args, ok := ledgerWhere(f, "")
	if !ok {
		return []*entity.LedgerEntry{}, nil
	}
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)
	return r.query(ctx, query, args...)
}

// ListForPair historia completa del par en orden de inserción.
func (r *LedgerEntryRepo) ListForPair(ctx context.Context, itemID, locationID string) ([]*entity.LedgerEntry, error) {
	if !isUUID(itemID) || !isUUID(locationID) {
		return []*entity.LedgerEntry{}, nil
	}
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
		WHERE item_id = $1 AND location_id = $2
		ORDER BY seq ASC`
	return r.query(ctx, query, itemID, locationID)
}

// Last asiento más reciente del sistema o nil.
func (r *LedgerEntryRepo) Last(ctx context.Context) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries ORDER BY seq DESC LIMIT 1`
	e, err := scanLedgerEntry(r.q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last ledger entry: %w", err)
	}
	return e, nil
}

func (r *LedgerEntryRepo) query(ctx context.Context, query string, args ...any) ([]*entity.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ledgerWhere arma el WHERE de un LedgerFilter. prefix califica las columnas ("le." en joins).
// ok=false si algún id no es UUID: ningún asiento puede coincidir.
func ledgerWhere(f repository.LedgerFilter, prefix string) (string, []any, bool) {
	var (
		clauses []string
		args    []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("%s%s $%d", prefix, cond, len(args)))
	}
	if f.ItemID != "" {
		if !isUUID(f.ItemID) {
			return "", nil, false
		}
		add("item_id =", f.ItemID)
	}
	if f.LocationID != "" {
		if !isUUID(f.LocationID) {
			return "", nil, false
		}
		add("location_id =", f.LocationID)
	}
	if f.Type != "" {
		add("transaction_type =", string(f.Type))
	}
	if f.From != nil {
		add("created_at >=", *f.From)
	}
	if f.To != nil {
		add("created_at <=", *f.To)
	}
	if len(clauses) == 0 {
		return "", args, true
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args, true
}

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var (
		e         entity.LedgerEntry
		txType    string
		createdBy *string
	)
	if err := row.Scan(
		&e.ID, &e.TransactionID, &e.ItemID, &e.LocationID, &txType,
		&e.Quantity, &e.RunningBalance, &e.Notes, &e.CreatedAt, &createdBy,
	); err != nil {
		return nil, err
	}
	e.Type = entity.TransactionType(txType)
	if createdBy != nil {
		e.CreatedBy = *createdBy
	}
	return &e, nil
}
