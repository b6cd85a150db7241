// Package memory implementa los repositorios y puertos del motor sobre mapas en memoria.
// Se usa con STORE_DRIVER=memory (desarrollo) y en tests de casos de uso y handlers.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Store datos compartidos por todos los repositorios en memoria.
type Store struct {
	mu        sync.RWMutex
	items     map[string]*entity.Item
	locations map[string]*entity.Location
	users     map[string]*entity.User
	levels    map[pairKey]*entity.StockLevel
	entries   []*entity.LedgerEntry

	// txMu serializa transacciones completas; emula los bloqueos de fila de Postgres.
	txMu sync.Mutex
}

type pairKey struct {
	itemID     string
	locationID string
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		items:     make(map[string]*entity.Item),
		locations: make(map[string]*entity.Location),
		users:     make(map[string]*entity.User),
		levels:    make(map[pairKey]*entity.StockLevel),
	}
}

// Items repositorio de ítems.
func (s *Store) Items() *ItemRepository { return &ItemRepository{s: s} }

// Locations repositorio de ubicaciones.
func (s *Store) Locations() *LocationRepository { return &LocationRepository{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Entries repositorio del kardex.
func (s *Store) Entries() *LedgerEntryRepository { return &LedgerEntryRepository{s: s} }

// Levels repositorio de la proyección de existencias.
func (s *Store) Levels() *StockLevelRepository { return &StockLevelRepository{s: s} }

// Reports consultas de reportes.
func (s *Store) Reports() *ReportRepository { return &ReportRepository{s: s} }

// TxRunner ejecutor de transacciones en memoria.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// TxRunner ejecuta fn con exclusión mutua sobre el almacén. Si fn falla,
// la proyección y el kardex vuelven al estado previo.
type TxRunner struct {
	s *Store
}

// Run implementa ledger.TxRunner.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ctx context.Context,
	entries repository.LedgerEntryRepository,
	levels repository.StockLevelRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snapshot := r.s.snapshot()
	if err := fn(ctx, r.s.Entries(), r.s.Levels()); err != nil {
		r.s.restore(snapshot)
		return err
	}
	return nil
}

type ledgerSnapshot struct {
	levels     map[pairKey]entity.StockLevel
	entryCount int
}

func (s *Store) snapshot() ledgerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := ledgerSnapshot{
		levels:     make(map[pairKey]entity.StockLevel, len(s.levels)),
		entryCount: len(s.entries),
	}
	for k, v := range s.levels {
		snap.levels[k] = *v
	}
	return snap
}

func (s *Store) restore(snap ledgerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = make(map[pairKey]*entity.StockLevel, len(snap.levels))
	for k, v := range snap.levels {
		level := v
		s.levels[k] = &level
	}
	s.entries = s.entries[:snap.entryCount]
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

func sortedLevels(levels []*entity.StockLevel) {
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].ItemID != levels[j].ItemID {
			return levels[i].ItemID < levels[j].ItemID
		}
		return levels[i].LocationID < levels[j].LocationID
	})
}
