package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// Locker implementa ledger.Locker con un semáforo por clave dentro del proceso.
// Un semáforo vive mientras alguien lo tiene tomado o lo espera.
type Locker struct {
	mu      sync.Mutex
	slots   map[string]*lockSlot
	timeout time.Duration
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocker crea el locker. timeout <= 0 espera hasta que se cancele el contexto.
func NewLocker(timeout time.Duration) *Locker {
	return &Locker{slots: make(map[string]*lockSlot), timeout: timeout}
}

func (l *Locker) ref(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Locker) unref(key string, s *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Acquire toma las claves en el orden recibido. Si alguna no se obtiene a tiempo libera
// las ya tomadas y devuelve domain.ErrConflict.
func (l *Locker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	type held struct {
		key  string
		slot *lockSlot
	}
	taken := make([]held, 0, len(keys))
	release := func() {
		for i := len(taken) - 1; i >= 0; i-- {
			<-taken[i].slot.ch
			l.unref(taken[i].key, taken[i].slot)
		}
	}
	for _, key := range keys {
		s := l.ref(key)
		select {
		case s.ch <- struct{}{}:
			taken = append(taken, held{key: key, slot: s})
		case <-ctx.Done():
			l.unref(key, s)
			release()
			return nil, fmt.Errorf("%w: recurso ocupado (%s)", domain.ErrConflict, key)
		}
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}
