package memory

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore almacén clave/valor con TTL para el middleware de Idempotency-Key.
type IdempotencyStore struct {
	mu   sync.Mutex
	data map[string]idempotencyValue
	now  func() time.Time
}

type idempotencyValue struct {
	payload   string
	expiresAt time.Time
}

// NewIdempotencyStore crea el almacén.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{data: make(map[string]idempotencyValue), now: time.Now}
}

// Get devuelve "" si la clave no existe o expiró.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", nil
	}
	if s.now().After(v.expiresAt) {
		delete(s.data, key)
		return "", nil
	}
	return v.payload, nil
}

// SetNX guarda solo si la clave no existe (o expiró).
func (s *IdempotencyStore) SetNX(ctx context.Context, key, payload string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok && !s.now().After(v.expiresAt) {
		return false, nil
	}
	s.data[key] = idempotencyValue{payload: payload, expiresAt: s.now().Add(ttl)}
	return true, nil
}

// Set sobrescribe la clave.
func (s *IdempotencyStore) Set(ctx context.Context, key, payload string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = idempotencyValue{payload: payload, expiresAt: s.now().Add(ttl)}
	return nil
}

// Del elimina la clave.
func (s *IdempotencyStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
