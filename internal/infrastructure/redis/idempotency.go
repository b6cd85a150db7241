package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// kv subconjunto de comandos que usa el almacén de idempotencia.
type kv interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *goredis.BoolCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// IdempotencyStore guarda las respuestas de peticiones con Idempotency-Key.
type IdempotencyStore struct {
	store kv
}

// NewIdempotencyStore construye el almacén sobre un cliente go-redis.
func NewIdempotencyStore(client kv) *IdempotencyStore {
	return &IdempotencyStore{store: client}
}

// Get devuelve "" si la clave no existe.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.store.Get(ctx, buildKey("idempotency", key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return v, err
}

// SetNX guarda solo si la clave no existe.
func (s *IdempotencyStore) SetNX(ctx context.Context, key, payload string, ttl time.Duration) (bool, error) {
	return s.store.SetNX(ctx, buildKey("idempotency", key), payload, ttl).Result()
}

// Set sobrescribe la clave.
func (s *IdempotencyStore) Set(ctx context.Context, key, payload string, ttl time.Duration) error {
	return s.store.Set(ctx, buildKey("idempotency", key), payload, ttl).Err()
}

// Del elimina la clave.
func (s *IdempotencyStore) Del(ctx context.Context, key string) error {
	return s.store.Del(ctx, buildKey("idempotency", key)).Err()
}
