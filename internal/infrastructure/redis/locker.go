package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// Locker implementa ledger.Locker con bsm/redislock: sirve para varias instancias de la API.
type Locker struct {
	client  *redislock.Client
	ttl     time.Duration
	retries int
	backoff time.Duration
	log     zerolog.Logger
}

// NewLocker construye el locker. ttl limita cuánto vive un lock si el proceso muere.
func NewLocker(client redislock.RedisClient, ttl time.Duration, retries int, backoff time.Duration, log zerolog.Logger) *Locker {
	return &Locker{
		client:  redislock.New(client),
		ttl:     ttl,
		retries: retries,
		backoff: backoff,
		log:     log,
	}
}

// Acquire obtiene las claves en el orden recibido, reintentando con backoff lineal.
// Si una no se obtiene libera las anteriores y devuelve domain.ErrConflict.
func (l *Locker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// Contexto propio: liberar aunque el request ya se haya cancelado.
			relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := held[i].Release(relCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.log.Warn().Err(err).Str("key", held[i].Key()).Msg("no se pudo liberar el lock")
			}
			cancel()
		}
	}
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	}
	for _, key := range keys {
		lock, err := l.client.Obtain(ctx, buildKey(key), l.ttl, opts)
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("%w: recurso ocupado (%s)", domain.ErrConflict, key)
			}
			return nil, fmt.Errorf("obtener lock %s: %w", key, err)
		}
		held = append(held, lock)
	}
	done := false
	return func() {
		if done {
			return
		}
		done = true
		release()
	}, nil
}
