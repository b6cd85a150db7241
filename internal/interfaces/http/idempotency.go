package http

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
)

// HeaderIdempotencyKey header opcional que hace seguro reintentar un movimiento.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore almacenamiento de respuestas ya emitidas. Get devuelve "" si la clave no existe.
// Lo implementan memory.IdempotencyStore y redis.IdempotencyStore.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key, payload string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, payload string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

const (
	statePending   = "pending"
	stateCompleted = "completed"
)

type idempotencyRecord struct {
	State       string `json:"state"`
	Status      int    `json:"status,omitempty"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency reserva la clave antes de ejecutar el handler y guarda la respuesta al terminar.
// Una repetición con el mismo cuerpo devuelve la respuesta guardada sin volver a aplicar el movimiento;
// con otro cuerpo responde 422. Mientras la primera petición sigue en curso responde 409.
// Las respuestas 5xx y los conflictos transitorios liberan la clave para permitir el reintento.
// Sin header no hace nada.
func Idempotency(store IdempotencyStore, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idemKey := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if store == nil || idemKey == "" || !isMutation(c.Method()) {
			return c.Next()
		}
		if len(idemKey) > 255 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado largo"})
		}

		ctx := c.UserContext()
		requestHash := hashBody(c.Body())
		key := strings.Join([]string{GetUserID(c), c.Method(), c.Path(), idemKey}, "|")

		pending, err := json.Marshal(idempotencyRecord{State: statePending, RequestHash: requestHash})
		if err != nil {
			return writeError(c, err)
		}
		reserved, err := store.SetNX(ctx, key, string(pending), ttl)
		if err != nil {
			return writeError(c, err)
		}
		if !reserved {
			return replay(c, store, key, requestHash)
		}

		if err := c.Next(); err != nil {
			_ = store.Del(ctx, key)
			return err
		}

		status := c.Response().StatusCode()
		retryable, _ := c.Locals(localRetryable).(bool)
		if status >= fiber.StatusInternalServerError || retryable {
			if err := store.Del(ctx, key); err != nil {
				requestLogger(c).Warn().Err(err).Msg("liberar clave de idempotencia")
			}
			return nil
		}
		done, err := json.Marshal(idempotencyRecord{
			State:       stateCompleted,
			Status:      status,
			Body:        base64.StdEncoding.EncodeToString(c.Response().Body()),
			ContentType: string(c.Response().Header.ContentType()),
			RequestHash: requestHash,
		})
		if err == nil {
			err = store.Set(ctx, key, string(done), ttl)
		}
		if err != nil {
			requestLogger(c).Error().Err(err).Msg("guardar respuesta idempotente")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, store IdempotencyStore, key, requestHash string) error {
	stored, err := store.Get(c.UserContext(), key)
	if err != nil {
		return writeError(c, err)
	}
	if stored == "" {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "la petición original sigue en curso, reintente"})
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return writeError(c, err)
	}
	if record.RequestHash != requestHash {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "IDEMPOTENCY_MISMATCH",
			Message: "Idempotency-Key reutilizado con un cuerpo distinto",
		})
	}
	if record.State != stateCompleted {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "la petición original sigue en curso, reintente"})
	}
	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		return writeError(c, err)
	}
	if record.ContentType != "" {
		c.Set(fiber.HeaderContentType, record.ContentType)
	}
	c.Set("Idempotent-Replayed", "true")
	return c.Status(record.Status).Send(body)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func isMutation(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	}
	return false
}
