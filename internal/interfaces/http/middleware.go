package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// requestObserver lo implementa metrics.HTTPMetrics.
type requestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestLogger deja un logger con el request id en c.Locals y registra cada petición al terminar.
// Debe montarse después de requestid.New().
func RequestLogger(base zerolog.Logger, observer requestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID, _ := c.Locals("requestid").(string)
		l := base.With().Str("request_id", reqID).Logger()
		c.Locals(localLogger, &l)

		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		route := c.Route().Path
		if observer != nil {
			observer.ObserveRequest(c.Method(), route, status, elapsed)
		}

		evt := l.Info()
		if status >= fiber.StatusInternalServerError {
			evt = l.Error()
		} else if status >= fiber.StatusBadRequest {
			evt = l.Warn()
		}
		evt.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("user_id", GetUserID(c)).
			Msg("request")
		return nil
	}
}
