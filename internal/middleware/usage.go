package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"factvault/internal/models"
	"factvault/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// UsageStore persists one accounting row per completed request.
type UsageStore interface {
	Record(ctx context.Context, usage *models.ApiUsage) error
}

// IdentityResolver extracts the caller's user ID without enforcing auth.
// A false second return means the request is anonymous.
type IdentityResolver func(c *fiber.Ctx) (uint, bool)

const recordTimeout = 5 * time.Second

// UsageRecorder wraps every request and writes one ApiUsage row after the
// handler finishes, regardless of its outcome. An unhandled error or panic is
// converted into a generic 500 response here so internals never leak to the
// caller. Persistence failures are logged and swallowed; usage accounting must
// never affect the caller-visible response.
func UsageRecorder(store UsageStore, resolve IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				Logger.ErrorContext(c.UserContext(), "handler panicked",
					slog.String("path", c.Path()),
					slog.Any("panic", r),
				)
				_ = models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(fmt.Errorf("panic: %v", r)))
				err = nil
			}

			record(c, store, resolve, start)
		}()

		err = c.Next()
		if err != nil {
			Logger.ErrorContext(c.UserContext(), "unhandled handler error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			_ = models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
			err = nil
		}
		return err
	}
}

func record(c *fiber.Ctx, store UsageStore, resolve IdentityResolver, start time.Time) {
	usage := &models.ApiUsage{
		Endpoint:       c.Path(),
		Method:         c.Method(),
		IPAddress:      c.IP(),
		ResponseCode:   c.Response().StatusCode(),
		ResponseTimeMs: float64(time.Since(start)) / float64(time.Millisecond),
	}

	// Best-effort identity: anonymous and unresolvable tokens both record a
	// null user id, and resolution problems never abort the request.
	if resolve != nil {
		if userID, ok := resolve(c); ok {
			usage.UserID = &userID
		}
	}

	// Detached from the request context so a client disconnect does not lose the row.
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := store.Record(ctx, usage); err != nil {
		observability.UsageRecordFailures.Inc()
		Logger.WarnContext(c.UserContext(), "failed to record api usage",
			slog.String("endpoint", usage.Endpoint),
			slog.String("method", usage.Method),
			slog.String("error", err.Error()),
		)
	}
}
