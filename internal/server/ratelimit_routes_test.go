package server

import (
	"net/http"
	"testing"
	"time"

	"factvault/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The register route carries a tight per-minute window on top of the defaults;
// a burst past the threshold from one address must see 429s.
func TestRegisterRateLimit(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := new(MockUserRepository)
	s := &Server{config: testConfig(), userRepo: repo}

	app := fiber.New()
	app.Post("/register", middleware.RateLimit(rdb,
		middleware.Limit{Resource: "register", Max: 5, Window: time.Minute},
	), s.Register)

	statuses := make(map[int]int)
	for i := 0; i < 8; i++ {
		// Invalid payloads on purpose; rejected requests still consume quota.
		resp := postJSON(t, app, "/register", map[string]string{})
		statuses[resp.StatusCode]++
		_ = resp.Body.Close()
	}

	assert.Equal(t, 5, statuses[http.StatusBadRequest])
	assert.Equal(t, 3, statuses[http.StatusTooManyRequests])
}
