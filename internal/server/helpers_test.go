package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"factvault/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonDecode(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

func TestRespondAppError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"not found", models.NewNotFoundError("Fact not found"), http.StatusNotFound, "Fact not found"},
		{"validation", models.NewValidationError("Missing fact_id"), http.StatusBadRequest, "Missing fact_id"},
		{"conflict maps to 400", models.NewConflictError("Already in favorites"), http.StatusBadRequest, "Already in favorites"},
		{"unauthorized", models.NewUnauthorizedError("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{"anything else is a masked 500", assert.AnError, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/fail", func(c *fiber.Ctx) error {
				return respondAppError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body models.ErrorResponse
			require.NoError(t, jsonDecode(resp, &body))
			assert.Equal(t, tt.expectedBody, body.Error)
		})
	}
}
