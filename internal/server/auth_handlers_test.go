package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"factvault/internal/config"
	"factvault/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret-key-12345678901234567890",
		JWTExpiryHours: 1,
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(repo *MockUserRepository)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "success",
			body: map[string]string{
				"username": "alice",
				"email":    "alice@example.com",
				"password": "pw123456",
			},
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "alice").Return(nil, nil)
				repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, nil)
				repo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing fields",
			body:           map[string]string{"username": "alice"},
			mockSetup:      func(repo *MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing required fields",
		},
		{
			name: "duplicate username",
			body: map[string]string{
				"username": "alice",
				"email":    "new@example.com",
				"password": "pw123456",
			},
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "alice").Return(&models.User{ID: 1}, nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Username already exists",
		},
		{
			name: "duplicate email",
			body: map[string]string{
				"username": "newuser",
				"email":    "alice@example.com",
				"password": "pw123456",
			},
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "newuser").Return(nil, nil)
				repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(&models.User{ID: 1}, nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Email already exists",
		},
		{
			name: "race lost at the unique column",
			body: map[string]string{
				"username": "alice",
				"email":    "alice@example.com",
				"password": "pw123456",
			},
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "alice").Return(nil, nil)
				repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, nil)
				repo.On("Create", mock.Anything, mock.Anything).
					Return(models.NewConflictError("Username already exists"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Username already exists",
		},
		{
			name: "invalid email",
			body: map[string]string{
				"username": "alice",
				"email":    "not-an-email",
				"password": "pw123456",
			},
			mockSetup:      func(repo *MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "short password",
			body: map[string]string{
				"username": "alice",
				"email":    "alice@example.com",
				"password": "pw",
			},
			mockSetup:      func(repo *MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)

			s := &Server{config: testConfig(), userRepo: repo}
			app := fiber.New()
			app.Post("/register", s.Register)

			resp := postJSON(t, app, "/register", tt.body)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedError != "" {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedError, body.Error)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestRegister_ResponseShape(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, nil)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 7
	}).Return(nil)

	s := &Server{config: testConfig(), userRepo: repo}
	app := fiber.New()
	app.Post("/register", s.Register)

	resp := postJSON(t, app, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw123456",
	})
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Message string          `json:"message"`
		User    json.RawMessage `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "User created successfully", body.Message)

	// The password hash must never serialize.
	assert.NotContains(t, string(body.User), "password")
	assert.Contains(t, string(body.User), `"username":"alice"`)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.MinCost)
	require.NoError(t, err)

	alice := &models.User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(repo *MockUserRepository)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "success",
			body: map[string]string{"username": "alice", "password": "pw123456"},
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing password",
			body:           map[string]string{"username": "alice"},
			mockSetup:      func(repo *MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing username or password",
		},
		{
			name: "unknown user",
			body: map[string]string{"username": "mallory", "password": "pw123456"},
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "mallory").Return(nil, nil)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid credentials",
		},
		{
			name: "wrong password",
			body: map[string]string{"username": "alice", "password": "wrong-password"},
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid credentials",
		},
		{
			name: "deactivated account",
			body: map[string]string{"username": "bob", "password": "pw123456"},
			mockSetup: func(repo *MockUserRepository) {
				inactive := *alice
				inactive.Username = "bob"
				inactive.IsActive = false
				repo.On("GetByUsername", mock.Anything, "bob").Return(&inactive, nil)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid credentials",
		},
		{
			name: "injection strings are plain data",
			body: map[string]string{"username": "' OR '1'='1", "password": "' OR '1'='1"},
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetByUsername", mock.Anything, "' OR '1'='1").Return(nil, nil)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)

			s := &Server{config: testConfig(), userRepo: repo}
			app := fiber.New()
			app.Post("/login", s.Login)

			resp := postJSON(t, app, "/login", tt.body)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body struct {
					AccessToken string      `json:"access_token"`
					User        models.User `json:"user"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.NotEmpty(t, body.AccessToken)
				assert.Equal(t, "alice", body.User.Username)
			} else if tt.expectedError != "" {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedError, body.Error)
			}
			repo.AssertExpectations(t)
		})
	}
}

// A token minted by Login must pass AuthRequired and carry the right identity.
func TestLoginTokenRoundTrip(t *testing.T) {
	s := &Server{config: testConfig()}

	token, err := s.generateToken(42, "alice")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID uint `json:"user_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint(42), body.UserID)
}
