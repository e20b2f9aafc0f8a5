package service

import (
	"context"
	"errors"
	"testing"

	"factvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFavoriteRepository is a mock of the repository.FavoriteRepository interface
type MockFavoriteRepository struct {
	mock.Mock
}

func (m *MockFavoriteRepository) ListActiveFacts(ctx context.Context, userID uint) ([]models.Fact, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Fact), args.Error(1)
}

func (m *MockFavoriteRepository) Exists(ctx context.Context, userID, factID uint) (bool, error) {
	args := m.Called(ctx, userID, factID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	args := m.Called(ctx, favorite)
	return args.Error(0)
}

func (m *MockFavoriteRepository) Delete(ctx context.Context, userID, factID uint) (bool, error) {
	args := m.Called(ctx, userID, factID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFavoriteRepository) CountForUser(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFavoriteRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestFavoriteService_Add(t *testing.T) {
	ctx := context.Background()
	activeFact := &models.Fact{ID: 2, IsActive: true}

	t.Run("success", func(t *testing.T) {
		factRepo := new(MockFactRepository)
		favRepo := new(MockFavoriteRepository)
		factRepo.On("GetByID", mock.Anything, uint(2)).Return(activeFact, nil)
		favRepo.On("Exists", mock.Anything, uint(1), uint(2)).Return(false, nil)
		favRepo.On("Create", mock.Anything, &models.Favorite{UserID: 1, FactID: 2}).Return(nil)

		svc := NewFavoriteService(favRepo, factRepo)
		require.NoError(t, svc.Add(ctx, 1, 2))
		favRepo.AssertExpectations(t)
	})

	t.Run("missing fact", func(t *testing.T) {
		factRepo := new(MockFactRepository)
		favRepo := new(MockFavoriteRepository)
		factRepo.On("GetByID", mock.Anything, uint(2)).Return(nil, nil)

		svc := NewFavoriteService(favRepo, factRepo)
		err := svc.Add(ctx, 1, 2)
		assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
	})

	t.Run("inactive fact", func(t *testing.T) {
		factRepo := new(MockFactRepository)
		favRepo := new(MockFavoriteRepository)
		factRepo.On("GetByID", mock.Anything, uint(2)).Return(&models.Fact{ID: 2, IsActive: false}, nil)

		svc := NewFavoriteService(favRepo, factRepo)
		err := svc.Add(ctx, 1, 2)
		assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
	})

	t.Run("existing pair", func(t *testing.T) {
		factRepo := new(MockFactRepository)
		favRepo := new(MockFavoriteRepository)
		factRepo.On("GetByID", mock.Anything, uint(2)).Return(activeFact, nil)
		favRepo.On("Exists", mock.Anything, uint(1), uint(2)).Return(true, nil)

		svc := NewFavoriteService(favRepo, factRepo)
		err := svc.Add(ctx, 1, 2)
		assert.Equal(t, "CONFLICT", appErrCode(t, err))
		favRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("race lost at the constraint", func(t *testing.T) {
		factRepo := new(MockFactRepository)
		favRepo := new(MockFavoriteRepository)
		factRepo.On("GetByID", mock.Anything, uint(2)).Return(activeFact, nil)
		favRepo.On("Exists", mock.Anything, uint(1), uint(2)).Return(false, nil)
		favRepo.On("Create", mock.Anything, mock.Anything).
			Return(models.NewConflictError("Already in favorites"))

		svc := NewFavoriteService(favRepo, factRepo)
		err := svc.Add(ctx, 1, 2)
		assert.Equal(t, "CONFLICT", appErrCode(t, err))
	})
}

func TestFavoriteService_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		factRepo := new(MockFactRepository)
		favRepo := new(MockFavoriteRepository)
		favRepo.On("Delete", mock.Anything, uint(1), uint(2)).Return(true, nil)

		svc := NewFavoriteService(favRepo, factRepo)
		require.NoError(t, svc.Remove(ctx, 1, 2))
	})

	t.Run("absent pair", func(t *testing.T) {
		factRepo := new(MockFactRepository)
		favRepo := new(MockFavoriteRepository)
		favRepo.On("Delete", mock.Anything, uint(1), uint(2)).Return(false, nil)

		svc := NewFavoriteService(favRepo, factRepo)
		err := svc.Remove(ctx, 1, 2)
		assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
	})
}
