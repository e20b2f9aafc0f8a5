package repository

import (
	"context"

	"factvault/internal/models"

	"gorm.io/gorm"
)

// FavoriteRepository defines persistence operations for favorites.
type FavoriteRepository interface {
	ListActiveFacts(ctx context.Context, userID uint) ([]models.Fact, error)
	Exists(ctx context.Context, userID, factID uint) (bool, error)
	Create(ctx context.Context, favorite *models.Favorite) error
	Delete(ctx context.Context, userID, factID uint) (bool, error)
	CountForUser(ctx context.Context, userID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository returns a new FavoriteRepository implementation.
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// ListActiveFacts returns the user's favorited facts, oldest favorite first.
// Favorites pointing at a deactivated fact are filtered out.
func (r *favoriteRepository) ListActiveFacts(ctx context.Context, userID uint) ([]models.Fact, error) {
	facts := make([]models.Fact, 0)
	if err := r.db.WithContext(ctx).
		Model(&models.Fact{}).
		Joins("JOIN favorites ON favorites.fact_id = facts.id").
		Where("favorites.user_id = ? AND facts.is_active = ?", userID, true).
		Order("favorites.created_at").
		Find(&facts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return facts, nil
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, factID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND fact_id = ?", userID, factID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Create inserts the pair. The composite unique index is the source of truth:
// a duplicate insert that slipped past the existence pre-check is rejected by
// the constraint and surfaced as a conflict, never as a server error.
func (r *favoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	if err := r.db.WithContext(ctx).Create(favorite).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Already in favorites")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the pair and reports whether a row was actually deleted.
func (r *favoriteRepository) Delete(ctx context.Context, userID, factID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND fact_id = ?", userID, factID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *favoriteRepository) CountForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *favoriteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Favorite{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
