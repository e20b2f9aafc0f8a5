package repository

import (
	"context"
	"errors"

	"factvault/internal/cache"
	"factvault/internal/models"

	"gorm.io/gorm"
)

// FactRepository defines persistence operations for facts.
type FactRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Fact, error)
	ListActive(ctx context.Context, category string, limit, offset int) ([]models.Fact, int64, error)
	Categories(ctx context.Context) ([]string, error)
	PickRandom(ctx context.Context, category string) (*models.Fact, error)
	IncrementViewCount(ctx context.Context, id uint) error
	Create(ctx context.Context, fact *models.Fact) error
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type factRepository struct {
	db *gorm.DB
}

// NewFactRepository returns a new FactRepository implementation.
func NewFactRepository(db *gorm.DB) FactRepository {
	return &factRepository{db: db}
}

func (r *factRepository) GetByID(ctx context.Context, id uint) (*models.Fact, error) {
	var fact models.Fact
	if err := r.db.WithContext(ctx).First(&fact, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &fact, nil
}

func (r *factRepository) activeScope(ctx context.Context, category string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Fact{}).Where("is_active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	return q
}

// ListActive returns one page of active facts plus the total count of the
// filtered set. Pages beyond the end come back as an empty slice, not an error.
func (r *factRepository) ListActive(ctx context.Context, category string, limit, offset int) ([]models.Fact, int64, error) {
	var total int64
	if err := r.activeScope(ctx, category).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	facts := make([]models.Fact, 0, limit)
	if err := r.activeScope(ctx, category).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&facts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return facts, total, nil
}

func (r *factRepository) Categories(ctx context.Context) ([]string, error) {
	categories := make([]string, 0)
	err := cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		if err := r.db.WithContext(ctx).
			Model(&models.Fact{}).
			Where("is_active = ?", true).
			Distinct("category").
			Order("category").
			Pluck("category", &categories).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// PickRandom samples uniformly from the active (optionally filtered) set.
// Returns (nil, nil) when no fact matches.
func (r *factRepository) PickRandom(ctx context.Context, category string) (*models.Fact, error) {
	var fact models.Fact
	err := r.activeScope(ctx, category).
		Order("RANDOM()").
		First(&fact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &fact, nil
}

// IncrementViewCount applies the counter bump as a single SQL update so
// concurrent picks of the same fact cannot lose updates.
func (r *factRepository) IncrementViewCount(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Fact{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *factRepository) Create(ctx context.Context, fact *models.Fact) error {
	if err := r.db.WithContext(ctx).Create(fact).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCategories(ctx)
	return nil
}

func (r *factRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Fact{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *factRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Fact{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
