package repository

import (
	"context"
	"time"

	"factvault/internal/models"

	"gorm.io/gorm"
)

// UsageRepository defines persistence operations for api usage accounting.
type UsageRepository interface {
	Record(ctx context.Context, usage *models.ApiUsage) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository returns a new UsageRepository implementation.
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// Record appends one usage row. Rows are immutable once written.
func (r *usageRepository) Record(ctx context.Context, usage *models.ApiUsage) error {
	if err := r.db.WithContext(ctx).Create(usage).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *usageRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ApiUsage{}).
		Where("timestamp >= ?", since).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
