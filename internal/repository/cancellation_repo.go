package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

type CancellationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *models.Cancellation) error
	FindByUser(ctx context.Context, userID int64) ([]models.Cancellation, error)
}

type cancellationRepository struct {
	db *gorm.DB
}

func NewCancellationRepository(db *gorm.DB) CancellationRepository {
	return &cancellationRepository{db: db}
}

func (r *cancellationRepository) Create(ctx context.Context, tx *gorm.DB, c *models.Cancellation) error {
	return tx.WithContext(ctx).Create(c).Error
}

func (r *cancellationRepository) FindByUser(ctx context.Context, userID int64) ([]models.Cancellation, error) {
	var out []models.Cancellation
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
