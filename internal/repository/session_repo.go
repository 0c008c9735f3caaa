package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

// SessionRepository persists each user's cart, watchlist and booked history as one row.
type SessionRepository interface {
	Load(ctx context.Context, userID int64) (models.CartState, error)
	Save(ctx context.Context, userID int64, state models.CartState) error
	SaveTx(ctx context.Context, tx *gorm.DB, userID int64, state models.CartState) error
	GetDB() *gorm.DB
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetDB() *gorm.DB {
	return r.db
}

// Load returns an empty state for users without a saved session.
func (r *sessionRepository) Load(ctx context.Context, userID int64) (models.CartState, error) {
	var rec models.SessionRecord
	err := r.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CartState{}, nil
	}
	if err != nil {
		return models.CartState{}, err
	}
	return rec.State(), nil
}

func (r *sessionRepository) Save(ctx context.Context, userID int64, state models.CartState) error {
	return r.SaveTx(ctx, r.db, userID, state)
}

func (r *sessionRepository) SaveTx(ctx context.Context, tx *gorm.DB, userID int64, state models.CartState) error {
	rec := models.NewSessionRecord(userID, state)
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cart", "watchlist", "booked", "updated_at"}),
	}).Create(rec).Error
}
