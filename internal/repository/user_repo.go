package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/themainkeys/wingman.app-sub000/internal/identity"
)

var ErrInsufficientBalance = errors.New("token balance too low")

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*identity.User, error)
	FindAll(ctx context.Context) ([]identity.User, error)
	// DebitTokens lowers the balance only if it covers the amount.
	DebitTokens(ctx context.Context, tx *gorm.DB, id int64, tokens int64) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	var u identity.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]identity.User, error) {
	var users []identity.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) DebitTokens(ctx context.Context, tx *gorm.DB, id int64, tokens int64) error {
	if tokens == 0 {
		return nil
	}
	res := tx.WithContext(ctx).
		Model(&identity.User{}).
		Where("id = ? AND token_balance >= ?", id, tokens).
		Update("token_balance", gorm.Expr("token_balance - ?", tokens))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}
