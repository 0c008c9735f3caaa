// Package identity holds the caller classification supplied by the identity provider.
package identity

import (
	"context"
	"errors"
)

type Role string

const (
	RoleUser     Role = "user"
	RolePromoter Role = "promoter"
	RoleAdmin    Role = "admin"
)

// AccessTier is the venue-facing classification of a user.
type AccessTier string

const (
	TierStandard     AccessTier = "standard"
	TierMaleAccess   AccessTier = "male_access"
	TierFemaleAccess AccessTier = "female_access"
)

var ErrNoIdentity = errors.New("no user in context")

type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Tier         AccessTier `gorm:"type:varchar(20);not null;default:'standard'" json:"access_tier"`
	TokenBalance int64      `json:"token_balance"`
}

// Privileged reports whether the user bypasses standard guestlist approval.
func (u User) Privileged() bool {
	return u.Tier == TierFemaleAccess || u.Role == RoleAdmin
}

func (u User) IsStaff() bool {
	return u.Role == RolePromoter || u.Role == RoleAdmin
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) (*User, error) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	if !ok || u == nil {
		return nil, ErrNoIdentity
	}
	return u, nil
}
