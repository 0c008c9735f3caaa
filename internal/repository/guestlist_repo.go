package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

type GuestlistRepository interface {
	Create(ctx context.Context, tx *gorm.DB, req *models.GuestlistJoinRequest) error
	FindByID(ctx context.Context, id string) (*models.GuestlistJoinRequest, error)
	UpdateAttendance(ctx context.Context, id string, status models.AttendanceStatus) error
	Stats(ctx context.Context, venueID string) (*models.GuestlistStats, error)
}

type guestlistRepository struct {
	db *gorm.DB
}

func NewGuestlistRepository(db *gorm.DB) GuestlistRepository {
	return &guestlistRepository{db: db}
}

func (r *guestlistRepository) Create(ctx context.Context, tx *gorm.DB, req *models.GuestlistJoinRequest) error {
	return tx.WithContext(ctx).Create(req).Error
}

func (r *guestlistRepository) FindByID(ctx context.Context, id string) (*models.GuestlistJoinRequest, error) {
	var req models.GuestlistJoinRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *guestlistRepository) UpdateAttendance(ctx context.Context, id string, status models.AttendanceStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.GuestlistJoinRequest{}).
		Where("id = ?", id).
		Update("attendance_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *guestlistRepository) Stats(ctx context.Context, venueID string) (*models.GuestlistStats, error) {
	stats := &models.GuestlistStats{VenueID: venueID}
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.GuestlistJoinRequest{}).Where("venue_id = ?", venueID)
	}
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.Requests, base()},
		{&stats.Approved, base().Where("status = ?", models.GuestlistApproved)},
		{&stats.VIP, base().Where("is_vip = ?", true)},
		{&stats.Shows, base().Where("attendance_status = ?", models.AttendanceShow)},
		{&stats.NoShows, base().Where("attendance_status = ?", models.AttendanceNoShow)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}
