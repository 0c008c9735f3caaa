package models

import "time"

type GuestlistStatus string

const (
	GuestlistPending  GuestlistStatus = "pending"
	GuestlistApproved GuestlistStatus = "approved"
)

type AttendanceStatus string

const (
	AttendancePending AttendanceStatus = "pending"
	AttendanceShow    AttendanceStatus = "show"
	AttendanceNoShow  AttendanceStatus = "no-show"
)

func (a AttendanceStatus) Valid() bool {
	switch a {
	case AttendancePending, AttendanceShow, AttendanceNoShow:
		return true
	}
	return false
}

type GuestlistJoinRequest struct {
	ID               string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           int64            `gorm:"index;not null" json:"user_id"`
	VenueID          string           `gorm:"index;not null" json:"venue_id"`
	PromoterID       string           `gorm:"not null" json:"promoter_id"`
	Date             Date             `gorm:"type:varchar(10);not null" json:"date"`
	MaleGuests       int              `json:"male_guests"`
	FemaleGuests     int              `json:"female_guests"`
	Status           GuestlistStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AttendanceStatus AttendanceStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"attendance_status"`
	IsVIP            bool             `json:"is_vip"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (r *GuestlistJoinRequest) GuestCount() int {
	return r.MaleGuests + r.FemaleGuests
}

// GuestlistStats summarizes join requests for a venue.
type GuestlistStats struct {
	VenueID  string `json:"venue_id"`
	Requests int64  `json:"requests"`
	Approved int64  `json:"approved"`
	VIP      int64  `json:"vip"`
	Shows    int64  `json:"shows"`
	NoShows  int64  `json:"no_shows"`
}
