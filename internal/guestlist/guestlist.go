// Package guestlist decides guestlist join requests and builds the venue attendee roster.
package guestlist

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
)

var (
	ErrVenueNotFound     = errors.New("venue not found")
	ErrPromoterNotFound  = errors.New("promoter not found")
	ErrNoGuests          = errors.New("guestlist requires at least one guest")
	ErrPastDate          = errors.New("guestlist date cannot be in the past")
	ErrInvalidAttendance = errors.New("attendance must be pending, show or no-show")
	ErrForbidden         = errors.New("only promoters and admins can mark attendance")
)

type JoinInput struct {
	Date         models.Date
	MaleGuests   int
	FemaleGuests int
}

// Join creates a join request for the user and the zero-price cart entry that mirrors it.
// Privileged users are approved and flagged VIP immediately; the decision is not revisited.
func Join(user identity.User, venue *models.Venue, promoter *models.Promoter, in JoinInput, now time.Time) (*models.GuestlistJoinRequest, models.BookableItem, error) {
	if venue == nil {
		return nil, models.BookableItem{}, ErrVenueNotFound
	}
	if promoter == nil {
		return nil, models.BookableItem{}, ErrPromoterNotFound
	}
	if in.MaleGuests < 0 || in.FemaleGuests < 0 || in.MaleGuests+in.FemaleGuests == 0 {
		return nil, models.BookableItem{}, ErrNoGuests
	}
	past, err := in.Date.Before(now)
	if err != nil {
		return nil, models.BookableItem{}, fmt.Errorf("guestlist date %q: %w", in.Date, err)
	}
	if past {
		return nil, models.BookableItem{}, ErrPastDate
	}

	req := &models.GuestlistJoinRequest{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		VenueID:          venue.ID,
		PromoterID:       promoter.ID,
		Date:             in.Date,
		MaleGuests:       in.MaleGuests,
		FemaleGuests:     in.FemaleGuests,
		Status:           models.GuestlistPending,
		AttendanceStatus: models.AttendancePending,
	}
	if user.Privileged() {
		req.Status = models.GuestlistApproved
		req.IsVIP = true
	}

	item, err := models.NewGuestlistItem(req, venue)
	if err != nil {
		return nil, models.BookableItem{}, err
	}
	return req, item, nil
}

// SetAttendance records whether the guest showed up.
func SetAttendance(actor identity.User, req *models.GuestlistJoinRequest, status models.AttendanceStatus) error {
	if !actor.IsStaff() {
		return ErrForbidden
	}
	if !status.Valid() {
		return ErrInvalidAttendance
	}
	req.AttendanceStatus = status
	return nil
}
