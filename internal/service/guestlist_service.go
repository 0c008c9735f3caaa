package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/themainkeys/wingman.app-sub000/internal/guestlist"
	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/pkg/rabbitmq"
)

type JoinView struct {
	Request *models.GuestlistJoinRequest `json:"request"`
	Session *SessionView                 `json:"session"`
}

type GuestlistService interface {
	Join(ctx context.Context, user *identity.User, venueID, promoterID string, in guestlist.JoinInput) (*JoinView, error)
	Roster(ctx context.Context, user *identity.User, venueID string, date models.Date, page int) (*guestlist.RosterView, error)
	SetAttendance(ctx context.Context, user *identity.User, requestID string, status models.AttendanceStatus) (*models.GuestlistJoinRequest, error)
	Stats(ctx context.Context, user *identity.User, venueID string) (*models.GuestlistStats, error)
}

type guestlistService struct {
	*core
}

func (s *guestlistService) Join(ctx context.Context, user *identity.User, venueID, promoterID string, in guestlist.JoinInput) (*JoinView, error) {
	venue, err := s.Catalog.FindVenue(ctx, venueID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	promoter, err := s.Catalog.FindPromoter(ctx, promoterID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	req, item, err := guestlist.Join(*user, venue, promoter, in, s.Clock())
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.acquire(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.release(sess)

	work := sess.cart.Clone()
	if _, err := work.Add(item); err != nil {
		return nil, err
	}
	err = s.db().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Guestlists.Create(ctx, tx, req); err != nil {
			return fmt.Errorf("create join request: %w", err)
		}
		return s.Sessions.SaveTx(ctx, tx, user.ID, work.State())
	})
	if err != nil {
		s.Log.Error("guestlist join failed", zap.String("request_id", req.ID), zap.Error(err))
		return nil, err
	}
	sess.cart = work
	s.committed(ctx, user.ID)

	rec := s.recorder(ctx, user.ID)
	if req.Status == models.GuestlistApproved {
		rec.toast(ToastSuccess, "You're on the %s guestlist", venue.Name)
	} else {
		rec.toast(ToastSuccess, "Guestlist request sent to %s", promoter.Name)
	}
	sv := s.view(sess.cart, user, rec)

	s.publish(ctx, rabbitmq.KeyGuestlistJoined, GuestlistJoinedEvent{
		RequestID:  req.ID,
		UserID:     user.ID,
		VenueID:    req.VenueID,
		PromoterID: req.PromoterID,
		Date:       req.Date,
		Guests:     req.GuestCount(),
		Status:     req.Status,
		IsVIP:      req.IsVIP,
	})
	return &JoinView{Request: req, Session: sv}, nil
}

func (s *guestlistService) Roster(ctx context.Context, user *identity.User, venueID string, date models.Date, page int) (*guestlist.RosterView, error) {
	if _, err := date.Time(); err != nil {
		return nil, err
	}
	if _, err := s.Catalog.FindVenue(ctx, venueID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, guestlist.ErrVenueNotFound
		}
		return nil, err
	}
	population, err := s.Users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	view := guestlist.BuildRoster(date, venueID, population).View(*user, page)
	return &view, nil
}

func (s *guestlistService) SetAttendance(ctx context.Context, user *identity.User, requestID string, status models.AttendanceStatus) (*models.GuestlistJoinRequest, error) {
	req, err := s.Guestlists.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "guestlist request "+requestID)
	}
	if err := guestlist.SetAttendance(*user, req, status); err != nil {
		return nil, err
	}
	if err := s.Guestlists.UpdateAttendance(ctx, req.ID, req.AttendanceStatus); err != nil {
		return nil, notFound(err, "guestlist request "+requestID)
	}
	s.Log.Info("attendance recorded", zap.String("request_id", req.ID), zap.String("status", string(status)), zap.Int64("by", user.ID))
	return req, nil
}

func (s *guestlistService) Stats(ctx context.Context, user *identity.User, venueID string) (*models.GuestlistStats, error) {
	if !user.IsStaff() {
		return nil, ErrForbidden
	}
	return s.Guestlists.Stats(ctx, venueID)
}
