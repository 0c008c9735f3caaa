package service

import (
	"time"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

type BookingConfirmedEvent struct {
	UserID int64                 `json:"user_id"`
	Method models.PaymentMethod  `json:"method"`
	USD    pricing.Amount        `json:"usd"`
	Tokens int64                 `json:"tokens"`
	Items  []models.BookableItem `json:"items"`
	At     time.Time             `json:"at"`
}

type BookingCancelledEvent struct {
	UserID int64               `json:"user_id"`
	Item   models.BookableItem `json:"item"`
	Reason string              `json:"reason,omitempty"`
	At     time.Time           `json:"at"`
}

type GuestlistJoinedEvent struct {
	RequestID  string                 `json:"request_id"`
	UserID     int64                  `json:"user_id"`
	VenueID    string                 `json:"venue_id"`
	PromoterID string                 `json:"promoter_id"`
	Date       models.Date            `json:"date"`
	Guests     int                    `json:"guests"`
	Status     models.GuestlistStatus `json:"status"`
	IsVIP      bool                   `json:"is_vip"`
}
