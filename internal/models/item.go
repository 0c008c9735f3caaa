package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

type Kind string

const (
	KindTable      Kind = "table"
	KindEvent      Kind = "event"
	KindExperience Kind = "experience"
	KindGuestlist  Kind = "guestlist"
	KindStoreItem  Kind = "storeItem"
)

type PaymentOption string

const (
	PayFull    PaymentOption = "full"
	PayDeposit PaymentOption = "deposit"
)

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "card"
	MethodTokens PaymentMethod = "tokens"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodTokens
}

var (
	ErrMissingDetails       = errors.New("item has no details")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrNegativePrice        = errors.New("price must not be negative")
	ErrDepositNotAllowed    = errors.New("deposit payment is only available for tables with a deposit price")
	ErrPlaceholderBooked    = errors.New("placeholder items cannot be booked")
	ErrThirdPartyIncomplete = errors.New("guest name and email are required")
)

// GuestIdentity names who the booking is for.
type GuestIdentity struct {
	ForSelf bool   `json:"for_self"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

func Self() GuestIdentity {
	return GuestIdentity{ForSelf: true}
}

type BottleSelection struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Details is the kind-specific payload of a BookableItem. The set of implementations is closed.
type Details interface {
	Kind() Kind
	isDetails()
}

type TableDetails struct {
	VenueID        string            `json:"venue_id"`
	TableOptionID  string            `json:"table_option_id"`
	PromoterID     string            `json:"promoter_id,omitempty"`
	GuestCount     int               `json:"guest_count"`
	Guest          GuestIdentity     `json:"guest"`
	SpecialRequest string            `json:"special_request,omitempty"`
	Bottles        []BottleSelection `json:"bottles,omitempty"`
}

type EventDetails struct {
	EventID  string         `json:"event_id"`
	Category TicketCategory `json:"category"`
	Guest    GuestIdentity  `json:"guest"`
}

type ExperienceDetails struct {
	ExperienceID string        `json:"experience_id"`
	Guest        GuestIdentity `json:"guest"`
}

type GuestlistDetails struct {
	VenueID    string          `json:"venue_id"`
	PromoterID string          `json:"promoter_id"`
	GuestCount int             `json:"guest_count"`
	RequestID  string          `json:"request_id"`
	Status     GuestlistStatus `json:"status"`
}

type StoreItemDetails struct {
	StoreItemID string `json:"store_item_id"`
	TokenPrice  int64  `json:"token_price"`
}

func (TableDetails) Kind() Kind      { return KindTable }
func (EventDetails) Kind() Kind      { return KindEvent }
func (ExperienceDetails) Kind() Kind { return KindExperience }
func (GuestlistDetails) Kind() Kind  { return KindGuestlist }
func (StoreItemDetails) Kind() Kind  { return KindStoreItem }

func (TableDetails) isDetails()      {}
func (EventDetails) isDetails()      {}
func (ExperienceDetails) isDetails() {}
func (GuestlistDetails) isDetails()  {}
func (StoreItemDetails) isDetails()  {}

// BookableItem is a unit that can sit in the cart, the watchlist or the booked history.
type BookableItem struct {
	ID                string          `json:"id"`
	DisplayName       string          `json:"display_name"`
	ImageRef          string          `json:"image_ref,omitempty"`
	ScheduledDate     *Date           `json:"scheduled_date,omitempty"`
	SortableDate      *time.Time      `json:"sortable_date,omitempty"`
	Quantity          int             `json:"quantity"`
	FullPrice         pricing.Amount  `json:"full_price"`
	DepositPrice      *pricing.Amount `json:"deposit_price,omitempty"`
	PaymentOption     PaymentOption   `json:"payment_option"`
	IsPlaceholder     bool            `json:"is_placeholder"`
	BookedAt          *time.Time      `json:"booked_at,omitempty"`
	PaymentMethodUsed *PaymentMethod  `json:"payment_method_used,omitempty"`
	Details           Details         `json:"-"`
}

func (i *BookableItem) Kind() Kind {
	if i.Details == nil {
		return ""
	}
	return i.Details.Kind()
}

// ChargedPrice is the USD amount due for the item under its payment option.
func (i *BookableItem) ChargedPrice() pricing.Amount {
	if i.PaymentOption == PayDeposit && i.DepositPrice != nil {
		return *i.DepositPrice
	}
	return i.FullPrice
}

// TokenPrice is the token amount due for the item. Store items carry their own token price.
func (i *BookableItem) TokenPrice() int64 {
	switch d := i.Details.(type) {
	case StoreItemDetails:
		return d.TokenPrice
	case TableDetails, EventDetails, ExperienceDetails, GuestlistDetails:
		return pricing.Tokens(i.ChargedPrice())
	default:
		return 0
	}
}

func (i *BookableItem) Validate() error {
	if i.Details == nil {
		return ErrMissingDetails
	}
	if i.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if i.FullPrice < 0 || (i.DepositPrice != nil && *i.DepositPrice < 0) {
		return ErrNegativePrice
	}
	if i.PaymentOption == PayDeposit && (i.Kind() != KindTable || i.DepositPrice == nil) {
		return ErrDepositNotAllowed
	}
	if i.IsPlaceholder && i.BookedAt != nil {
		return ErrPlaceholderBooked
	}
	switch d := i.Details.(type) {
	case TableDetails:
		return d.Guest.Validate()
	case EventDetails:
		return d.Guest.Validate()
	case ExperienceDetails:
		return d.Guest.Validate()
	case GuestlistDetails, StoreItemDetails:
		return nil
	default:
		return fmt.Errorf("unknown details type %T", d)
	}
}

// Validate enforces the third-party contact rule: name and email are required, phone is optional.
func (g GuestIdentity) Validate() error {
	if g.ForSelf {
		return nil
	}
	if g.Name == "" || g.Email == "" {
		return ErrThirdPartyIncomplete
	}
	return nil
}

// Clone returns a copy that shares no pointers with i.
func (i BookableItem) Clone() BookableItem {
	out := i
	if i.ScheduledDate != nil {
		d := *i.ScheduledDate
		out.ScheduledDate = &d
	}
	if i.SortableDate != nil {
		t := *i.SortableDate
		out.SortableDate = &t
	}
	if i.DepositPrice != nil {
		p := *i.DepositPrice
		out.DepositPrice = &p
	}
	if i.BookedAt != nil {
		t := *i.BookedAt
		out.BookedAt = &t
	}
	if i.PaymentMethodUsed != nil {
		m := *i.PaymentMethodUsed
		out.PaymentMethodUsed = &m
	}
	if td, ok := i.Details.(TableDetails); ok && td.Bottles != nil {
		td.Bottles = append([]BottleSelection(nil), td.Bottles...)
		out.Details = td
	}
	return out
}
