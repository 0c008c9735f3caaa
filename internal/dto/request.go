package dto

import "github.com/themainkeys/wingman.app-sub000/internal/models"

type AddItemRequest struct {
	Kind     models.Kind `json:"kind" validate:"required,oneof=storeItem event experience table"`
	RefID    string      `json:"ref_id" validate:"required"`
	Quantity int         `json:"quantity" validate:"gte=0"`
}

type PaymentOptionRequest struct {
	Option models.PaymentOption `json:"option" validate:"required,oneof=full deposit"`
}

type PaymentMethodRequest struct {
	Method models.PaymentMethod `json:"method" validate:"required,oneof=card tokens"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type GuestRequest struct {
	ForSelf bool   `json:"for_self"`
	Name    string `json:"name" validate:"max=120"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=40"`
}

func (g GuestRequest) ToGuest() models.GuestIdentity {
	if g.ForSelf {
		return models.Self()
	}
	return models.GuestIdentity{Name: g.Name, Email: g.Email, Phone: g.Phone}
}

type StartTableWizardRequest struct {
	VenueID string `json:"venue_id"`
}

type SelectVenueRequest struct {
	VenueID string `json:"venue_id" validate:"required"`
}

// Date and guest counts are checked by the wizard so it can report field errors.
type TableDateRequest struct {
	Date         models.Date `json:"date"`
	MaleGuests   int         `json:"male_guests"`
	FemaleGuests int         `json:"female_guests"`
}

type SelectTableRequest struct {
	TableID string `json:"table_id" validate:"required"`
}

type BottleRequest struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

type ConfirmTableRequest struct {
	PromoterID     string          `json:"promoter_id"`
	Guest          GuestRequest    `json:"guest"`
	SpecialRequest string          `json:"special_request" validate:"max=500"`
	Bottles        []BottleRequest `json:"bottles" validate:"dive"`
}

func (r ConfirmTableRequest) BottleSelections() []models.BottleSelection {
	out := make([]models.BottleSelection, 0, len(r.Bottles))
	for _, b := range r.Bottles {
		out = append(out, models.BottleSelection{Name: b.Name, Quantity: b.Quantity})
	}
	return out
}

type StartExperienceWizardRequest struct {
	ExperienceID string `json:"experience_id" validate:"required"`
}

type ExperienceDetailsRequest struct {
	Date     models.Date `json:"date"`
	Quantity int         `json:"quantity"`
}

type ConfirmGuestRequest struct {
	Guest GuestRequest `json:"guest"`
}

type BuyTicketsRequest struct {
	Counts map[models.TicketCategory]int `json:"counts" validate:"dive,gte=0"`
	Guest  GuestRequest                  `json:"guest"`
}

type JoinGuestlistRequest struct {
	VenueID      string      `json:"venue_id" validate:"required"`
	PromoterID   string      `json:"promoter_id" validate:"required"`
	Date         models.Date `json:"date" validate:"required"`
	MaleGuests   int         `json:"male_guests" validate:"gte=0"`
	FemaleGuests int         `json:"female_guests" validate:"gte=0"`
}

type AttendanceRequest struct {
	Status models.AttendanceStatus `json:"status" validate:"required,oneof=pending show no-show"`
}
