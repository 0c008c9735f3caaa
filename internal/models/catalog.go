package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

type Venue struct {
	ID            string                      `gorm:"primaryKey" json:"id"`
	Name          string                      `gorm:"not null" json:"name"`
	ImageRef      string                      `json:"image_ref"`
	OperatingDays datatypes.JSONSlice[string] `json:"operating_days"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`

	TableOptions []TableOption `gorm:"foreignKey:VenueID" json:"table_options,omitempty"`
}

// OpenOn reports whether the venue operates on the given weekday. Day names compare
// case-insensitively and may be abbreviated to three letters.
func (v *Venue) OpenOn(day time.Weekday) bool {
	full := strings.ToLower(day.String())
	for _, d := range v.OperatingDays {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == full || (len(d) == 3 && strings.HasPrefix(full, d)) {
			return true
		}
	}
	return false
}

type TableOption struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	VenueID        string         `gorm:"index;not null" json:"venue_id"`
	Name           string         `gorm:"not null" json:"name"`
	Area           string         `json:"area"`
	MinSpend       pricing.Amount `gorm:"not null;default:0" json:"min_spend"`
	CapacityHint   string         `json:"capacity_hint"`
	Description    string         `json:"description"`
	TotalAvailable *int           `json:"total_available,omitempty"`
	Notes          string         `json:"notes,omitempty"`
}

// GeneralInquiryTableID identifies the table synthesized for venues without table options.
const GeneralInquiryTableID = "general-inquiry"

func GeneralInquiryTable(venueID string) TableOption {
	return TableOption{
		ID:          GeneralInquiryTableID,
		VenueID:     venueID,
		Name:        "General Inquiry",
		Area:        "Any",
		Description: "Let the venue suggest a table for your party",
	}
}

type Promoter struct {
	ID     string `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"not null" json:"name"`
	UserID int64  `json:"user_id"`
}

type TicketCategory string

const (
	CategoryFemale  TicketCategory = "female"
	CategoryMale    TicketCategory = "male"
	CategoryGeneral TicketCategory = "general"
)

type Event struct {
	ID           string          `gorm:"primaryKey" json:"id"`
	VenueID      string          `gorm:"index" json:"venue_id"`
	Name         string          `gorm:"not null" json:"name"`
	ImageRef     string          `json:"image_ref"`
	Date         Date            `gorm:"type:varchar(10)" json:"date"`
	FemalePrice  *pricing.Amount `json:"female_price,omitempty"`
	MalePrice    *pricing.Amount `json:"male_price,omitempty"`
	GeneralPrice *pricing.Amount `json:"general_price,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Categories lists the ticket categories the event defines, in display order.
func (e *Event) Categories() []TicketCategory {
	var out []TicketCategory
	for _, c := range []TicketCategory{CategoryFemale, CategoryMale, CategoryGeneral} {
		if _, ok := e.PriceFor(c); ok {
			out = append(out, c)
		}
	}
	return out
}

func (e *Event) PriceFor(c TicketCategory) (pricing.Amount, bool) {
	var p *pricing.Amount
	switch c {
	case CategoryFemale:
		p = e.FemalePrice
	case CategoryMale:
		p = e.MalePrice
	case CategoryGeneral:
		p = e.GeneralPrice
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

const (
	UnitPerPerson = "per-person"
	UnitPerGroup  = "per-group"
	UnitPerNight  = "per-night"
	UnitPerWeek   = "per-week"
)

type Experience struct {
	ID        string                   `gorm:"primaryKey" json:"id"`
	Name      string                   `gorm:"not null" json:"name"`
	ImageRef  string                   `json:"image_ref"`
	UnitType  string                   `gorm:"type:varchar(20);default:'per-person'" json:"unit_type"`
	Capacity  *int                     `json:"capacity,omitempty"`
	Prices    pricing.ExperiencePrices `gorm:"embedded;embeddedPrefix:price_" json:"prices"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// CapacityLimited reports whether quantity is bounded by Capacity for this unit type.
func (e *Experience) CapacityLimited() bool {
	if e.Capacity == nil {
		return false
	}
	return e.UnitType != UnitPerNight && e.UnitType != UnitPerWeek
}

type StoreItem struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	ImageRef   string         `json:"image_ref"`
	Price      pricing.Amount `gorm:"not null" json:"price"`
	TokenPrice int64          `gorm:"not null" json:"token_price"`
}
