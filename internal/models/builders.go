package models

import (
	"errors"
	"fmt"

	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

// ErrMissingReference is returned when a catalog entry an item points at is unavailable.
var ErrMissingReference = errors.New("referenced catalog entry is missing")

type TableSelection struct {
	Venue          *Venue
	Table          *TableOption
	PromoterID     string
	Date           Date
	GuestCount     int
	Guest          GuestIdentity
	SpecialRequest string
	Bottles        []BottleSelection
}

// NewTableItem prices a table at its total (minimum spend plus surcharge) with the fixed
// deposit available and full payment selected.
func NewTableItem(ids *IDFactory, s TableSelection) (BookableItem, error) {
	if s.Venue == nil || s.Table == nil {
		return BookableItem{}, fmt.Errorf("table item: %w", ErrMissingReference)
	}
	deposit := pricing.Deposit
	item := BookableItem{
		ID:            ids.New(KindTable, s.Venue.ID, string(s.Date), s.Table.ID),
		DisplayName:   s.Venue.Name + " - " + s.Table.Name,
		ImageRef:      s.Venue.ImageRef,
		Quantity:      1,
		FullPrice:     pricing.TableTotal(s.Table.MinSpend),
		DepositPrice:  &deposit,
		PaymentOption: PayFull,
		Details: TableDetails{
			VenueID:        s.Venue.ID,
			TableOptionID:  s.Table.ID,
			PromoterID:     s.PromoterID,
			GuestCount:     s.GuestCount,
			Guest:          s.Guest,
			SpecialRequest: s.SpecialRequest,
			Bottles:        s.Bottles,
		},
	}
	if err := item.schedule(s.Date); err != nil {
		return BookableItem{}, err
	}
	return item, item.Validate()
}

// NewEventItems returns one line item per category with a non-zero count.
func NewEventItems(ids *IDFactory, ev *Event, counts map[TicketCategory]int, guest GuestIdentity) ([]BookableItem, error) {
	if ev == nil {
		return nil, fmt.Errorf("event items: %w", ErrMissingReference)
	}
	var items []BookableItem
	for _, c := range ev.Categories() {
		n := counts[c]
		if n <= 0 {
			continue
		}
		price, _ := ev.PriceFor(c)
		item := BookableItem{
			ID:            ids.New(KindEvent, ev.ID, string(c)),
			DisplayName:   fmt.Sprintf("%s (%s)", ev.Name, c),
			ImageRef:      ev.ImageRef,
			Quantity:      n,
			FullPrice:     price.Mul(n),
			PaymentOption: PayFull,
			Details:       EventDetails{EventID: ev.ID, Category: c, Guest: guest},
		}
		if !ev.Date.IsZero() {
			if err := item.schedule(ev.Date); err != nil {
				return nil, err
			}
		}
		if err := item.Validate(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// NewExperienceItem uses a stable id so booking the same experience again replaces the cart entry.
func NewExperienceItem(ids *IDFactory, exp *Experience, date Date, quantity int, unitPrice pricing.Amount, guest GuestIdentity) (BookableItem, error) {
	if exp == nil {
		return BookableItem{}, fmt.Errorf("experience item: %w", ErrMissingReference)
	}
	item := BookableItem{
		ID:            ids.Stable(KindExperience, exp.ID),
		DisplayName:   exp.Name,
		ImageRef:      exp.ImageRef,
		Quantity:      quantity,
		FullPrice:     unitPrice.Mul(quantity),
		PaymentOption: PayFull,
		Details:       ExperienceDetails{ExperienceID: exp.ID, Guest: guest},
	}
	if !date.IsZero() {
		if err := item.schedule(date); err != nil {
			return BookableItem{}, err
		}
	}
	return item, item.Validate()
}

// NewGuestlistItem mirrors a join request as a zero-price cart entry.
func NewGuestlistItem(req *GuestlistJoinRequest, venue *Venue) (BookableItem, error) {
	if req == nil || venue == nil {
		return BookableItem{}, fmt.Errorf("guestlist item: %w", ErrMissingReference)
	}
	item := BookableItem{
		ID:            string(KindGuestlist) + "-" + req.ID,
		DisplayName:   venue.Name + " Guestlist",
		ImageRef:      venue.ImageRef,
		Quantity:      1,
		PaymentOption: PayFull,
		Details: GuestlistDetails{
			VenueID:    req.VenueID,
			PromoterID: req.PromoterID,
			GuestCount: req.GuestCount(),
			RequestID:  req.ID,
			Status:     req.Status,
		},
	}
	if err := item.schedule(req.Date); err != nil {
		return BookableItem{}, err
	}
	return item, item.Validate()
}

func NewStoreItem(ids *IDFactory, s *StoreItem, quantity int) (BookableItem, error) {
	if s == nil {
		return BookableItem{}, fmt.Errorf("store item: %w", ErrMissingReference)
	}
	item := BookableItem{
		ID:            ids.New(KindStoreItem, s.ID),
		DisplayName:   s.Name,
		ImageRef:      s.ImageRef,
		Quantity:      quantity,
		FullPrice:     s.Price.Mul(quantity),
		PaymentOption: PayFull,
		Details:       StoreItemDetails{StoreItemID: s.ID, TokenPrice: s.TokenPrice * int64(quantity)},
	}
	return item, item.Validate()
}

// NewPlaceholder builds a watchlist entry saved before the booking details are gathered.
func NewPlaceholder(ids *IDFactory, details Details, name, imageRef string, date Date, price pricing.Amount) (BookableItem, error) {
	if details == nil {
		return BookableItem{}, ErrMissingDetails
	}
	item := BookableItem{
		ID:            ids.New(details.Kind(), "placeholder"),
		DisplayName:   name,
		ImageRef:      imageRef,
		Quantity:      1,
		FullPrice:     price,
		PaymentOption: PayFull,
		IsPlaceholder: true,
		Details:       details,
	}
	if !date.IsZero() {
		if err := item.schedule(date); err != nil {
			return BookableItem{}, err
		}
	}
	return item, item.Validate()
}

func (i *BookableItem) schedule(d Date) error {
	t, err := d.Time()
	if err != nil {
		return err
	}
	date := d
	i.ScheduledDate = &date
	i.SortableDate = &t
	return nil
}
