package wizard

import (
	"fmt"

	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

type ExperienceStep string

const (
	StepDetails        ExperienceStep = "details"
	StepGuestIdentity  ExperienceStep = "guest_identity"
	StepExperienceDone ExperienceStep = "done"
)

// ExperienceWizard collects a date and quantity, then the guest identity, for one experience.
// The unit price is resolved once for the viewer when the wizard opens.
type ExperienceWizard struct {
	step       ExperienceStep
	experience *models.Experience
	unitPrice  pricing.Amount

	date     models.Date
	quantity int
	item     *models.BookableItem
	errs     fieldErrors

	ids *models.IDFactory
}

func NewExperienceWizard(ids *models.IDFactory, exp *models.Experience, viewer identity.User) (*ExperienceWizard, error) {
	if exp == nil {
		return nil, fmt.Errorf("experience wizard: %w", models.ErrMissingReference)
	}
	price, err := pricing.ResolveExperiencePrice(exp.Prices, viewer)
	if err != nil {
		return nil, err
	}
	return &ExperienceWizard{
		step:       StepDetails,
		experience: exp,
		unitPrice:  price,
		quantity:   1,
		errs:       fieldErrors{},
		ids:        ids,
	}, nil
}

func (w *ExperienceWizard) Step() ExperienceStep           { return w.step }
func (w *ExperienceWizard) Experience() *models.Experience { return w.experience }
func (w *ExperienceWizard) UnitPrice() pricing.Amount      { return w.unitPrice }
func (w *ExperienceWizard) Date() models.Date              { return w.date }
func (w *ExperienceWizard) Quantity() int                  { return w.quantity }

// Total is the running price shown next to the quantity field.
func (w *ExperienceWizard) Total() pricing.Amount {
	if w.quantity <= 0 {
		return 0
	}
	return w.unitPrice.Mul(w.quantity)
}

func (w *ExperienceWizard) Errors() map[string]string {
	out := make(map[string]string, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

func (w *ExperienceWizard) Item() (models.BookableItem, bool) {
	if w.item == nil {
		return models.BookableItem{}, false
	}
	return w.item.Clone(), true
}

func (w *ExperienceWizard) SubmitDetails(date models.Date, quantity int) error {
	if w.step != StepDetails {
		return ErrInvalidTransition
	}
	w.date, w.quantity = date, quantity

	errs := fieldErrors{}
	if !date.IsZero() {
		if _, err := date.Time(); err != nil {
			errs[FieldDate] = "Enter a valid date (YYYY-MM-DD)"
		} else if past, _ := date.Before(w.ids.Now()); past {
			errs[FieldDate] = "Date cannot be in the past"
		}
	} else {
		errs[FieldDate] = "Select a date"
	}
	switch {
	case quantity <= 0:
		errs[FieldQuantity] = "Quantity must be at least 1"
	case w.experience.CapacityLimited() && quantity > *w.experience.Capacity:
		errs[FieldQuantity] = fmt.Sprintf("Maximum capacity is %d", *w.experience.Capacity)
	}
	w.errs = errs
	if err := errs.err(); err != nil {
		return err
	}
	w.step = StepGuestIdentity
	return nil
}

// Confirm emits the experience item. Its id depends only on the experience, so adding it
// to a cart that already holds the same experience replaces that entry.
func (w *ExperienceWizard) Confirm(guest models.GuestIdentity) (models.BookableItem, error) {
	item, err := w.Build(guest)
	if err != nil {
		return models.BookableItem{}, err
	}
	return w.Finish(item)
}

// Build validates the guest and returns the experience item without leaving the guest step.
func (w *ExperienceWizard) Build(guest models.GuestIdentity) (models.BookableItem, error) {
	if w.step != StepGuestIdentity {
		return models.BookableItem{}, ErrInvalidTransition
	}
	w.errs = guestErrors(guest)
	if err := w.errs.err(); err != nil {
		return models.BookableItem{}, err
	}
	item, err := models.NewExperienceItem(w.ids, w.experience, w.date, w.quantity, w.unitPrice, guest)
	if err != nil {
		return models.BookableItem{}, err
	}
	return item, nil
}

// Finish records the item built by Build and completes the wizard.
func (w *ExperienceWizard) Finish(item models.BookableItem) (models.BookableItem, error) {
	if w.step != StepGuestIdentity {
		return models.BookableItem{}, ErrInvalidTransition
	}
	item = item.Clone()
	w.item = &item
	w.step = StepExperienceDone
	return item.Clone(), nil
}

func (w *ExperienceWizard) Back() error {
	if w.step != StepGuestIdentity {
		return ErrInvalidTransition
	}
	w.step = StepDetails
	w.errs = fieldErrors{}
	return nil
}

type ExperienceSnapshot struct {
	Step         ExperienceStep       `json:"step"`
	ExperienceID string               `json:"experience_id"`
	Name         string               `json:"name"`
	UnitPrice    pricing.Amount       `json:"unit_price"`
	Date         models.Date          `json:"date,omitempty"`
	Quantity     int                  `json:"quantity"`
	Total        pricing.Amount       `json:"total"`
	Errors       map[string]string    `json:"errors,omitempty"`
	Item         *models.BookableItem `json:"item,omitempty"`
}

func (w *ExperienceWizard) Snapshot() ExperienceSnapshot {
	s := ExperienceSnapshot{
		Step:         w.step,
		ExperienceID: w.experience.ID,
		Name:         w.experience.Name,
		UnitPrice:    w.unitPrice,
		Date:         w.date,
		Quantity:     w.quantity,
		Total:        w.Total(),
		Errors:       w.Errors(),
	}
	if item, ok := w.Item(); ok {
		s.Item = &item
	}
	return s
}
