package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/themainkeys/wingman.app-sub000/internal/cart"
	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
	"github.com/themainkeys/wingman.app-sub000/internal/wizard"
)

type Quote struct {
	MinSpend  pricing.Amount `json:"min_spend"`
	Surcharge pricing.Amount `json:"surcharge"`
	Total     pricing.Amount `json:"total"`
	Deposit   pricing.Amount `json:"deposit"`
}

type TableWizardView struct {
	ID string `json:"id"`
	wizard.TableSnapshot
	Choices []wizard.TableChoice `json:"choices,omitempty"`
	Quote   *Quote               `json:"quote,omitempty"`
	Feedback
}

type ExperienceWizardView struct {
	ID string `json:"id"`
	wizard.ExperienceSnapshot
	Feedback
}

// WizardService drives the booking wizards. Wizards live in memory until they are confirmed,
// discarded or left idle past the TTL. Methods that fail validation return the view together
// with a *wizard.ValidationError.
type WizardService interface {
	StartTable(ctx context.Context, user *identity.User, venueID string) (*TableWizardView, error)
	SelectVenue(ctx context.Context, user *identity.User, id, venueID string) (*TableWizardView, error)
	SubmitTableDate(ctx context.Context, user *identity.User, id string, date models.Date, male, female int) (*TableWizardView, error)
	TableChoices(ctx context.Context, user *identity.User, id string) (*TableWizardView, error)
	SelectTable(ctx context.Context, user *identity.User, id, tableID string) (*TableWizardView, error)
	ConfirmTable(ctx context.Context, user *identity.User, id string, in wizard.TableConfirmation) (*TableWizardView, error)
	BackTable(ctx context.Context, user *identity.User, id string) (*TableWizardView, error)

	StartExperience(ctx context.Context, user *identity.User, experienceID string) (*ExperienceWizardView, error)
	SubmitExperienceDetails(ctx context.Context, user *identity.User, id string, date models.Date, quantity int) (*ExperienceWizardView, error)
	ConfirmExperience(ctx context.Context, user *identity.User, id string, guest models.GuestIdentity) (*ExperienceWizardView, error)
	BackExperience(ctx context.Context, user *identity.User, id string) (*ExperienceWizardView, error)

	Discard(ctx context.Context, user *identity.User, id string) error
	BuyTickets(ctx context.Context, user *identity.User, eventID string, counts map[models.TicketCategory]int, guest models.GuestIdentity) (*SessionView, error)
}

type wizardService struct {
	*core
}

func (s *wizardService) StartTable(ctx context.Context, user *identity.User, venueID string) (*TableWizardView, error) {
	var venue *models.Venue
	if venueID != "" {
		v, err := s.Catalog.FindVenue(ctx, venueID)
		if err != nil {
			return nil, venueErr(err)
		}
		venue = v
	}
	e := &wizardEntry{userID: user.ID, table: wizard.NewTableWizard(s.ids, venue)}
	id := s.wizards.put(e)
	return s.tableView(id, e.table, false), nil
}

func (s *wizardService) SelectVenue(ctx context.Context, user *identity.User, id, venueID string) (*TableWizardView, error) {
	return s.withTable(user, id, func(w *wizard.TableWizard) (bool, error) {
		v, err := s.Catalog.FindVenue(ctx, venueID)
		if err != nil {
			return false, venueErr(err)
		}
		return false, w.SelectVenue(v)
	})
}

func (s *wizardService) SubmitTableDate(ctx context.Context, user *identity.User, id string, date models.Date, male, female int) (*TableWizardView, error) {
	return s.withTable(user, id, func(w *wizard.TableWizard) (bool, error) {
		if err := w.SubmitDateAndGuests(date, male, female); err != nil {
			return false, err
		}
		return true, s.loadOccupancy(ctx, w)
	})
}

func (s *wizardService) TableChoices(ctx context.Context, user *identity.User, id string) (*TableWizardView, error) {
	return s.withTable(user, id, func(w *wizard.TableWizard) (bool, error) {
		if w.Step() != wizard.StepSelectTable {
			return false, wizard.ErrInvalidTransition
		}
		return true, s.loadOccupancy(ctx, w)
	})
}

func (s *wizardService) SelectTable(ctx context.Context, user *identity.User, id, tableID string) (*TableWizardView, error) {
	return s.withTable(user, id, func(w *wizard.TableWizard) (bool, error) {
		if w.Step() == wizard.StepSelectTable {
			if err := s.loadOccupancy(ctx, w); err != nil {
				return false, err
			}
		}
		return false, w.SelectTable(tableID)
	})
}

// ConfirmTable adds the priced table to the cart and retires the wizard. The wizard stays on
// the confirm step when the cart cannot be saved.
func (s *wizardService) ConfirmTable(ctx context.Context, user *identity.User, id string, in wizard.TableConfirmation) (*TableWizardView, error) {
	e, err := s.wizards.acquire(user.ID, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if e.table == nil {
		return nil, ErrWizardNotFound
	}
	w := e.table

	item, err := w.Build(in)
	if err != nil {
		return s.tableView(id, w, false), err
	}
	sv, err := s.addToCart(ctx, user, item)
	if err != nil {
		return nil, err
	}
	if _, err := w.Finish(item); err != nil {
		return nil, err
	}
	_ = s.wizards.remove(user.ID, id)

	v := s.tableView(id, w, false)
	v.Feedback = sv.Feedback
	return v, nil
}

func (s *wizardService) BackTable(ctx context.Context, user *identity.User, id string) (*TableWizardView, error) {
	return s.withTable(user, id, func(w *wizard.TableWizard) (bool, error) {
		return false, w.Back()
	})
}

func (s *wizardService) StartExperience(ctx context.Context, user *identity.User, experienceID string) (*ExperienceWizardView, error) {
	exp, err := s.Catalog.FindExperience(ctx, experienceID)
	if err != nil {
		return nil, notFound(err, "experience "+experienceID)
	}
	w, err := wizard.NewExperienceWizard(s.ids, exp, *user)
	if err != nil {
		return nil, err
	}
	e := &wizardEntry{userID: user.ID, experience: w}
	id := s.wizards.put(e)
	return &ExperienceWizardView{ID: id, ExperienceSnapshot: w.Snapshot()}, nil
}

func (s *wizardService) SubmitExperienceDetails(ctx context.Context, user *identity.User, id string, date models.Date, quantity int) (*ExperienceWizardView, error) {
	return s.withExperience(user, id, func(w *wizard.ExperienceWizard) error {
		return w.SubmitDetails(date, quantity)
	})
}

func (s *wizardService) ConfirmExperience(ctx context.Context, user *identity.User, id string, guest models.GuestIdentity) (*ExperienceWizardView, error) {
	e, err := s.wizards.acquire(user.ID, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if e.experience == nil {
		return nil, ErrWizardNotFound
	}
	w := e.experience

	item, err := w.Build(guest)
	if err != nil {
		return &ExperienceWizardView{ID: id, ExperienceSnapshot: w.Snapshot()}, err
	}
	sv, err := s.addToCart(ctx, user, item)
	if err != nil {
		return nil, err
	}
	if _, err := w.Finish(item); err != nil {
		return nil, err
	}
	_ = s.wizards.remove(user.ID, id)
	return &ExperienceWizardView{ID: id, ExperienceSnapshot: w.Snapshot(), Feedback: sv.Feedback}, nil
}

func (s *wizardService) BackExperience(ctx context.Context, user *identity.User, id string) (*ExperienceWizardView, error) {
	return s.withExperience(user, id, func(w *wizard.ExperienceWizard) error {
		return w.Back()
	})
}

// Discard drops a wizard of either kind. Nothing was written, so there is nothing to undo.
func (s *wizardService) Discard(ctx context.Context, user *identity.User, id string) error {
	return s.wizards.remove(user.ID, id)
}

// BuyTickets adds one cart line per ticket category with a non-zero count.
func (s *wizardService) BuyTickets(ctx context.Context, user *identity.User, eventID string, counts map[models.TicketCategory]int, guest models.GuestIdentity) (*SessionView, error) {
	ev, err := s.Catalog.FindEvent(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event "+eventID)
	}
	counter, err := wizard.NewTicketCounter(s.ids, ev)
	if err != nil {
		return nil, err
	}
	for c, n := range counts {
		if err := counter.Set(c, n); err != nil {
			return nil, err
		}
	}
	items, err := counter.Confirm(guest)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, user, func(crt *cart.Cart, rec *recorder) error {
		for _, item := range items {
			if _, err := crt.Add(item); err != nil {
				return err
			}
		}
		rec.toast(ToastSuccess, "%d ticket(s) for %s added to cart", counter.TotalTickets(), ev.Name)
		rec.navigate(DestContinue, bookedIDs(items)...)
		return nil
	})
}

func (c *core) addToCart(ctx context.Context, user *identity.User, item models.BookableItem) (*SessionView, error) {
	return c.mutate(ctx, user, func(crt *cart.Cart, rec *recorder) error {
		if _, err := crt.Add(item); err != nil {
			return err
		}
		rec.toast(ToastSuccess, "%s added to cart", item.DisplayName)
		rec.navigate(DestContinue, item.ID)
		return nil
	})
}

// withTable runs fn on the user's table wizard. A validation error still returns the view.
func (s *wizardService) withTable(user *identity.User, id string, fn func(*wizard.TableWizard) (bool, error)) (*TableWizardView, error) {
	e, err := s.wizards.acquire(user.ID, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if e.table == nil {
		return nil, ErrWizardNotFound
	}

	choices, err := fn(e.table)
	var ve *wizard.ValidationError
	if err != nil && !errors.As(err, &ve) {
		return nil, err
	}
	return s.tableView(id, e.table, choices), err
}

func (s *wizardService) withExperience(user *identity.User, id string, fn func(*wizard.ExperienceWizard) error) (*ExperienceWizardView, error) {
	e, err := s.wizards.acquire(user.ID, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if e.experience == nil {
		return nil, ErrWizardNotFound
	}

	err = fn(e.experience)
	var ve *wizard.ValidationError
	if err != nil && !errors.As(err, &ve) {
		return nil, err
	}
	return &ExperienceWizardView{ID: id, ExperienceSnapshot: e.experience.Snapshot()}, err
}

// loadOccupancy refreshes the wizard's view of booked tables from the reservation ledger.
func (s *wizardService) loadOccupancy(ctx context.Context, w *wizard.TableWizard) error {
	if w.Venue() == nil || w.Date().IsZero() {
		return nil
	}
	counts, err := s.Reservations.CountByVenueDate(ctx, s.db().WithContext(ctx), w.Venue().ID, w.Date())
	if err != nil {
		return err
	}
	occ := make(wizard.OccupancyMap, len(counts))
	for tableID, n := range counts {
		occ[wizard.OccupancyKey(tableID, w.Date())] = n
	}
	w.SetOccupancy(occ)
	return nil
}

func (s *wizardService) tableView(id string, w *wizard.TableWizard, withChoices bool) *TableWizardView {
	v := &TableWizardView{ID: id, TableSnapshot: w.Snapshot()}
	if withChoices {
		v.Choices = w.TableChoices()
	}
	if minSpend, surcharge, total, ok := w.Quote(); ok {
		v.Quote = &Quote{MinSpend: minSpend, Surcharge: surcharge, Total: total, Deposit: pricing.Deposit}
	}
	return v
}

func venueErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wizard.ErrVenueNotFound
	}
	return err
}
