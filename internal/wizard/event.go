package wizard

import (
	"fmt"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

// TicketCounter is the single-screen ticket picker: one non-negative counter per category
// the event offers.
type TicketCounter struct {
	event  *models.Event
	counts map[models.TicketCategory]int
	ids    *models.IDFactory
}

func NewTicketCounter(ids *models.IDFactory, ev *models.Event) (*TicketCounter, error) {
	if ev == nil {
		return nil, fmt.Errorf("ticket counter: %w", models.ErrMissingReference)
	}
	counts := make(map[models.TicketCategory]int)
	for _, c := range ev.Categories() {
		counts[c] = 0
	}
	return &TicketCounter{event: ev, counts: counts, ids: ids}, nil
}

func (t *TicketCounter) Event() *models.Event { return t.event }

func (t *TicketCounter) Count(c models.TicketCategory) int { return t.counts[c] }

// Counts returns a copy of every offered category's counter.
func (t *TicketCounter) Counts() map[models.TicketCategory]int {
	out := make(map[models.TicketCategory]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

func (t *TicketCounter) Increment(c models.TicketCategory) error {
	if _, ok := t.counts[c]; !ok {
		return ErrUnknownCategory
	}
	t.counts[c]++
	return nil
}

// Decrement stops at zero.
func (t *TicketCounter) Decrement(c models.TicketCategory) error {
	n, ok := t.counts[c]
	if !ok {
		return ErrUnknownCategory
	}
	if n > 0 {
		t.counts[c] = n - 1
	}
	return nil
}

// Set replaces a counter; negative values clamp to zero.
func (t *TicketCounter) Set(c models.TicketCategory, n int) error {
	if _, ok := t.counts[c]; !ok {
		return ErrUnknownCategory
	}
	if n < 0 {
		n = 0
	}
	t.counts[c] = n
	return nil
}

func (t *TicketCounter) TotalTickets() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

func (t *TicketCounter) TotalPrice() pricing.Amount {
	var total pricing.Amount
	for c, n := range t.counts {
		price, _ := t.event.PriceFor(c)
		total += price.Mul(n)
	}
	return total
}

func (t *TicketCounter) CanConfirm() bool {
	return t.TotalTickets() > 0
}

// Confirm emits one item per category with a non-zero count.
func (t *TicketCounter) Confirm(guest models.GuestIdentity) ([]models.BookableItem, error) {
	if !t.CanConfirm() {
		return nil, ErrNothingSelected
	}
	if err := guestErrors(guest).err(); err != nil {
		return nil, err
	}
	return models.NewEventItems(t.ids, t.event, t.Counts(), guest)
}
