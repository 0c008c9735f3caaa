// Package cart owns a user's cart, watchlist and booked history and the checkout transition
// between them. Nothing else mutates those collections.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
)

var (
	ErrItemNotFound         = errors.New("item not found")
	ErrBookedImmutable      = errors.New("booked items cannot be removed, cancel them instead")
	ErrAlreadyBooked        = errors.New("item is already booked")
	ErrNotPlaceholder       = errors.New("item is not a watchlist placeholder")
	ErrInsufficientTokens   = errors.New("insufficient token balance")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrInvalidPaymentOption = errors.New("unknown payment option")
)

// Store loads and saves the collections of one user.
type Store interface {
	Load(ctx context.Context, userID int64) (models.CartState, error)
	Save(ctx context.Context, userID int64, state models.CartState) error
}

type Collection string

const (
	InCart      Collection = "cart"
	InWatchlist Collection = "watchlist"
	InBooked    Collection = "booked"
)

// Totals are computed over the selected cart items.
type Totals struct {
	Count  int            `json:"count"`
	USD    pricing.Amount `json:"usd"`
	Tokens int64          `json:"tokens"`
}

type CheckoutResult struct {
	Booked        []models.BookableItem `json:"booked"`
	Method        models.PaymentMethod  `json:"method"`
	USDCharged    pricing.Amount        `json:"usd_charged"`
	TokensCharged int64                 `json:"tokens_charged"`
}

// Cart is the aggregate. It is not safe for concurrent use.
type Cart struct {
	items     []models.BookableItem
	watchlist []models.BookableItem
	booked    []models.BookableItem

	selected map[string]bool
	method   models.PaymentMethod
	now      func() time.Time
}

// New restores an aggregate from persisted state. Nothing is selected until EnterCartView.
func New(state models.CartState, now func() time.Time) *Cart {
	if now == nil {
		now = time.Now
	}
	return &Cart{
		items:     cloneAll(state.Cart),
		watchlist: cloneAll(state.Watchlist),
		booked:    cloneAll(state.Booked),
		selected:  make(map[string]bool),
		method:    models.MethodCard,
		now:       now,
	}
}

// Clone returns an independent copy, selection and payment method included.
func (c *Cart) Clone() *Cart {
	selected := make(map[string]bool, len(c.selected))
	for id, v := range c.selected {
		selected[id] = v
	}
	return &Cart{
		items:     cloneAll(c.items),
		watchlist: cloneAll(c.watchlist),
		booked:    cloneAll(c.booked),
		selected:  selected,
		method:    c.method,
		now:       c.now,
	}
}

func (c *Cart) State() models.CartState {
	return models.CartState{
		Cart:      cloneAll(c.items),
		Watchlist: cloneAll(c.watchlist),
		Booked:    cloneAll(c.booked),
	}
}

func (c *Cart) Items() []models.BookableItem     { return cloneAll(c.items) }
func (c *Cart) Watchlist() []models.BookableItem { return cloneAll(c.watchlist) }
func (c *Cart) Booked() []models.BookableItem    { return cloneAll(c.booked) }

// Find reports where an item lives.
func (c *Cart) Find(id string) (models.BookableItem, Collection, bool) {
	if i := indexOf(c.items, id); i >= 0 {
		return c.items[i].Clone(), InCart, true
	}
	if i := indexOf(c.watchlist, id); i >= 0 {
		return c.watchlist[i].Clone(), InWatchlist, true
	}
	if i := indexOf(c.booked, id); i >= 0 {
		return c.booked[i].Clone(), InBooked, true
	}
	return models.BookableItem{}, "", false
}

// Add puts placeholders on the watchlist and everything else in the cart. An item with an id
// already present in the cart or watchlist replaces that entry.
func (c *Cart) Add(item models.BookableItem) (Collection, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	if item.BookedAt != nil || indexOf(c.booked, item.ID) >= 0 {
		return "", ErrAlreadyBooked
	}
	item = item.Clone()
	if item.IsPlaceholder {
		c.items = without(c.items, item.ID)
		delete(c.selected, item.ID)
		c.watchlist = upsert(c.watchlist, item)
		return InWatchlist, nil
	}
	c.watchlist = without(c.watchlist, item.ID)
	c.items = upsert(c.items, item)
	return InCart, nil
}

// Remove deletes an item from the cart or the watchlist.
func (c *Cart) Remove(id string) error {
	switch {
	case indexOf(c.items, id) >= 0:
		c.items = without(c.items, id)
		delete(c.selected, id)
	case indexOf(c.watchlist, id) >= 0:
		c.watchlist = without(c.watchlist, id)
	case indexOf(c.booked, id) >= 0:
		return ErrBookedImmutable
	default:
		return ErrItemNotFound
	}
	return nil
}

// EnterCartView selects the whole cart.
func (c *Cart) EnterCartView() {
	c.SelectAll()
}

func (c *Cart) SelectAll() {
	c.selected = make(map[string]bool, len(c.items))
	for _, it := range c.items {
		c.selected[it.ID] = true
	}
}

func (c *Cart) DeselectAll() {
	c.selected = make(map[string]bool)
}

// Toggle flips the selection of a cart item and returns the new state.
func (c *Cart) Toggle(id string) (bool, error) {
	if indexOf(c.items, id) < 0 {
		return false, ErrItemNotFound
	}
	if c.selected[id] {
		delete(c.selected, id)
		return false, nil
	}
	c.selected[id] = true
	return true, nil
}

func (c *Cart) IsSelected(id string) bool {
	return c.selected[id]
}

// Selected returns the selected ids in cart order.
func (c *Cart) Selected() []string {
	ids := make([]string, 0, len(c.selected))
	for _, it := range c.items {
		if c.selected[it.ID] {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func (c *Cart) Totals() Totals {
	return totalsOf(c.items, c.selected)
}

func totalsOf(items []models.BookableItem, pick map[string]bool) Totals {
	var t Totals
	for i := range items {
		it := &items[i]
		if !pick[it.ID] || it.IsPlaceholder {
			continue
		}
		t.Count++
		t.USD += it.ChargedPrice()
		t.Tokens += it.TokenPrice()
	}
	return t
}

// SetPaymentOption switches a cart item between full and deposit payment.
func (c *Cart) SetPaymentOption(id string, option models.PaymentOption) error {
	if option != models.PayFull && option != models.PayDeposit {
		return ErrInvalidPaymentOption
	}
	i := indexOf(c.items, id)
	if i < 0 {
		return ErrItemNotFound
	}
	updated := c.items[i].Clone()
	updated.PaymentOption = option
	if err := updated.Validate(); err != nil {
		return err
	}
	c.items[i] = updated
	return nil
}

func (c *Cart) PaymentMethod() models.PaymentMethod {
	return c.method
}

// AvailableMethods lists the payment methods usable for the current selection.
func (c *Cart) AvailableMethods(balance int64) []models.PaymentMethod {
	methods := []models.PaymentMethod{models.MethodCard}
	if balance >= c.Totals().Tokens {
		methods = append(methods, models.MethodTokens)
	}
	return methods
}

func (c *Cart) SetPaymentMethod(m models.PaymentMethod, balance int64) error {
	if !m.Valid() {
		return ErrInvalidPaymentMethod
	}
	if m == models.MethodTokens && balance < c.Totals().Tokens {
		return ErrInsufficientTokens
	}
	c.method = m
	return nil
}

// Reconcile moves the active method off tokens when the balance no longer covers the
// selection. It reports whether it fell back.
func (c *Cart) Reconcile(balance int64) bool {
	if c.method == models.MethodTokens && balance < c.Totals().Tokens {
		c.method = models.MethodCard
		return true
	}
	return false
}

// Checkout books the given cart items. Every id is checked before anything moves, so either
// the whole set is booked or nothing changes. An empty set is a no-op.
func (c *Cart) Checkout(method models.PaymentMethod, ids []string, balance int64) (CheckoutResult, error) {
	result := CheckoutResult{Method: method}
	if !method.Valid() {
		return result, ErrInvalidPaymentMethod
	}
	if len(ids) == 0 {
		return result, nil
	}

	pick := make(map[string]bool, len(ids))
	for _, id := range ids {
		i := indexOf(c.items, id)
		if i < 0 {
			return result, fmt.Errorf("checkout %s: %w", id, ErrItemNotFound)
		}
		if c.items[i].IsPlaceholder {
			return result, fmt.Errorf("checkout %s: %w", id, models.ErrPlaceholderBooked)
		}
		pick[id] = true
	}
	totals := totalsOf(c.items, pick)
	if method == models.MethodTokens && balance < totals.Tokens {
		return result, ErrInsufficientTokens
	}

	now := c.now()
	remaining := make([]models.BookableItem, 0, len(c.items)-len(pick))
	booked := make([]models.BookableItem, 0, len(pick))
	for _, it := range c.items {
		if !pick[it.ID] {
			remaining = append(remaining, it)
			continue
		}
		booked = append(booked, stamp(it, method, now))
	}

	c.items = remaining
	c.booked = append(c.booked, booked...)
	for id := range pick {
		delete(c.selected, id)
	}

	result.Booked = cloneAll(booked)
	result.USDCharged = totals.USD
	if method == models.MethodTokens {
		result.TokensCharged = totals.Tokens
	}
	return result, nil
}

// CompletePlaceholder books a watchlist placeholder directly.
func (c *Cart) CompletePlaceholder(id string, method models.PaymentMethod, balance int64) (CheckoutResult, error) {
	result := CheckoutResult{Method: method}
	if !method.Valid() {
		return result, ErrInvalidPaymentMethod
	}
	i := indexOf(c.watchlist, id)
	if i < 0 {
		if indexOf(c.items, id) >= 0 || indexOf(c.booked, id) >= 0 {
			return result, ErrNotPlaceholder
		}
		return result, ErrItemNotFound
	}
	item := c.watchlist[i].Clone()
	item.IsPlaceholder = false
	if method == models.MethodTokens && balance < item.TokenPrice() {
		return result, ErrInsufficientTokens
	}

	booked := stamp(item, method, c.now())
	c.watchlist = without(c.watchlist, id)
	c.items = without(c.items, id)
	delete(c.selected, id)
	c.booked = append(c.booked, booked)

	result.Booked = []models.BookableItem{booked.Clone()}
	result.USDCharged = booked.ChargedPrice()
	if method == models.MethodTokens {
		result.TokensCharged = booked.TokenPrice()
	}
	return result, nil
}

// Cancel removes an item from the booked history and returns it for auditing.
func (c *Cart) Cancel(id string) (models.BookableItem, error) {
	i := indexOf(c.booked, id)
	if i < 0 {
		return models.BookableItem{}, ErrItemNotFound
	}
	item := c.booked[i]
	c.booked = without(c.booked, id)
	return item, nil
}

func stamp(it models.BookableItem, method models.PaymentMethod, now time.Time) models.BookableItem {
	out := it.Clone()
	at := now
	m := method
	out.BookedAt = &at
	out.PaymentMethodUsed = &m
	out.IsPlaceholder = false
	return out
}

func indexOf(items []models.BookableItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func without(items []models.BookableItem, id string) []models.BookableItem {
	i := indexOf(items, id)
	if i < 0 {
		return items
	}
	out := make([]models.BookableItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

func upsert(items []models.BookableItem, item models.BookableItem) []models.BookableItem {
	if i := indexOf(items, item.ID); i >= 0 {
		items[i] = item
		return items
	}
	return append(items, item)
}

func cloneAll(items []models.BookableItem) []models.BookableItem {
	out := make([]models.BookableItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}
