package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/themainkeys/wingman.app-sub000/internal/cart"
	"github.com/themainkeys/wingman.app-sub000/internal/guestlist"
	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
	"github.com/themainkeys/wingman.app-sub000/internal/repository"
	"github.com/themainkeys/wingman.app-sub000/internal/wizard"
	"github.com/themainkeys/wingman.app-sub000/pkg/database"
	"github.com/themainkeys/wingman.app-sub000/pkg/rabbitmq"
)

var testNow = time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)

// --- Recording publisher ---

type published struct {
	key     string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: routingKey, payload: payload})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

// --- Harness ---

type harness struct {
	svc  *Services
	db   *gorm.DB
	pub  *recordingPublisher
	ctx  context.Context
	cat  repository.CatalogRepository
	resv repository.ReservationRepository
}

func intPtr(n int) *int { return &n }

func amountPtr(d float64) *pricing.Amount {
	a := pricing.FromDollars(d)
	return &a
}

func newHarness(t *testing.T, opts ...func(*Deps)) *harness {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return seedHarness(t, db, opts...)
}

// seedHarness fills a migrated database with the Club Nova catalog and three users.
func seedHarness(t *testing.T, db *gorm.DB, opts ...func(*Deps)) *harness {
	t.Helper()
	ctx := context.Background()
	cat := repository.NewCatalogRepository(db)
	require.NoError(t, cat.UpsertVenue(ctx, &models.Venue{ID: "v1", Name: "Club Nova", OperatingDays: []string{"Friday", "Saturday"}}))
	require.NoError(t, cat.UpsertTableOption(ctx, &models.TableOption{ID: "vip", VenueID: "v1", Name: "VIP", MinSpend: pricing.FromDollars(2000), TotalAvailable: intPtr(1)}))
	require.NoError(t, cat.UpsertPromoter(ctx, &models.Promoter{ID: "p1", Name: "Leo"}))
	require.NoError(t, cat.UpsertEvent(ctx, &models.Event{ID: "ev-1", VenueID: "v1", Name: "Techno Night", Date: "2026-10-24", FemalePrice: amountPtr(20), GeneralPrice: amountPtr(35)}))
	require.NoError(t, cat.UpsertExperience(ctx, &models.Experience{ID: "yacht", Name: "Yacht Day", UnitType: models.UnitPerPerson, Capacity: intPtr(8), Prices: pricing.ExperiencePrices{General: amountPtr(120)}}))
	require.NoError(t, cat.UpsertStoreItem(ctx, &models.StoreItem{ID: "hoodie", Name: "Hoodie", Price: pricing.FromDollars(40), TokenPrice: 500}))

	for _, u := range []identity.User{
		{ID: 1, Name: "Ana", TokenBalance: 600},
		{ID: 2, Name: "Ben", Tier: identity.TierMaleAccess},
		{ID: 3, Name: "Cleo", Role: identity.RolePromoter},
	} {
		u := u
		require.NoError(t, db.Create(&u).Error)
	}

	pub := &recordingPublisher{}
	resv := repository.NewReservationRepository(db)
	deps := Deps{
		Sessions:      repository.NewSessionRepository(db),
		Catalog:       cat,
		Users:         repository.NewUserRepository(db),
		Reservations:  resv,
		Guestlists:    repository.NewGuestlistRepository(db),
		Cancellations: repository.NewCancellationRepository(db),
		Publisher:     pub,
		Clock:         func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(&deps)
	}
	svc := New(deps)
	return &harness{svc: svc, db: db, pub: pub, ctx: ctx, cat: cat, resv: resv}
}

func (h *harness) user(t *testing.T, id int64) *identity.User {
	t.Helper()
	u, err := repository.NewUserRepository(h.db).FindByID(h.ctx, id)
	require.NoError(t, err)
	return u
}

// bookTable walks the table wizard to a confirmed cart item for 2026-10-24.
func (h *harness) bookTable(t *testing.T, u *identity.User) string {
	t.Helper()
	v, err := h.svc.Wizard.StartTable(h.ctx, u, "v1")
	require.NoError(t, err)
	_, err = h.svc.Wizard.SubmitTableDate(h.ctx, u, v.ID, "2026-10-24", 1, 1)
	require.NoError(t, err)
	_, err = h.svc.Wizard.SelectTable(h.ctx, u, v.ID, "vip")
	require.NoError(t, err)
	v, err = h.svc.Wizard.ConfirmTable(h.ctx, u, v.ID, wizard.TableConfirmation{Guest: models.Self()})
	require.NoError(t, err)
	require.NotNil(t, v.Item)
	return v.Item.ID
}

// --- Table booking ---

func TestTableBooking_EndToEnd(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)

	v, err := h.svc.Wizard.StartTable(h.ctx, u, "v1")
	require.NoError(t, err)
	assert.Equal(t, wizard.StepSelectDateAndGuests, v.Step)

	v, err = h.svc.Wizard.SubmitTableDate(h.ctx, u, v.ID, "2026-10-20", 1, 1)
	var ve *wizard.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Club Nova is closed on Tuesdays", ve.Field(wizard.FieldDate))
	require.NotNil(t, v)
	assert.Equal(t, wizard.StepSelectDateAndGuests, v.Step)

	v, err = h.svc.Wizard.SubmitTableDate(h.ctx, u, v.ID, "2026-10-24", 1, 1)
	require.NoError(t, err)
	require.Len(t, v.Choices, 1)
	assert.True(t, v.Choices[0].Selectable)

	v, err = h.svc.Wizard.SelectTable(h.ctx, u, v.ID, "vip")
	require.NoError(t, err)
	require.NotNil(t, v.Quote)
	assert.Equal(t, "720.00", v.Quote.Surcharge.String())
	assert.Equal(t, "2720.00", v.Quote.Total.String())

	v, err = h.svc.Wizard.ConfirmTable(h.ctx, u, v.ID, wizard.TableConfirmation{Guest: models.Self()})
	require.NoError(t, err)
	require.NotNil(t, v.Navigate)
	assert.Equal(t, DestContinue, v.Navigate.Destination)

	_, err = h.svc.Wizard.BackTable(h.ctx, u, v.ID)
	assert.ErrorIs(t, err, ErrWizardNotFound, "confirmed wizards are retired")

	sv, err := h.svc.Session.EnterCartView(h.ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "2720.00", sv.Totals.USD.String())

	out, err := h.svc.Session.Checkout(h.ctx, u)
	require.NoError(t, err)
	require.Len(t, out.Result.Booked, 1)
	assert.Equal(t, "2720.00", out.Result.USDCharged.String())
	assert.Empty(t, out.Session.Cart)
	require.NotNil(t, out.Session.Navigate)
	assert.Equal(t, DestConfirmation, out.Session.Navigate.Destination)

	n, err := h.resv.CountByTableDate(h.ctx, h.db, "vip", "2026-10-24")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{rabbitmq.KeyBookingConfirmed}, h.pub.keys())

	state, err := repository.NewSessionRepository(h.db).Load(h.ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, state.Booked, 1)
	assert.Empty(t, state.Cart)
}

func TestCheckout_TableSoldOutRollsBack(t *testing.T) {
	h := newHarness(t)
	ana, ben := h.user(t, 1), h.user(t, 2)
	h.bookTable(t, ana)
	h.bookTable(t, ben)

	_, err := h.svc.Session.EnterCartView(h.ctx, ana)
	require.NoError(t, err)
	_, err = h.svc.Session.Checkout(h.ctx, ana)
	require.NoError(t, err)

	_, err = h.svc.Session.EnterCartView(h.ctx, ben)
	require.NoError(t, err)
	_, err = h.svc.Session.Checkout(h.ctx, ben)
	assert.ErrorIs(t, err, ErrTableSoldOut)

	sv, err := h.svc.Session.Get(h.ctx, ben)
	require.NoError(t, err)
	assert.Len(t, sv.Cart, 1, "failed checkout leaves the cart as it was")
	assert.Empty(t, sv.Booked)
	assert.Len(t, sv.Selected, 1)

	state, err := repository.NewSessionRepository(h.db).Load(h.ctx, ben.ID)
	require.NoError(t, err)
	assert.Empty(t, state.Booked)
}

func TestSelectTable_FullyBookedAfterCheckout(t *testing.T) {
	h := newHarness(t)
	ana, ben := h.user(t, 1), h.user(t, 2)
	h.bookTable(t, ana)
	_, err := h.svc.Session.EnterCartView(h.ctx, ana)
	require.NoError(t, err)
	_, err = h.svc.Session.Checkout(h.ctx, ana)
	require.NoError(t, err)

	v, err := h.svc.Wizard.StartTable(h.ctx, ben, "v1")
	require.NoError(t, err)
	v, err = h.svc.Wizard.SubmitTableDate(h.ctx, ben, v.ID, "2026-10-24", 2, 0)
	require.NoError(t, err)
	require.Len(t, v.Choices, 1)
	assert.False(t, v.Choices[0].Selectable)

	_, err = h.svc.Wizard.SelectTable(h.ctx, ben, v.ID, "vip")
	assert.ErrorIs(t, err, wizard.ErrTableUnavailable)
}

func TestCheckout_PriceChanged(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)
	h.bookTable(t, u)
	require.NoError(t, h.cat.UpsertTableOption(h.ctx, &models.TableOption{ID: "vip", VenueID: "v1", Name: "VIP", MinSpend: pricing.FromDollars(2500), TotalAvailable: intPtr(1)}))

	_, err := h.svc.Session.EnterCartView(h.ctx, u)
	require.NoError(t, err)
	_, err = h.svc.Session.Checkout(h.ctx, u)
	assert.ErrorIs(t, err, ErrPriceChanged)
	assert.Empty(t, h.pub.keys())
}

func TestCheckout_EmptySelectionIsNoop(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)
	h.bookTable(t, u)

	out, err := h.svc.Session.Checkout(h.ctx, u)
	require.NoError(t, err)
	assert.Empty(t, out.Result.Booked)
	assert.Len(t, out.Session.Cart, 1)
	assert.Empty(t, h.pub.keys())
}

// --- Tokens ---

func TestCheckout_TokensDebited(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)

	_, err := h.svc.Session.AddStoreItem(h.ctx, u, "hoodie", 1)
	require.NoError(t, err)
	_, err = h.svc.Session.EnterCartView(h.ctx, u)
	require.NoError(t, err)
	sv, err := h.svc.Session.SetPaymentMethod(h.ctx, u, models.MethodTokens)
	require.NoError(t, err)
	assert.Equal(t, []models.PaymentMethod{models.MethodCard, models.MethodTokens}, sv.AvailableMethods)

	out, err := h.svc.Session.Checkout(h.ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(500), out.Result.TokensCharged)
	assert.Equal(t, int64(100), u.TokenBalance)
	assert.Equal(t, int64(100), h.user(t, 1).TokenBalance)
}

func TestSelection_FallsBackToCardWhenBalanceShort(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)

	_, err := h.svc.Session.AddStoreItem(h.ctx, u, "hoodie", 1)
	require.NoError(t, err)
	_, err = h.svc.Session.EnterCartView(h.ctx, u)
	require.NoError(t, err)
	_, err = h.svc.Session.SetPaymentMethod(h.ctx, u, models.MethodTokens)
	require.NoError(t, err)

	_, err = h.svc.Session.AddStoreItem(h.ctx, u, "hoodie", 1)
	require.NoError(t, err)
	sv, err := h.svc.Session.SelectAll(h.ctx, u)
	require.NoError(t, err)

	assert.Equal(t, models.MethodCard, sv.PaymentMethod)
	require.Len(t, sv.Toasts, 1)
	assert.Equal(t, ToastWarning, sv.Toasts[0].Level)
	assert.Equal(t, []models.PaymentMethod{models.MethodCard}, sv.AvailableMethods)
}

func TestCheckout_StoredBalanceShortFallsBack(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)

	_, err := h.svc.Session.AddStoreItem(h.ctx, u, "hoodie", 1)
	require.NoError(t, err)
	_, err = h.svc.Session.EnterCartView(h.ctx, u)
	require.NoError(t, err)
	_, err = h.svc.Session.SetPaymentMethod(h.ctx, u, models.MethodTokens)
	require.NoError(t, err)
	require.NoError(t, h.db.Model(&identity.User{}).Where("id = ?", 1).Update("token_balance", 100).Error)

	out, err := h.svc.Session.Checkout(h.ctx, u)
	require.NoError(t, err)
	assert.Empty(t, out.Result.Booked)
	assert.Equal(t, models.MethodCard, out.Session.PaymentMethod)
	assert.Len(t, out.Session.Cart, 1)
	require.NotEmpty(t, out.Session.Toasts)
	assert.Equal(t, ToastWarning, out.Session.Toasts[0].Level)
}

// --- Placeholders and cancellation ---

func TestSavePlaceholder_ThenComplete(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)

	sv, err := h.svc.Session.SavePlaceholder(h.ctx, u, models.KindEvent, "ev-1")
	require.NoError(t, err)
	require.Len(t, sv.Watchlist, 1)
	ph := sv.Watchlist[0]
	assert.True(t, ph.IsPlaceholder)
	assert.Equal(t, "20.00", ph.FullPrice.String())

	_, err = h.svc.Session.SavePlaceholder(h.ctx, u, models.KindGuestlist, "v1")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	_, err = h.svc.Session.SavePlaceholder(h.ctx, u, models.KindEvent, "ghost")
	assert.ErrorIs(t, err, ErrCatalogEntryNotFound)

	out, err := h.svc.Session.CompletePlaceholder(h.ctx, u, ph.ID, models.MethodCard)
	require.NoError(t, err)
	require.Len(t, out.Result.Booked, 1)
	assert.False(t, out.Result.Booked[0].IsPlaceholder)
	assert.Empty(t, out.Session.Watchlist)
	assert.Len(t, out.Session.Booked, 1)
}

func TestCancelBooking(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)
	id := h.bookTable(t, u)
	_, err := h.svc.Session.EnterCartView(h.ctx, u)
	require.NoError(t, err)
	_, err = h.svc.Session.Checkout(h.ctx, u)
	require.NoError(t, err)

	_, err = h.svc.Session.RemoveItem(h.ctx, u, id)
	assert.ErrorIs(t, err, cart.ErrBookedImmutable)

	sv, err := h.svc.Session.CancelBooking(h.ctx, u, id, "plans changed")
	require.NoError(t, err)
	assert.Empty(t, sv.Booked)

	n, err := h.resv.CountByTableDate(h.ctx, h.db, "vip", "2026-10-24")
	require.NoError(t, err)
	assert.Zero(t, n)

	audit, err := repository.NewCancellationRepository(h.db).FindByUser(h.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "plans changed", audit[0].Reason)
	assert.Equal(t, []string{rabbitmq.KeyBookingConfirmed, rabbitmq.KeyBookingCancelled}, h.pub.keys())

	_, err = h.svc.Session.CancelBooking(h.ctx, u, id, "")
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

// --- Wizards ---

func TestWizard_OwnedByUser(t *testing.T) {
	h := newHarness(t)
	ana, ben := h.user(t, 1), h.user(t, 2)

	v, err := h.svc.Wizard.StartTable(h.ctx, ana, "")
	require.NoError(t, err)
	assert.Equal(t, wizard.StepSelectVenue, v.Step)

	_, err = h.svc.Wizard.SelectVenue(h.ctx, ben, v.ID, "v1")
	assert.ErrorIs(t, err, ErrWizardNotFound)
	_, err = h.svc.Wizard.SelectVenue(h.ctx, ana, v.ID, "ghost")
	assert.ErrorIs(t, err, wizard.ErrVenueNotFound)

	require.NoError(t, h.svc.Wizard.Discard(h.ctx, ana, v.ID))
	assert.ErrorIs(t, h.svc.Wizard.Discard(h.ctx, ana, v.ID), ErrWizardNotFound)

	_, err = h.svc.Wizard.StartTable(h.ctx, ana, "ghost")
	assert.ErrorIs(t, err, wizard.ErrVenueNotFound)
}

func TestExperienceWizard_AddsToCart(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)

	v, err := h.svc.Wizard.StartExperience(h.ctx, u, "yacht")
	require.NoError(t, err)
	assert.Equal(t, "120.00", v.UnitPrice.String())

	v, err = h.svc.Wizard.SubmitExperienceDetails(h.ctx, u, v.ID, "2026-10-24", 9)
	var ve *wizard.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Maximum capacity is 8", ve.Field(wizard.FieldQuantity))

	v, err = h.svc.Wizard.SubmitExperienceDetails(h.ctx, u, v.ID, "2026-10-24", 3)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepGuestIdentity, v.Step)

	_, err = h.svc.Wizard.ConfirmExperience(h.ctx, u, v.ID, models.GuestIdentity{Name: "Dee"})
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Field(wizard.FieldEmail))

	_, err = h.svc.Wizard.ConfirmExperience(h.ctx, u, v.ID, models.Self())
	require.NoError(t, err)

	sv, err := h.svc.Session.Get(h.ctx, u)
	require.NoError(t, err)
	require.Len(t, sv.Cart, 1)
	assert.Equal(t, "360.00", sv.Cart[0].FullPrice.String())
}

func TestBuyTickets(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, 1)

	_, err := h.svc.Wizard.BuyTickets(h.ctx, u, "ev-1", nil, models.Self())
	assert.ErrorIs(t, err, wizard.ErrNothingSelected)
	_, err = h.svc.Wizard.BuyTickets(h.ctx, u, "ev-1", map[models.TicketCategory]int{models.CategoryMale: 1}, models.Self())
	assert.ErrorIs(t, err, wizard.ErrUnknownCategory)

	sv, err := h.svc.Wizard.BuyTickets(h.ctx, u, "ev-1", map[models.TicketCategory]int{models.CategoryFemale: 2, models.CategoryGeneral: 1}, models.Self())
	require.NoError(t, err)
	require.Len(t, sv.Cart, 2)
	assert.Equal(t, "40.00", sv.Cart[0].FullPrice.String())
	assert.Equal(t, "35.00", sv.Cart[1].FullPrice.String())
}

// --- Guestlist ---

func TestGuestlist_JoinRosterAttendance(t *testing.T) {
	h := newHarness(t)
	ana, ben, cleo := h.user(t, 1), h.user(t, 2), h.user(t, 3)

	jv, err := h.svc.Guestlist.Join(h.ctx, ana, "v1", "p1", guestlist.JoinInput{Date: "2026-10-24", FemaleGuests: 2})
	require.NoError(t, err)
	assert.Equal(t, models.GuestlistPending, jv.Request.Status)
	require.Len(t, jv.Session.Cart, 1)
	assert.Equal(t, models.KindGuestlist, jv.Session.Cart[0].Kind())
	assert.Equal(t, []string{rabbitmq.KeyGuestlistJoined}, h.pub.keys())

	_, err = h.svc.Guestlist.Join(h.ctx, ana, "v1", "ghost", guestlist.JoinInput{Date: "2026-10-24", MaleGuests: 1})
	assert.ErrorIs(t, err, guestlist.ErrPromoterNotFound)

	roster, err := h.svc.Guestlist.Roster(h.ctx, ben, "v1", "2026-10-24", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, roster.Total, "roster capped at the population")
	assert.NotNil(t, roster.FemaleCount)

	_, err = h.svc.Guestlist.SetAttendance(h.ctx, ana, jv.Request.ID, models.AttendanceShow)
	assert.ErrorIs(t, err, guestlist.ErrForbidden)
	req, err := h.svc.Guestlist.SetAttendance(h.ctx, cleo, jv.Request.ID, models.AttendanceShow)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceShow, req.AttendanceStatus)

	_, err = h.svc.Guestlist.Stats(h.ctx, ana, "v1")
	assert.ErrorIs(t, err, ErrForbidden)
	stats, err := h.svc.Guestlist.Stats(h.ctx, cleo, "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Requests)
	assert.Equal(t, int64(1), stats.Shows)
}
