package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/themainkeys/wingman.app-sub000/internal/cart"
	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
	"github.com/themainkeys/wingman.app-sub000/internal/repository"
	"github.com/themainkeys/wingman.app-sub000/pkg/rabbitmq"
)

const fallbackMessage = "Not enough tokens for this selection, switched to card"

type SessionView struct {
	Cart             []models.BookableItem  `json:"cart"`
	Watchlist        []models.BookableItem  `json:"watchlist"`
	Booked           []models.BookableItem  `json:"booked"`
	Selected         []string               `json:"selected"`
	Totals           cart.Totals            `json:"totals"`
	PaymentMethod    models.PaymentMethod   `json:"payment_method"`
	AvailableMethods []models.PaymentMethod `json:"available_methods"`
	TokenBalance     int64                  `json:"token_balance"`
	Feedback
}

type CheckoutView struct {
	Result  cart.CheckoutResult `json:"result"`
	Session *SessionView        `json:"session"`
}

type SessionService interface {
	Get(ctx context.Context, user *identity.User) (*SessionView, error)
	AddStoreItem(ctx context.Context, user *identity.User, storeItemID string, quantity int) (*SessionView, error)
	SavePlaceholder(ctx context.Context, user *identity.User, kind models.Kind, refID string) (*SessionView, error)
	RemoveItem(ctx context.Context, user *identity.User, itemID string) (*SessionView, error)

	EnterCartView(ctx context.Context, user *identity.User) (*SessionView, error)
	ToggleSelection(ctx context.Context, user *identity.User, itemID string) (*SessionView, error)
	SelectAll(ctx context.Context, user *identity.User) (*SessionView, error)
	DeselectAll(ctx context.Context, user *identity.User) (*SessionView, error)
	SetPaymentOption(ctx context.Context, user *identity.User, itemID string, option models.PaymentOption) (*SessionView, error)
	SetPaymentMethod(ctx context.Context, user *identity.User, method models.PaymentMethod) (*SessionView, error)

	Checkout(ctx context.Context, user *identity.User) (*CheckoutView, error)
	CompletePlaceholder(ctx context.Context, user *identity.User, itemID string, method models.PaymentMethod) (*CheckoutView, error)
	CancelBooking(ctx context.Context, user *identity.User, itemID, reason string) (*SessionView, error)
}

type sessionService struct {
	*core
}

func (s *sessionService) Get(ctx context.Context, user *identity.User) (*SessionView, error) {
	return s.read(ctx, user, func(*cart.Cart, *recorder) error { return nil })
}

func (s *sessionService) AddStoreItem(ctx context.Context, user *identity.User, storeItemID string, quantity int) (*SessionView, error) {
	si, err := s.Catalog.FindStoreItem(ctx, storeItemID)
	if err != nil {
		return nil, notFound(err, "store item "+storeItemID)
	}
	item, err := models.NewStoreItem(s.ids, si, quantity)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, user, func(c *cart.Cart, rec *recorder) error {
		if _, err := c.Add(item); err != nil {
			return err
		}
		rec.toast(ToastSuccess, "%s added to cart", item.DisplayName)
		return nil
	})
}

// SavePlaceholder puts a catalog entry on the watchlist before any booking details exist.
func (s *sessionService) SavePlaceholder(ctx context.Context, user *identity.User, kind models.Kind, refID string) (*SessionView, error) {
	item, err := s.placeholder(ctx, user, kind, refID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, user, func(c *cart.Cart, rec *recorder) error {
		if _, err := c.Add(item); err != nil {
			return err
		}
		rec.toast(ToastSuccess, "%s saved for later", item.DisplayName)
		return nil
	})
}

func (s *sessionService) placeholder(ctx context.Context, user *identity.User, kind models.Kind, refID string) (models.BookableItem, error) {
	switch kind {
	case models.KindEvent:
		ev, err := s.Catalog.FindEvent(ctx, refID)
		if err != nil {
			return models.BookableItem{}, notFound(err, "event "+refID)
		}
		var price pricing.Amount
		for i, c := range ev.Categories() {
			p, _ := ev.PriceFor(c)
			if i == 0 || p < price {
				price = p
			}
		}
		return models.NewPlaceholder(s.ids, models.EventDetails{EventID: ev.ID, Guest: models.Self()}, ev.Name, ev.ImageRef, ev.Date, price)
	case models.KindExperience:
		exp, err := s.Catalog.FindExperience(ctx, refID)
		if err != nil {
			return models.BookableItem{}, notFound(err, "experience "+refID)
		}
		price, err := pricing.ResolveExperiencePrice(exp.Prices, *user)
		if err != nil {
			return models.BookableItem{}, err
		}
		return models.NewPlaceholder(s.ids, models.ExperienceDetails{ExperienceID: exp.ID, Guest: models.Self()}, exp.Name, exp.ImageRef, "", price)
	case models.KindTable:
		v, err := s.Catalog.FindVenue(ctx, refID)
		if err != nil {
			return models.BookableItem{}, notFound(err, "venue "+refID)
		}
		return models.NewPlaceholder(s.ids, models.TableDetails{VenueID: v.ID, Guest: models.Self()}, v.Name, v.ImageRef, "", 0)
	default:
		return models.BookableItem{}, fmt.Errorf("%s: %w", kind, ErrUnsupportedKind)
	}
}

func (s *sessionService) RemoveItem(ctx context.Context, user *identity.User, itemID string) (*SessionView, error) {
	return s.mutate(ctx, user, func(c *cart.Cart, rec *recorder) error {
		item, _, ok := c.Find(itemID)
		if err := c.Remove(itemID); err != nil {
			return err
		}
		if ok {
			rec.toast(ToastInfo, "%s removed", item.DisplayName)
		}
		return nil
	})
}

// Selection and payment method changes stay in memory; only the collections are persisted.

func (s *sessionService) EnterCartView(ctx context.Context, user *identity.User) (*SessionView, error) {
	return s.read(ctx, user, func(c *cart.Cart, _ *recorder) error {
		c.EnterCartView()
		return nil
	})
}

func (s *sessionService) ToggleSelection(ctx context.Context, user *identity.User, itemID string) (*SessionView, error) {
	return s.read(ctx, user, func(c *cart.Cart, _ *recorder) error {
		_, err := c.Toggle(itemID)
		return err
	})
}

func (s *sessionService) SelectAll(ctx context.Context, user *identity.User) (*SessionView, error) {
	return s.read(ctx, user, func(c *cart.Cart, _ *recorder) error {
		c.SelectAll()
		return nil
	})
}

func (s *sessionService) DeselectAll(ctx context.Context, user *identity.User) (*SessionView, error) {
	return s.read(ctx, user, func(c *cart.Cart, _ *recorder) error {
		c.DeselectAll()
		return nil
	})
}

func (s *sessionService) SetPaymentOption(ctx context.Context, user *identity.User, itemID string, option models.PaymentOption) (*SessionView, error) {
	return s.mutate(ctx, user, func(c *cart.Cart, _ *recorder) error {
		return c.SetPaymentOption(itemID, option)
	})
}

func (s *sessionService) SetPaymentMethod(ctx context.Context, user *identity.User, method models.PaymentMethod) (*SessionView, error) {
	return s.read(ctx, user, func(c *cart.Cart, _ *recorder) error {
		return c.SetPaymentMethod(method, user.TokenBalance)
	})
}

// Checkout books the selected cart items with the active payment method. When the balance no
// longer covers a token payment the method falls back to card and nothing is booked.
func (s *sessionService) Checkout(ctx context.Context, user *identity.User) (*CheckoutView, error) {
	sess, err := s.sessions.acquire(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.release(sess)

	rec := s.recorder(ctx, user.ID)
	out := &CheckoutView{Result: cart.CheckoutResult{Method: sess.cart.PaymentMethod()}}
	if sess.cart.Reconcile(user.TokenBalance) {
		rec.toast(ToastWarning, fallbackMessage)
		out.Session = s.view(sess.cart, user, rec)
		return out, nil
	}

	ids := sess.cart.Selected()
	method := sess.cart.PaymentMethod()
	result, err := s.commit(ctx, user, sess, func(c *cart.Cart) (cart.CheckoutResult, error) {
		return c.Checkout(method, ids, user.TokenBalance)
	})
	if errors.Is(err, cart.ErrInsufficientTokens) {
		// the stored balance moved under us
		_ = sess.cart.SetPaymentMethod(models.MethodCard, 0)
		rec.toast(ToastWarning, fallbackMessage)
		out.Session = s.view(sess.cart, user, rec)
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.Result = result
	if len(result.Booked) > 0 {
		rec.toast(ToastSuccess, "Booked %d item(s)", len(result.Booked))
		rec.navigate(DestConfirmation, bookedIDs(result.Booked)...)
	}
	out.Session = s.view(sess.cart, user, rec)
	return out, nil
}

func (s *sessionService) CompletePlaceholder(ctx context.Context, user *identity.User, itemID string, method models.PaymentMethod) (*CheckoutView, error) {
	sess, err := s.sessions.acquire(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.release(sess)

	result, err := s.commit(ctx, user, sess, func(c *cart.Cart) (cart.CheckoutResult, error) {
		return c.CompletePlaceholder(itemID, method, user.TokenBalance)
	})
	if err != nil {
		return nil, err
	}
	rec := s.recorder(ctx, user.ID)
	rec.toast(ToastSuccess, "%s booked", result.Booked[0].DisplayName)
	rec.navigate(DestConfirmation, itemID)
	return &CheckoutView{Result: result, Session: s.view(sess.cart, user, rec)}, nil
}

// CancelBooking drops a booked item, frees its table reservation and records the cancellation.
// Refunds are handled outside this service.
func (s *sessionService) CancelBooking(ctx context.Context, user *identity.User, itemID, reason string) (*SessionView, error) {
	sess, err := s.sessions.acquire(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.release(sess)

	work := sess.cart.Clone()
	item, err := work.Cancel(itemID)
	if err != nil {
		return nil, err
	}
	err = s.db().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Reservations.DeleteByItemID(ctx, tx, itemID); err != nil {
			return err
		}
		if err := s.Cancellations.Create(ctx, tx, &models.Cancellation{
			UserID: user.ID,
			ItemID: item.ID,
			Kind:   item.Kind(),
			Reason: reason,
			Item:   datatypes.NewJSONType(item),
		}); err != nil {
			return err
		}
		return s.Sessions.SaveTx(ctx, tx, user.ID, work.State())
	})
	if err != nil {
		return nil, fmt.Errorf("cancel %s: %w", itemID, err)
	}
	sess.cart = work
	s.committed(ctx, user.ID)

	s.publish(ctx, rabbitmq.KeyBookingCancelled, BookingCancelledEvent{UserID: user.ID, Item: item, Reason: reason, At: s.Clock()})
	s.Log.Info("booking cancelled", zap.Int64("user_id", user.ID), zap.String("item_id", itemID))

	rec := s.recorder(ctx, user.ID)
	rec.toast(ToastInfo, "%s cancelled", item.DisplayName)
	return s.view(sess.cart, user, rec), nil
}

// mutate applies fn and persists the collections. The live cart only changes when both succeed.
func (c *core) mutate(ctx context.Context, user *identity.User, fn func(*cart.Cart, *recorder) error) (*SessionView, error) {
	sess, err := c.sessions.acquire(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer c.sessions.release(sess)

	rec := c.recorder(ctx, user.ID)
	work := sess.cart.Clone()
	if err := fn(work, rec); err != nil {
		return nil, err
	}
	if err := c.Store.Save(ctx, user.ID, work.State()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	sess.cart = work
	return c.view(sess.cart, user, rec), nil
}

// read applies fn to in-memory state only.
func (c *core) read(ctx context.Context, user *identity.User, fn func(*cart.Cart, *recorder) error) (*SessionView, error) {
	sess, err := c.sessions.acquire(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer c.sessions.release(sess)

	rec := c.recorder(ctx, user.ID)
	if err := fn(sess.cart, rec); err != nil {
		return nil, err
	}
	return c.view(sess.cart, user, rec), nil
}

// commit runs a booking transition on a copy of the cart and writes its side effects in one
// transaction. The live cart is swapped only after the transaction commits.
func (c *core) commit(ctx context.Context, user *identity.User, sess *session, op func(*cart.Cart) (cart.CheckoutResult, error)) (cart.CheckoutResult, error) {
	work := sess.cart.Clone()
	result, err := op(work)
	if err != nil || len(result.Booked) == 0 {
		return result, err
	}

	err = c.db().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.reserveTables(ctx, tx, user.ID, result.Booked); err != nil {
			return err
		}
		if result.TokensCharged > 0 {
			if err := c.Users.DebitTokens(ctx, tx, user.ID, result.TokensCharged); err != nil {
				if errors.Is(err, repository.ErrInsufficientBalance) {
					return cart.ErrInsufficientTokens
				}
				return err
			}
		}
		return c.Sessions.SaveTx(ctx, tx, user.ID, work.State())
	})
	if err != nil {
		return cart.CheckoutResult{Method: result.Method}, err
	}

	sess.cart = work
	c.committed(ctx, user.ID)
	user.TokenBalance -= result.TokensCharged

	c.publish(ctx, rabbitmq.KeyBookingConfirmed, BookingConfirmedEvent{
		UserID: user.ID,
		Method: result.Method,
		USD:    result.USDCharged,
		Tokens: result.TokensCharged,
		Items:  result.Booked,
		At:     c.Clock(),
	})
	c.Log.Info("checkout committed",
		zap.Int64("user_id", user.ID),
		zap.Int("items", len(result.Booked)),
		zap.String("method", string(result.Method)),
		zap.Int64("tokens", result.TokensCharged),
	)
	return result, nil
}

// reserveTables re-checks price and availability of every booked table and writes its
// reservation row. General inquiry tables and table placeholders are not limited.
func (c *core) reserveTables(ctx context.Context, tx *gorm.DB, userID int64, booked []models.BookableItem) error {
	var rows []models.TableReservation
	inBatch := make(map[string]int64)
	for _, item := range booked {
		d, ok := item.Details.(models.TableDetails)
		if !ok || d.TableOptionID == "" || d.TableOptionID == models.GeneralInquiryTableID || item.ScheduledDate == nil {
			continue
		}
		date := *item.ScheduledDate
		opt, err := c.Catalog.FindTableOption(ctx, tx, d.TableOptionID)
		if err != nil {
			return notFound(err, "table "+d.TableOptionID)
		}
		if pricing.TableTotal(opt.MinSpend) != item.FullPrice {
			return fmt.Errorf("%s: %w", item.DisplayName, ErrPriceChanged)
		}
		if opt.TotalAvailable != nil {
			n, err := c.Reservations.CountByTableDate(ctx, tx, opt.ID, date)
			if err != nil {
				return err
			}
			key := opt.ID + "|" + string(date)
			if n+inBatch[key] >= int64(*opt.TotalAvailable) {
				return fmt.Errorf("%s on %s: %w", item.DisplayName, date, ErrTableSoldOut)
			}
			inBatch[key]++
		}
		rows = append(rows, models.TableReservation{
			ItemID:        item.ID,
			UserID:        userID,
			VenueID:       d.VenueID,
			TableOptionID: opt.ID,
			Date:          date,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return c.Reservations.Create(ctx, tx, rows)
}

// view reconciles the payment method against the balance and renders the session.
func (c *core) view(crt *cart.Cart, user *identity.User, rec *recorder) *SessionView {
	if crt.Reconcile(user.TokenBalance) {
		rec.toast(ToastWarning, fallbackMessage)
	}
	return &SessionView{
		Cart:             crt.Items(),
		Watchlist:        crt.Watchlist(),
		Booked:           crt.Booked(),
		Selected:         crt.Selected(),
		Totals:           crt.Totals(),
		PaymentMethod:    crt.PaymentMethod(),
		AvailableMethods: crt.AvailableMethods(user.TokenBalance),
		TokenBalance:     user.TokenBalance,
		Feedback:         rec.fb,
	}
}

func bookedIDs(items []models.BookableItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
