package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/themainkeys/wingman.app-sub000/internal/cart"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/repository"
)

var (
	ErrCatalogEntryNotFound = errors.New("catalog entry not found")
	ErrWizardNotFound       = errors.New("wizard not found")
	ErrTableSoldOut         = errors.New("table is no longer available for this date")
	ErrPriceChanged         = errors.New("price changed since the item was added, please book it again")
	ErrUnsupportedKind      = errors.New("item kind cannot be saved for later")
	ErrForbidden            = errors.New("not allowed for this user")
)

const (
	defaultWizardTTL  = 2 * time.Hour
	defaultSessionTTL = time.Hour
)

// EventPublisher sends domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Deps struct {
	// Store loads and saves sessions; defaults to Sessions. Set it to put a cache in front.
	Store         cart.Store
	Sessions      repository.SessionRepository
	Catalog       repository.CatalogRepository
	Users         repository.UserRepository
	Reservations  repository.ReservationRepository
	Guestlists    repository.GuestlistRepository
	Cancellations repository.CancellationRepository

	// Publisher may be nil, which skips RabbitMQ.
	Publisher EventPublisher
	Notifier  Notifier
	Navigator Navigator

	Clock func() time.Time
	// WizardTTL and SessionTTL bound how long idle wizards and sessions stay in memory.
	WizardTTL  time.Duration
	SessionTTL time.Duration
	Log        *zap.Logger
}

// Services bundles the three service facades over one shared session registry.
type Services struct {
	Session   SessionService
	Wizard    WizardService
	Guestlist GuestlistService
}

type core struct {
	Deps
	ids      *models.IDFactory
	sessions *sessionRegistry
	wizards  *wizardRegistry
}

func New(d Deps) *Services {
	if d.Store == nil {
		d.Store = d.Sessions
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.WizardTTL <= 0 {
		d.WizardTTL = defaultWizardTTL
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = defaultSessionTTL
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	sink := NewLogSink(d.Log)
	if d.Notifier == nil {
		d.Notifier = sink
	}
	if d.Navigator == nil {
		d.Navigator = sink
	}

	c := &core{
		Deps:     d,
		ids:      models.NewIDFactory(d.Clock),
		sessions: newSessionRegistry(d.Store, d.Clock, d.SessionTTL),
		wizards:  newWizardRegistry(d.Clock, d.WizardTTL),
	}
	return &Services{
		Session:   &sessionService{c},
		Wizard:    &wizardService{c},
		Guestlist: &guestlistService{c},
	}
}

func (c *core) db() *gorm.DB {
	return c.Sessions.GetDB()
}

func (c *core) publish(ctx context.Context, routingKey string, payload any) {
	if c.Publisher == nil {
		return
	}
	if err := c.Publisher.Publish(ctx, routingKey, payload); err != nil {
		c.Log.Warn("publish failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

type cacheForgetter interface {
	Forget(ctx context.Context, userID int64)
}

// committed drops any cached copy after a session row was written inside a transaction.
func (c *core) committed(ctx context.Context, userID int64) {
	if f, ok := c.Store.(cacheForgetter); ok {
		f.Forget(ctx, userID)
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrCatalogEntryNotFound)
	}
	return err
}
