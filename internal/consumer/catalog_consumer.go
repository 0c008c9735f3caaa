package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/repository"
)

// Routing keys published by the catalog owner.
const (
	KeyVenue       = "catalog.venue"
	KeyTableOption = "catalog.table_option"
	KeyPromoter    = "catalog.promoter"
	KeyEvent       = "catalog.event"
	KeyExperience  = "catalog.experience"
	KeyStoreItem   = "catalog.store_item"
)

var (
	ErrUnknownRoutingKey = errors.New("unknown catalog routing key")
	errMalformed         = errors.New("malformed catalog message")
)

// CatalogConsumer upserts catalog entries into the local tables the booking flows read from.
type CatalogConsumer struct {
	repo repository.CatalogRepository
	log  *zap.Logger
}

func NewCatalogConsumer(repo repository.CatalogRepository, log *zap.Logger) *CatalogConsumer {
	return &CatalogConsumer{repo: repo, log: log}
}

func (cc *CatalogConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			cc.handleMessage(ctx, msg)
		}
		cc.log.Info("catalog channel closed, stopping consumer")
	}()
}

func (cc *CatalogConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	err := cc.Apply(ctx, msg.RoutingKey, msg.Body)
	switch {
	case err == nil:
		cc.log.Debug("catalog entry synced", zap.String("routing_key", msg.RoutingKey))
		msg.Ack(false)
	case errors.Is(err, ErrUnknownRoutingKey), errors.Is(err, errMalformed):
		cc.log.Warn("dropping catalog message", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		msg.Nack(false, false)
	default:
		cc.log.Error("catalog upsert failed", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		msg.Nack(false, true) // requeue
	}
}

// Apply decodes one catalog message and upserts it.
func (cc *CatalogConsumer) Apply(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case KeyVenue:
		var v models.Venue
		if err := decode(body, &v); err != nil {
			return err
		}
		return cc.requireID(v.ID, func() error { return cc.repo.UpsertVenue(ctx, &v) })
	case KeyTableOption:
		var t models.TableOption
		if err := decode(body, &t); err != nil {
			return err
		}
		if t.VenueID == "" {
			return fmt.Errorf("%w: table option without venue", errMalformed)
		}
		return cc.requireID(t.ID, func() error { return cc.repo.UpsertTableOption(ctx, &t) })
	case KeyPromoter:
		var p models.Promoter
		if err := decode(body, &p); err != nil {
			return err
		}
		return cc.requireID(p.ID, func() error { return cc.repo.UpsertPromoter(ctx, &p) })
	case KeyEvent:
		var e models.Event
		if err := decode(body, &e); err != nil {
			return err
		}
		return cc.requireID(e.ID, func() error { return cc.repo.UpsertEvent(ctx, &e) })
	case KeyExperience:
		var e models.Experience
		if err := decode(body, &e); err != nil {
			return err
		}
		if e.UnitType == "" {
			e.UnitType = models.UnitPerPerson
		}
		return cc.requireID(e.ID, func() error { return cc.repo.UpsertExperience(ctx, &e) })
	case KeyStoreItem:
		var s models.StoreItem
		if err := decode(body, &s); err != nil {
			return err
		}
		return cc.requireID(s.ID, func() error { return cc.repo.UpsertStoreItem(ctx, &s) })
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRoutingKey, routingKey)
	}
}

func decode(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

func (cc *CatalogConsumer) requireID(id string, upsert func() error) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", errMalformed)
	}
	return upsert()
}
