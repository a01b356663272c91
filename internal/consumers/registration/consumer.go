// Package registration hands standing coupons to newly registered customers
// by consuming user_registered events from Pub/Sub.
package registration

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/outbox"
	"github.com/crumbworks/bakery-backend/pkg/outbox/payloads"
	"github.com/crumbworks/bakery-backend/pkg/outbox/registry"
)

// ConsumerName scopes idempotency keys for this consumer.
const ConsumerName = "coupon-registration"

type couponAssigner interface {
	AssignForNewUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer assigns all-customer coupons when a bakery account is created.
type Consumer struct {
	coupons      couponAssigner
	subscription receiver
	idempotency  idempotencyGuard
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer wires the consumer. subscription may be any Pub/Sub subscriber.
func NewConsumer(coupons couponAssigner, subscription receiver, guard idempotencyGuard, logg *logger.Logger) (*Consumer, error) {
	if coupons == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("users subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventUserRegistered, 1, func(raw json.RawMessage) (interface{}, error) {
		var payload payloads.UserRegisteredEvent
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	})

	return &Consumer{
		coupons:      coupons,
		subscription: subscription,
		idempotency:  guard,
		decoders:     decoders,
		logg:         logg,
	}, nil
}

// Run receives messages until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.Process(ctx, msg.Attributes["event_type"], msg.Data) != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Process handles one message body. A nil return means ack; an error means
// the message should be redelivered.
func (c *Consumer) Process(ctx context.Context, eventType string, data []byte) error {
	logCtx := c.logg.WithField(ctx, "event_type", eventType)
	if eventType != string(enums.EventUserRegistered) {
		return nil
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return nil
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return nil
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	decoded, err := c.decoders.Decode(enums.EventUserRegistered, versionOrDefault(envelope.Version), envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode user_registered payload", err)
		return nil
	}
	payload := decoded.(payloads.UserRegisteredEvent)
	if payload.Role != enums.UserRoleBakery {
		return nil
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, ConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return err
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	logCtx = c.logg.WithField(logCtx, "user_id", payload.UserID.String())
	assigned, err := c.coupons.AssignForNewUser(ctx, payload.UserID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			c.logg.Warn(logCtx, "registered user no longer exists")
			return nil
		}
		c.logg.Error(logCtx, "coupon assignment failed", err)
		if delErr := c.idempotency.Delete(ctx, ConsumerName, eventID); delErr != nil {
			err = multierr.Append(err, delErr)
		}
		return err
	}

	c.logg.Info(c.logg.WithField(logCtx, "assigned", assigned), "coupons assigned to new user")
	return nil
}

func versionOrDefault(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}
