package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crumbworks/bakery-backend/pkg/db/dbtest"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
)

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	cartID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), Role: "bakery"}
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventCouponApplied,
			AggregateType: enums.AggregateCart,
			AggregateID:   cartID,
			Actor:         actor,
			Data:          map[string]string{"code": "WELCOME10"},
		})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var row models.OutboxEvent
	if err := conn.First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if row.AggregateID != cartID || row.EventType != enums.EventCouponApplied {
		t.Fatalf("unexpected row %+v", row)
	}
	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 1 || !envelope.OccurredAt.Equal(fixed) || envelope.Actor.UserID != actor.UserID {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if string(envelope.Data) != `{"code":"WELCOME10"}` {
		t.Fatalf("unexpected data %s", envelope.Data)
	}
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          struct{}{},
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var count int64
	conn.Model(&models.OutboxEvent{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected rollback to drop the event, found %d", count)
	}
}

func TestEmitValidatesInput(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	if err := svc.Emit(context.Background(), nil, DomainEvent{}); err == nil {
		t.Fatalf("expected transaction error")
	}
	conn := dbtest.Open(t)
	if err := svc.Emit(context.Background(), conn, DomainEvent{EventType: "nope", AggregateID: uuid.New()}); err == nil {
		t.Fatalf("expected event type error")
	}
	if err := svc.Emit(context.Background(), conn, DomainEvent{EventType: enums.EventOrderCreated}); err == nil {
		t.Fatalf("expected aggregate id error")
	}
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	event := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	if err := repo.Insert(conn, event); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one pending row, got %d err=%v", len(rows), err)
	}
	id := rows[0].ID

	if err := repo.MarkFailedTx(conn, id, errors.New("unavailable")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := repo.MarkTerminalTx(conn, id, errors.New("dead"), 3); err != nil {
		t.Fatalf("mark terminal: %v", err)
	}
	rows, _ = repo.FetchUnpublishedForPublish(conn, 10, 3)
	if len(rows) != 0 {
		t.Fatalf("terminal row must not be fetched again")
	}

	cutoff := time.Now().Add(time.Hour)
	deleted, err := repo.DeletePublishedBefore(context.Background(), conn, cutoff, 3)
	if err != nil || deleted != 1 {
		t.Fatalf("expected dead row pruned, deleted=%d err=%v", deleted, err)
	}
}
