package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"guitar-service/internal/model"
)

const (
	SubjectGuitarCreated = "guitar.created"
	SubjectGuitarUpdated = "guitar.updated"
	SubjectGuitarDeleted = "guitar.deleted"
)

type EventPublisher interface {
	PublishGuitarCreated(ctx context.Context, guitar *model.Guitar) error
	PublishGuitarUpdated(ctx context.Context, guitarID, ownerID int64, lastModified time.Time) error
	PublishGuitarDeleted(ctx context.Context, guitarID, ownerID int64) error
}

type GuitarEvent struct {
	EventType    string    `json:"event_type"`
	GuitarID     int64     `json:"guitar_id"`
	UserID       int64     `json:"user_id"`
	Brand        string    `json:"brand,omitempty"`
	Model        string    `json:"model,omitempty"`
	PhotoID      int64     `json:"photo_id,omitempty"`
	LastModified time.Time `json:"last_modified,omitzero"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
}

type NatsPublisher struct {
	conn Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, *nats.Conn, error) {
	nc, err := nats.Connect(natsURL, nats.Name("guitar-service"))
	if err != nil {
		return nil, nil, err
	}

	return &NatsPublisher{conn: nc}, nc, nil
}

func NewPublisher(conn Conn) *NatsPublisher {
	return &NatsPublisher{conn: conn}
}

func (p *NatsPublisher) PublishGuitarCreated(ctx context.Context, guitar *model.Guitar) error {
	return p.publish(ctx, SubjectGuitarCreated, GuitarEvent{
		GuitarID:     guitar.ID,
		UserID:       guitar.UserID,
		Brand:        guitar.Brand,
		Model:        guitar.Model,
		PhotoID:      guitar.PhotoID,
		LastModified: guitar.LastModified,
	})
}

func (p *NatsPublisher) PublishGuitarUpdated(ctx context.Context, guitarID, ownerID int64, lastModified time.Time) error {
	return p.publish(ctx, SubjectGuitarUpdated, GuitarEvent{
		GuitarID:     guitarID,
		UserID:       ownerID,
		LastModified: lastModified,
	})
}

func (p *NatsPublisher) PublishGuitarDeleted(ctx context.Context, guitarID, ownerID int64) error {
	return p.publish(ctx, SubjectGuitarDeleted, GuitarEvent{
		GuitarID: guitarID,
		UserID:   ownerID,
	})
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, event GuitarEvent) error {
	event.EventType = subject
	event.OccurredAt = time.Now().UTC()

	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "Error marshalling event JSON", "subject", subject, "error", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.ErrorContext(ctx, "Error publishing to NATS", "subject", subject, "error", err)
		return err
	}

	slog.DebugContext(ctx, "Published event to NATS", "subject", subject, "guitar_id", event.GuitarID)

	return nil
}

// NoopPublisher drops every event. It is used when NATS_URL is not set.
type NoopPublisher struct{}

func (NoopPublisher) PublishGuitarCreated(context.Context, *model.Guitar) error { return nil }

func (NoopPublisher) PublishGuitarUpdated(context.Context, int64, int64, time.Time) error {
	return nil
}

func (NoopPublisher) PublishGuitarDeleted(context.Context, int64, int64) error { return nil }
