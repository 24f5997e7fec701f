package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/complexapp/internal/core/domain"
)

const (
	StreamName     = "POSTS"
	SubjectPattern = "post.>"

	SubjectPostCreated = "post.created"
	SubjectPostUpdated = "post.updated"
	SubjectPostDeleted = "post.deleted"
)

// PostEvent is the payload of every post.* subject. Content fields are only set on creation.
type PostEvent struct {
	EventID    string    `json:"event_id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type NatsPublisher struct {
	js jetstream.JetStream
}

// NewNatsPublisher makes sure the stream exists, then publishes through JetStream.
func NewNatsPublisher(ctx context.Context, nc *nats.Conn) (*NatsPublisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsPublisher{js: js}, nil
}

func (p *NatsPublisher) PublishPostCreated(ctx context.Context, postID string, draft domain.Draft) error {
	return p.publish(ctx, SubjectPostCreated, newEvent(postID, draft.AuthorID, draft.Title))
}

func (p *NatsPublisher) PublishPostUpdated(ctx context.Context, postID, authorID string) error {
	return p.publish(ctx, SubjectPostUpdated, newEvent(postID, authorID, ""))
}

func (p *NatsPublisher) PublishPostDeleted(ctx context.Context, postID, authorID string) error {
	return p.publish(ctx, SubjectPostDeleted, newEvent(postID, authorID, ""))
}

func newEvent(postID, authorID, title string) PostEvent {
	return PostEvent{
		EventID:    uuid.NewString(),
		PostID:     postID,
		AuthorID:   authorID,
		Title:      title,
		OccurredAt: time.Now().UTC(),
	}
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, event PostEvent) error {
	msg, err := newMsg(ctx, subject, event)
	if err != nil {
		return err
	}

	slog.Debug("Publishing event", "subject", subject, "post_id", event.PostID)

	if _, err := p.js.PublishMsg(ctx, msg, jetstream.WithMsgID(event.EventID)); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// newMsg carries the caller's trace context in the message headers.
func newMsg(ctx context.Context, subject string, event PostEvent) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg, nil
}
