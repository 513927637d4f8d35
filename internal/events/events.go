// Package events fans domain events out to followers through RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"xchangez/internal/middleware"
	"xchangez/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// FeedExchange is the topic exchange feed events are published on.
	FeedExchange = "xchangez.feed"
	// EventPostCreated is emitted when a non-draft post is published.
	EventPostCreated = "post.created"
)

// FeedEvent tells one follower about a new post.
type FeedEvent struct {
	Event     string    `json:"event"`
	UserID    uint      `json:"user_id"`
	PostID    uint      `json:"post_id"`
	AuthorID  uint      `json:"author_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// RoutingKey addresses a single recipient.
func RoutingKey(userID uint) string {
	return fmt.Sprintf("user.%d", userID)
}

// Publisher delivers feed events.
type Publisher interface {
	PublishPostCreated(ctx context.Context, postID, authorID uint, title string, createdAt time.Time, followerIDs []uint) error
	Close() error
}

// Noop drops every event. It is used when RABBITMQ_URL is empty.
type Noop struct{}

// PublishPostCreated implements Publisher.
func (Noop) PublishPostCreated(context.Context, uint, uint, string, time.Time, []uint) error {
	return nil
}

// Close implements Publisher.
func (Noop) Close() error { return nil }

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes one message per follower on FeedExchange.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   amqpChannel
}

// DialRabbit connects to url and declares FeedExchange.
func DialRabbit(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(FeedExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

// PublishPostCreated implements Publisher. It stops at the first failed publish.
func (p *RabbitPublisher) PublishPostCreated(ctx context.Context, postID, authorID uint, title string, createdAt time.Time, followerIDs []uint) error {
	for _, followerID := range followerIDs {
		body, err := json.Marshal(FeedEvent{
			Event:     EventPostCreated,
			UserID:    followerID,
			PostID:    postID,
			AuthorID:  authorID,
			Title:     title,
			CreatedAt: createdAt,
		})
		if err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, FeedExchange, RoutingKey(followerID), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
		if err != nil {
			observability.DomainEventsPublished.WithLabelValues(EventPostCreated, "error").Inc()
			return fmt.Errorf("publish %s to user %d: %w", EventPostCreated, followerID, err)
		}
		observability.DomainEventsPublished.WithLabelValues(EventPostCreated, "ok").Inc()
	}
	return nil
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Deliver pushes a decoded event payload to one connected user.
type Deliver func(userID uint, payload string)

// StartFeedConsumer binds queue to every user.* key and hands events to deliver until ctx ends.
func (p *RabbitPublisher) StartFeedConsumer(ctx context.Context, queue string, deliver Deliver) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "user.*", FeedExchange, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		defer func() { _ = ch.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				HandleDelivery(msg.Body, deliver)
			}
		}
	}()
	return nil
}

// HandleDelivery decodes body and forwards it to its recipient as a websocket frame.
func HandleDelivery(body []byte, deliver Deliver) {
	var ev FeedEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.UserID == 0 {
		middleware.Logger.Warn("dropping malformed feed event", slog.Int("bytes", len(body)))
		return
	}
	frame, err := json.Marshal(map[string]interface{}{
		"type":    "feedEvent",
		"payload": ev,
	})
	if err != nil {
		return
	}
	deliver(ev.UserID, string(frame))
}
