// Package redis carries document status updates from the worker to the API
// hub over Redis pub/sub, one channel per user.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

const channelPrefix = "document_updates:"

// wireUpdate is the envelope pushed to websocket clients. The worker publishes
// it fully rendered so the API fans bytes out without re-encoding.
type wireUpdate struct {
	Type       string     `json:"type"`
	DocumentID int64      `json:"document_id"`
	Status     wireStatus `json:"status"`
}

type wireStatus struct {
	Processed       bool    `json:"processed"`
	ProcessingError *string `json:"processing_error"`
}

type PubSub struct {
	client *redis.Client
	logger *slog.Logger
}

// Open dials Redis from a redis:// URL and verifies it answers. The returned
// client is shared by the pub/sub fan-out and the stats cache.
func Open(rawURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func New(client *redis.Client, logger *slog.Logger) *PubSub {
	if logger == nil {
		logger = slog.Default()
	}
	return &PubSub{client: client, logger: logger}
}

func Channel(userID int64) string {
	return channelPrefix + strconv.FormatInt(userID, 10)
}

// PublishStatusUpdate sends one document status change to the owner's channel.
// Publishing to a channel with no subscribers is not an error.
func (p *PubSub) PublishStatusUpdate(ctx context.Context, userID int64, update domain.StatusUpdate) error {
	payload, err := json.Marshal(wireUpdate{
		Type:       domain.EventTypeDocumentUpdate,
		DocumentID: update.DocumentID,
		Status: wireStatus{
			Processed:       update.Processed,
			ProcessingError: update.ProcessingError,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}

	if err := p.client.Publish(ctx, Channel(userID), payload).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "publish status update", err)
	}
	return nil
}

// Subscribe delivers every user's status updates to handler until ctx ends.
// Channel names carry the user id, so one pattern subscription covers all
// connected users.
func (p *PubSub) Subscribe(ctx context.Context, handler func(userID int64, payload []byte)) error {
	sub := p.client.PSubscribe(ctx, channelPrefix+"*")
	defer func() {
		_ = sub.Close()
	}()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, channelPrefix), 10, 64)
			if err != nil {
				p.logger.Warn("ignoring update on malformed channel", "channel", msg.Channel)
				continue
			}
			handler(userID, []byte(msg.Payload))
		}
	}
}
