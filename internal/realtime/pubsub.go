package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

const messageChannelPrefix = "messages:"

// Event is the wire envelope pushed to websocket subscribers.
type Event struct {
	Type    string        `json:"type"`
	Message model.Message `json:"message"`
}

// Publisher fans stored messages out through redis pub/sub so every
// api instance sees them, not just the one that handled the send.
type Publisher struct {
	client *goredis.Client
}

func NewPublisher(client *goredis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishMessage(ctx context.Context, m model.Message) error {
	if p.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	payload, err := json.Marshal(Event{Type: "message", Message: m})
	if err != nil {
		return fmt.Errorf("marshal message event: %w", err)
	}
	if err := p.client.Publish(ctx, messageChannelPrefix+m.ReceiverID.String(), payload).Err(); err != nil {
		return fmt.Errorf("publish message event: %w", err)
	}
	return nil
}

// Bridge subscribes to the message channels and forwards each event to
// the local hub. One bridge runs per api instance.
type Bridge struct {
	client *goredis.Client
	hub    *Hub
	logger *zap.Logger
}

func NewBridge(client *goredis.Client, hub *Hub, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{client: client, hub: hub, logger: logger}
}

// Run blocks until ctx is cancelled or the subscription dies.
func (b *Bridge) Run(ctx context.Context) error {
	if b.client == nil || b.hub == nil {
		return fmt.Errorf("bridge dependencies are not configured")
	}

	sub := b.client.PSubscribe(ctx, messageChannelPrefix+"*")
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("pubsub channel closed")
			}
			b.dispatch(msg)
		}
	}
}

func (b *Bridge) dispatch(msg *goredis.Message) {
	userID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, messageChannelPrefix))
	if err != nil {
		b.logger.Warn("malformed pubsub channel", zap.String("channel", msg.Channel))
		return
	}
	b.hub.Deliver(userID, []byte(msg.Payload))
}
