package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher appends ledger events to the Redis stream. Publishing is
// best-effort: failures are logged and swallowed, so a Redis outage never
// blocks a balance mutation that has already been committed.
type Publisher struct {
	client *redis.Client
	logger *log.Logger
}

func NewPublisher(client *redis.Client, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{client: client, logger: logger}
}

// Publish appends an event of the given type to the ledger stream.
func (p *Publisher) Publish(ctx context.Context, eventType string, data any) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		p.logger.Printf("events: failed to marshal %s event: %v", eventType, err)
		return
	}

	args := &redis.XAddArgs{
		Stream: LedgerEventsStream,
		Values: map[string]any{"event": eventJSON},
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		p.logger.Printf("events: failed to publish %s event: %v", eventType, err)
	}
}
