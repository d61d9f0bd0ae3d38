package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/tabsettle/internal/models"
)

const publishTimeout = 2 * time.Second

// Redis publishes events as JSON on a pub/sub channel.
// Publish failures are logged and never abort a settlement.
type Redis struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedis connects to the Redis server at url (redis://...) and checks it with PING.
// Publish failures go to logger, or slog.Default() if nil.
func NewRedis(ctx context.Context, url, channel string, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Redis{client: client, channel: channel, logger: logger}, nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Transaction(ctx context.Context, roundID string, leg models.Leg) {
	r.publish(ctx, TransactionEvent(roundID, leg))
}

func (r *Redis) CalculationFinished(ctx context.Context, round models.Round) {
	r.publish(ctx, FinishedEvent(round))
}

func (r *Redis) publish(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to encode event", "event", event.Event, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish event",
			"event", event.Event,
			"round_id", event.RoundID,
			"channel", r.channel,
			"error", err,
		)
	}
}
