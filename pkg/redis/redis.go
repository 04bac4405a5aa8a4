package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/wishlist-backend/config"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// Publish sends payload to every subscriber of channel.
func Publish(ctx context.Context, channel, payload string) error {
	if client == nil {
		return fmt.Errorf("redis is not initialized")
	}
	if err := client.Publish(ctx, channel, payload).Err(); err != nil {
		logger.Error("Failed to publish to Redis", err, map[string]interface{}{
			"channel": channel,
		})
		return err
	}
	return nil
}

// Subscribe returns the payloads published to channel. The subscription is
// confirmed before Subscribe returns; the channel closes when ctx is done or
// the connection is lost.
func Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	if client == nil {
		return nil, fmt.Errorf("redis is not initialized")
	}

	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		logger.Error("Failed to subscribe to Redis channel", err, map[string]interface{}{
			"channel": channel,
		})
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	logger.Info("Subscribed to Redis channel", map[string]interface{}{
		"channel": channel,
	})
	return out, nil
}

// PubSub adapts the package-level client to a publish/subscribe interface.
type PubSub struct{}

func (PubSub) Publish(ctx context.Context, channel, payload string) error {
	return Publish(ctx, channel, payload)
}

func (PubSub) Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	return Subscribe(ctx, channel)
}
