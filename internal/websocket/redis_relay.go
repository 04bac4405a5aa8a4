package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/pkg/logger"
)

// Broker is the cross-instance transport used by Relay.
type Broker interface {
	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, error)
}

// Relay routes change notifications through a broker so that viewers
// connected to any server instance hear about changes made on any other.
// While its own subscription is live, every instance including the
// publisher delivers from the subscription. While it is not, local viewers
// are notified directly.
type Relay struct {
	hub            *Hub
	broker         Broker
	channel        string
	publishTimeout time.Duration
	retryBase      time.Duration
	retryMax       time.Duration

	subscribed atomic.Bool
}

func NewRelay(hub *Hub, broker Broker, channel string) *Relay {
	return &Relay{
		hub:            hub,
		broker:         broker,
		channel:        channel,
		publishTimeout: 2 * time.Second,
		retryBase:      500 * time.Millisecond,
		retryMax:       30 * time.Second,
	}
}

// Subscribed reports whether the broker subscription is currently live.
func (r *Relay) Subscribed() bool {
	return r.subscribed.Load()
}

// NotifyWishlistChanged publishes to the broker. Local viewers are notified
// directly when the publish fails or this instance is not subscribed.
func (r *Relay) NotifyWishlistChanged(slug string) {
	payload, err := json.Marshal(model.NewChangeEvent(slug))
	if err != nil {
		logger.Error("Failed to marshal relayed change event", err, map[string]interface{}{
			"wishlist_slug": slug,
		})
		r.hub.NotifyWishlistChanged(slug)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.publishTimeout)
	defer cancel()
	if err := r.broker.Publish(ctx, r.channel, string(payload)); err != nil {
		logger.Warn("Relay publish failed, notifying local viewers only", map[string]interface{}{
			"wishlist_slug": slug,
			"error":         err.Error(),
		})
		r.hub.NotifyWishlistChanged(slug)
		return
	}

	if !r.subscribed.Load() {
		logger.Debug("Relay not subscribed, notifying local viewers directly", map[string]interface{}{
			"wishlist_slug": slug,
		})
		r.hub.NotifyWishlistChanged(slug)
	}
}

// Run forwards broker messages to the local hub until ctx is done. A failed
// or ended subscription is retried with exponential backoff.
func (r *Relay) Run(ctx context.Context) error {
	attempt := 0
	for {
		messages, err := r.broker.Subscribe(ctx, r.channel)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempt++
			delay := r.retryDelay(attempt)
			logger.Warn("Relay subscribe failed, retrying", map[string]interface{}{
				"channel": r.channel,
				"attempt": attempt,
				"delay":   delay.String(),
				"error":   err.Error(),
			})
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}

		attempt = 0
		r.subscribed.Store(true)
		r.forward(messages)
		r.subscribed.Store(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Relay subscription ended, resubscribing", map[string]interface{}{
			"channel": r.channel,
		})
	}
}

func (r *Relay) forward(messages <-chan string) {
	for payload := range messages {
		var event model.ChangeEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil || event.Slug == "" {
			logger.Warn("Ignoring malformed relayed event", map[string]interface{}{
				"channel": r.channel,
			})
			continue
		}
		r.hub.NotifyWishlistChanged(event.Slug)
	}
}

func (r *Relay) retryDelay(attempt int) time.Duration {
	delay := r.retryBase
	for i := 1; i < attempt && delay < r.retryMax; i++ {
		delay *= 2
	}
	if delay > r.retryMax {
		delay = r.retryMax
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
