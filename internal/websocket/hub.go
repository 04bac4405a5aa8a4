package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/pkg/logger"
)

// Options tunes connection pumps.
type Options struct {
	WriteWait            time.Duration
	PongWait             time.Duration
	SendBuffer           int
	MaxMessagesPerSecond int
}

func DefaultOptions() Options {
	return Options{
		WriteWait:            10 * time.Second,
		PongWait:             60 * time.Second,
		SendBuffer:           16,
		MaxMessagesPerSecond: 10,
	}
}

type subscriberQuery struct {
	slug  string
	reply chan int
}

// Hub fans change events out to the clients watching each wishlist. All
// topic state is owned by the Run goroutine; other goroutines talk to it
// through channels only.
type Hub struct {
	opts Options

	// slug -> clients watching it. Touched only inside Run.
	topics map[string]map[*Client]struct{}

	register    chan *Client
	unregister  chan *Client
	publish     chan string
	subscribers chan subscriberQuery
	done        chan struct{}
}

func NewHub(opts Options) *Hub {
	defaults := DefaultOptions()
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaults.WriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaults.PongWait
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaults.SendBuffer
	}
	if opts.MaxMessagesPerSecond <= 0 {
		opts.MaxMessagesPerSecond = defaults.MaxMessagesPerSecond
	}
	return &Hub{
		opts:        opts,
		topics:      make(map[string]map[*Client]struct{}),
		register:    make(chan *Client, 256),
		unregister:  make(chan *Client, 256),
		publish:     make(chan string, 1024),
		subscribers: make(chan subscriberQuery),
		done:        make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for slug, clients := range h.topics {
				for client := range clients {
					close(client.send)
				}
				delete(h.topics, slug)
			}
			logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			clients, ok := h.topics[client.slug]
			if !ok {
				clients = make(map[*Client]struct{})
				h.topics[client.slug] = clients
			}
			clients[client] = struct{}{}
			logger.Info("Live viewer subscribed", map[string]interface{}{
				"wishlist_slug": client.slug,
				"viewers":       len(clients),
			})

		case client := <-h.unregister:
			if h.remove(client) {
				logger.Info("Live viewer unsubscribed", map[string]interface{}{
					"wishlist_slug": client.slug,
					"viewers":       len(h.topics[client.slug]),
				})
			}

		case slug := <-h.publish:
			h.broadcast(slug)

		case q := <-h.subscribers:
			q.reply <- len(h.topics[q.slug])
		}
	}
}

func (h *Hub) broadcast(slug string) {
	clients := h.topics[slug]
	if len(clients) == 0 {
		return
	}

	frame, err := json.Marshal(model.NewChangeEvent(slug))
	if err != nil {
		logger.Error("Failed to marshal change event", err, map[string]interface{}{
			"wishlist_slug": slug,
		})
		return
	}

	for client := range clients {
		select {
		case client.send <- frame:
		default:
			// A viewer that cannot keep up is dropped; it refetches on reconnect.
			h.remove(client)
			logger.Warn("Viewer send buffer full, disconnecting", map[string]interface{}{
				"wishlist_slug": slug,
			})
		}
	}
	logger.Debug("Change event broadcast", map[string]interface{}{
		"wishlist_slug": slug,
		"viewers":       len(clients),
	})
}

// remove reports whether the client was still subscribed. The send channel
// is closed exactly once, here.
func (h *Hub) remove(client *Client) bool {
	clients, ok := h.topics[client.slug]
	if !ok {
		return false
	}
	if _, ok := clients[client]; !ok {
		return false
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.topics, client.slug)
	}
	return true
}

// NotifyWishlistChanged queues a change event for the wishlist's viewers.
// It never blocks the caller; when the queue is full the event is dropped.
func (h *Hub) NotifyWishlistChanged(slug string) {
	select {
	case h.publish <- slug:
	case <-h.done:
	default:
		logger.Warn("Change queue full, event dropped", map[string]interface{}{
			"wishlist_slug": slug,
		})
	}
}

// Attach subscribes an upgraded connection to slug and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, slug string) *Client {
	client := newClient(h, conn, slug)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return client
	}
	go client.WritePump()
	go client.ReadPump()
	return client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns the number of viewers currently watching slug.
func (h *Hub) Subscribers(slug string) int {
	reply := make(chan int, 1)
	select {
	case h.subscribers <- subscriberQuery{slug: slug, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}
