// Package liveview keeps a viewer subscribed to one wishlist's change events
// and calls back on every change so the viewer can refetch.
package liveview

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/pkg/logger"
)

type State int

const (
	StateConnecting State = iota
	StateOpen
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the receiving half of a live channel.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Config configures a Session. URL and OnChange are required.
type Config struct {
	URL         string
	BaseDelay   time.Duration
	MaxAttempts int

	// OnChange runs on the session goroutine for every change event.
	OnChange func(model.ChangeEvent)
	// OnStateChange, if set, observes every state transition.
	OnStateChange func(State)

	Dialer Dialer
	// Wait blocks for d or until ctx is done. Defaults to a stoppable timer.
	Wait func(ctx context.Context, d time.Duration) error
}

const (
	DefaultBaseDelay   = 3 * time.Second
	DefaultMaxAttempts = 10
)

// Session is one viewer's subscription to one wishlist.
//
// Connecting -> Open on a successful dial. A failed dial or a dropped
// connection moves to Reconnecting, which retries after BaseDelay doubled
// per attempt. A successful reconnect resets the attempt count. After
// MaxAttempts failed retries, or on Close, the session is Closed for good.
type Session struct {
	cfg Config

	mu    sync.Mutex
	state State
	conn  Conn

	// deliverMu is held for the whole of each OnChange call so Close can
	// wait out a delivery in flight.
	deliverMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	start  sync.Once
}

var ErrMissingCallback = errors.New("liveview: OnChange is required")

func New(cfg Config) (*Session, error) {
	if cfg.URL == "" {
		return nil, errors.New("liveview: URL is required")
	}
	if cfg.OnChange == nil {
		return nil, ErrMissingCallback
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebsocketDialer{}
	}
	if cfg.Wait == nil {
		cfg.Wait = wait
	}
	return &Session{
		cfg:   cfg,
		state: StateConnecting,
		done:  make(chan struct{}),
	}, nil
}

// ChannelURL builds the live channel URL for slug from an http(s) or ws(s)
// base URL.
func ChannelURL(base, slug string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("liveview: unsupported scheme " + u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + url.PathEscape(slug)
	return u.String(), nil
}

// Start runs the session until ctx is done, Close is called, or reconnect
// attempts run out. Calling Start more than once has no effect.
func (s *Session) Start(ctx context.Context) {
	s.start.Do(func() {
		s.mu.Lock()
		s.ctx, s.cancel = context.WithCancel(ctx)
		s.mu.Unlock()
		go s.run()
	})
}

// Close stops the session and any pending reconnect. Once Close returns no
// further OnChange call starts. Close must not be called from OnChange;
// cancel the Start context there instead.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		s.start.Do(func() {
			close(s.done)
		})
		s.setState(StateClosed)
		return
	}

	// Cancel before looking at conn: receive re-checks the context under mu
	// before publishing a fresh connection.
	cancel()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	s.deliverMu.Lock()
	s.deliverMu.Unlock()
	<-s.done
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session reaches Closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	if s.state == state || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	logger.Debug("Live view state changed", map[string]interface{}{
		"url":   s.cfg.URL,
		"state": state.String(),
	})
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(state)
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer s.setState(StateClosed)

	attempt := 0
	for {
		conn, err := s.cfg.Dialer.Dial(s.ctx, s.cfg.URL)
		if err == nil {
			attempt = 0
			s.receive(conn)
		} else {
			logger.Debug("Live view dial failed", map[string]interface{}{
				"url":   s.cfg.URL,
				"error": err.Error(),
			})
		}

		if s.ctx.Err() != nil {
			return
		}
		if attempt >= s.cfg.MaxAttempts {
			logger.Warn("Live view gave up reconnecting", map[string]interface{}{
				"url":      s.cfg.URL,
				"attempts": attempt,
			})
			return
		}

		attempt++
		s.setState(StateReconnecting)
		if err := s.cfg.Wait(s.ctx, Backoff(s.cfg.BaseDelay, attempt)); err != nil {
			return
		}
	}
}

// receive reads change events until the connection fails.
func (s *Session) receive(conn Conn) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	stop := context.AfterFunc(s.ctx, func() { conn.Close() })
	defer func() {
		stop()
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	s.setState(StateOpen)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event model.ChangeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			logger.Debug("Ignoring malformed live frame", map[string]interface{}{
				"url": s.cfg.URL,
			})
			continue
		}
		if event.Type != model.EventWishlistUpdated {
			continue
		}
		s.deliver(event)
	}
}

func (s *Session) deliver(event model.ChangeEvent) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	s.cfg.OnChange(event)
}

// Backoff is the delay before reconnect attempt n (1-based).
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<uint(attempt-1))
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
