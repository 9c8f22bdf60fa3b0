package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type config struct {
	logger         *slog.Logger
	readTimeout    time.Duration
	maxMessageSize int64
	allowedOrigins []string
	checkOrigin    func(*http.Request) bool
}

func defaultConfig() config {
	return config{
		logger:         slog.Default(),
		readTimeout:    60 * time.Second,
		maxMessageSize: 64 * 1024,
	}
}

// Option configures Handler and Dial.
type Option func(*config)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithReadTimeout sets how long a connection may stay silent. Pings are sent
// at half this interval. Zero disables the timeout. Default: 60s.
func WithReadTimeout(d time.Duration) Option {
	return func(c *config) {
		c.readTimeout = d
	}
}

// WithMaxMessageSize limits the size of incoming frames. Default: 64 KiB.
func WithMaxMessageSize(n int64) Option {
	return func(c *config) {
		c.maxMessageSize = n
	}
}

// WithAllowedOrigins restricts browser origins allowed to connect. Without
// it, only same-host origins are accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) {
		c.allowedOrigins = origins
	}
}

// WithCheckOrigin replaces the origin check entirely.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(c *config) {
		c.checkOrigin = fn
	}
}

func (c config) originChecker() func(*http.Request) bool {
	if c.checkOrigin != nil {
		return c.checkOrigin
	}
	if len(c.allowedOrigins) == 0 {
		return nil // gorilla's same-host check
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range c.allowedOrigins {
			if allowed == "*" || strings.EqualFold(origin, allowed) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Handler upgrades requests to bridge connections. fn runs on its own
// goroutine for every connection and typically builds a provider with
// Loader(conn); the connection closes when the browser goes away.
func Handler(fn func(*Conn), opts ...Option) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     cfg.originChecker(),
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.logger.Warn("bridge upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}
		conn := newConn(ws, cfg)
		cfg.logger.Debug("bridge connected", "remote", r.RemoteAddr)

		go fn(conn)
		_ = conn.ReadLoop()
		cfg.logger.Debug("bridge disconnected", "remote", r.RemoteAddr)
	})
}

// Dial connects to a bridge endpoint and starts reading. It is used by
// tools and tests that play the browser role.
func Dial(ctx context.Context, rawURL string, header http.Header, opts ...Option) (*Conn, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, header)
	if err != nil {
		return nil, err
	}
	conn := newConn(ws, cfg)
	go func() { _ = conn.ReadLoop() }()
	return conn, nil
}
