package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/causal/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

const (
	// healthCheckInterval is how often StartMonitoring probes the server.
	healthCheckInterval = 30 * time.Second
	healthCheckTimeout  = 5 * time.Second
)

// surrealTarget is everything needed to open a signed-in SurrealDB session.
type surrealTarget struct {
	url      string
	user     string
	pass     string
	ns       string
	database string
}

func (t surrealTarget) open(ctx context.Context) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, t.url)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", redactDBURL(t.url), err)
	}
	if _, err := db.SignIn(ctx, &surrealdb.Auth{Username: t.user, Password: t.pass}); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("sign in as %q: %w", t.user, err)
	}
	if err := db.Use(ctx, t.ns, t.database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("use %s/%s: %w", t.ns, t.database, err)
	}
	return db, nil
}

// Connection owns one SurrealDB session for SurrealStore. A call that fails
// with a connection error reopens the session and is replayed.
type Connection struct {
	target  surrealTarget
	backoff *Backoff

	mu      sync.RWMutex
	db      *surrealdb.DB
	healthy bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewConnection prepares a connection from cfg. Nothing is dialed until Connect.
func NewConnection(cfg config.Provider) *Connection {
	return &Connection{
		target: surrealTarget{
			url:      cfg.GetDatabaseURL(),
			user:     cfg.GetDBUser(),
			pass:     cfg.GetDBPass(),
			ns:       cfg.GetDBNs(),
			database: cfg.GetDBDb(),
		},
		backoff: reconnectBackoff(),
		stop:    make(chan struct{}),
	}
}

// Connect opens the session unless one is already open.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return nil
	}
	return c.reopenLocked(ctx)
}

// WithConnection runs fn against the current session.
func (c *Connection) WithConnection(ctx context.Context, fn func(*surrealdb.DB) error) error {
	db := c.session()
	if db == nil {
		return ErrNotConnected
	}

	err := fn(db)
	if err == nil || !isConnectionError(err) {
		return err
	}

	slog.WarnContext(ctx, "SurrealDB call lost its connection, reopening", "event", "db_reconnect_triggered",
		"db_url", redactDBURL(c.target.url), "error", err)
	return c.backoff.Do(ctx, func() error {
		if err := c.reopen(ctx); err != nil {
			return err
		}
		return fn(c.session())
	})
}

// StartMonitoring probes the session periodically and reopens it when the
// probe fails. It stops when the connection is closed.
func (c *Connection) StartMonitoring() {
	go func() {
		ticker := time.NewTicker(healthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.probe()
			}
		}
	}()
}

func (c *Connection) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	db := c.session()
	err := ErrNotConnected
	if db != nil {
		_, err = db.Version(ctx)
	}
	c.setHealthy(err == nil)
	if err == nil {
		return
	}

	slog.WarnContext(ctx, "SurrealDB health check failed", "event", "db_health_check_failure",
		"db_url", redactDBURL(c.target.url), "error", err)
	if err := c.backoff.Do(ctx, func() error { return c.reopen(ctx) }); err != nil {
		slog.ErrorContext(ctx, "SurrealDB is still unreachable", "event", "db_reconnect_failure", "error", err)
	}
}

// Close stops monitoring and closes the session. It is safe to call twice.
func (c *Connection) Close(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stop) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close(ctx)
	c.db, c.healthy = nil, false
	return err
}

// IsHealthy reports whether the last connect or probe succeeded.
func (c *Connection) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

func (c *Connection) session() *surrealdb.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

func (c *Connection) setHealthy(v bool) {
	c.mu.Lock()
	c.healthy = v
	c.mu.Unlock()
}

func (c *Connection) reopen(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reopenLocked(ctx)
}

func (c *Connection) reopenLocked(ctx context.Context) error {
	if c.db != nil {
		_ = c.db.Close(ctx)
		c.db = nil
	}

	db, err := c.target.open(ctx)
	c.healthy = err == nil
	if err != nil {
		slog.ErrorContext(ctx, "Failed to open SurrealDB session", "event", "db_connect_failure", "error", err)
		return err
	}
	c.db = db
	slog.DebugContext(ctx, "SurrealDB session open", "event", "db_connect_success",
		"db_url", redactDBURL(c.target.url), "namespace", c.target.ns, "database", c.target.database)
	return nil
}

// connectionFailures are driver messages that mean the socket is gone.
var connectionFailures = []string{"connection refused", "broken pipe", "unexpected eof"}

// isConnectionError separates a lost connection from a query the server rejected.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, failure := range connectionFailures {
		if strings.Contains(msg, failure) {
			return true
		}
	}
	return false
}

// redactDBURL hides the password of a database URL for logs.
func redactDBURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
