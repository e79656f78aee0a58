package database

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/nfrund/causal/internal/config"
	"github.com/nfrund/causal/internal/domain"
)

// DefaultBadgerDir is where the embedded store lives when DATABASE_URL is unset.
var DefaultBadgerDir = filepath.Join("data", "causal_inference")

// Backend identifies which store a DATABASE_URL selects.
type Backend string

const (
	BackendBadger   Backend = "badger"
	BackendPostgres Backend = "postgres"
	BackendMySQL    Backend = "mysql"
	BackendSurreal  Backend = "surrealdb"
)

// Target is a parsed DATABASE_URL.
type Target struct {
	Backend Backend
	// Location is the badger directory or the driver DSN.
	Location string
}

// ParseURL resolves a DATABASE_URL into a backend and location.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{Backend: BackendBadger, Location: DefaultBadgerDir}, nil
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("%w: %q has no scheme", ErrUnsupportedScheme, redactDBURL(raw))
	}

	switch strings.ToLower(scheme) {
	case "badger":
		if rest == "" {
			rest = DefaultBadgerDir
		}
		return Target{Backend: BackendBadger, Location: rest}, nil
	case "postgres", "postgresql":
		return Target{Backend: BackendPostgres, Location: raw}, nil
	case "mysql":
		if rest == "" {
			return Target{}, fmt.Errorf("%w: mysql url has no DSN", ErrUnsupportedScheme)
		}
		return Target{Backend: BackendMySQL, Location: rest}, nil
	case "ws", "wss", "http", "https":
		if _, err := url.Parse(raw); err != nil {
			return Target{}, fmt.Errorf("%w: invalid surrealdb url: %v", ErrUnsupportedScheme, err)
		}
		return Target{Backend: BackendSurreal, Location: raw}, nil
	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// Open connects to the backend selected by cfg.GetDatabaseURL(). The caller
// owns the returned repository and must Close it on shutdown.
func Open(ctx context.Context, cfg config.Provider) (domain.TopicRepository, error) {
	target, err := ParseURL(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	timeouts := Timeouts{Query: cfg.GetDBQueryTimeout(), Execute: cfg.GetDBExecuteTimeout()}

	switch target.Backend {
	case BackendBadger:
		return OpenBadger(target.Location, timeouts)
	case BackendPostgres:
		return OpenPostgres(ctx, target.Location, timeouts)
	case BackendMySQL:
		return OpenMySQL(ctx, target.Location, timeouts)
	case BackendSurreal:
		return OpenSurreal(ctx, cfg, timeouts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, target.Backend)
	}
}
