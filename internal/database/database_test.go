package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nfrund/causal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Target
	}{
		{"unset", "", Target{Backend: BackendBadger, Location: DefaultBadgerDir}},
		{"badger path", "badger:///var/lib/causal", Target{Backend: BackendBadger, Location: "/var/lib/causal"}},
		{"badger relative", "badger://data/topics", Target{Backend: BackendBadger, Location: "data/topics"}},
		{"postgres", "postgres://u:p@localhost:5432/causal", Target{Backend: BackendPostgres, Location: "postgres://u:p@localhost:5432/causal"}},
		{"postgresql", "postgresql://localhost/causal", Target{Backend: BackendPostgres, Location: "postgresql://localhost/causal"}},
		{"mysql", "mysql://u:p@tcp(localhost:3306)/causal?parseTime=true", Target{Backend: BackendMySQL, Location: "u:p@tcp(localhost:3306)/causal?parseTime=true"}},
		{"surreal ws", "ws://localhost:8000/rpc", Target{Backend: BackendSurreal, Location: "ws://localhost:8000/rpc"}},
		{"surreal https", "https://db.example.com", Target{Backend: BackendSurreal, Location: "https://db.example.com"}},
		{"scheme case", "POSTGRES://localhost/causal", Target{Backend: BackendPostgres, Location: "POSTGRES://localhost/causal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseURL_Unsupported(t *testing.T) {
	for _, raw := range []string{"sqlite:///tmp/db", "no-scheme", "mysql://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseURL(raw)
			assert.ErrorIs(t, err, ErrUnsupportedScheme)
		})
	}
}

func TestOpen_Badger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	cfg := &config.Config{
		DatabaseURL:      "badger://" + dir,
		DBQueryTimeout:   config.DefaultDBQueryTimeout,
		DBExecuteTimeout: config.DefaultDBExecuteTimeout,
	}

	repo, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer repo.Close(context.Background())

	assert.IsType(t, &BadgerStore{}, repo)
	assert.NoError(t, repo.Ping(context.Background()))
	assert.DirExists(t, dir)
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{DatabaseURL: "redis://localhost:6379"})
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}
