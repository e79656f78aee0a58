package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/nfrund/causal/internal/config"
	"github.com/nfrund/causal/internal/logging"
)

// ProjectRoot walks up from the working directory to the directory holding go.mod.
func ProjectRoot(t *testing.T) string {
	t.Helper()

	path, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
			return path
		}
		if path == filepath.Dir(path) {
			t.Fatalf("could not find project root with go.mod")
		}
		path = filepath.Dir(path)
	}
}

// LoadTestEnv copies the variables of .env.test, when present, into the test
// environment with t.Setenv so they are restored afterwards.
func LoadTestEnv(t *testing.T) {
	t.Helper()

	env, err := godotenv.Read(filepath.Join(ProjectRoot(t), ".env.test"))
	if err != nil {
		return
	}
	for key, value := range env {
		t.Setenv(key, value)
	}
}

// ConfigForTests returns a config built from the environment after .env.test
// has been applied. DATABASE_URL defaults to a badger store in a temp dir.
func ConfigForTests(t *testing.T) config.Provider {
	t.Helper()

	LoadTestEnv(t)
	if os.Getenv("DATABASE_URL") == "" {
		t.Setenv("DATABASE_URL", "badger://"+t.TempDir())
	}

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("failed to build test config: %v", err)
	}
	logging.New(cfg.GetLogFormat(), "error")
	return cfg
}

// IntegrationURL returns the connection string stored in key, skipping the
// test when running with -short or when the variable is unset.
func IntegrationURL(t *testing.T, key string) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	LoadTestEnv(t)
	url := os.Getenv(key)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", key)
	}
	return url
}
