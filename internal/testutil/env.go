// Package testutil holds helpers shared by tests that need external
// services.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"testing"
)

// Environment variables naming optional external services for tests.
const (
	EnvRedisURL = "FOLIO_TEST_REDIS_URL"
	EnvDefraURL = "FOLIO_TEST_DEFRA_URL"
)

// RequireEnv returns the value of key or skips the test when it is unset.
func RequireEnv(t *testing.T, key string) string {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s test in short mode", key)
	}
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}

// FreePort returns an unused TCP port on 127.0.0.1.
func FreePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer l.Close()
	return fmt.Sprintf("%d", l.Addr().(*net.TCPAddr).Port)
}

// Logger returns a logger that discards output unless -v is set.
func Logger(t *testing.T) *slog.Logger {
	t.Helper()
	var w io.Writer = io.Discard
	if testing.Verbose() {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
