// Package testutil provides shared test helpers for setting up a store and
// an audit service on temporary files.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/fieldaudit/internal/auditservice"
	"github.com/starford/fieldaudit/internal/clock"
	"github.com/starford/fieldaudit/internal/report"
	"github.com/starford/fieldaudit/internal/storage"
)

// Key is the record key used by test stores.
const Key = "itac-energy-audit-form-v1"

// Epoch is the fake clock start: 2026-03-01 09:00 UTC.
var Epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Discard is a logger that drops everything.
var Discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// TestStore creates a store over a temporary SQLite database with a file
// fallback. Both are removed when the test ends.
func TestStore(t *testing.T) *storage.Store {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(filepath.Join(dir, "fallback"), 0)
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewStore(Key, storage.SQLiteOpener(filepath.Join(dir, "audit.db")), fs, storage.WithLogger(Discard))
	t.Cleanup(func() { store.Close() })
	return store
}

// TestService creates an audit service on TestStore driven by a fake clock.
// Pending edits are flushed when the test ends.
func TestService(t *testing.T, opts ...auditservice.Option) (*auditservice.Service, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(Epoch)
	renderer := report.New(report.Options{Logger: Discard, Now: clk.Now})
	opts = append([]auditservice.Option{
		auditservice.WithClock(clk),
		auditservice.WithLogger(Discard),
	}, opts...)
	svc := auditservice.New(TestStore(t), renderer, opts...)
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc, clk
}
