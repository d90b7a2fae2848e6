package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/models"
)

// Opener opens the primary record backend. It is called at most once per Store.
type Opener func(ctx context.Context) (RecordBackend, error)

// SQLiteOpener returns an Opener for the SQLite database at path.
func SQLiteOpener(path string) Opener {
	return func(ctx context.Context) (RecordBackend, error) {
		return OpenSQLite(ctx, path)
	}
}

// Outcome reports which backend accepted a save.
type Outcome struct {
	Backend  string `json:"backend"`
	Fallback bool   `json:"fallback"`
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store is the durable store adapter for the single form record.
type Store struct {
	key       string
	open      Opener
	secondary StringBackend
	logger    *slog.Logger

	probeOnce sync.Once
	primary   RecordBackend
}

// NewStore creates a store for the record key. open may be nil to run on the
// secondary backend only; secondary may be nil when no fallback exists.
func NewStore(key string, open Opener, secondary StringBackend, opts ...StoreOption) *Store {
	s := &Store{key: key, open: open, secondary: secondary, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Key returns the logical record identifier.
func (s *Store) Key() string { return s.key }

// probe opens the primary backend on first use. A failed open is not
// retried: the store stays on the secondary backend for its lifetime.
func (s *Store) probe(ctx context.Context) RecordBackend {
	s.probeOnce.Do(func() {
		if s.open == nil {
			s.logger.Info("store: primary backend disabled")
			return
		}
		p, err := s.open(ctx)
		if err != nil {
			s.logger.Warn("store: primary backend unavailable, using fallback", slog.Any("error", err))
			return
		}
		s.primary = p
		s.logger.Info("store: primary backend ready", slog.String("backend", p.Name()))
	})
	return s.primary
}

// Save writes the snapshot. A primary failure falls back to the secondary
// backend for this call only; a secondary failure is reported wrapped in
// apperr.ErrStorageFull.
func (s *Store) Save(ctx context.Context, snap models.Snapshot) (Outcome, error) {
	if p := s.probe(ctx); p != nil {
		err := p.PutRecord(ctx, models.Record{ID: s.key, Data: snap})
		if err == nil {
			return Outcome{Backend: p.Name()}, nil
		}
		s.logger.Warn("store: primary write failed, falling back", slog.Any("error", err))
	}
	if s.secondary == nil {
		return Outcome{Fallback: true}, fmt.Errorf("store: no fallback backend: %w", apperr.ErrStorageFull)
	}
	text, err := models.EncodeRecord(s.key, snap)
	if err != nil {
		return Outcome{}, fmt.Errorf("store: encode: %w", err)
	}
	out := Outcome{Backend: s.secondary.Name(), Fallback: true}
	if err := s.secondary.SetString(ctx, s.key, text); err != nil {
		return out, fmt.Errorf("store: %w: %w", apperr.ErrStorageFull, err)
	}
	return out, nil
}

// Load returns the stored snapshot. The primary backend is read first; the
// secondary is consulted when it has no usable record. Failures and
// malformed data degrade to "absent".
func (s *Store) Load(ctx context.Context) (models.Snapshot, bool) {
	if p := s.probe(ctx); p != nil {
		snap, err := p.GetRecord(ctx, s.key)
		switch {
		case err == nil:
			return snap, true
		case errors.Is(err, apperr.ErrNotFound):
		case errors.Is(err, apperr.ErrMalformed):
			s.logger.Warn("store: primary record malformed", slog.Any("error", err))
		default:
			s.logger.Warn("store: primary read failed", slog.Any("error", err))
		}
	}
	if s.secondary == nil {
		return models.Snapshot{}, false
	}
	text, err := s.secondary.GetString(ctx, s.key)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("store: fallback read failed", slog.Any("error", err))
		}
		return models.Snapshot{}, false
	}
	snap, err := models.DecodeRecord(text)
	if err != nil {
		s.logger.Warn("store: fallback record malformed", slog.Any("error", err))
		return models.Snapshot{}, false
	}
	return snap, true
}

// Clear deletes the record from every backend. Failures are logged and
// otherwise ignored.
func (s *Store) Clear(ctx context.Context) {
	if p := s.probe(ctx); p != nil {
		if err := p.DeleteRecord(ctx, s.key); err != nil {
			s.logger.Warn("store: primary clear failed", slog.Any("error", err))
		}
	}
	if s.secondary != nil {
		if err := s.secondary.Remove(ctx, s.key); err != nil {
			s.logger.Warn("store: fallback clear failed", slog.Any("error", err))
		}
	}
}

// Close releases both backends.
func (s *Store) Close() error {
	var errs []error
	if s.primary != nil {
		errs = append(errs, s.primary.Close())
	}
	if s.secondary != nil {
		errs = append(errs, s.secondary.Close())
	}
	return errors.Join(errs...)
}
