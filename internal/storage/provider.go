// Package storage persists the single audit form record. A transactional
// record backend is tried first; a string-keyed backend takes over when it
// is unavailable or a write fails.
package storage

import (
	"context"

	"github.com/starford/fieldaudit/internal/models"
)

// RecordBackend stores structured records inside transactions.
type RecordBackend interface {
	Name() string
	// PutRecord upserts rec under rec.ID.
	PutRecord(ctx context.Context, rec models.Record) error
	// GetRecord returns apperr.ErrNotFound when no record exists and
	// apperr.ErrMalformed when the stored data cannot be decoded.
	GetRecord(ctx context.Context, id string) (models.Snapshot, error)
	DeleteRecord(ctx context.Context, id string) error
	Close() error
}

// StringBackend is a simple string-keyed store holding text payloads.
type StringBackend interface {
	Name() string
	SetString(ctx context.Context, key string, value []byte) error
	// GetString returns apperr.ErrNotFound when key is absent.
	GetString(ctx context.Context, key string) ([]byte, error)
	// Remove deletes key; a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

// Verify implementations at compile time.
var (
	_ RecordBackend = (*SQLite)(nil)
	_ StringBackend = (*FS)(nil)
	_ StringBackend = (*Redis)(nil)
)
