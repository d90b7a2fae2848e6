// Package auditservice coordinates the live form, its durable store, the
// autosave scheduler and the report renderer. The HTTP API, the MCP server
// and the CLI all drive the form through it.
package auditservice

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/autosave"
	"github.com/starford/fieldaudit/internal/clock"
	"github.com/starford/fieldaudit/internal/form"
	"github.com/starford/fieldaudit/internal/ink"
	"github.com/starford/fieldaudit/internal/models"
	"github.com/starford/fieldaudit/internal/report"
	"github.com/starford/fieldaudit/internal/sse"
	"github.com/starford/fieldaudit/internal/storage"
)

// DefaultStatusSettle is how long transient statuses stay before "Saved".
const DefaultStatusSettle = 2 * time.Second

// Publisher receives events for connected clients.
type Publisher interface {
	Publish(sse.Event)
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock for debouncing, status settling and timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithQuietPeriod sets the autosave debounce delay.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Service) { s.quiet = d }
}

// WithStatusSettle sets how long transient statuses are shown.
func WithStatusSettle(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.settle = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPublisher sets where status and lifecycle events go.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// Service owns the single live form.
type Service struct {
	store    *storage.Store
	renderer *report.Renderer
	clock    clock.Clock
	quiet    time.Duration
	settle   time.Duration
	logger   *slog.Logger
	events   Publisher

	form  *form.Form
	board *autosave.Board
	sched *autosave.Scheduler

	mu        sync.Mutex
	lastSaved time.Time
	lastOut   storage.Outcome
}

// New creates the service with an empty form. Call Restore to load the
// stored snapshot.
func New(store *storage.Store, renderer *report.Renderer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		renderer: renderer,
		clock:    clock.Real(),
		settle:   DefaultStatusSettle,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.form = form.New(form.WithLogger(s.logger))
	s.board = autosave.NewBoard(s.clock, s.settle, s.publishStatus)
	s.sched = autosave.New(s.persist, s.board,
		autosave.WithClock(s.clock),
		autosave.WithQuietPeriod(s.quiet),
		autosave.WithLogger(s.logger),
	)
	s.form.OnEdit(func(e form.Edit) {
		s.logger.Debug("service: edit", slog.String("kind", e.Kind.String()), slog.String("name", e.Name))
		s.sched.Touch()
	})
	return s
}

func (s *Service) publish(typ string, data any) {
	if s.events != nil {
		s.events.Publish(sse.Event{Type: typ, Data: data})
	}
}

func (s *Service) publishStatus(st autosave.Status) { s.publish(sse.TypeStatus, st) }

// persist is the autosave body: serialize the live form and write it.
func (s *Service) persist(ctx context.Context) error {
	snap := s.form.Serialize()
	snap.SavedAt = s.clock.Now().UTC()
	out, err := s.store.Save(ctx, snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSaved = snap.SavedAt
	s.lastOut = out
	s.mu.Unlock()
	s.logger.Debug("service: saved", slog.String("backend", out.Backend), slog.Bool("fallback", out.Fallback))
	return nil
}

// Restore loads the stored snapshot into the form. It reports false when
// nothing usable was stored. Restoring does not schedule a save.
func (s *Service) Restore(ctx context.Context) bool {
	snap, ok := s.store.Load(ctx)
	if !ok {
		return false
	}
	s.form.Deserialize(snap)
	s.mu.Lock()
	s.lastSaved = snap.SavedAt
	s.mu.Unlock()
	s.board.Flash(autosave.StatusResumed)
	s.publish(sse.TypeFormRestored, map[string]any{
		"savedAt":       snap.SavedAt,
		"lightingRows":  len(snap.Lighting),
		"powerMiscRows": len(snap.PowerMisc),
	})
	s.logger.Info("service: form restored", slog.Int("fields", len(snap.Fields)))
	return true
}

// SetField assigns a form value.
func (s *Service) SetField(_ context.Context, name, value string) error {
	return s.form.SetField(name, value)
}

// AddRow appends a table row and returns its index.
func (s *Service) AddRow(_ context.Context, table string) (int, error) {
	return s.form.AddRow(table)
}

// RemoveRow deletes a table row.
func (s *Service) RemoveRow(_ context.Context, table string, idx int) error {
	return s.form.RemoveRow(table, idx)
}

// AddNotesPage appends a notes page and returns its index.
func (s *Service) AddNotesPage(_ context.Context, section string) (int, error) {
	return s.form.AddNotesPage(section)
}

// SetInk replaces the ink drawn on a notes field. Surfaces wider than
// ink.MaxWidth are downscaled first; a nil image clears the drawing.
func (s *Service) SetInk(_ context.Context, field string, img image.Image) error {
	if img != nil {
		img = ink.Downscale(img, ink.MaxWidth)
	}
	return s.form.SetInk(field, img)
}

// Value returns the current value of a control.
func (s *Service) Value(name string) (string, bool) { return s.form.Value(name) }

// Snapshot returns the live form as a snapshot, stamped with the time of
// the last successful save.
func (s *Service) Snapshot(_ context.Context) models.Snapshot {
	snap := s.form.Serialize()
	s.mu.Lock()
	snap.SavedAt = s.lastSaved
	s.mu.Unlock()
	return snap
}

// Status returns the current save status.
func (s *Service) Status() autosave.Status { return s.board.Current() }

// LastOutcome reports the backend used by the last successful save.
func (s *Service) LastOutcome() storage.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOut
}

// Reset clears the form and the stored snapshot. It is destructive, so the
// caller must pass confirmed=true; otherwise nothing changes.
func (s *Service) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("service: reset: %w", apperr.ErrResetDeclined)
	}
	s.sched.Reset(ctx, func(ctx context.Context) {
		s.form.Reset()
		s.store.Clear(ctx)
	})
	s.mu.Lock()
	s.lastSaved = time.Time{}
	s.mu.Unlock()
	s.publish(sse.TypeFormReset, map[string]any{})
	s.logger.Info("service: form reset")
	return nil
}

// Export is a rendered report ready for download.
type Export struct {
	ID       string
	FileName string
	Data     []byte
	Pages    int
}

// Export renders the live form. The status shows "Preparing PDF…" and then
// "PDF downloaded", or the error text when rendering fails.
func (s *Service) Export(ctx context.Context) (Export, error) {
	s.board.Set(autosave.StatusPreparing, false)
	res, err := s.renderer.Render(ctx, s.Snapshot(ctx))
	if err != nil {
		s.board.Set(err.Error(), false)
		s.logger.Error("service: export failed", slog.Any("error", err))
		return Export{}, err
	}
	exp := Export{ID: uuid.NewString(), FileName: res.FileName, Data: res.Data, Pages: res.Pages}
	s.board.Flash(autosave.StatusDownloaded)
	s.logger.Info("service: report exported",
		slog.String("id", exp.ID),
		slog.String("file", exp.FileName),
		slog.Int("pages", exp.Pages),
		slog.String("size", humanize.Bytes(uint64(len(exp.Data)))),
	)
	return exp, nil
}

// Flush writes a pending edit immediately and waits for running saves.
func (s *Service) Flush(ctx context.Context) error {
	err := s.sched.Flush(ctx)
	s.sched.Wait()
	return err
}

// Close flushes pending work and stops the timers. The store is left open.
func (s *Service) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.sched.Stop()
	s.board.Stop()
	return err
}
