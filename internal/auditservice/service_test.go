package auditservice

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/autosave"
	"github.com/starford/fieldaudit/internal/clock"
	"github.com/starford/fieldaudit/internal/ink"
	"github.com/starford/fieldaudit/internal/models"
	"github.com/starford/fieldaudit/internal/report"
	"github.com/starford/fieldaudit/internal/sse"
	"github.com/starford/fieldaudit/internal/storage"
)

const key = "itac-energy-audit-form-v1"

var (
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
	epoch   = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

// countingRecords counts primary writes.
type countingRecords struct {
	storage.RecordBackend
	puts atomic.Int32
}

func (c *countingRecords) PutRecord(ctx context.Context, rec models.Record) error {
	c.puts.Add(1)
	return c.RecordBackend.PutRecord(ctx, rec)
}

type recorder struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recorder) Publish(e sse.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	dir     string
	clk     *clock.Fake
	records *countingRecords
	store   *storage.Store
	events  *recorder
	svc     *Service
}

func newEnv(t *testing.T, dir string) *env {
	t.Helper()
	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, filepath.Join(dir, "audit.db"))
	require.NoError(t, err)
	fs, err := storage.NewFS(filepath.Join(dir, "fallback"), 0)
	require.NoError(t, err)

	e := &env{dir: dir, clk: clock.NewFake(epoch), records: &countingRecords{RecordBackend: db}, events: &recorder{}}
	e.store = storage.NewStore(key, func(context.Context) (storage.RecordBackend, error) { return e.records, nil }, fs, storage.WithLogger(discard))
	t.Cleanup(func() { _ = e.store.Close() })

	renderer := report.New(report.Options{Logger: discard, Now: e.clk.Now})
	e.svc = New(e.store, renderer,
		WithClock(e.clk),
		WithLogger(discard),
		WithPublisher(e.events),
	)
	t.Cleanup(func() { _ = e.svc.Close(context.Background()) })
	return e
}

func TestAcmePlantSavedOnceAndRestored(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := newEnv(t, dir)

	require.NoError(t, e.svc.SetField(ctx, "facility_name", "Acme Plant"))
	for i := 0; i < 2; i++ {
		idx, err := e.svc.AddRow(ctx, "lighting")
		require.NoError(t, err)
		require.NoError(t, e.svc.SetField(ctx, "lighting_location_"+string(rune('0'+idx)), "Bay "+string(rune('A'+idx))))
		e.clk.Advance(200 * time.Millisecond)
	}
	assert.Equal(t, autosave.StatusSaving, e.svc.Status().Text)
	assert.True(t, e.svc.Status().Saving)
	assert.Zero(t, e.records.puts.Load())

	e.clk.Advance(600 * time.Millisecond)
	assert.EqualValues(t, 1, e.records.puts.Load())
	assert.Equal(t, autosave.StatusSaved, e.svc.Status().Text)
	assert.Equal(t, "sqlite", e.svc.LastOutcome().Backend)

	e.clk.Advance(10 * time.Second)
	assert.EqualValues(t, 1, e.records.puts.Load(), "no further saves without edits")

	// A fresh service on the same store resumes the form.
	e2 := newEnv(t, dir)
	require.True(t, e2.svc.Restore(ctx))
	assert.Equal(t, autosave.StatusResumed, e2.svc.Status().Text)
	snap := e2.svc.Snapshot(ctx)
	assert.Equal(t, "Acme Plant", snap.Fields["facility_name"])
	assert.Len(t, snap.Lighting, 3)
	assert.Equal(t, "Bay C", snap.Lighting[2]["lighting_location_2"])
	assert.True(t, epoch.Add(1000*time.Millisecond).Equal(snap.SavedAt), "savedAt = %v", snap.SavedAt)
	assert.Contains(t, e2.events.types(), sse.TypeFormRestored)

	e2.clk.Advance(2 * time.Second)
	assert.Equal(t, autosave.StatusSaved, e2.svc.Status().Text)
	assert.Zero(t, e2.records.puts.Load(), "restore does not save")
}

func TestRestoreNothingStored(t *testing.T) {
	e := newEnv(t, t.TempDir())
	assert.False(t, e.svc.Restore(context.Background()))
	assert.Equal(t, autosave.StatusSaved, e.svc.Status().Text)
}

func TestErrorsDoNotTouchScheduler(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, t.TempDir())

	assert.ErrorIs(t, e.svc.SetField(ctx, "nope", "x"), apperr.ErrUnknownField)
	assert.ErrorIs(t, e.svc.SetField(ctx, "notes_page_count_hvac", "4"), apperr.ErrReadOnlyField)
	_, err := e.svc.AddRow(ctx, "chairs")
	assert.ErrorIs(t, err, apperr.ErrUnknownTable)
	assert.ErrorIs(t, e.svc.RemoveRow(ctx, "lighting", 0), apperr.ErrLastRow)
	_, err = e.svc.AddNotesPage(ctx, "kitchen")
	assert.ErrorIs(t, err, apperr.ErrUnknownSection)

	assert.Equal(t, autosave.StatusSaved, e.svc.Status().Text)
	e.clk.Advance(time.Second)
	assert.Zero(t, e.records.puts.Load())
}

func TestResetRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := newEnv(t, dir)

	require.NoError(t, e.svc.SetField(ctx, "facility_name", "Acme Plant"))
	e.clk.Advance(600 * time.Millisecond)
	require.EqualValues(t, 1, e.records.puts.Load())

	require.ErrorIs(t, e.svc.Reset(ctx, false), apperr.ErrResetDeclined)
	v, _ := e.svc.Value("facility_name")
	assert.Equal(t, "Acme Plant", v)

	_, err := e.svc.AddRow(ctx, "lighting")
	require.NoError(t, err)
	require.NoError(t, e.svc.Reset(ctx, true))
	assert.Equal(t, autosave.StatusReset, e.svc.Status().Text)
	v, _ = e.svc.Value("facility_name")
	assert.Empty(t, v)

	e.clk.Advance(2 * time.Second)
	assert.Equal(t, autosave.StatusSaved, e.svc.Status().Text)
	assert.EqualValues(t, 1, e.records.puts.Load(), "pending edit dropped by reset")
	assert.Contains(t, e.events.types(), sse.TypeFormReset)

	_, ok := e.store.Load(ctx)
	assert.False(t, ok, "stored snapshot cleared")
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, t.TempDir())
	require.NoError(t, e.svc.SetField(ctx, "facility_name", "Acme Plant"))

	exp, err := e.svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ITAC-Energy-Audit-Acme-Plant-2026-03-01.pdf", exp.FileName)
	assert.Len(t, exp.ID, 36)
	assert.True(t, strings.HasPrefix(string(exp.Data), "%PDF-"))
	assert.Equal(t, autosave.StatusDownloaded, e.svc.Status().Text)

	var texts []string
	for _, ev := range e.events.events {
		if st, ok := ev.Data.(autosave.Status); ok {
			texts = append(texts, st.Text)
		}
	}
	assert.Contains(t, texts, autosave.StatusPreparing)
}

func TestExportFailureShowsError(t *testing.T) {
	e := newEnv(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.svc.Export(ctx)
	require.ErrorIs(t, err, apperr.ErrReportUnavailable)
	st := e.svc.Status()
	assert.Equal(t, err.Error(), st.Text)

	e.clk.Advance(5 * time.Second)
	assert.Equal(t, err.Error(), e.svc.Status().Text, "export errors do not settle")
}

func TestInkPersistsThroughSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := newEnv(t, dir)

	img := image.NewNRGBA(image.Rect(0, 0, 120, 60))
	for x := 0; x < 120; x++ {
		for y := 20; y < 30; y++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	require.NoError(t, e.svc.SetInk(ctx, "notes_page_hvac_0", img))
	e.clk.Advance(600 * time.Millisecond)

	e2 := newEnv(t, dir)
	require.True(t, e2.svc.Restore(ctx))
	uri := e2.svc.Snapshot(ctx).Fields["notes_page_hvac_0_ink"]
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	got, err := ink.DecodeDataURI(uri)
	require.NoError(t, err)
	assert.True(t, ink.HasContent(got))
}

func TestWideInkIsDownscaled(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, t.TempDir())

	img := image.NewNRGBA(image.Rect(0, 0, 2*ink.MaxWidth, 100))
	for x := 0; x < img.Bounds().Dx(); x++ {
		for y := 40; y < 60; y++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	require.NoError(t, e.svc.SetInk(ctx, "notes_extra_boiler", img))

	got, err := ink.DecodeDataURI(e.svc.Snapshot(ctx).Fields["notes_extra_boiler_ink"])
	require.NoError(t, err)
	assert.Equal(t, ink.MaxWidth, got.Bounds().Dx())
	assert.Equal(t, 50, got.Bounds().Dy())
	assert.True(t, ink.HasContent(got))
}

func TestFlushSavesPendingEdit(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, t.TempDir())
	require.NoError(t, e.svc.SetField(ctx, "gen_has_backup", "Y"))
	require.NoError(t, e.svc.Flush(ctx))
	assert.EqualValues(t, 1, e.records.puts.Load())
	require.NoError(t, e.svc.Flush(ctx))
	assert.EqualValues(t, 1, e.records.puts.Load(), "nothing pending")
}

func TestStorageFullStatus(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir, 64)
	require.NoError(t, err)
	store := storage.NewStore(key, nil, fs, storage.WithLogger(discard))
	clk := clock.NewFake(epoch)
	svc := New(store, report.New(report.Options{Logger: discard}), WithClock(clk), WithLogger(discard))
	defer svc.Close(ctx)

	require.NoError(t, svc.SetField(ctx, "facility_name", "Acme Plant"))
	clk.Advance(600 * time.Millisecond)
	assert.Equal(t, autosave.StatusStorageFull, svc.Status().Text)
	assert.NoError(t, svc.Flush(ctx), "nothing pending after the failed save")
}
