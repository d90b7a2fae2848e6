// Package autosave debounces form edits into store writes and keeps the
// user-visible save status.
package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/clock"
)

// DefaultQuietPeriod is the delay after the last edit before a save runs.
const DefaultQuietPeriod = 600 * time.Millisecond

// State is the scheduler state.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// SaveFunc serializes the live form and persists it.
type SaveFunc func(ctx context.Context) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock driving the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithQuietPeriod sets the debounce delay.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.quiet = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler is a single-timer debouncer. Every Touch re-arms the timer;
// when it expires one save runs and the scheduler returns to Idle whatever
// the outcome. A save already running is not cancelled by later edits.
type Scheduler struct {
	mu     sync.Mutex
	clock  clock.Clock
	quiet  time.Duration
	save   SaveFunc
	board  *Board
	logger *slog.Logger

	state    State
	timer    clock.Timer
	gen      uint64
	inflight sync.WaitGroup
}

// New creates a scheduler that reports progress on board.
func New(save SaveFunc, board *Board, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  clock.Real(),
		quiet:  DefaultQuietPeriod,
		save:   save,
		board:  board,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Touch records a qualifying edit: the status turns to "Saving…" and the
// timer is (re)armed for a full quiet period.
func (s *Scheduler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.state = Pending
	s.timer = s.clock.AfterFunc(s.quiet, func() { s.fire(gen) })
	s.board.Set(StatusSaving, true)
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != Pending {
		s.mu.Unlock()
		return
	}
	s.state = Idle
	s.timer = nil
	s.inflight.Add(1)
	s.mu.Unlock()

	s.run(context.Background(), gen)
}

// run performs one save. The resulting status is published only when no
// newer edit or reset happened meanwhile.
func (s *Scheduler) run(ctx context.Context, gen uint64) error {
	defer s.inflight.Done()
	err := s.save(ctx)
	if err != nil {
		s.logger.Warn("autosave: save failed", slog.Any("error", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return err
	}
	switch {
	case err == nil:
		s.board.Set(StatusSaved, false)
	case errors.Is(err, apperr.ErrStorageFull):
		s.board.Set(StatusStorageFull, false)
	default:
		s.board.Set(StatusSaveFailed, false)
	}
	return err
}

// Flush saves immediately when an edit is pending. It is used on shutdown.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Pending {
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = Idle
	gen := s.gen
	s.inflight.Add(1)
	s.mu.Unlock()

	return s.run(ctx, gen)
}

// Reset bypasses the debounce: any pending save is dropped, clear runs
// immediately and the board shows "Form reset" before settling to "Saved".
func (s *Scheduler) Reset(ctx context.Context, clear func(context.Context)) {
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = Idle
	s.mu.Unlock()

	clear(ctx)

	s.mu.Lock()
	s.board.Flash(StatusReset)
	s.mu.Unlock()
}

// Stop cancels a pending save without running it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = Idle
}

// Wait blocks until saves already running have finished.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}
