package autosave

import (
	"sync"
	"time"

	"github.com/starford/fieldaudit/internal/clock"
)

// Status texts shown to the user.
const (
	StatusSaving      = "Saving…"
	StatusSaved       = "Saved"
	StatusStorageFull = "Storage full"
	StatusSaveFailed  = "Save failed"
	StatusResumed     = "Resumed"
	StatusReset       = "Form reset"
	StatusPreparing   = "Preparing PDF…"
	StatusDownloaded  = "PDF downloaded"
)

// Status is the user-visible save status.
type Status struct {
	Text   string    `json:"text"`
	Saving bool      `json:"saving"`
	At     time.Time `json:"at"`
}

// Board holds the current status. Transient messages shown with Flash
// settle back to "Saved" after the settle delay unless something newer
// replaced them first.
type Board struct {
	mu     sync.Mutex
	clock  clock.Clock
	settle time.Duration
	cur    Status
	seq    uint64
	timer  clock.Timer
	notify func(Status)
}

// NewBoard creates a board showing "Saved". notify, when non-nil, receives
// every change; it is called with the board lock held and must not call
// back into the board.
func NewBoard(c clock.Clock, settle time.Duration, notify func(Status)) *Board {
	return &Board{
		clock:  c,
		settle: settle,
		cur:    Status{Text: StatusSaved, At: c.Now()},
		notify: notify,
	}
}

// Set replaces the status and cancels any pending settle.
func (b *Board) Set(text string, saving bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setLocked(text, saving)
}

// Flash shows text and arranges for the board to return to "Saved".
func (b *Board) Flash(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setLocked(text, false)
	seq := b.seq
	b.timer = b.clock.AfterFunc(b.settle, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.seq == seq {
			b.setLocked(StatusSaved, false)
		}
	})
}

// Current returns the status being shown.
func (b *Board) Current() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur
}

// Stop cancels a pending settle.
func (b *Board) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Board) setLocked(text string, saving bool) {
	b.seq++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.cur = Status{Text: text, Saving: saving, At: b.clock.Now()}
	if b.notify != nil {
		b.notify(b.cur)
	}
}
