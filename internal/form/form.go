// Package form holds the live audit form: fixed controls, repeatable table
// rows, per-section notes pages and their ink surfaces. Every edit is
// reported through a single hook so autosave sees user actions and restored
// structure the same way.
package form

import (
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"sync"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/ink"
	"github.com/starford/fieldaudit/internal/models"
	"github.com/starford/fieldaudit/internal/schema"
)

// EditKind classifies a qualifying edit.
type EditKind int

const (
	EditField EditKind = iota
	EditRowAdded
	EditRowRemoved
	EditPageAdded
	EditInk
)

func (k EditKind) String() string {
	switch k {
	case EditField:
		return "field"
	case EditRowAdded:
		return "row_added"
	case EditRowRemoved:
		return "row_removed"
	case EditPageAdded:
		return "page_added"
	case EditInk:
		return "ink"
	default:
		return "edit(" + strconv.Itoa(int(k)) + ")"
	}
}

// Edit describes one change to the live form.
type Edit struct {
	Kind  EditKind
	Name  string // control or table/section ID
	Index int    // row or page index where applicable
}

// Control is a single named input.
type Control struct {
	name    string
	kind    schema.Kind
	options []string
	value   string
}

func newControl(name string, kind schema.Kind, options []string) *Control {
	return &Control{name: name, kind: kind, options: options}
}

func (c *Control) accepts(v string) bool {
	if c.kind != schema.KindChoice || v == "" {
		return true
	}
	for _, o := range c.options {
		if o == v {
			return true
		}
	}
	return false
}

// InkSurface is a freehand drawing layer paired with a notes text field.
// Its hidden control keeps the last persisted non-blank encoding.
type InkSurface struct {
	field  string
	img    *image.NRGBA
	hidden *Control
}

func (s *InkSurface) clear() {
	s.img = nil
	s.hidden.value = ""
}

// Row is one row of a repeatable table; controls follow column order.
type Row struct {
	controls []*Control
}

// Table is a repeatable table. It always holds at least one row.
type Table struct {
	def  schema.Table
	rows []*Row
}

// NotesPage is one appended notes text area with its ink surface.
type NotesPage struct {
	text *Control
	ink  *InkSurface
}

// Notes is the notes area of one section: the extra notes field plus
// append-only pages, counted by a hidden counter control.
type Notes struct {
	section  string
	extra    *Control
	extraInk *InkSurface
	counter  *Control
	pages    []*NotesPage
}

// Option configures a Form.
type Option func(*Form)

// WithLogger sets the logger used for restore diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) { f.logger = l }
}

// Form is the live, mutex-guarded audit form.
type Form struct {
	mu       sync.Mutex
	controls map[string]*Control
	fixed    []*Control
	tables   []*Table
	notes    []*Notes
	inks     map[string]*InkSurface
	pending  []Edit
	hook     func(Edit)
	logger   *slog.Logger
}

// New builds an empty form from the schema: one row per table and one
// notes page per section.
func New(opts ...Option) *Form {
	f := &Form{
		controls: make(map[string]*Control),
		inks:     make(map[string]*InkSurface),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	for _, fd := range schema.Fields() {
		if fd.Kind == schema.KindInk {
			continue
		}
		c := newControl(fd.Name, fd.Kind, fd.Options)
		f.controls[c.name] = c
		f.fixed = append(f.fixed, c)
	}
	for _, td := range schema.Tables() {
		t := &Table{def: td}
		f.tables = append(f.tables, t)
		f.addRow(t)
	}
	for _, s := range schema.Sections() {
		n := &Notes{
			section: s.ID,
			extra:   f.controls[schema.NotesExtraField(s.ID)],
			counter: f.controls[schema.NotesCountField(s.ID)],
		}
		n.extraInk = f.newInk(n.extra.name)
		f.notes = append(f.notes, n)
		f.addPage(n)
	}
	f.pending = nil
	return f
}

// OnEdit installs the edit hook. It is called outside the form lock, once
// per qualifying edit.
func (f *Form) OnEdit(fn func(Edit)) {
	f.mu.Lock()
	f.hook = fn
	f.mu.Unlock()
}

// mutate runs fn under the lock and delivers queued edits afterwards.
func (f *Form) mutate(fn func() error) error {
	f.mu.Lock()
	err := fn()
	edits := f.pending
	f.pending = nil
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		for _, e := range edits {
			hook(e)
		}
	}
	return err
}

func (f *Form) emit(e Edit) { f.pending = append(f.pending, e) }

func (f *Form) newInk(field string) *InkSurface {
	hidden := newControl(schema.InkField(field), schema.KindInk, nil)
	s := &InkSurface{field: field, hidden: hidden}
	f.controls[hidden.name] = hidden
	f.inks[field] = s
	return s
}

func (f *Form) dropInk(field string) {
	if s, ok := f.inks[field]; ok {
		delete(f.controls, s.hidden.name)
		delete(f.inks, field)
	}
}

// addRow is the only way rows are created, for user actions and restore alike.
func (f *Form) addRow(t *Table) *Row {
	idx := len(t.rows)
	r := &Row{controls: make([]*Control, len(t.def.Columns))}
	for i, col := range t.def.Columns {
		c := newControl(schema.RowField(col.Key, idx), schema.KindText, nil)
		f.controls[c.name] = c
		r.controls[i] = c
	}
	t.rows = append(t.rows, r)
	f.emit(Edit{Kind: EditRowAdded, Name: t.def.ID, Index: idx})
	return r
}

func (f *Form) removeRow(t *Table, idx int) error {
	if idx < 0 || idx >= len(t.rows) {
		return fmt.Errorf("form: row %d of %s: %w", idx, t.def.ID, apperr.ErrNotFound)
	}
	if len(t.rows) == 1 {
		return fmt.Errorf("form: %s: %w", t.def.ID, apperr.ErrLastRow)
	}
	for _, c := range t.rows[idx].controls {
		delete(f.controls, c.name)
	}
	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	for i := idx; i < len(t.rows); i++ {
		for ci, c := range t.rows[i].controls {
			delete(f.controls, c.name)
			c.name = schema.RowField(t.def.Columns[ci].Key, i)
			f.controls[c.name] = c
		}
	}
	f.emit(Edit{Kind: EditRowRemoved, Name: t.def.ID, Index: idx})
	return nil
}

// truncateRows drops every row but the first and blanks it.
func (f *Form) truncateRows(t *Table) {
	for _, r := range t.rows[1:] {
		for _, c := range r.controls {
			delete(f.controls, c.name)
		}
	}
	t.rows = t.rows[:1]
	for _, c := range t.rows[0].controls {
		c.value = ""
	}
}

// addPage is the only way notes pages are created.
func (f *Form) addPage(n *Notes) *NotesPage {
	idx := len(n.pages)
	text := newControl(schema.NotesPageField(n.section, idx), schema.KindNotes, nil)
	f.controls[text.name] = text
	p := &NotesPage{text: text, ink: f.newInk(text.name)}
	n.pages = append(n.pages, p)
	n.counter.value = strconv.Itoa(len(n.pages))
	f.emit(Edit{Kind: EditPageAdded, Name: n.section, Index: idx})
	return p
}

func (f *Form) truncatePages(n *Notes) {
	for _, p := range n.pages[1:] {
		delete(f.controls, p.text.name)
		f.dropInk(p.text.name)
	}
	n.pages = n.pages[:1]
	n.pages[0].text.value = ""
	n.pages[0].ink.clear()
	n.counter.value = "1"
}

func (f *Form) table(id string) (*Table, error) {
	for _, t := range f.tables {
		if t.def.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("form: table %q: %w", id, apperr.ErrUnknownTable)
}

func (f *Form) section(id string) (*Notes, error) {
	for _, n := range f.notes {
		if n.section == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("form: section %q: %w", id, apperr.ErrUnknownSection)
}

// SetField assigns a value to any editable control: fixed fields, table row
// cells and notes text. Counters and ink companions are read-only; choice
// groups accept one of their options or "" to clear the selection.
func (f *Form) SetField(name, value string) error {
	return f.mutate(func() error {
		c, ok := f.controls[name]
		if !ok {
			return fmt.Errorf("form: %q: %w", name, apperr.ErrUnknownField)
		}
		if c.kind == schema.KindCounter || c.kind == schema.KindInk {
			return fmt.Errorf("form: %q: %w", name, apperr.ErrReadOnlyField)
		}
		if !c.accepts(value) {
			return fmt.Errorf("form: %q: %q not in %v: %w", name, value, c.options, apperr.ErrInvalidValue)
		}
		c.value = value
		f.emit(Edit{Kind: EditField, Name: name})
		return nil
	})
}

// AddRow appends a row to a repeatable table and returns its index.
func (f *Form) AddRow(table string) (int, error) {
	idx := -1
	err := f.mutate(func() error {
		t, err := f.table(table)
		if err != nil {
			return err
		}
		f.addRow(t)
		idx = len(t.rows) - 1
		return nil
	})
	return idx, err
}

// RemoveRow deletes a row. The last remaining row cannot be removed; rows
// after idx shift up and are renamed to their new positions.
func (f *Form) RemoveRow(table string, idx int) error {
	return f.mutate(func() error {
		t, err := f.table(table)
		if err != nil {
			return err
		}
		return f.removeRow(t, idx)
	})
}

// AddNotesPage appends a notes page to a section and returns its index. A
// section holds at most models.MaxNotesPages pages.
func (f *Form) AddNotesPage(section string) (int, error) {
	idx := -1
	err := f.mutate(func() error {
		n, err := f.section(section)
		if err != nil {
			return err
		}
		if len(n.pages) >= models.MaxNotesPages {
			return fmt.Errorf("form: %s already has %d notes pages: %w", section, len(n.pages), apperr.ErrInvalidValue)
		}
		f.addPage(n)
		idx = len(n.pages) - 1
		return nil
	})
	return idx, err
}

// SetInk replaces the ink surface paired with a notes field; this is the
// completion of a stroke. A blank image keeps the last persisted encoding
// until real ink is drawn. A nil image is an explicit clear and drops the
// persisted encoding as well.
func (f *Form) SetInk(field string, img image.Image) error {
	return f.mutate(func() error {
		s, ok := f.inks[field]
		if !ok {
			return fmt.Errorf("form: ink %q: %w", field, apperr.ErrUnknownField)
		}
		if img == nil {
			s.clear()
		} else {
			s.img = ink.Clone(img)
		}
		f.emit(Edit{Kind: EditInk, Name: field})
		return nil
	})
}

// Reset returns the form to its empty state: blank values, no selection,
// one row per table, one notes page per section and no ink. It emits no
// edits.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.fixed {
		c.value = ""
	}
	for _, t := range f.tables {
		f.truncateRows(t)
	}
	for _, n := range f.notes {
		n.extraInk.clear()
		f.truncatePages(n)
	}
	f.pending = nil
}

// Value returns the current value of a control.
func (f *Form) Value(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.controls[name]
	if !ok {
		return "", false
	}
	return c.value, true
}

// RowCount returns the number of rows in a table.
func (f *Form) RowCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.table(table)
	if err != nil {
		return 0
	}
	return len(t.rows)
}

// NotesPageCount returns the number of notes pages of a section.
func (f *Form) NotesPageCount(section string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.section(section)
	if err != nil {
		return 0
	}
	return len(n.pages)
}

// Ink returns a copy of the raster on the surface paired with field.
func (f *Form) Ink(field string) (image.Image, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.inks[field]
	if !ok || s.img == nil {
		return nil, false
	}
	return ink.Clone(s.img), true
}
