package form

import (
	"log/slog"
	"strconv"

	"github.com/starford/fieldaudit/internal/ink"
	"github.com/starford/fieldaudit/internal/models"
	"github.com/starford/fieldaudit/internal/schema"
)

// Serialize projects the live form into a fresh Snapshot. Non-blank ink
// surfaces are first flushed into their hidden companions; blank surfaces
// leave the previously persisted encoding in place.
func (f *Form) Serialize() models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.flushInk()

	s := models.Snapshot{Fields: make(map[string]string)}
	put := func(c *Control) {
		if c.kind == schema.KindChoice && c.value == "" {
			return
		}
		s.Fields[c.name] = c.value
	}
	for _, c := range f.fixed {
		put(c)
	}
	for _, n := range f.notes {
		put(n.extraInk.hidden)
		for _, p := range n.pages {
			put(p.text)
			put(p.ink.hidden)
		}
	}
	for _, t := range f.tables {
		rows := make([]map[string]string, len(t.rows))
		for i, r := range t.rows {
			rec := make(map[string]string, len(r.controls))
			for _, c := range r.controls {
				rec[c.name] = c.value
			}
			rows[i] = rec
		}
		switch t.def.ID {
		case schema.TableLighting:
			s.Lighting, s.LightingRows = rows, len(rows)
		case schema.TablePowerMisc:
			s.PowerMisc, s.PowerMiscRows = rows, len(rows)
		}
	}
	return s
}

func (f *Form) flushInk() {
	for _, s := range f.inks {
		if s.img == nil || !ink.HasContent(s.img) {
			continue
		}
		uri, err := ink.EncodeDataURI(s.img)
		if err != nil {
			f.logger.Warn("form: ink encode failed", slog.String("field", s.field), slog.Any("error", err))
			continue
		}
		s.hidden.value = uri
	}
}

// Deserialize writes a snapshot into the live form. Tables are reset to one
// row and replayed through the same row factory user actions use; notes
// pages are created up to each section's counter; stored ink is drawn onto
// its surface. Restoring does not count as an edit.
func (f *Form) Deserialize(s models.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tables {
		f.truncateRows(t)
		for i, rec := range s.Rows(t.def.ID) {
			r := t.rows[0]
			if i > 0 {
				r = f.addRow(t)
			}
			f.fillRow(t, r, rec)
		}
	}

	for _, n := range f.notes {
		for len(n.pages) < s.NotesPageCount(n.section) {
			f.addPage(n)
		}
	}

	for name, v := range s.Fields {
		c, ok := f.controls[name]
		if !ok {
			f.logger.Debug("form: restore skipped unknown field", slog.String("field", name))
			continue
		}
		if c.kind == schema.KindCounter || !c.accepts(v) {
			continue
		}
		c.value = v
	}
	for _, n := range f.notes {
		n.counter.value = strconv.Itoa(len(n.pages))
	}

	for _, sf := range f.inks {
		sf.img = nil
		if sf.hidden.value == "" {
			continue
		}
		img, err := ink.DecodeDataURI(sf.hidden.value)
		if err != nil {
			f.logger.Warn("form: stored ink undecodable", slog.String("field", sf.field), slog.Any("error", err))
			continue
		}
		sf.img = ink.Clone(img)
	}

	f.pending = nil
}

// fillRow writes a row record into r, matching keys to columns by their
// base name so records saved under a different row index still land.
func (f *Form) fillRow(t *Table, r *Row, rec map[string]string) {
	for key, v := range rec {
		base, _, ok := schema.SplitIndex(key)
		if !ok {
			base = key
		}
		for ci, col := range t.def.Columns {
			if col.Key == base {
				r.controls[ci].value = v
				break
			}
		}
	}
}

// DecodeSnapshot parses the transport form of a stored record. Malformed
// input is logged and reported as absent.
func DecodeSnapshot(text []byte, logger *slog.Logger) (models.Snapshot, bool) {
	s, err := models.DecodeRecord(text)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("form: malformed snapshot ignored", slog.Any("error", err))
		return models.Snapshot{}, false
	}
	return s, true
}

// RestoreText decodes text and, when it is well-formed, deserializes it
// into the form. A malformed payload leaves the form untouched.
func (f *Form) RestoreText(text []byte) bool {
	s, ok := DecodeSnapshot(text, f.logger)
	if !ok {
		return false
	}
	f.Deserialize(s)
	return true
}
