// Package models defines the domain types shared across fieldaudit.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/fieldaudit/internal/apperr"
)

// Snapshot is the complete serializable state of the audit form at one instant.
type Snapshot struct {
	Fields        map[string]string   `json:"fields"`
	LightingRows  int                 `json:"lightingRows"`
	PowerMiscRows int                 `json:"powerMiscRows"`
	Lighting      []map[string]string `json:"lighting"`
	PowerMisc     []map[string]string `json:"powerMisc"`
	SavedAt       time.Time           `json:"savedAt,omitzero"`
}

// Record is the persisted envelope: one snapshot under a fixed logical key.
type Record struct {
	ID   string   `json:"id"`
	Data Snapshot `json:"data"`
}

// Field returns the trimmed value of a field, "" when unset.
func (s Snapshot) Field(name string) string {
	return strings.TrimSpace(s.Fields[name])
}

// MaxNotesPages is the most notes pages a section may hold.
const MaxNotesPages = 200

const notesCountPrefix = "notes_page_count_"

// NotesPageCount reads the per-section notes page counter. It is never below
// 1 and never above MaxNotesPages.
func (s Snapshot) NotesPageCount(section string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.Fields[notesCountPrefix+section]))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, MaxNotesPages)
}

// checkCounters rejects notes page counters above MaxNotesPages.
func (s Snapshot) checkCounters() error {
	for name, v := range s.Fields {
		if !strings.HasPrefix(name, notesCountPrefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > MaxNotesPages {
			return fmt.Errorf("%w: %s = %d exceeds %d", apperr.ErrMalformed, name, n, MaxNotesPages)
		}
	}
	return nil
}

// Rows returns the rows of a repeatable table by its schema ID.
func (s Snapshot) Rows(table string) []map[string]string {
	switch table {
	case "lighting":
		return s.Lighting
	case "power_misc":
		return s.PowerMisc
	default:
		return nil
	}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	out.Lighting = cloneRows(s.Lighting)
	out.PowerMisc = cloneRows(s.PowerMisc)
	return out
}

func cloneRows(rows []map[string]string) []map[string]string {
	if rows == nil {
		return nil
	}
	out := make([]map[string]string, len(rows))
	for i, r := range rows {
		m := make(map[string]string, len(r))
		for k, v := range r {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

// DecodeRecord parses stored text. Both the {id, data} envelope and a bare
// snapshot are accepted. Anything else is apperr.ErrMalformed.
func DecodeRecord(b []byte) (Snapshot, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	raw := b
	if data, ok := probe["data"]; ok {
		raw = data
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	if s.Fields == nil {
		return Snapshot{}, fmt.Errorf("%w: no fields", apperr.ErrMalformed)
	}
	if err := s.checkCounters(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// EncodeRecord renders the transport (text) form of a record.
func EncodeRecord(id string, s Snapshot) ([]byte, error) {
	return json.Marshal(Record{ID: id, Data: s})
}
