package models

import (
	"errors"
	"testing"

	"github.com/starford/fieldaudit/internal/apperr"
)

func TestNotesPageCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"0", 1},
		{"-3", 1},
		{"x", 1},
		{" 4 ", 4},
		{"200", MaxNotesPages},
		{"100000000", MaxNotesPages},
	}
	for _, tt := range tests {
		s := Snapshot{Fields: map[string]string{"notes_page_count_hvac": tt.raw}}
		if got := s.NotesPageCount("hvac"); got != tt.want {
			t.Errorf("NotesPageCount(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		malformed bool
	}{
		{"envelope", `{"id":"k","data":{"fields":{"facility_name":"Acme"}}}`, false},
		{"bare snapshot", `{"fields":{"facility_name":"Acme"}}`, false},
		{"not json", `{`, true},
		{"no fields", `{"id":"k","data":{}}`, true},
		{"sane counter", `{"fields":{"notes_page_count_hvac":"12"}}`, false},
		{"runaway counter", `{"fields":{"notes_page_count_hvac":"100000000"}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord([]byte(tt.text))
			if got := errors.Is(err, apperr.ErrMalformed); got != tt.malformed {
				t.Errorf("DecodeRecord err = %v, malformed = %v", err, tt.malformed)
			}
		})
	}
}
