// Package schema is the fixed layout of the energy audit form: its ten
// sections, their fields, unit grids, checklists and repeatable tables, plus
// the naming rules for notes pages and ink companions.
package schema

import (
	"fmt"
	"strconv"
)

// Kind classifies a form control.
type Kind int

const (
	KindText    Kind = iota // free text (including numeric-looking values)
	KindChoice              // mutually-exclusive option group
	KindNotes               // notes text area, paired with an ink surface
	KindCounter             // hidden notes page counter
	KindInk                 // hidden encoded ink raster
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindChoice:
		return "choice"
	case KindNotes:
		return "notes"
	case KindCounter:
		return "counter"
	case KindInk:
		return "ink"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// YesNo are the options of every Y/N choice group.
var YesNo = []string{"Y", "N"}

// Field describes one fixed control.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Section string   `json:"section"`
	Options []string `json:"options,omitempty"`
}

// Column is one column of a repeatable table.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// Table is a repeatable table whose rows are appended by the user.
type Table struct {
	ID      string   `json:"id"`
	Section string   `json:"section"`
	Columns []Column `json:"columns"`
}

// Block is one piece of a section's report layout.
type Block interface{ block() }

// FieldList renders "label: value" lines.
type FieldList struct{ Fields []string }

// LabeledLine renders a single field under a custom label.
type LabeledLine struct{ Label, Field string }

// SubTitle renders a sub heading.
type SubTitle struct{ Text string }

// GridRow is one parameter row of a unit grid.
type GridRow struct {
	Label  string
	Fields []string
}

// Grid is a parameter × unit matrix of fixed fields.
type Grid struct {
	Headers []string
	Rows    []GridRow
}

// CheckItem is a Y/N question with a free-text companion named Field+"_note".
type CheckItem struct{ Field, Label string }

// Checklist renders Y/N questions with their notes.
type Checklist struct{ Items []CheckItem }

// RepeatTable renders a repeatable table.
type RepeatTable struct{ Table string }

// SingleRowTable renders fixed fields as one table row.
type SingleRowTable struct {
	Headers []string
	Fields  []string
}

func (FieldList) block()      {}
func (LabeledLine) block()    {}
func (SubTitle) block()       {}
func (Grid) block()           {}
func (Checklist) block()      {}
func (RepeatTable) block()    {}
func (SingleRowTable) block() {}

// Section is one topical grouping of the form.
type Section struct {
	ID       string
	Title    string
	Prefixes []string
	Blocks   []Block
}

// Table IDs.
const (
	TableLighting  = "lighting"
	TablePowerMisc = "power_misc"
)

// NotesExtraField is the free-form notes area of a section.
func NotesExtraField(section string) string { return "notes_extra_" + section }

// NotesCountField is the hidden counter holding how many notes pages exist.
func NotesCountField(section string) string { return "notes_page_count_" + section }

// NotesPageField is the text area of notes page i (0-based).
func NotesPageField(section string, i int) string {
	return fmt.Sprintf("notes_page_%s_%d", section, i)
}

// InkField is the hidden companion holding the encoded ink of a notes field.
func InkField(notesField string) string { return notesField + "_ink" }

// Sections returns the form's sections in display order.
func Sections() []Section { return sections }

// SectionByID looks up a section.
func SectionByID(id string) (Section, bool) {
	for _, s := range sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Tables returns the repeatable tables.
func Tables() []Table { return tables }

// TableByID looks up a repeatable table.
func TableByID(id string) (Table, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return Table{}, false
}

// Fields returns every fixed control in form order, including the per
// section notes area, notes counter and ink companion of the notes area.
// Notes pages and table rows are dynamic and not listed.
func Fields() []Field { return fields }

// Lookup returns the fixed field with the given name.
func Lookup(name string) (Field, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

var (
	fields     []Field
	fieldIndex map[string]Field
)

func init() {
	fieldIndex = make(map[string]Field)
	add := func(f Field) {
		if _, dup := fieldIndex[f.Name]; dup {
			return
		}
		if f.Label == "" {
			f.Label = Label(f.Name)
		}
		fields = append(fields, f)
		fieldIndex[f.Name] = f
	}
	for _, s := range sections {
		for _, b := range s.Blocks {
			switch b := b.(type) {
			case FieldList:
				for _, n := range b.Fields {
					add(Field{Name: n, Kind: KindText, Section: s.ID})
				}
			case LabeledLine:
				add(Field{Name: b.Field, Kind: kindOf(b.Field), Section: s.ID, Options: optionsOf(b.Field)})
			case Grid:
				for _, r := range b.Rows {
					for _, n := range r.Fields {
						add(Field{Name: n, Label: r.Label, Kind: KindText, Section: s.ID})
					}
				}
			case Checklist:
				for _, it := range b.Items {
					add(Field{Name: it.Field, Label: it.Label, Kind: KindChoice, Section: s.ID, Options: YesNo})
					add(Field{Name: it.Field + "_note", Label: it.Label + " (note)", Kind: KindText, Section: s.ID})
				}
			case SingleRowTable:
				for _, n := range b.Fields {
					add(Field{Name: n, Kind: KindText, Section: s.ID})
				}
			}
		}
		extra := NotesExtraField(s.ID)
		add(Field{Name: extra, Label: "Extra points / key notes", Kind: KindNotes, Section: s.ID})
		add(Field{Name: InkField(extra), Label: "Extra points / key notes (ink)", Kind: KindInk, Section: s.ID})
		add(Field{Name: NotesCountField(s.ID), Label: "Notes pages", Kind: KindCounter, Section: s.ID})
	}
}

var choiceFields = map[string]bool{"gen_has_backup": true}

func kindOf(name string) Kind {
	if choiceFields[name] {
		return KindChoice
	}
	return KindText
}

func optionsOf(name string) []string {
	if choiceFields[name] {
		return YesNo
	}
	return nil
}
