package schema

import "testing"

func TestSectionsOrder(t *testing.T) {
	want := []string{"general", "utility", "lighting", "hvac", "compressed_air", "boiler", "envelope", "power", "chillers", "generator"}
	got := Sections()
	if len(got) != len(want) {
		t.Fatalf("got %d sections, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("section %d = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestLabel(t *testing.T) {
	tests := []struct{ name, want string }{
		{"facility_name", "Name of the facility"},
		{"lighting_location_3", "Location / Area of lighting"},
		{"chiller_temp_in", "Temp. IN (°F)"},
		{"hvac_sn_2", "hvac sn 2"},
		{"contact1_name", "Contact person name and designation (1)"},
		{"mystery_field", "mystery field"},
	}
	for _, tt := range tests {
		if got := Label(tt.name); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSplitIndex(t *testing.T) {
	base, idx, ok := SplitIndex("pwr_units_12")
	if !ok || base != "pwr_units" || idx != 12 {
		t.Errorf("SplitIndex = %q %d %v", base, idx, ok)
	}
	if _, _, ok := SplitIndex("facility_name"); ok {
		t.Error("facility_name has no index")
	}
	if RowField("lighting_hours", 2) != "lighting_hours_2" {
		t.Error("RowField")
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		section string
	}{
		{"facility_name", KindText, "general"},
		{"hvac_cap_4", KindText, "hvac"},
		{"com_cooling_3", KindText, "compressed_air"},
		{"env_door", KindChoice, "envelope"},
		{"env_door_note", KindText, "envelope"},
		{"pwr_forklift", KindChoice, "power"},
		{"gen_has_backup", KindChoice, "generator"},
		{"aux_co2_4", KindText, "generator"},
		{"chiller_wet_bulb", KindText, "chillers"},
		{"notes_extra_boiler", KindNotes, "boiler"},
		{"notes_extra_boiler_ink", KindInk, "boiler"},
		{"notes_page_count_power", KindCounter, "power"},
	}
	for _, tt := range tests {
		f, ok := Lookup(tt.name)
		if !ok {
			t.Errorf("Lookup(%q): not found", tt.name)
			continue
		}
		if f.Kind != tt.kind || f.Section != tt.section {
			t.Errorf("Lookup(%q) = %v/%s, want %v/%s", tt.name, f.Kind, f.Section, tt.kind, tt.section)
		}
	}
	for _, name := range []string{"lighting_location_0", "hvac_cap_5", "notes_page_power_0", "nope"} {
		if _, ok := Lookup(name); ok {
			t.Errorf("Lookup(%q) should not be a fixed field", name)
		}
	}
}

func TestFixedFieldsMatchSectionPrefixes(t *testing.T) {
	for _, f := range Fields() {
		if f.Kind != KindText && f.Kind != KindChoice {
			continue
		}
		s, _ := SectionByID(f.Section)
		matched := false
		for _, p := range s.Prefixes {
			if len(f.Name) >= len(p) && f.Name[:len(p)] == p {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("field %q does not match any prefix of section %q", f.Name, f.Section)
		}
	}
}

func TestTables(t *testing.T) {
	l, ok := TableByID(TableLighting)
	if !ok || len(l.Columns) != 9 || l.Section != "lighting" {
		t.Fatalf("lighting table = %+v", l)
	}
	p, ok := TableByID(TablePowerMisc)
	if !ok || len(p.Columns) != 6 || p.Section != "power" {
		t.Fatalf("power_misc table = %+v", p)
	}
	if _, ok := TableByID("boiler"); ok {
		t.Error("boiler is not a repeatable table")
	}
}

func TestNotesNaming(t *testing.T) {
	if NotesPageField("hvac", 2) != "notes_page_hvac_2" {
		t.Error("NotesPageField")
	}
	if InkField(NotesPageField("hvac", 0)) != "notes_page_hvac_0_ink" {
		t.Error("InkField")
	}
}

func TestDescribe(t *testing.T) {
	d := Describe()
	if len(d.Sections) != len(Sections()) {
		t.Fatalf("sections = %d", len(d.Sections))
	}
	total := 0
	for _, s := range d.Sections {
		total += len(s.Fields)
		for _, f := range s.Fields {
			if f.Section != s.ID {
				t.Errorf("%s listed under %s", f.Name, s.ID)
			}
		}
	}
	if total != len(Fields()) {
		t.Errorf("described %d fields, want %d", total, len(Fields()))
	}
	if d.Sections[2].ID != "lighting" || len(d.Sections[2].Tables) != 1 || d.Sections[2].Tables[0].ID != TableLighting {
		t.Errorf("lighting section = %+v", d.Sections[2].Tables)
	}
}
