package schema

// SectionInfo is one section in transport form.
type SectionInfo struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
	Tables []Table `json:"tables,omitempty"`
	Notes  string  `json:"notes_page_pattern"`
}

// Description is the whole form layout in transport form, for clients that
// build their own input surface.
type Description struct {
	Sections []SectionInfo `json:"sections"`
}

// Describe returns the form layout with fields grouped by section.
func Describe() Description {
	d := Description{Sections: make([]SectionInfo, 0, len(sections))}
	for _, s := range sections {
		info := SectionInfo{ID: s.ID, Title: s.Title, Notes: "notes_page_" + s.ID + "_<i>"}
		for _, f := range fields {
			if f.Section == s.ID {
				info.Fields = append(info.Fields, f)
			}
		}
		for _, t := range tables {
			if t.Section == s.ID {
				info.Tables = append(info.Tables, t)
			}
		}
		d.Sections = append(d.Sections, info)
	}
	return d
}
