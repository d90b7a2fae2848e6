package report

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/starford/fieldaudit/internal/ink"
	"github.com/starford/fieldaudit/internal/models"
	"github.com/starford/fieldaudit/internal/schema"
)

// mmPerPx converts ink raster pixels at 96 dpi to millimetres.
const mmPerPx = 25.4 / 96

// Numbered is a section that made it into the report with its number.
type Numbered struct {
	Number  int
	Section schema.Section
}

// VisibleSections returns the sections holding content, numbered 1..n
// without gaps.
func VisibleSections(s models.Snapshot) []Numbered {
	var out []Numbered
	for _, sec := range schema.Sections() {
		if Visible(sec, s) {
			out = append(out, Numbered{Number: len(out) + 1, Section: sec})
		}
	}
	return out
}

// Visible reports whether a section has at least one non-blank field,
// table cell, notes text or ink image.
func Visible(sec schema.Section, s models.Snapshot) bool {
	if s.Field(schema.NotesExtraField(sec.ID)) != "" || s.Field(schema.InkField(schema.NotesExtraField(sec.ID))) != "" {
		return true
	}
	for i := 0; i < s.NotesPageCount(sec.ID); i++ {
		page := schema.NotesPageField(sec.ID, i)
		if s.Field(page) != "" || s.Field(schema.InkField(page)) != "" {
			return true
		}
	}
	for name, v := range s.Fields {
		if strings.TrimSpace(v) == "" {
			continue
		}
		for _, p := range sec.Prefixes {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
	}
	for _, t := range schema.Tables() {
		if t.Section != sec.ID {
			continue
		}
		for _, row := range s.Rows(t.ID) {
			for _, v := range row {
				if strings.TrimSpace(v) != "" {
					return true
				}
			}
		}
	}
	return false
}

// display renders the Y/N convention as Yes/No; other values are verbatim.
func display(v string) string {
	switch v {
	case "Y":
		return "Yes"
	case "N":
		return "No"
	default:
		return v
	}
}

// HeaderImage is a raster shown in the report header.
type HeaderImage struct {
	Data []byte
	Type string
}

type composer struct {
	l      *Layout
	snap   models.Snapshot
	logger *slog.Logger
	images int
}

func (c *composer) val(name string) string { return display(c.snap.Field(name)) }

func (c *composer) header(title string, left, right *HeaderImage, now time.Time) {
	const (
		imgY  = 12
		imgH  = 14
		leftW = 45
		rghtW = 35
	)
	g := c.l.g
	if left != nil {
		c.l.Draw(ImageOp{Name: "header-left", Type: left.Type, Data: left.Data, X: 12, Y: imgY, W: leftW, H: imgH})
	}
	if right != nil {
		c.l.Draw(ImageOp{Name: "header-right", Type: right.Type, Data: right.Data, X: g.PageW - 12 - rghtW, Y: imgY, W: rghtW, H: imgH})
	}
	y := float64(imgY + imgH + 8)
	c.l.Draw(TextOp{X: g.Margin, Y: y, Text: title, Size: 14, Bold: true, Color: colorPrimary})
	y += 7
	c.l.SetY(y)
	c.l.Rule(0.4)
	y += 5
	savedAt := c.snap.SavedAt
	if savedAt.IsZero() {
		savedAt = now
	}
	c.l.Draw(TextOp{X: g.Margin, Y: y, Text: "Saved at: " + savedAt.UTC().Format(time.RFC3339), Size: 9, Color: colorMuted})
	c.l.SetY(y + 6)
}

func (c *composer) sections() {
	for _, n := range VisibleSections(c.snap) {
		c.l.SectionTitle(strconv.Itoa(n.Number) + ". " + n.Section.Title)
		for _, b := range n.Section.Blocks {
			c.block(b)
		}
		c.notes(n.Section.ID)
	}
}

func (c *composer) block(b schema.Block) {
	switch b := b.(type) {
	case schema.FieldList:
		for _, name := range b.Fields {
			c.l.Line(schema.Label(name) + ": " + c.val(name))
		}
	case schema.LabeledLine:
		c.l.Line(b.Label + ": " + c.val(b.Field))
	case schema.SubTitle:
		c.l.SubTitle(b.Text)
	case schema.Grid:
		rows := make([][]string, len(b.Rows))
		for i, r := range b.Rows {
			cells := []string{r.Label}
			for _, f := range r.Fields {
				cells = append(cells, c.val(f))
			}
			rows[i] = cells
		}
		c.l.Table(b.Headers, rows)
	case schema.Checklist:
		for _, it := range b.Items {
			line := it.Label + ": " + c.val(it.Field)
			if note := c.snap.Field(it.Field + "_note"); note != "" {
				line += " (Note: " + note + ")"
			}
			c.l.Line(line)
		}
	case schema.RepeatTable:
		c.repeatTable(b.Table)
	case schema.SingleRowTable:
		cells := make([]string, len(b.Fields))
		for i, f := range b.Fields {
			cells[i] = c.val(f)
		}
		c.l.Table(b.Headers, [][]string{cells})
	}
}

func (c *composer) repeatTable(id string) {
	t, ok := schema.TableByID(id)
	if !ok {
		return
	}
	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = col.Header
	}
	recs := c.snap.Rows(id)
	if len(recs) == 0 {
		recs = []map[string]string{{}}
	}
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		cells := make([]string, len(t.Columns))
		for ci, col := range t.Columns {
			cells[ci] = display(strings.TrimSpace(cellValue(rec, col.Key, i)))
		}
		rows[i] = cells
	}
	c.l.Table(headers, rows)
}

// cellValue finds a column's value in a row record: the exact row-indexed
// name first, then the bare column key, then any index suffix.
func cellValue(rec map[string]string, col string, i int) string {
	if v, ok := rec[schema.RowField(col, i)]; ok {
		return v
	}
	if v, ok := rec[col]; ok {
		return v
	}
	for k, v := range rec {
		if base, _, ok := schema.SplitIndex(k); ok && base == col {
			return v
		}
	}
	return ""
}

func (c *composer) notes(section string) {
	extra := schema.NotesExtraField(section)
	text := c.snap.Field(extra)
	inkURI := c.snap.Field(schema.InkField(extra))
	if text != "" || inkURI != "" {
		c.l.SubTitle("Extra points / key notes")
		if text != "" {
			c.l.Line(text)
		}
		c.ink(extra, inkURI)
	}
	for i := 0; i < c.snap.NotesPageCount(section); i++ {
		page := schema.NotesPageField(section, i)
		text := c.snap.Field(page)
		inkURI := c.snap.Field(schema.InkField(page))
		if text == "" && inkURI == "" {
			continue
		}
		c.l.SubTitle("Notes page " + strconv.Itoa(i+1))
		if text != "" {
			c.l.Line(text)
		}
		c.ink(page, inkURI)
	}
}

// ink places a stored ink image scaled to the content width. Undecodable
// images are skipped.
func (c *composer) ink(field, uri string) {
	if uri == "" {
		return
	}
	data, mime, err := ink.DecodeDataURIBytes(uri)
	if err != nil {
		c.logger.Warn("report: ink skipped", slog.String("field", field), slog.Any("error", err))
		return
	}
	typ := imageType(mime)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || typ == "" {
		c.logger.Warn("report: ink skipped", slog.String("field", field), slog.String("mime", mime), slog.Any("error", err))
		return
	}
	w, h := ink.FitWidth(float64(cfg.Width)*mmPerPx, float64(cfg.Height)*mmPerPx, c.l.g.ContentWidth())
	if w <= 0 || h <= 0 {
		return
	}
	c.images++
	c.l.Image(fmt.Sprintf("ink-%d", c.images), typ, data, w, h)
}

func imageType(mime string) string {
	switch mime {
	case "image/png":
		return "PNG"
	case "image/jpeg", "image/jpg":
		return "JPG"
	default:
		return ""
	}
}
