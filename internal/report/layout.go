package report

import (
	"strings"
	"unicode/utf8"
)

// RGB is an 8-bit colour.
type RGB struct{ R, G, B int }

var (
	colorPrimary = RGB{26, 54, 93}
	colorBorder  = RGB{200, 210, 220}
	colorBody    = RGB{30, 30, 30}
	colorHeader  = RGB{40, 40, 40}
	colorMuted   = RGB{80, 80, 80}
	colorWhite   = RGB{255, 255, 255}
)

// Op is one drawing operation on a page. Coordinates are millimetres from
// the top-left corner; text Y is the baseline.
type Op interface{ op() }

type TextOp struct {
	X, Y  float64
	Text  string
	Size  float64
	Bold  bool
	Color RGB
}

type RectOp struct {
	X, Y, W, H float64
	Fill       bool
	Color      RGB
}

type LineOp struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          RGB
}

type ImageOp struct {
	Name       string
	Type       string // "PNG" or "JPG"
	Data       []byte
	X, Y, W, H float64
}

func (TextOp) op()  {}
func (RectOp) op()  {}
func (LineOp) op()  {}
func (ImageOp) op() {}

// Page is the list of operations drawn on one page.
type Page struct {
	Ops []Op
}

// Measurer reports the rendered width of text in millimetres.
type Measurer interface {
	Width(text string, size float64, bold bool) float64
}

// Geometry holds the page metrics used by the layout.
type Geometry struct {
	PageW, PageH float64
	Margin       float64
	Top, Bottom  float64 // first baseline / lowest usable y
	LineH        float64
	CellPad      float64
	MinRowH      float64
	TableFont    float64
	TableLineH   float64
}

// A4 is portrait A4 in millimetres.
var A4 = Geometry{
	PageW: 210, PageH: 297,
	Margin: 14,
	Top:    14, Bottom: 280,
	LineH:      5.2,
	CellPad:    2,
	MinRowH:    6,
	TableFont:  7,
	TableLineH: 3.2,
}

// ContentWidth is the usable width between margins.
func (g Geometry) ContentWidth() float64 { return g.PageW - 2*g.Margin }

// Layout places content on pages with a running vertical cursor. Every
// add operation breaks the page first when its content would not fit.
type Layout struct {
	g     Geometry
	m     Measurer
	pages []*Page
	y     float64
}

// NewLayout starts a document with one empty page.
func NewLayout(g Geometry, m Measurer) *Layout {
	l := &Layout{g: g, m: m}
	l.NewPage()
	return l
}

// Pages returns the laid-out pages.
func (l *Layout) Pages() []*Page { return l.pages }

// Y returns the cursor position.
func (l *Layout) Y() float64 { return l.y }

// SetY moves the cursor.
func (l *Layout) SetY(y float64) { l.y = y }

// NewPage starts a new page with the cursor at the top margin.
func (l *Layout) NewPage() {
	l.pages = append(l.pages, &Page{})
	l.y = l.g.Top
}

func (l *Layout) page() *Page { return l.pages[len(l.pages)-1] }

func (l *Layout) draw(op Op) { l.page().Ops = append(l.page().Ops, op) }

// ensure breaks the page when h more millimetres do not fit. A fresh page
// never breaks again so oversized content cannot loop.
func (l *Layout) ensure(h float64) {
	if l.y+h > l.g.Bottom && l.y > l.g.Top {
		l.NewPage()
	}
}

// Text adds wrapped body text, one baseline per line.
func (l *Layout) Text(text string, bold bool, size float64) {
	lines := l.wrap(text, l.g.ContentWidth(), size, bold)
	for _, line := range lines {
		l.ensure(l.g.LineH)
		if line != "" {
			l.draw(TextOp{X: l.g.Margin, Y: l.y, Text: line, Size: size, Bold: bold, Color: colorBody})
		}
		l.y += l.g.LineH
	}
}

// Line adds a 9pt body line.
func (l *Layout) Line(text string) { l.Text(text, false, 9) }

// SectionTitle draws a filled title bar.
func (l *Layout) SectionTitle(title string) {
	const barH = 9
	l.ensure(4 + barH + 4 + l.g.LineH)
	l.y += 4
	l.draw(RectOp{X: l.g.Margin, Y: l.y - 5, W: l.g.ContentWidth(), H: barH, Fill: true, Color: colorPrimary})
	l.draw(TextOp{X: l.g.Margin + 3, Y: l.y + 1.5, Text: title, Size: 11, Bold: true, Color: colorWhite})
	l.y += barH + 4
}

// SubTitle draws a rule and a coloured heading.
func (l *Layout) SubTitle(title string) {
	l.ensure(4 + l.g.LineH + 2 + l.g.LineH)
	l.draw(LineOp{X1: l.g.Margin, Y1: l.y, X2: l.g.PageW - l.g.Margin, Y2: l.y, Width: 0.3, Color: colorBorder})
	l.y += 4
	l.draw(TextOp{X: l.g.Margin, Y: l.y, Text: title, Size: 10, Bold: true, Color: colorPrimary})
	l.y += l.g.LineH + 2
}

// Rule draws a horizontal line across the content width.
func (l *Layout) Rule(width float64) {
	l.draw(LineOp{X1: l.g.Margin, Y1: l.y, X2: l.g.PageW - l.g.Margin, Y2: l.y, Width: width, Color: colorBorder})
}

// Draw places an arbitrary operation on the current page without moving
// the cursor.
func (l *Layout) Draw(op Op) { l.draw(op) }

// Table lays out a bordered table with equal column widths. Each row is as
// tall as its tallest wrapped cell and the header is repeated on every page
// the table spans. A row that fits on a page is never split; a row taller
// than a whole page is cut between wrapped lines and continued below the
// repeated header.
func (l *Layout) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	colW := l.g.ContentWidth() / float64(len(headers))
	header := l.measureRow(headers, colW, true)
	body := make([]wrappedRow, len(rows))
	for i, r := range rows {
		body[i] = l.measureRow(r, colW, false)
	}

	first := 0.0
	if len(body) > 0 {
		first = min(body[0].h, l.g.Bottom-l.g.Top-header.h)
	}
	l.ensure(header.h + first)
	l.drawRow(header, colW, true)
	fullPage := l.g.Bottom - l.g.Top - header.h
	for _, r := range body {
		for {
			if l.y+r.h <= l.g.Bottom {
				l.drawRow(r, colW, false)
				break
			}
			n := int((l.g.Bottom - l.y - rowPad) / l.g.TableLineH)
			if r.h <= fullPage || n < 1 {
				l.NewPage()
				l.drawRow(header, colW, true)
				if n < 1 && r.h > fullPage && l.y+l.rowHeight(1) > l.g.Bottom {
					// Header alone fills the page; nothing can be placed.
					l.drawRow(r, colW, false)
					break
				}
				continue
			}
			head, tail := l.splitRow(r, n)
			l.drawRow(head, colW, false)
			r = tail
		}
	}
	l.y += 4
}

// rowPad is the vertical padding added to a row's wrapped text height.
const rowPad = 2.8

type wrappedRow struct {
	cells [][]string
	h     float64
}

func (l *Layout) rowHeight(lines int) float64 {
	return max(l.g.MinRowH, float64(max(lines, 1))*l.g.TableLineH+rowPad)
}

func (l *Layout) measureRow(cells []string, colW float64, bold bool) wrappedRow {
	r := wrappedRow{cells: make([][]string, len(cells))}
	maxLines := 1
	for i, c := range cells {
		r.cells[i] = l.wrap(c, colW-2*l.g.CellPad, l.g.TableFont, bold)
		maxLines = max(maxLines, len(r.cells[i]))
	}
	r.h = l.rowHeight(maxLines)
	return r
}

// splitRow cuts r after its first n wrapped lines.
func (l *Layout) splitRow(r wrappedRow, n int) (wrappedRow, wrappedRow) {
	head := wrappedRow{cells: make([][]string, len(r.cells))}
	tail := wrappedRow{cells: make([][]string, len(r.cells))}
	headLines, tailLines := 1, 1
	for i, lines := range r.cells {
		k := min(n, len(lines))
		head.cells[i] = lines[:k]
		tail.cells[i] = lines[k:]
		headLines = max(headLines, k)
		tailLines = max(tailLines, len(lines)-k)
	}
	head.h = l.rowHeight(headLines)
	tail.h = l.rowHeight(tailLines)
	return head, tail
}

func (l *Layout) drawRow(r wrappedRow, colW float64, bold bool) {
	color := colorBody
	if bold {
		color = colorHeader
	}
	x := l.g.Margin
	for _, lines := range r.cells {
		l.draw(RectOp{X: x, Y: l.y, W: colW, H: r.h, Color: colorBorder})
		for k, line := range lines {
			if line == "" {
				continue
			}
			l.draw(TextOp{X: x + l.g.CellPad, Y: l.y + 4 + float64(k)*l.g.TableLineH, Text: line, Size: l.g.TableFont, Bold: bold, Color: color})
		}
		x += colW
	}
	l.y += r.h
}

// Image places an image of w×h millimetres at the left margin, scaled down
// to fit the page height when needed.
func (l *Layout) Image(name, typ string, data []byte, w, h float64) {
	if maxH := l.g.Bottom - l.g.Top; h > maxH {
		w, h = w*maxH/h, maxH
	}
	l.ensure(h)
	l.draw(ImageOp{Name: name, Type: typ, Data: data, X: l.g.Margin, Y: l.y, W: w, H: h})
	l.y += h + 2
}

// wrap splits text into lines no wider than width. Explicit newlines are
// kept; words wider than a line are broken between runes.
func (l *Layout) wrap(text string, width, size float64, bold bool) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := ""
		for _, w := range words {
			cand := w
			if cur != "" {
				cand = cur + " " + w
			}
			if l.m.Width(cand, size, bold) <= width {
				cur = cand
				continue
			}
			if cur != "" {
				out = append(out, cur)
			}
			cur = w
			for l.m.Width(cur, size, bold) > width && utf8.RuneCountInString(cur) > 1 {
				head, tail := l.splitWord(cur, width, size, bold)
				out = append(out, head)
				cur = tail
			}
		}
		out = append(out, cur)
	}
	return out
}

// splitWord returns the longest rune prefix of w that fits width (at least
// one rune) and the remainder.
func (l *Layout) splitWord(w string, width, size float64, bold bool) (string, string) {
	cut := 0
	for i := range w {
		if i == 0 {
			continue
		}
		if l.m.Width(w[:i], size, bold) > width {
			break
		}
		cut = i
	}
	if cut == 0 {
		_, n := utf8.DecodeRuneInString(w)
		cut = n
	}
	return w[:cut], w[cut:]
}
