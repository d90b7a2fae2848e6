package report

import (
	"bytes"
	"context"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/ink"
	"github.com/starford/fieldaudit/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestRenderer(src ImageSource, headers ...string) *Renderer {
	return New(Options{
		HeaderImages: headers,
		Images:       src,
		Logger:       discard,
		Now:          func() time.Time { return fixedNow },
	})
}

func pdfText(t *testing.T, doc []byte) string {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		require.NoError(t, err)
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

func TestRenderAcmePlant(t *testing.T) {
	s := blankSnapshot()
	s.Fields["facility_name"] = "Acme Plant"
	s.Fields["hvac_cap_1"] = "25"

	res, err := newTestRenderer(nil).Render(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "ITAC-Energy-Audit-Acme-Plant-2026-03-01.pdf", res.FileName)
	assert.True(t, bytes.HasPrefix(res.Data, []byte("%PDF-")))
	n, err := PageCount(res.Data)
	require.NoError(t, err)
	assert.Equal(t, res.Pages, n)

	text := pdfText(t, res.Data)
	assert.Contains(t, text, "ITAC Energy Audit Form")
	assert.Contains(t, text, "1. General Facility Information")
	assert.Contains(t, text, "Name of the facility: Acme Plant")
	assert.Contains(t, text, "2. HVAC System")
	assert.NotContains(t, text, "Utility Consumption")
}

func TestRenderManyRowsPaginates(t *testing.T) {
	s := blankSnapshot()
	s.Lighting = nil
	for i := 0; i < 120; i++ {
		s.Lighting = append(s.Lighting, map[string]string{
			"lighting_location_" + strconv.Itoa(i): "Bay " + strconv.Itoa(i),
			"lighting_fixtures_" + strconv.Itoa(i): "12",
		})
	}
	s.LightingRows = len(s.Lighting)

	res, err := newTestRenderer(nil).Render(context.Background(), s)
	require.NoError(t, err)
	require.Greater(t, res.Pages, 2)

	n, err := PageCount(res.Data)
	require.NoError(t, err)
	assert.Equal(t, res.Pages, n)
	assert.Equal(t, "ITAC-Energy-Audit-Form-2026-03-01.pdf", res.FileName)

	assert.Contains(t, pdfText(t, res.Data), "Bay 119")
}

func TestRenderEmptyFormHasHeaderOnly(t *testing.T) {
	res, err := newTestRenderer(nil).Render(context.Background(), blankSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	text := pdfText(t, res.Data)
	assert.Contains(t, text, "ITAC Energy Audit Form")
	assert.NotContains(t, text, "1. ")
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRenderer(nil).Render(ctx, blankSnapshot())
	require.ErrorIs(t, err, apperr.ErrReportUnavailable)
	require.ErrorIs(t, err, context.Canceled)
}

type fakeImages map[string][]byte

func (f fakeImages) Fetch(_ context.Context, ref string) ([]byte, error) {
	data, ok := f[ref]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return data, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, ink.Blank(w, h)))
	return buf.Bytes()
}

func TestHeaderImages(t *testing.T) {
	src := fakeImages{
		"logo.png": pngBytes(t, 90, 28),
		"bad.txt":  []byte("plain text"),
	}
	r := newTestRenderer(src, "logo.png", "missing.png")
	left, right := r.header(context.Background(), 0), r.header(context.Background(), 1)
	require.NotNil(t, left)
	assert.Equal(t, "PNG", left.Type)
	assert.Nil(t, right)

	assert.Nil(t, newTestRenderer(src, "bad.txt").header(context.Background(), 0))
	assert.Nil(t, newTestRenderer(nil, "logo.png").header(context.Background(), 0))

	s := blankSnapshot()
	s.Fields["facility_name"] = "Acme"
	res, err := r.Render(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
}

func TestRenderWithInk(t *testing.T) {
	surface := ink.Blank(300, 150)
	for x := 0; x < 300; x++ {
		for y := 70; y < 80; y++ {
			surface.Pix[surface.PixOffset(x, y)] = 0
			surface.Pix[surface.PixOffset(x, y)+1] = 0
			surface.Pix[surface.PixOffset(x, y)+2] = 0
		}
	}
	uri, err := ink.EncodeDataURI(surface)
	require.NoError(t, err)

	s := blankSnapshot()
	s.Fields["notes_page_compressed_air_0_ink"] = uri
	res, err := newTestRenderer(nil).Render(context.Background(), s)
	require.NoError(t, err)
	assert.Contains(t, pdfText(t, res.Data), "1. Compressed Air System")
	assert.True(t, bytes.Contains(res.Data, []byte("/Subtype /Image")) || bytes.Contains(res.Data, []byte("/Subtype/Image")))
}

func TestStampFootersKeepsPages(t *testing.T) {
	l := NewLayout(A4, newMeasurer())
	for i := 0; i < 120; i++ {
		l.Line("line " + strconv.Itoa(i))
	}
	doc, err := writePDF(l.Pages(), docMeta{Title: "t", Created: fixedNow})
	require.NoError(t, err)
	stamped, err := stampFooters(doc)
	require.NoError(t, err)

	before, err := PageCount(doc)
	require.NoError(t, err)
	after, err := PageCount(stamped)
	require.NoError(t, err)
	assert.Equal(t, len(l.Pages()), before)
	assert.Equal(t, before, after)
	assert.NotEqual(t, doc, stamped)
}

func TestFileName(t *testing.T) {
	day := time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)
	tests := []struct{ facility, want string }{
		{"Acme Plant", "ITAC-Energy-Audit-Acme-Plant-2026-10-19.pdf"},
		{"  North   Mill \t 2 ", "ITAC-Energy-Audit-North-Mill-2-2026-10-19.pdf"},
		{"", "ITAC-Energy-Audit-Form-2026-10-19.pdf"},
		{"A/B: C", "ITAC-Energy-Audit-A-B--C-2026-10-19.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(DefaultFilePrefix, tt.facility, day), tt.facility)
	}
}

func TestRenderUsesSavedAt(t *testing.T) {
	s := models.Snapshot{Fields: map[string]string{"facility_name": "X"}, SavedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	res, err := newTestRenderer(nil).Render(context.Background(), s)
	require.NoError(t, err)
	assert.Contains(t, pdfText(t, res.Data), "Saved at: 2025-01-02T03:04:05Z")
}
