// Package report renders a form snapshot as a paginated A4 PDF: a pure
// layout pass places text, tables and images on pages, fpdf draws them and
// a final pdfcpu pass stamps page footers.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/models"
)

// Defaults.
const (
	DefaultTitle      = "ITAC Energy Audit Form"
	DefaultFilePrefix = "ITAC-Energy-Audit"
)

// ImageSource resolves header image references to their bytes.
type ImageSource interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Options configures a Renderer.
type Options struct {
	Title        string
	FilePrefix   string
	HeaderImages []string // left, right
	Images       ImageSource
	Logger       *slog.Logger
	Now          func() time.Time
}

// Renderer turns snapshots into PDF documents.
type Renderer struct {
	title        string
	filePrefix   string
	headerImages []string
	images       ImageSource
	logger       *slog.Logger
	now          func() time.Time
}

// Result is a rendered report.
type Result struct {
	Data     []byte
	Pages    int
	FileName string
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	r := &Renderer{
		title:        opts.Title,
		filePrefix:   opts.FilePrefix,
		headerImages: opts.HeaderImages,
		images:       opts.Images,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	if r.title == "" {
		r.title = DefaultTitle
	}
	if r.filePrefix == "" {
		r.filePrefix = DefaultFilePrefix
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Render lays out, draws and stamps the report. Any failure yields an
// apperr.ErrReportUnavailable error and no output.
func (r *Renderer) Render(ctx context.Context, snap models.Snapshot) (Result, error) {
	now := r.now()
	l := NewLayout(A4, newMeasurer())
	c := &composer{l: l, snap: snap, logger: r.logger}
	left, right := r.header(ctx, 0), r.header(ctx, 1)
	c.header(r.title, left, right, now)
	c.sections()

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("report: %w: %w", apperr.ErrReportUnavailable, err)
	}

	doc, err := writePDF(l.Pages(), docMeta{Title: r.title, Created: now})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrReportUnavailable, err)
	}
	doc, err = stampFooters(doc)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrReportUnavailable, err)
	}
	pages, err := PageCount(doc)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrReportUnavailable, err)
	}
	if pages != len(l.Pages()) {
		r.logger.Warn("report: page count differs from layout", slog.Int("layout", len(l.Pages())), slog.Int("document", pages))
	}
	return Result{
		Data:     doc,
		Pages:    pages,
		FileName: FileName(r.filePrefix, snap.Field("facility_name"), now),
	}, nil
}

// header fetches header image i. Missing or unsupported images are skipped.
func (r *Renderer) header(ctx context.Context, i int) *HeaderImage {
	if r.images == nil || i >= len(r.headerImages) || r.headerImages[i] == "" {
		return nil
	}
	ref := r.headerImages[i]
	data, err := r.images.Fetch(ctx, ref)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			r.logger.Warn("report: header image unavailable", slog.String("ref", ref), slog.Any("error", err))
		}
		return nil
	}
	typ := imageType(http.DetectContentType(data))
	if typ == "" {
		r.logger.Warn("report: header image type unsupported", slog.String("ref", ref))
		return nil
	}
	return &HeaderImage{Data: data, Type: typ}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName builds "<prefix>-<facility>-<YYYY-MM-DD>.pdf" with whitespace
// runs in the facility name collapsed to "-". An empty facility becomes
// "Form".
func FileName(prefix, facility string, date time.Time) string {
	facility = strings.TrimSpace(facility)
	if facility == "" {
		facility = "Form"
	}
	facility = whitespaceRun.ReplaceAllString(facility, "-")
	facility = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '-'
		}
		return r
	}, facility)
	return prefix + "-" + facility + "-" + date.Format("2006-01-02") + ".pdf"
}
