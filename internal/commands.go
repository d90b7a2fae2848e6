package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/mcpserver"
)

// RunMCP serves the audit form over MCP on stdin/stdout until the client
// disconnects. Pending edits are saved before it returns.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.newLogger()
	slog.SetDefault(logger)

	rt, err := app.build(ctx, logger, false)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	logger.Info("Starting MCP server", slog.String("export_dir", app.config.Report.ExportDir))
	return mcpserver.New(rt.service, app.config.Report.ExportDir).ServeStdio()
}

// ExportResult describes a report written by Export.
type ExportResult struct {
	ID    string
	Path  string
	Pages int
	Size  int
}

// Export renders the stored form into dir. An empty dir uses the configured
// export directory.
func Export(ctx context.Context, dir string, opts ...Option) (ExportResult, error) {
	app, err := newApplication(opts)
	if err != nil {
		return ExportResult{}, err
	}
	logger := app.newLogger()

	rt, err := app.build(ctx, logger, false)
	if err != nil {
		return ExportResult{}, err
	}
	defer rt.close(context.Background())

	if dir == "" {
		dir = app.config.Report.ExportDir
	}
	exp, err := rt.service.Export(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("render report: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, exp.FileName)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write report: %w", err)
	}
	logger.Info("Report exported",
		slog.String("path", path),
		slog.Int("pages", exp.Pages),
		slog.String("size", humanize.Bytes(uint64(len(exp.Data)))))
	return ExportResult{ID: exp.ID, Path: path, Pages: exp.Pages, Size: len(exp.Data)}, nil
}

// Reset erases the stored form. It refuses unless confirmed.
func Reset(ctx context.Context, confirmed bool, opts ...Option) error {
	if !confirmed {
		return fmt.Errorf("reset: %w", apperr.ErrResetDeclined)
	}
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger()

	rt, err := app.build(ctx, logger, false)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	if err := rt.service.Reset(ctx, true); err != nil {
		return err
	}
	logger.Info("Form reset", slog.String("key", app.config.Storage.Key))
	return nil
}
