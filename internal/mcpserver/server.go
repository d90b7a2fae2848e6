// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the audit form to LLM assistants via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/fieldaudit/internal/auditservice"
	"github.com/starford/fieldaudit/internal/schema"
)

const (
	schemaURI = "fieldaudit://schema"
	guideURI  = "fieldaudit://guide"
)

// Server wraps the MCP server with audit form tools.
type Server struct {
	mcp       *server.MCPServer
	svc       *auditservice.Service
	exportDir string
}

// New creates a new MCP server with all tools registered. Reports are
// written to exportDir unless a call names another directory.
func New(svc *auditservice.Service, exportDir string) *Server {
	if exportDir == "" {
		exportDir = "."
	}
	s := &Server{svc: svc, exportDir: exportDir}

	s.mcp = server.NewMCPServer(
		"FieldAudit",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_form",
		mcp.WithDescription("Return the live audit form: field values, table rows and the save status."),
	), s.getForm)

	s.mcp.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Set one form field, table cell or notes page. Choice fields take Y, N or an empty string. "+
			"Field names are listed in the "+schemaURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Field name (e.g. facility_name, lighting_location_0)")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value, stored verbatim")),
	), s.setField)

	s.mcp.AddTool(mcp.NewTool("add_table_row",
		mcp.WithDescription("Append a row to a repeatable table and return the cell names of the new row."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table ID"), mcp.Enum(schema.TableLighting, schema.TablePowerMisc)),
	), s.addTableRow)

	s.mcp.AddTool(mcp.NewTool("remove_table_row",
		mcp.WithDescription("Remove a table row. The last row cannot be removed; later rows are renumbered."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table ID"), mcp.Enum(schema.TableLighting, schema.TablePowerMisc)),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Row index, from 0")),
	), s.removeTableRow)

	s.mcp.AddTool(mcp.NewTool("add_notes_page",
		mcp.WithDescription("Append a notes page to a section and return its field name."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Section ID (e.g. hvac)")),
	), s.addNotesPage)

	s.mcp.AddTool(mcp.NewTool("set_ink",
		mcp.WithDescription("Attach a drawing to a notes field as a PNG or JPEG data URI. An empty data_uri clears the drawing."),
		mcp.WithString("field", mcp.Required(), mcp.Description("Notes field (notes_extra_<section> or notes_page_<section>_<i>)")),
		mcp.WithString("data_uri", mcp.Description("data:image/png;base64,... or empty to clear")),
	), s.setInk)

	s.mcp.AddTool(mcp.NewTool("export_report",
		mcp.WithDescription("Render the form as a PDF report and write it to a directory."),
		mcp.WithString("dir", mcp.Description("Target directory (defaults to the server's export directory)")),
	), s.exportReport)

	s.mcp.AddTool(mcp.NewTool("reset_form",
		mcp.WithDescription("Erase the whole form and its saved copy. Destructive: requires confirm=true. Ask the user first."),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to reset")),
	), s.resetForm)

	s.mcp.AddResource(
		mcp.NewResource(schemaURI, "Form Schema",
			mcp.WithResourceDescription("Sections, fields, kinds and repeatable tables of the audit form."),
			mcp.WithMIMEType("application/json"),
		),
		s.readSchemaResource,
	)
	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Form Guide",
			mcp.WithResourceDescription("How to fill in the audit form with these tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getForm(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"form":   s.svc.Snapshot(ctx),
		"status": s.svc.Status(),
	})
}

func (s *Server) setField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SetField(ctx, name, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("set: %s", name)), nil
}

func (s *Server) addTableRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := s.svc.AddRow(ctx, table)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, _ := schema.TableByID(table)
	cells := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cells[i] = schema.RowField(col.Key, idx)
	}
	return jsonResult(map[string]any{"table": table, "index": idx, "fields": cells})
}

func (s *Server) removeTableRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RemoveRow(ctx, table, idx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s row %d", table, idx)), nil
}

func (s *Server) addNotesPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := s.svc.AddNotesPage(ctx, section)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(schema.NotesPageField(section, idx)), nil
}

func (s *Server) exportReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := req.GetString("dir", s.exportDir)
	exp, err := s.svc.Export(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create export dir: %v", err)), nil
	}
	path := filepath.Join(dir, exp.FileName)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("write report: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"path":  path,
		"id":    exp.ID,
		"pages": exp.Pages,
		"size":  humanize.Bytes(uint64(len(exp.Data))),
	})
}

func (s *Server) resetForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.Reset(ctx, req.GetBool("confirm", false)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("form reset"), nil
}

func (s *Server) readSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.Marshal(schema.Describe())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func (s *Server) readGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     FormGuide,
		},
	}, nil
}
