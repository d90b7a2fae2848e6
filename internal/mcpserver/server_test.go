package mcpserver

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/fieldaudit/internal/auditservice"
	"github.com/starford/fieldaudit/internal/ink"
	"github.com/starford/fieldaudit/internal/schema"
	"github.com/starford/fieldaudit/internal/testutil"
)

func testServer(t *testing.T) (*Server, *auditservice.Service) {
	t.Helper()
	svc, _ := testutil.TestService(t)
	return New(svc, filepath.Join(t.TempDir(), "exports")), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are called
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_form":
		result, err = srv.getForm(ctx, req)
	case "set_field":
		result, err = srv.setField(ctx, req)
	case "add_table_row":
		result, err = srv.addTableRow(ctx, req)
	case "remove_table_row":
		result, err = srv.removeTableRow(ctx, req)
	case "add_notes_page":
		result, err = srv.addNotesPage(ctx, req)
	case "set_ink":
		result, err = srv.setInk(ctx, req)
	case "export_report":
		result, err = srv.exportReport(ctx, req)
	case "reset_form":
		result, err = srv.resetForm(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSetFieldAndGetForm(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "set_field", map[string]any{"name": "facility_name", "value": "Acme Plant"})
	if r.IsError || resultText(r) != "set: facility_name" {
		t.Fatalf("set_field = %q", resultText(r))
	}

	r = callTool(t, srv, "get_form", map[string]any{})
	var got struct {
		Form struct {
			Fields map[string]string `json:"fields"`
		} `json:"form"`
		Status struct {
			Text string `json:"text"`
		} `json:"status"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode get_form: %v", err)
	}
	if got.Form.Fields["facility_name"] != "Acme Plant" || got.Status.Text != "Saving…" {
		t.Errorf("get_form = %+v", got)
	}

	for _, args := range []map[string]any{
		{"name": "nope", "value": "x"},
		{"name": "gen_has_backup", "value": "maybe"},
		{"name": "facility_name"},
	} {
		if r := callTool(t, srv, "set_field", args); !r.IsError {
			t.Errorf("set_field %v accepted", args)
		}
	}
}

func TestTableRows(t *testing.T) {
	srv, svc := testServer(t)

	r := callTool(t, srv, "add_table_row", map[string]any{"table": "power_misc"})
	if r.IsError {
		t.Fatalf("add_table_row: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"pwr_cat_1"`) {
		t.Errorf("result = %s", resultText(r))
	}

	callTool(t, srv, "set_field", map[string]any{"name": "pwr_loc_1", "value": "Roof"})
	r = callTool(t, srv, "remove_table_row", map[string]any{"table": "power_misc", "index": float64(0)})
	if r.IsError {
		t.Fatalf("remove_table_row: %s", resultText(r))
	}
	if v, _ := svc.Value("pwr_loc_0"); v != "Roof" {
		t.Errorf("pwr_loc_0 = %q", v)
	}
	if r = callTool(t, srv, "remove_table_row", map[string]any{"table": "power_misc", "index": float64(0)}); !r.IsError {
		t.Error("last row removed")
	}
	if r = callTool(t, srv, "add_table_row", map[string]any{"table": "chairs"}); !r.IsError {
		t.Error("unknown table accepted")
	}
}

func TestAddNotesPage(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "add_notes_page", map[string]any{"section": "boiler"})
	if resultText(r) != "notes_page_boiler_1" {
		t.Errorf("add_notes_page = %q", resultText(r))
	}
	if r = callTool(t, srv, "add_notes_page", map[string]any{"section": "kitchen"}); !r.IsError {
		t.Error("unknown section accepted")
	}
}

func TestSetInk(t *testing.T) {
	srv, svc := testServer(t)
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for x := 0; x < 64; x++ {
		img.SetNRGBA(x, 16, color.NRGBA{A: 255})
		img.SetNRGBA(x, 17, color.NRGBA{A: 255})
	}
	uri, err := ink.EncodeDataURI(img)
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "set_ink", map[string]any{"field": "notes_page_hvac_0", "data_uri": uri})
	if r.IsError || resultText(r) != "ink set: notes_page_hvac_0 (64x32)" {
		t.Fatalf("set_ink = %q", resultText(r))
	}
	if !strings.HasPrefix(svc.Snapshot(context.Background()).Fields["notes_page_hvac_0_ink"], "data:image/png") {
		t.Error("ink not serialized")
	}
	if r = callTool(t, srv, "set_ink", map[string]any{"field": "notes_page_hvac_0", "data_uri": "data:image/png;base64,!!"}); !r.IsError {
		t.Error("bad data URI accepted")
	}
	if r = callTool(t, srv, "set_ink", map[string]any{"field": "notes_page_hvac_0"}); r.IsError {
		t.Errorf("clear = %q", resultText(r))
	}
	if got := svc.Snapshot(context.Background()).Fields["notes_page_hvac_0_ink"]; got != "" {
		t.Errorf("ink field after clear = %d bytes", len(got))
	}
}

func TestExportReport(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "set_field", map[string]any{"name": "facility_name", "value": "Acme Plant"})

	dir := t.TempDir()
	r := callTool(t, srv, "export_report", map[string]any{"dir": dir})
	if r.IsError {
		t.Fatalf("export_report: %s", resultText(r))
	}
	want := filepath.Join(dir, "ITAC-Energy-Audit-Acme-Plant-2026-03-01.pdf")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("not a PDF")
	}
	if !strings.Contains(resultText(r), `"pages": 1`) {
		t.Errorf("result = %s", resultText(r))
	}

	r = callTool(t, srv, "export_report", map[string]any{})
	if r.IsError || !strings.Contains(resultText(r), "exports") {
		t.Errorf("default dir result = %s", resultText(r))
	}
}

func TestResetFormNeedsConfirm(t *testing.T) {
	srv, svc := testServer(t)
	callTool(t, srv, "set_field", map[string]any{"name": "facility_name", "value": "Acme Plant"})

	if r := callTool(t, srv, "reset_form", map[string]any{"confirm": false}); !r.IsError {
		t.Error("unconfirmed reset succeeded")
	}
	if r := callTool(t, srv, "reset_form", map[string]any{}); !r.IsError {
		t.Error("reset without confirm succeeded")
	}
	if v, _ := svc.Value("facility_name"); v != "Acme Plant" {
		t.Fatal("declined reset changed the form")
	}
	if r := callTool(t, srv, "reset_form", map[string]any{"confirm": true}); r.IsError {
		t.Fatalf("reset_form: %s", resultText(r))
	}
	if v, _ := svc.Value("facility_name"); v != "" {
		t.Errorf("facility_name = %q after reset", v)
	}
}

func TestResources(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readSchemaResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("schema resource: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	var d schema.Description
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if len(d.Sections) != 10 {
		t.Errorf("sections = %d", len(d.Sections))
	}

	contents, err = srv.readGuideResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || !strings.Contains(contents[0].(mcp.TextResourceContents).Text, "reset_form") {
		t.Errorf("guide resource: %v", err)
	}
}
