package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/fieldaudit/internal/ink"
)

const maxInkURI = 20 << 20 // 20 MB of base64

func (s *Server) setInk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	uri := req.GetString("data_uri", "")
	if uri == "" {
		if err := s.svc.SetInk(ctx, field, nil); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("cleared: %s", field)), nil
	}
	if len(uri) > maxInkURI {
		return mcp.NewToolResultError(fmt.Sprintf("data URI too large: %d bytes (max %d)", len(uri), maxInkURI)), nil
	}
	img, err := ink.DecodeDataURI(uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SetInk(ctx, field, img); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b := img.Bounds()
	return mcp.NewToolResultText(fmt.Sprintf("ink set: %s (%dx%d)", field, b.Dx(), b.Dy())), nil
}
