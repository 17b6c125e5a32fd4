package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specforge/specforge/internal/feature"
)

// ListFeaturesTool handles the forge_list_features MCP tool.
type ListFeaturesTool struct {
	store *feature.Store
}

// NewListFeaturesTool creates a ListFeaturesTool with the given store.
func NewListFeaturesTool(store *feature.Store) *ListFeaturesTool {
	return &ListFeaturesTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ListFeaturesTool) Definition() mcp.Tool {
	return mcp.NewTool("forge_list_features",
		mcp.WithDescription(
			"List all stored features with their grade, score, and task count.",
		),
	)
}

// Handle processes the forge_list_features tool call.
func (t *ListFeaturesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.store.List()
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return mcp.NewToolResultText(
			"No features stored yet. Save one with forge_save_feature.",
		), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Features (%d)\n\n", len(entries))
	b.WriteString("| Feature | Grade | Score | Tasks | Created |\n")
	b.WriteString("|---------|-------|-------|-------|--------|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n",
			e.Name, e.Grade, e.Score, e.TaskCount, e.CreatedAt)
	}

	return mcp.NewToolResultText(b.String()), nil
}
