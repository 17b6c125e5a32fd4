package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specforge/specforge/internal/feature"
)

// GetFeatureTool handles the forge_get_feature MCP tool.
// It returns a stored feature's verdict, spec, and ordered task list.
type GetFeatureTool struct {
	store *feature.Store
}

// NewGetFeatureTool creates a GetFeatureTool with the given store.
func NewGetFeatureTool(store *feature.Store) *GetFeatureTool {
	return &GetFeatureTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *GetFeatureTool) Definition() mcp.Tool {
	return mcp.NewTool("forge_get_feature",
		mcp.WithDescription(
			"Retrieve a stored feature: quality verdict, specification text, "+
				"and the ordered task list with statuses.",
		),
		mcp.WithString("feature_name",
			mcp.Required(),
			mcp.Description("Name of the feature to retrieve."),
		),
	)
}

// Handle processes the forge_get_feature tool call.
func (t *GetFeatureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("feature_name", "")
	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("'feature_name' is required"), nil
	}

	f, err := t.store.Get(name)
	if err != nil {
		if errors.Is(err, feature.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"feature %q not found — use forge_list_features to see what is stored", name)), nil
		}
		return nil, err
	}
	tasks, err := t.store.GetTasks(name)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Feature: %s\n\n", f.Name)
	fmt.Fprintf(&b, "**Grade:** %s (%d/100)\n", f.Grade, f.Score)
	fmt.Fprintf(&b, "**Created:** %s\n", f.CreatedAt)
	fmt.Fprintf(&b, "**Tasks:** %d\n\n", len(tasks))

	b.WriteString("## Tasks\n\n")
	b.WriteString(taskTable(tasks))

	b.WriteString("\n## Specification\n\n")
	b.WriteString(f.Spec)
	b.WriteString("\n")

	return mcp.NewToolResultText(b.String()), nil
}
