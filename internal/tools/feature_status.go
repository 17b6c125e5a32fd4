package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specforge/specforge/internal/feature"
)

// FeatureStatusTool handles the forge_feature_status MCP tool.
// It reports the per-status task breakdown for one feature.
type FeatureStatusTool struct {
	store *feature.Store
}

// NewFeatureStatusTool creates a FeatureStatusTool with the given store.
func NewFeatureStatusTool(store *feature.Store) *FeatureStatusTool {
	return &FeatureStatusTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *FeatureStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("forge_feature_status",
		mcp.WithDescription(
			"Show a feature's progress: per-status task counts, completion "+
				"percentage, and the overall status label.",
		),
		mcp.WithString("feature_name",
			mcp.Required(),
			mcp.Description("Name of the feature to inspect."),
		),
	)
}

// Handle processes the forge_feature_status tool call.
func (t *FeatureStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("feature_name", "")
	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("'feature_name' is required"), nil
	}

	summary, err := t.store.Status(name)
	if err != nil {
		if errors.Is(err, feature.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("feature %q not found", name)), nil
		}
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Status: %s\n\n", name)
	fmt.Fprintf(&b, "%s\n\n", progressLine(*summary))
	b.WriteString("| Status | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| not_started | %d |\n", summary.NotStarted)
	fmt.Fprintf(&b, "| in_progress | %d |\n", summary.InProgress)
	fmt.Fprintf(&b, "| completed | %d |\n", summary.Completed)
	fmt.Fprintf(&b, "| blocked | %d |\n", summary.Blocked)

	return mcp.NewToolResultText(b.String()), nil
}
