package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specforge/specforge/internal/dedupe"
)

// FindSimilarTool handles the forge_find_similar MCP tool.
// It scores a candidate spec against every stored feature without saving
// anything — a dry run of the duplicate scan.
type FindSimilarTool struct {
	engine    *dedupe.Engine
	threshold float64
}

// NewFindSimilarTool creates a FindSimilarTool using the engine and the
// configured default similarity threshold.
func NewFindSimilarTool(engine *dedupe.Engine, defaultThreshold float64) *FindSimilarTool {
	return &FindSimilarTool{engine: engine, threshold: defaultThreshold}
}

// Definition returns the MCP tool definition for registration.
func (t *FindSimilarTool) Definition() mcp.Tool {
	return mcp.NewTool("forge_find_similar",
		mcp.WithDescription(
			"Score a candidate specification against every stored feature and "+
				"return the matches above the similarity threshold, best first. "+
				"Read-only: nothing is saved.",
		),
		mcp.WithString("spec",
			mcp.Required(),
			mcp.Description("Candidate specification text to compare."),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Similarity threshold override (0-1). Defaults to the configured value."),
		),
	)
}

// Handle processes the forge_find_similar tool call.
func (t *FindSimilarTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec := req.GetString("spec", "")
	if strings.TrimSpace(spec) == "" {
		return mcp.NewToolResultError("'spec' is required — provide the specification text to compare"), nil
	}
	threshold := req.GetFloat("threshold", t.threshold)
	if threshold < 0 || threshold > 1 {
		return mcp.NewToolResultError(fmt.Sprintf("threshold %v out of range [0,1]", threshold)), nil
	}

	matches, err := t.engine.FindSimilar(spec, threshold, "")
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No stored feature scores at or above %.2f against this spec.", threshold)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Similar Features (threshold %.2f)\n\n", threshold)
	b.WriteString("| Feature | Score | Tasks | Status | Excerpt |\n")
	b.WriteString("|---------|-------|-------|--------|--------|\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "| %s | %.2f | %d | %s | %s |\n",
			m.FeatureName, m.Score, m.TaskCount, m.Status, m.Summary)
	}

	return mcp.NewToolResultText(b.String()), nil
}
