// Package tools implements the MCP tool handlers exposed by the SpecForge
// server.
//
// Each tool is a struct that receives its dependencies (feature store,
// dedupe engine) at construction and exposes a Definition for registration
// plus a Handle compatible with mcp-go's CallToolRequest signature. One
// file per tool.
//
// Input problems (missing arguments, bad enums, unparsable task JSON) are
// reported as tool results via mcp.NewToolResultError so the calling model
// can correct itself; infrastructure failures return Go errors.
package tools

import (
	"fmt"
	"strings"

	"github.com/specforge/specforge/internal/feature"
)

// taskTable renders tasks as a Markdown table shared by the get and list
// style responses.
func taskTable(tasks []feature.Task) string {
	var b strings.Builder
	b.WriteString("| ID | Title | Status |\n")
	b.WriteString("|----|-------|--------|\n")
	for _, task := range tasks {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", task.ID, task.Title, task.Status)
	}
	return b.String()
}

// progressLine formats a one-line completion summary for a feature.
func progressLine(s feature.StatusSummary) string {
	return fmt.Sprintf("%d/%d tasks completed (%d%%) — overall: %s",
		s.Completed, s.Total, s.PercentComplete(), s.Overall())
}
