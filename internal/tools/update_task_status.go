package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specforge/specforge/internal/feature"
)

// UpdateTaskStatusTool handles the forge_update_task_status MCP tool.
// It moves a single task through its lifecycle.
type UpdateTaskStatusTool struct {
	store *feature.Store
}

// NewUpdateTaskStatusTool creates an UpdateTaskStatusTool with the given store.
func NewUpdateTaskStatusTool(store *feature.Store) *UpdateTaskStatusTool {
	return &UpdateTaskStatusTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateTaskStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("forge_update_task_status",
		mcp.WithDescription(
			"Update the status of one task within a feature. "+
				"Statuses: not_started, in_progress, completed, blocked.",
		),
		mcp.WithString("feature_name",
			mcp.Required(),
			mcp.Description("Name of the feature owning the task."),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task identifier. Example: 'task_01'"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status: not_started, in_progress, completed, or blocked."),
		),
		mcp.WithString("notes",
			mcp.Description("Optional progress notes to attach to the task."),
		),
	)
}

// Handle processes the forge_update_task_status tool call.
func (t *UpdateTaskStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("feature_name", "")
	taskID := req.GetString("task_id", "")
	status := req.GetString("status", "")
	notes := req.GetString("notes", "")

	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("'feature_name' is required"), nil
	}
	if strings.TrimSpace(taskID) == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	if err := feature.ValidateStatus(feature.TaskStatus(status)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := t.store.UpdateTaskStatus(name, taskID, feature.TaskStatus(status), notes)
	if err != nil {
		if errors.Is(err, feature.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"task %q not found in feature %q", taskID, name)), nil
		}
		return nil, err
	}

	summary, err := t.store.Status(name)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# Task Updated\n\n")
	fmt.Fprintf(&b, "**Feature:** %s\n", name)
	fmt.Fprintf(&b, "**Task:** %s — %s\n", task.ID, task.Title)
	fmt.Fprintf(&b, "**Status:** %s\n", task.Status)
	if task.Notes != "" {
		fmt.Fprintf(&b, "**Notes:** %s\n", task.Notes)
	}
	fmt.Fprintf(&b, "\n%s\n", progressLine(*summary))

	return mcp.NewToolResultText(b.String()), nil
}
