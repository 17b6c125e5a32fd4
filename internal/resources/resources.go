// Package resources implements the MCP resource handlers the SpecForge
// server exposes.
//
// Resources provide read-only data the host can consume for context. They
// use URI-based addressing (specforge://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specforge/specforge/internal/feature"
)

// Handler manages SpecForge resource endpoints.
type Handler struct {
	store *feature.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *feature.Store) *Handler {
	return &Handler{store: store}
}

// featureStatus is one feature's entry in the status resource.
type featureStatus struct {
	Name            string `json:"name"`
	Grade           string `json:"grade"`
	Score           int    `json:"score"`
	TaskCount       int    `json:"task_count"`
	Status          string `json:"status"`
	PercentComplete int    `json:"percent_complete"`
	CreatedAt       string `json:"created_at"`
}

// StatusResource returns the MCP resource definition for the feature
// status overview.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"specforge://features/status",
		"SpecForge Feature Status",
		mcp.WithResourceDescription("All stored features with grade, task count, and completion progress"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the status of every stored feature as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := h.store.List()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	statuses := make([]featureStatus, 0, len(entries))
	for _, e := range entries {
		summary, err := h.store.Status(e.Name)
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}
		statuses = append(statuses, featureStatus{
			Name:            e.Name,
			Grade:           string(e.Grade),
			Score:           e.Score,
			TaskCount:       e.TaskCount,
			Status:          string(summary.Overall()),
			PercentComplete: summary.PercentComplete(),
			CreatedAt:       e.CreatedAt,
		})
	}

	data, err := json.MarshalIndent(map[string]any{
		"feature_count": len(statuses),
		"features":      statuses,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource carrying an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
