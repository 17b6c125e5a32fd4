package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the forge-status MCP prompt.
// It instructs the AI to read and present the stored feature state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("forge-status",
		mcp.WithPromptDescription(
			"Check the status of all stored features: grades, task counts, "+
				"completion progress, and what to work on next.",
		),
	)
}

// Handle processes the forge-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "SpecForge Feature Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `forge_list_features` to see what is stored.\n\n" +
						"Then:\n" +
						"1. Show me the features in a clear table with grade, score, and task progress\n" +
						"2. For anything in progress, run `forge_feature_status` and highlight blocked tasks\n" +
						"3. Tell me which task I should pick up next and why",
				),
			},
		},
	}, nil
}
