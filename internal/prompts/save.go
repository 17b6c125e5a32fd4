// Package prompts implements the MCP prompt handlers the SpecForge server
// exposes.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// SavePrompt handles the forge-save MCP prompt.
// It guides the AI through analyzing a specification and saving it as a
// feature with extracted tasks.
type SavePrompt struct{}

// NewSavePrompt creates a SavePrompt.
func NewSavePrompt() *SavePrompt {
	return &SavePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *SavePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("forge-save",
		mcp.WithPromptDescription(
			"Analyze a specification and save it as a feature. "+
				"Grades the spec, extracts actionable tasks with acceptance "+
				"criteria, and runs duplicate detection before anything is stored.",
		),
		mcp.WithArgument("feature_name",
			mcp.ArgumentDescription("Kebab-case name for the feature. Example: 'user-login'"),
		),
	)
}

// Handle processes the forge-save prompt request.
func (p *SavePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	featureName := "my-feature"
	if args := req.Params.Arguments; args != nil {
		if name, ok := args["feature_name"]; ok && name != "" {
			featureName = name
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Analyze and save feature: %s", featureName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to save a specification as the feature '%s'.\n\n"+
						"Please:\n"+
						"1. Ask me for the specification text (or read it from the file I point you at)\n"+
						"2. Analyze it: assign a quality grade (A+ to F) and a 0-100 score, "+
						"and extract concrete tasks — each with a title, summary, and at least "+
						"one acceptance criterion\n"+
						"3. Run `forge_save_feature` with feature_name='%s', the spec text, "+
						"your grade/score, and the tasks as a JSON array\n"+
						"4. If the tool reports a duplicate, show me the report and ask whether "+
						"to merge, replace, or skip — then re-run with that strategy\n"+
						"5. Summarize what was saved and where the files were written",
					featureName, featureName,
				)),
			},
		},
	}, nil
}
