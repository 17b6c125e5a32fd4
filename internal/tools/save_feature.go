package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specforge/specforge/internal/analysis"
	"github.com/specforge/specforge/internal/config"
	"github.com/specforge/specforge/internal/dedupe"
)

// SaveFeatureTool handles the forge_save_feature MCP tool.
// It persists an analyzed specification and its extracted tasks, subject
// to duplicate detection.
type SaveFeatureTool struct {
	engine *dedupe.Engine
}

// NewSaveFeatureTool creates a SaveFeatureTool backed by the given engine.
func NewSaveFeatureTool(engine *dedupe.Engine) *SaveFeatureTool {
	return &SaveFeatureTool{engine: engine}
}

// Definition returns the MCP tool definition for registration.
func (t *SaveFeatureTool) Definition() mcp.Tool {
	return mcp.NewTool("forge_save_feature",
		mcp.WithDescription(
			"Save an analyzed specification as a feature with its extracted tasks. "+
				"Runs duplicate detection against stored features first. "+
				"By default a detected duplicate is NOT resolved automatically: the tool "+
				"returns a duplicate report and you must call it again with an explicit "+
				"'strategy' (merge, replace, skip) to resolve it.",
		),
		mcp.WithString("feature_name",
			mcp.Required(),
			mcp.Description("Kebab-case feature name. Example: 'user-login'"),
		),
		mcp.WithString("spec",
			mcp.Required(),
			mcp.Description("Full specification text the tasks were extracted from."),
		),
		mcp.WithString("grade",
			mcp.Required(),
			mcp.Description("Specification quality grade: A+, A, B, C, D, or F."),
		),
		mcp.WithNumber("score",
			mcp.Required(),
			mcp.Description("Specification quality score, 0-100."),
		),
		mcp.WithString("summary",
			mcp.Description("One-paragraph summary of the specification."),
		),
		mcp.WithString("tasks",
			mcp.Required(),
			mcp.Description(
				"JSON array of task drafts. Each element: {\"title\", \"summary\", "+
					"\"implementation\", \"acceptance_criteria\" (array, required), "+
					"\"test_file\", \"coverage_target\", \"dependencies\", \"blocks\", "+
					"\"relevant_patterns\" (array of {\"name\", \"anchor\"})}.",
			),
		),
		mcp.WithString("strategy",
			mcp.Description("How to resolve a detected duplicate: merge, replace, skip, or prompt (default)."),
		),
		mcp.WithBoolean("skip_similarity_check",
			mcp.Description("Skip the fuzzy similarity scan. Exact name collisions are still detected."),
		),
		mcp.WithNumber("similarity_threshold",
			mcp.Description("Override the configured similarity threshold for this call (0-1)."),
		),
	)
}

// Handle processes the forge_save_feature tool call.
func (t *SaveFeatureTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("feature_name", "")
	spec := req.GetString("spec", "")
	grade := req.GetString("grade", "")
	score := int(req.GetFloat("score", -1))
	summary := req.GetString("summary", "")
	rawTasks := req.GetString("tasks", "")
	strategy := req.GetString("strategy", "")

	if strings.TrimSpace(rawTasks) == "" {
		return mcp.NewToolResultError("'tasks' is required — provide a JSON array of task drafts"), nil
	}
	drafts, err := analysis.ParseTaskDrafts(rawTasks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parsing 'tasks': %v", err)), nil
	}
	if strategy != "" {
		if err := config.ValidateStrategy(strategy); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result := analysis.SpecAnalysis{
		Grade:   analysis.Grade(grade),
		Score:   score,
		Summary: summary,
		Tasks:   drafts,
	}
	opts := dedupe.Options{
		SkipSimilarityCheck: req.GetBool("skip_similarity_check", false),
		SimilarityThreshold: req.GetFloat("similarity_threshold", 0),
		OnSimilarFound:      dedupe.Strategy(strategy),
	}

	saved, err := t.engine.Save(name, spec, result, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSaveResult(name, saved)), nil
}

// formatSaveResult renders the outcome of a save as Markdown.
func formatSaveResult(requested string, r *dedupe.SaveResult) string {
	var b strings.Builder

	switch r.Outcome {
	case dedupe.OutcomePrompt:
		b.WriteString("# Duplicate Detected — Nothing Saved\n\n")
		writeDuplicateReport(&b, r.Duplicate)
		b.WriteString("\nCall forge_save_feature again with 'strategy' set to merge, replace, or skip.\n")
		return b.String()

	case dedupe.OutcomeSkipped:
		b.WriteString("# Save Skipped\n\n")
		b.WriteString("A duplicate was detected and the skip strategy was chosen; the repository is unchanged.\n\n")
		writeDuplicateReport(&b, r.Duplicate)
		return b.String()
	}

	switch r.Outcome {
	case dedupe.OutcomeCreated:
		b.WriteString("# Feature Saved\n\n")
	case dedupe.OutcomeReplaced:
		b.WriteString("# Feature Replaced\n\n")
	case dedupe.OutcomeMerged:
		b.WriteString("# Features Merged\n\n")
	}

	fmt.Fprintf(&b, "**Feature:** %s\n", r.Feature.Name)
	if r.Feature.Name != requested {
		fmt.Fprintf(&b, "**Requested name:** %s (merged into existing feature)\n", requested)
	}
	fmt.Fprintf(&b, "**Grade:** %s (%d/100)\n", r.Feature.Grade, r.Feature.Score)
	fmt.Fprintf(&b, "**Tasks:** %d\n\n", len(r.Tasks))

	if r.Merge != nil {
		fmt.Fprintf(&b, "Merged %d existing and %d new tasks; %d duplicate incoming tasks skipped.\n\n",
			r.Merge.OriginalTaskCount, r.Merge.NewTaskCount, r.Merge.DuplicateTasksSkipped)
	}

	b.WriteString(taskTable(r.Tasks))

	if len(r.Files) > 0 {
		b.WriteString("\n## Files Written\n\n")
		for _, path := range r.Files {
			fmt.Fprintf(&b, "- `%s`\n", path)
		}
	}
	return b.String()
}

// writeDuplicateReport renders the collision details shared by the prompt
// and skipped responses.
func writeDuplicateReport(b *strings.Builder, info *dedupe.DuplicateInfo) {
	if info == nil {
		return
	}
	fmt.Fprintf(b, "**Type:** %s\n", info.Type)
	if info.ExistingFeature != "" {
		fmt.Fprintf(b, "**Existing feature:** %s\n", info.ExistingFeature)
	}
	fmt.Fprintf(b, "**Recommended action:** %s\n", info.RecommendedAction)

	if len(info.SimilarFeatures) > 0 {
		b.WriteString("\n| Feature | Score | Tasks | Status |\n")
		b.WriteString("|---------|-------|-------|--------|\n")
		for _, sim := range info.SimilarFeatures {
			fmt.Fprintf(b, "| %s | %.2f | %d | %s |\n",
				sim.FeatureName, sim.Score, sim.TaskCount, sim.Status)
		}
	}
}
