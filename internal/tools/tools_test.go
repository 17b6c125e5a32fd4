package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/specforge/specforge/internal/config"
	"github.com/specforge/specforge/internal/dedupe"
	"github.com/specforge/specforge/internal/feature"
	"github.com/specforge/specforge/internal/render"
	"github.com/specforge/specforge/internal/similarity"
)

// newTestDeps wires a real store, engine, and materializer in temp dirs.
func newTestDeps(t *testing.T) (*feature.Store, *dedupe.Engine) {
	t.Helper()

	store, err := feature.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	files, err := render.NewMaterializer(t.TempDir())
	if err != nil {
		t.Fatalf("new materializer: %v", err)
	}

	engine := dedupe.New(store, similarity.New(), files, config.Default().Deduplication)
	return store, engine
}

// callRequest builds a CallToolRequest with the given arguments.
func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult reports whether a tool result is an error result.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

const loginSpec = `# User Login
Users sign in with email and password. The system must validate credentials
and create a session on success.

## Acceptance Criteria
- Sessions expire after twelve hours
- Failed attempts are rate limited`

const loginTasksJSON = `[
  {
    "title": "Build login endpoint",
    "summary": "Implement the POST /login handler",
    "acceptance_criteria": ["valid credentials create a session"]
  },
  {
    "title": "Add rate limiting",
    "summary": "Limit failed attempts per source address",
    "acceptance_criteria": ["sixth attempt within a minute is rejected"]
  }
]`

// saveTestFeature stores a feature through the save tool so later tests
// observe the same write path production does. The similarity scan is
// skipped so fixtures sharing spec text don't trip duplicate detection.
func saveTestFeature(t *testing.T, engine *dedupe.Engine, name string) {
	t.Helper()
	tool := NewSaveFeatureTool(engine)
	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name":          name,
		"spec":                  loginSpec,
		"grade":                 "A",
		"score":                 float64(92),
		"tasks":                 loginTasksJSON,
		"skip_similarity_check": true,
	}))
	if err != nil {
		t.Fatalf("saving %s: %v", name, err)
	}
	if isErrorResult(result) {
		t.Fatalf("saving %s: %s", name, getResultText(result))
	}
}
