package tools

import (
	"context"
	"strings"
	"testing"
)

func TestGetFeatureTool_Definition(t *testing.T) {
	store, _ := newTestDeps(t)
	def := NewGetFeatureTool(store).Definition()

	if def.Name != "forge_get_feature" {
		t.Errorf("name = %q, want forge_get_feature", def.Name)
	}
}

func TestGetFeatureTool_Handle_Success(t *testing.T) {
	store, engine := newTestDeps(t)
	saveTestFeature(t, engine, "user-login")

	tool := NewGetFeatureTool(store)
	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "user-login",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success: %s", getResultText(result))
	}

	text := getResultText(result)
	checks := []string{
		"# Feature: user-login",
		"**Grade:** A (92/100)",
		"task_01",
		"Build login endpoint",
		"task_02",
		"Add rate limiting",
		"## Specification",
		"# User Login",
	}
	for _, check := range checks {
		if !strings.Contains(text, check) {
			t.Errorf("result missing: %q", check)
		}
	}
}

func TestGetFeatureTool_Handle_NotFound(t *testing.T) {
	store, _ := newTestDeps(t)

	tool := NewGetFeatureTool(store)
	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "missing-feature",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for unknown feature")
	}
	if !strings.Contains(getResultText(result), "missing-feature") {
		t.Errorf("error should name the feature: %s", getResultText(result))
	}
}

func TestGetFeatureTool_Handle_MissingName(t *testing.T) {
	store, _ := newTestDeps(t)

	tool := NewGetFeatureTool(store)
	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for missing feature_name")
	}
}
