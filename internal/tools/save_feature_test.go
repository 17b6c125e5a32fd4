package tools

import (
	"context"
	"strings"
	"testing"
)

func TestSaveFeatureTool_Definition(t *testing.T) {
	_, engine := newTestDeps(t)
	def := NewSaveFeatureTool(engine).Definition()

	if def.Name != "forge_save_feature" {
		t.Errorf("name = %q, want forge_save_feature", def.Name)
	}
}

func TestSaveFeatureTool_Handle_Success(t *testing.T) {
	store, engine := newTestDeps(t)
	tool := NewSaveFeatureTool(engine)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "user-login",
		"spec":         loginSpec,
		"grade":        "A",
		"score":        float64(92),
		"tasks":        loginTasksJSON,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "Feature Saved") {
		t.Error("result should contain 'Feature Saved' header")
	}
	if !strings.Contains(text, "user-login") {
		t.Error("result should contain the feature name")
	}
	if !strings.Contains(text, "task_01") || !strings.Contains(text, "task_02") {
		t.Error("result should list the saved tasks")
	}
	if !strings.Contains(text, "Files Written") {
		t.Error("result should list materialized files")
	}

	tasks, err := store.GetTasks("user-login")
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("persisted %d tasks, want 2", len(tasks))
	}
}

func TestSaveFeatureTool_Handle_MissingTasks(t *testing.T) {
	_, engine := newTestDeps(t)
	tool := NewSaveFeatureTool(engine)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "user-login",
		"spec":         loginSpec,
		"grade":        "A",
		"score":        float64(92),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for missing tasks")
	}
	if !strings.Contains(getResultText(result), "tasks") {
		t.Errorf("error should mention tasks: %s", getResultText(result))
	}
}

func TestSaveFeatureTool_Handle_MalformedTasksJSON(t *testing.T) {
	_, engine := newTestDeps(t)
	tool := NewSaveFeatureTool(engine)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "user-login",
		"spec":         loginSpec,
		"grade":        "A",
		"score":        float64(92),
		"tasks":        "[{not json",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for malformed JSON")
	}
}

func TestSaveFeatureTool_Handle_InvalidName(t *testing.T) {
	_, engine := newTestDeps(t)
	tool := NewSaveFeatureTool(engine)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "User Login",
		"spec":         loginSpec,
		"grade":        "A",
		"score":        float64(92),
		"tasks":        loginTasksJSON,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for invalid feature name")
	}
}

func TestSaveFeatureTool_Handle_InvalidStrategy(t *testing.T) {
	_, engine := newTestDeps(t)
	tool := NewSaveFeatureTool(engine)

	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "user-login",
		"spec":         loginSpec,
		"grade":        "A",
		"score":        float64(92),
		"tasks":        loginTasksJSON,
		"strategy":     "overwrite",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for unknown strategy")
	}
}

func TestSaveFeatureTool_Handle_DuplicatePrompts(t *testing.T) {
	store, engine := newTestDeps(t)
	saveTestFeature(t, engine, "user-login")

	tool := NewSaveFeatureTool(engine)
	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "user-login",
		"spec":         loginSpec,
		"grade":        "B",
		"score":        float64(75),
		"tasks":        loginTasksJSON,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("prompt should be a normal result: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "Duplicate Detected") {
		t.Error("result should contain the duplicate report header")
	}
	if !strings.Contains(text, "exact_match") {
		t.Error("result should name the duplicate type")
	}
	if !strings.Contains(text, "strategy") {
		t.Error("result should tell the caller to re-invoke with a strategy")
	}

	// Nothing persisted: original grade survives.
	f, err := store.Get("user-login")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(f.Grade) != "A" {
		t.Errorf("grade = %s, prompt should not have persisted the B", f.Grade)
	}
}

func TestSaveFeatureTool_Handle_ReplaceStrategy(t *testing.T) {
	store, engine := newTestDeps(t)
	saveTestFeature(t, engine, "user-login")

	tool := NewSaveFeatureTool(engine)
	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "user-login",
		"spec":         loginSpec,
		"grade":        "B",
		"score":        float64(75),
		"tasks":        loginTasksJSON,
		"strategy":     "replace",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "Feature Replaced") {
		t.Error("result should contain 'Feature Replaced' header")
	}

	f, err := store.Get("user-login")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(f.Grade) != "B" {
		t.Errorf("grade = %s, want B after replace", f.Grade)
	}
}

func TestSaveFeatureTool_Handle_SkipStrategy(t *testing.T) {
	_, engine := newTestDeps(t)
	saveTestFeature(t, engine, "user-login")

	tool := NewSaveFeatureTool(engine)
	result, err := tool.Handle(context.Background(), callRequest(map[string]interface{}{
		"feature_name": "user-login",
		"spec":         loginSpec,
		"grade":        "A",
		"score":        float64(92),
		"tasks":        loginTasksJSON,
		"strategy":     "skip",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(getResultText(result), "Save Skipped") {
		t.Errorf("result should contain 'Save Skipped': %s", getResultText(result))
	}
}
