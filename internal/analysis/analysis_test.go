package analysis_test

import (
	"strings"
	"testing"

	"github.com/specforge/specforge/internal/analysis"
)

func validDraft() analysis.TaskDraft {
	return analysis.TaskDraft{
		Title:              "Create login endpoint",
		Summary:            "POST /login validating credentials",
		AcceptanceCriteria: []string{"returns 200 on valid credentials"},
	}
}

// ─── Grades ─────────────────────────────────────────────────────────────────

func TestValidateGrade(t *testing.T) {
	for _, g := range []analysis.Grade{"A+", "A", "B", "C", "D", "F"} {
		if err := analysis.ValidateGrade(g); err != nil {
			t.Errorf("ValidateGrade(%q) = %v, want nil", g, err)
		}
	}
	for _, g := range []analysis.Grade{"", "E", "a", "A-", "pass"} {
		if err := analysis.ValidateGrade(g); err == nil {
			t.Errorf("ValidateGrade(%q) = nil, want error", g)
		}
	}
}

// ─── TaskDraft ──────────────────────────────────────────────────────────────

func TestTaskDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*analysis.TaskDraft)
		wantErr string
	}{
		{"valid", func(d *analysis.TaskDraft) {}, ""},
		{"missing title", func(d *analysis.TaskDraft) { d.Title = "  " }, "title is required"},
		{"missing summary", func(d *analysis.TaskDraft) { d.Summary = "" }, "summary is required"},
		{"no criteria", func(d *analysis.TaskDraft) { d.AcceptanceCriteria = nil }, "acceptance criterion"},
		{"blank criterion", func(d *analysis.TaskDraft) { d.AcceptanceCriteria = []string{" "} }, "is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate(3)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

// ─── SpecAnalysis ───────────────────────────────────────────────────────────

func TestSpecAnalysisValidate(t *testing.T) {
	a := analysis.SpecAnalysis{
		Grade: analysis.GradeB,
		Score: 82,
		Tasks: []analysis.TaskDraft{validDraft()},
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	a.Score = 101
	if err := a.Validate(); err == nil {
		t.Error("score 101 accepted, want error")
	}

	a.Score = 82
	a.Tasks = nil
	if err := a.Validate(); err == nil {
		t.Error("empty task list accepted, want error")
	}

	a.Tasks = []analysis.TaskDraft{validDraft()}
	a.Grade = "Z"
	if err := a.Validate(); err == nil {
		t.Error("grade Z accepted, want error")
	}
}

func TestParseTaskDrafts(t *testing.T) {
	raw := `[{"title":"T1","summary":"S1","acceptance_criteria":["done"]},
	         {"title":"T2","summary":"S2","acceptance_criteria":["a","b"]}]`
	drafts, err := analysis.ParseTaskDrafts(raw)
	if err != nil {
		t.Fatalf("ParseTaskDrafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}
	if drafts[1].AcceptanceCriteria[1] != "b" {
		t.Errorf("criteria not preserved: %v", drafts[1].AcceptanceCriteria)
	}
}

func TestParseTaskDrafts_Invalid(t *testing.T) {
	if _, err := analysis.ParseTaskDrafts(`not json`); err == nil {
		t.Error("malformed JSON accepted")
	}
	if _, err := analysis.ParseTaskDrafts(`[{"title":"","summary":"s","acceptance_criteria":["x"]}]`); err == nil {
		t.Error("draft with empty title accepted")
	}
}

// ─── Slugs ──────────────────────────────────────────────────────────────────

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Create Login Endpoint", "create-login-endpoint"},
		{"  spaced  out  ", "spaced-out"},
		{"already-a-slug", "already-a-slug"},
		{"Mixed_Case & Symbols!", "mixed-case-symbols"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := analysis.Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateFeatureName(t *testing.T) {
	for _, name := range []string{"user-login", "a", "v2-api", "x9"} {
		if err := analysis.ValidateFeatureName(name); err != nil {
			t.Errorf("ValidateFeatureName(%q) = %v, want nil", name, err)
		}
	}
	for _, name := range []string{"", "User-Login", "-leading", "trailing-", "has space", "under_score"} {
		if err := analysis.ValidateFeatureName(name); err == nil {
			t.Errorf("ValidateFeatureName(%q) = nil, want error", name)
		}
	}
}
