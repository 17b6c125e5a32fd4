package feature_test

import (
	"testing"

	"github.com/specforge/specforge/internal/analysis"
	"github.com/specforge/specforge/internal/feature"
)

func TestTaskID(t *testing.T) {
	tests := []struct {
		sequence int
		want     string
	}{
		{0, "task_01"},
		{1, "task_02"},
		{9, "task_10"},
		{99, "task_100"},
	}
	for _, tt := range tests {
		if got := feature.TaskID(tt.sequence); got != tt.want {
			t.Errorf("TaskID(%d) = %q, want %q", tt.sequence, got, tt.want)
		}
	}
}

func TestValidateStatus(t *testing.T) {
	for _, s := range []feature.TaskStatus{"not_started", "in_progress", "completed", "blocked"} {
		if err := feature.ValidateStatus(s); err != nil {
			t.Errorf("ValidateStatus(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range []feature.TaskStatus{"", "done", "NOT_STARTED", "in-progress"} {
		if err := feature.ValidateStatus(s); err == nil {
			t.Errorf("ValidateStatus(%q) = nil, want error", s)
		}
	}
}

func TestFromDraft(t *testing.T) {
	draft := analysis.TaskDraft{
		Title:              "Add Session Middleware",
		Summary:            "Wrap handlers with session lookup",
		Implementation:     "Use the existing middleware chain",
		AcceptanceCriteria: []string{"requests without a session get 401"},
		Dependencies:       []string{"task_01"},
	}

	task := feature.FromDraft("user-login", 2, draft, "2026-01-02T03:04:05Z")

	if task.ID != "task_03" {
		t.Errorf("ID = %q, want task_03", task.ID)
	}
	if task.Slug != "add-session-middleware" {
		t.Errorf("Slug = %q", task.Slug)
	}
	if task.Status != feature.StatusNotStarted {
		t.Errorf("Status = %q, want not_started", task.Status)
	}
	if task.FeatureName != "user-login" {
		t.Errorf("FeatureName = %q", task.FeatureName)
	}
	if task.CreatedAt != "2026-01-02T03:04:05Z" || task.UpdatedAt != task.CreatedAt {
		t.Errorf("timestamps = %q / %q", task.CreatedAt, task.UpdatedAt)
	}
}

func TestRenumber(t *testing.T) {
	tasks := []feature.Task{
		{ID: "task_01", Sequence: 0},
		{ID: "task_05", Sequence: 4},
		{ID: "task_09", Sequence: 8},
	}
	feature.Renumber(tasks)

	for i, task := range tasks {
		if task.Sequence != i {
			t.Errorf("tasks[%d].Sequence = %d, want %d", i, task.Sequence, i)
		}
		if task.ID != feature.TaskID(i) {
			t.Errorf("tasks[%d].ID = %q, want %q", i, task.ID, feature.TaskID(i))
		}
	}
}

func TestStatusSummaryOverall(t *testing.T) {
	tests := []struct {
		name    string
		summary feature.StatusSummary
		want    feature.TaskStatus
	}{
		{"all completed", feature.StatusSummary{Total: 3, Completed: 3}, feature.StatusCompleted},
		{"has blocked", feature.StatusSummary{Total: 3, Completed: 1, Blocked: 1, NotStarted: 1}, feature.StatusBlocked},
		{"in progress", feature.StatusSummary{Total: 3, InProgress: 1, NotStarted: 2}, feature.StatusInProgress},
		{"partially done", feature.StatusSummary{Total: 3, Completed: 1, NotStarted: 2}, feature.StatusInProgress},
		{"untouched", feature.StatusSummary{Total: 3, NotStarted: 3}, feature.StatusNotStarted},
		{"empty", feature.StatusSummary{}, feature.StatusNotStarted},
	}
	for _, tt := range tests {
		if got := tt.summary.Overall(); got != tt.want {
			t.Errorf("%s: Overall() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestStatusSummaryPercent(t *testing.T) {
	s := feature.StatusSummary{Total: 4, Completed: 1}
	if got := s.PercentComplete(); got != 25 {
		t.Errorf("PercentComplete() = %d, want 25", got)
	}
	empty := feature.StatusSummary{}
	if got := empty.PercentComplete(); got != 0 {
		t.Errorf("empty PercentComplete() = %d, want 0", got)
	}
}
