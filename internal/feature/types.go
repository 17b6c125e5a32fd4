// Package feature holds the feature/task domain model and the SQLite-backed
// repository that persists it.
//
// A Feature is a named unit of specification text plus the tasks extracted
// from it. Task IDs are sequence-derived (task_01, task_02, ...) and are
// regenerated whenever a merge renumbers the list — sequence values within
// a feature are always contiguous starting at 0.
package feature

import (
	"errors"
	"fmt"

	"github.com/specforge/specforge/internal/analysis"
)

// Sentinel errors for the repository failure taxonomy.
var (
	// ErrNotFound is returned when a feature or task lookup misses.
	ErrNotFound = errors.New("not found")
	// ErrNotInitialized is returned when the store is used before Open
	// succeeded. Callers should surface the remediation hint as-is.
	ErrNotInitialized = errors.New("feature store is not initialized: run specforge serve from a project directory")
)

// --- Task status enum ---

// TaskStatus tracks the lifecycle of a single task.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

// validStatuses is the set of allowed task statuses.
var validStatuses = map[TaskStatus]bool{
	StatusNotStarted: true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusBlocked:    true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s TaskStatus) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid task status %q: must be one of: not_started, in_progress, completed, blocked", s)
	}
	return nil
}

// --- Core data structures ---

// Feature is a named specification with its quality verdict.
type Feature struct {
	Name      string         `json:"name"`
	Spec      string         `json:"spec"`
	Grade     analysis.Grade `json:"grade"`
	Score     int            `json:"score"`
	CreatedAt string         `json:"created_at"`
}

// Task is one actionable unit of work belonging to a feature.
type Task struct {
	ID                 string             `json:"id"`
	FeatureName        string             `json:"feature_name"`
	Sequence           int                `json:"sequence"`
	Title              string             `json:"title"`
	Slug               string             `json:"slug"`
	Summary            string             `json:"summary"`
	Implementation     string             `json:"implementation,omitempty"`
	Status             TaskStatus         `json:"status"`
	AcceptanceCriteria []string           `json:"acceptance_criteria"`
	TestFile           string             `json:"test_file,omitempty"`
	CoverageTarget     string             `json:"coverage_target,omitempty"`
	Notes              string             `json:"notes,omitempty"`
	Dependencies       []string           `json:"dependencies,omitempty"`
	Blocks             []string           `json:"blocks,omitempty"`
	RelevantPatterns   []analysis.Pattern `json:"relevant_patterns,omitempty"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
}

// TaskID derives the stable task identifier from a sequence index.
// Sequence 0 maps to task_01.
func TaskID(sequence int) string {
	return fmt.Sprintf("task_%02d", sequence+1)
}

// FromDraft builds a Task from a validated analysis draft at the given
// sequence position. ID and slug are derived; status starts not_started.
func FromDraft(featureName string, sequence int, d analysis.TaskDraft, now string) Task {
	return Task{
		ID:                 TaskID(sequence),
		FeatureName:        featureName,
		Sequence:           sequence,
		Title:              d.Title,
		Slug:               analysis.Slugify(d.Title),
		Summary:            d.Summary,
		Implementation:     d.Implementation,
		Status:             StatusNotStarted,
		AcceptanceCriteria: d.AcceptanceCriteria,
		TestFile:           d.TestFile,
		CoverageTarget:     d.CoverageTarget,
		Dependencies:       d.Dependencies,
		Blocks:             d.Blocks,
		RelevantPatterns:   d.RelevantPatterns,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Renumber rewrites sequence values to be contiguous from 0 and regenerates
// task IDs to match. Mutates the slice in place.
func Renumber(tasks []Task) {
	for i := range tasks {
		tasks[i].Sequence = i
		tasks[i].ID = TaskID(i)
	}
}

// SpecEntry is the lightweight {name, spec} pair used for similarity scans.
type SpecEntry struct {
	Name string `json:"name"`
	Spec string `json:"spec"`
}

// StatusSummary is the per-status task breakdown for one feature.
type StatusSummary struct {
	FeatureName string `json:"feature_name"`
	Total       int    `json:"total"`
	NotStarted  int    `json:"not_started"`
	InProgress  int    `json:"in_progress"`
	Completed   int    `json:"completed"`
	Blocked     int    `json:"blocked"`
}

// Overall reduces the breakdown to a single status label.
func (s StatusSummary) Overall() TaskStatus {
	switch {
	case s.Total > 0 && s.Completed == s.Total:
		return StatusCompleted
	case s.Blocked > 0:
		return StatusBlocked
	case s.InProgress > 0 || s.Completed > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// PercentComplete returns completed/total as a 0–100 integer.
func (s StatusSummary) PercentComplete() int {
	if s.Total == 0 {
		return 0
	}
	return s.Completed * 100 / s.Total
}

// ListEntry is a compact view of a feature for listing tools.
type ListEntry struct {
	Name      string         `json:"name"`
	Grade     analysis.Grade `json:"grade"`
	Score     int            `json:"score"`
	TaskCount int            `json:"task_count"`
	CreatedAt string         `json:"created_at"`
}
