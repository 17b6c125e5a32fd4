// Package analysis defines the validated result types that cross the
// AI boundary.
//
// The host-side model performs the semantic work (quality grading, task
// extraction); this package only checks the *shape* of what comes back.
// Each result kind is its own struct with a Validate method — there is no
// dynamically-typed payload plumbing past this boundary.
package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Grade is the quality verdict assigned to a specification.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// validGrades is the set of allowed grades.
var validGrades = map[Grade]bool{
	GradeAPlus: true,
	GradeA:     true,
	GradeB:     true,
	GradeC:     true,
	GradeD:     true,
	GradeF:     true,
}

// ValidateGrade returns an error if the grade is not recognized.
func ValidateGrade(g Grade) error {
	if !validGrades[g] {
		return fmt.Errorf("invalid grade %q: must be one of: A+, A, B, C, D, F", g)
	}
	return nil
}

// Pattern is a pointer to an existing codebase pattern a task should follow.
type Pattern struct {
	Name   string `json:"name"`
	Anchor string `json:"anchor"`
}

// TaskDraft is one extracted task as produced by the analysis, before it
// is assigned an ID and sequence by the save pipeline.
type TaskDraft struct {
	Title              string    `json:"title"`
	Summary            string    `json:"summary"`
	Implementation     string    `json:"implementation,omitempty"`
	AcceptanceCriteria []string  `json:"acceptance_criteria"`
	TestFile           string    `json:"test_file,omitempty"`
	CoverageTarget     string    `json:"coverage_target,omitempty"`
	Dependencies       []string  `json:"dependencies,omitempty"`
	Blocks             []string  `json:"blocks,omitempty"`
	RelevantPatterns   []Pattern `json:"relevant_patterns,omitempty"`
}

// Validate checks the draft's shape. Position is used in error messages
// so the caller can point at the offending array element.
func (d TaskDraft) Validate(position int) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("task %d: title is required", position)
	}
	if strings.TrimSpace(d.Summary) == "" {
		return fmt.Errorf("task %d: summary is required", position)
	}
	if len(d.AcceptanceCriteria) == 0 {
		return fmt.Errorf("task %d: at least one acceptance criterion is required", position)
	}
	for i, ac := range d.AcceptanceCriteria {
		if strings.TrimSpace(ac) == "" {
			return fmt.Errorf("task %d: acceptance criterion %d is empty", position, i)
		}
	}
	return nil
}

// SpecAnalysis is the full validated output of a spec-quality analysis:
// the grade/score verdict plus the extracted task drafts.
type SpecAnalysis struct {
	Grade   Grade       `json:"grade"`
	Score   int         `json:"score"`
	Summary string      `json:"summary,omitempty"`
	Tasks   []TaskDraft `json:"tasks"`
}

// Validate checks the analysis shape: grade enum, score range, and every
// task draft. It does not judge content — that already happened host-side.
func (a SpecAnalysis) Validate() error {
	if err := ValidateGrade(a.Grade); err != nil {
		return err
	}
	if a.Score < 0 || a.Score > 100 {
		return fmt.Errorf("score %d out of range [0,100]", a.Score)
	}
	if len(a.Tasks) == 0 {
		return fmt.Errorf("at least one task is required")
	}
	for i, task := range a.Tasks {
		if err := task.Validate(i + 1); err != nil {
			return err
		}
	}
	return nil
}

// ParseTaskDrafts decodes a JSON array of task drafts and validates each.
func ParseTaskDrafts(raw string) ([]TaskDraft, error) {
	var drafts []TaskDraft
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		return nil, fmt.Errorf("parsing tasks JSON: %w", err)
	}
	for i, d := range drafts {
		if err := d.Validate(i + 1); err != nil {
			return nil, err
		}
	}
	return drafts, nil
}

// ─── Slugs ───────────────────────────────────────────────────────────────────

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title into a lowercase hyphenated slug.
func Slugify(s string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

// validSlug matches feature names: lowercase alphanumerics and hyphens,
// starting and ending with an alphanumeric.
var validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateFeatureName checks that a feature name is a non-empty slug.
func ValidateFeatureName(name string) error {
	if name == "" {
		return fmt.Errorf("feature name is required")
	}
	if !validSlug.MatchString(name) {
		return fmt.Errorf("invalid feature name %q: must be a lowercase slug (e.g. user-login)", name)
	}
	return nil
}
