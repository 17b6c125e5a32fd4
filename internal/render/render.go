// Package render projects persisted feature state onto the filesystem:
// one Markdown file per task, Gherkin scenario files derived from
// acceptance criteria, a status dashboard, and a metadata record.
//
// Output is a pure function of the feature and its tasks — no wall clock,
// no counters — so re-materializing unchanged state produces byte-identical
// files.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/specforge/specforge/internal/analysis"
	"github.com/specforge/specforge/internal/feature"
)

// Template identifies one of the embedded output templates.
type Template string

const (
	TaskFile  Template = "task_file"
	Gherkin   Template = "gherkin"
	Dashboard Template = "dashboard"
)

const taskFileTemplate = `# {{.ID}}: {{.Title}}

**Feature**: {{.FeatureName}}
**Status**: {{.Status}}

## Summary

{{.Summary}}
{{- if .Implementation}}

## Implementation

{{.Implementation}}
{{- end}}

## Acceptance Criteria
{{range .Criteria}}
- [{{$.Checkbox}}] {{.}}
{{- end}}
{{- if .TestFile}}

## Testing

- Test file: ` + "`{{.TestFile}}`" + `
{{- if .CoverageTarget}}
- Coverage target: {{.CoverageTarget}}
{{- end}}
{{- end}}
{{- if .Dependencies}}

## Depends On
{{range .Dependencies}}
- {{.}}
{{- end}}
{{- end}}
{{- if .Blocks}}

## Blocks
{{range .Blocks}}
- {{.}}
{{- end}}
{{- end}}
{{- if .Patterns}}

## Relevant Patterns
{{range .Patterns}}
- **{{.Name}}**{{if .Anchor}} ({{.Anchor}}){{end}}
{{- end}}
{{- end}}
{{- if .Notes}}

## Notes

{{.Notes}}
{{- end}}
`

const gherkinTemplate = `Feature: {{.Title}}
{{- if .Summary}}
  {{.Summary}}
{{- end}}
{{range .Scenarios}}
  Scenario: {{.Name}}
    Given the "{{$.FeatureName}}" feature is implemented
    Then {{.Criterion}}
{{end}}`

const dashboardTemplate = `# {{.Name}} — Status Dashboard

**Grade**: {{.Grade}} ({{.Score}}/100)
**Overall**: {{.Overall}} — {{.Percent}}% complete

| Status | Count |
| --- | --- |
| not_started | {{.NotStarted}} |
| in_progress | {{.InProgress}} |
| completed | {{.Completed}} |
| blocked | {{.Blocked}} |

## Tasks

| ID | Title | Status |
| --- | --- | --- |
{{- range .Rows}}
| {{.ID}} | {{.Title}} | {{.Status}} |
{{- end}}
`

type taskFileData struct {
	ID             string
	Title          string
	FeatureName    string
	Status         feature.TaskStatus
	Checkbox       string
	Summary        string
	Implementation string
	Criteria       []string
	TestFile       string
	CoverageTarget string
	Dependencies   []string
	Blocks         []string
	Patterns       []analysis.Pattern
	Notes          string
}

type gherkinScenario struct {
	Name      string
	Criterion string
}

type gherkinData struct {
	Title       string
	FeatureName string
	Summary     string
	Scenarios   []gherkinScenario
}

type dashboardRow struct {
	ID     string
	Title  string
	Status feature.TaskStatus
}

type dashboardData struct {
	Name       string
	Grade      analysis.Grade
	Score      int
	Overall    feature.TaskStatus
	Percent    int
	NotStarted int
	InProgress int
	Completed  int
	Blocked    int
	Rows       []dashboardRow
}

// metadata is the persisted JSON record describing a feature's verdict
// and progress. Timestamps come from the repository, never the clock.
type metadata struct {
	Name            string         `json:"name"`
	Grade           analysis.Grade `json:"grade"`
	Score           int            `json:"score"`
	TaskCount       int            `json:"task_count"`
	Status          string         `json:"status"`
	PercentComplete int            `json:"percent_complete"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

// Renderer holds the parsed output templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	root := template.New("render")
	for name, text := range map[Template]string{
		TaskFile:  taskFileTemplate,
		Gherkin:   gherkinTemplate,
		Dashboard: dashboardTemplate,
	} {
		if _, err := root.New(string(name)).Parse(text); err != nil {
			return nil, fmt.Errorf("render: parsing %s template: %w", name, err)
		}
	}
	return &Renderer{tmpl: root}, nil
}

// Render executes one named template against its data.
func (r *Renderer) Render(name Template, data any) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.ExecuteTemplate(&buf, string(name), data); err != nil {
		return "", fmt.Errorf("render: executing %s template: %w", name, err)
	}
	return buf.String(), nil
}

// Materializer writes feature projections under a features directory,
// one subdirectory per feature.
type Materializer struct {
	featuresDir string
	renderer    *Renderer
}

// NewMaterializer creates a Materializer rooted at featuresDir. The
// directory itself is created lazily on the first write.
func NewMaterializer(featuresDir string) (*Materializer, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Materializer{featuresDir: featuresDir, renderer: renderer}, nil
}

// WriteFeature replaces the on-disk projection of one feature: per-task
// Markdown files, Gherkin scenarios, the dashboard, and metadata.json.
// Stale task files from a previous, larger task list are removed first.
// Returns the ordered list of written paths.
func (m *Materializer) WriteFeature(f feature.Feature, tasks []feature.Task) ([]string, error) {
	dir := filepath.Join(m.featuresDir, f.Name)
	gherkinDir := filepath.Join(dir, "gherkin")

	if err := m.clearStale(dir, gherkinDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(gherkinDir, 0o755); err != nil {
		return nil, fmt.Errorf("render: creating %s: %w", gherkinDir, err)
	}

	var written []string
	for _, task := range tasks {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.md", task.ID, task.Slug))
		content, err := m.renderer.Render(TaskFile, newTaskFileData(task))
		if err != nil {
			return nil, err
		}
		if err := writeFile(path, content); err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	for _, task := range tasks {
		path := filepath.Join(gherkinDir, task.ID+".feature")
		content, err := m.renderer.Render(Gherkin, newGherkinData(task))
		if err != nil {
			return nil, err
		}
		if err := writeFile(path, content); err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	dashboardPath := filepath.Join(dir, "dashboard.md")
	content, err := m.renderer.Render(Dashboard, newDashboardData(f, tasks))
	if err != nil {
		return nil, err
	}
	if err := writeFile(dashboardPath, content); err != nil {
		return nil, err
	}
	written = append(written, dashboardPath)

	metaPath := filepath.Join(dir, "metadata.json")
	if err := writeMetadata(metaPath, f, tasks); err != nil {
		return nil, err
	}
	written = append(written, metaPath)

	return written, nil
}

// clearStale removes previously materialized task files so a shrunk task
// list does not leave orphans behind. The dashboard and metadata are
// overwritten in place.
func (m *Materializer) clearStale(dir, gherkinDir string) error {
	stale, err := filepath.Glob(filepath.Join(dir, "task_*.md"))
	if err != nil {
		return fmt.Errorf("render: scanning %s: %w", dir, err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("render: removing stale %s: %w", path, err)
		}
	}
	if err := os.RemoveAll(gherkinDir); err != nil {
		return fmt.Errorf("render: removing %s: %w", gherkinDir, err)
	}
	return nil
}

func newTaskFileData(t feature.Task) taskFileData {
	checkbox := " "
	if t.Status == feature.StatusCompleted {
		checkbox = "x"
	}
	return taskFileData{
		ID:             t.ID,
		Title:          t.Title,
		FeatureName:    t.FeatureName,
		Status:         t.Status,
		Checkbox:       checkbox,
		Summary:        t.Summary,
		Implementation: t.Implementation,
		Criteria:       t.AcceptanceCriteria,
		TestFile:       t.TestFile,
		CoverageTarget: t.CoverageTarget,
		Dependencies:   t.Dependencies,
		Blocks:         t.Blocks,
		Patterns:       t.RelevantPatterns,
		Notes:          t.Notes,
	}
}

func newGherkinData(t feature.Task) gherkinData {
	data := gherkinData{
		Title:       t.Title,
		FeatureName: t.FeatureName,
		Summary:     t.Summary,
	}
	for i, criterion := range t.AcceptanceCriteria {
		data.Scenarios = append(data.Scenarios, gherkinScenario{
			Name:      fmt.Sprintf("Acceptance criterion %d", i+1),
			Criterion: criterion,
		})
	}
	return data
}

func newDashboardData(f feature.Feature, tasks []feature.Task) dashboardData {
	summary := Summarize(f.Name, tasks)
	data := dashboardData{
		Name:       f.Name,
		Grade:      f.Grade,
		Score:      f.Score,
		Overall:    summary.Overall(),
		Percent:    summary.PercentComplete(),
		NotStarted: summary.NotStarted,
		InProgress: summary.InProgress,
		Completed:  summary.Completed,
		Blocked:    summary.Blocked,
	}
	for _, t := range tasks {
		data.Rows = append(data.Rows, dashboardRow{ID: t.ID, Title: t.Title, Status: t.Status})
	}
	return data
}

// Summarize computes the per-status breakdown from an in-memory task list.
// The repository offers the same aggregation via SQL; this variant serves
// projections that already hold the tasks.
func Summarize(featureName string, tasks []feature.Task) feature.StatusSummary {
	summary := feature.StatusSummary{FeatureName: featureName, Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case feature.StatusNotStarted:
			summary.NotStarted++
		case feature.StatusInProgress:
			summary.InProgress++
		case feature.StatusCompleted:
			summary.Completed++
		case feature.StatusBlocked:
			summary.Blocked++
		}
	}
	return summary
}

func writeMetadata(path string, f feature.Feature, tasks []feature.Task) error {
	summary := Summarize(f.Name, tasks)
	updatedAt := f.CreatedAt
	for _, t := range tasks {
		if t.UpdatedAt > updatedAt {
			updatedAt = t.UpdatedAt
		}
	}
	meta := metadata{
		Name:            f.Name,
		Grade:           f.Grade,
		Score:           f.Score,
		TaskCount:       len(tasks),
		Status:          string(summary.Overall()),
		PercentComplete: summary.PercentComplete(),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       updatedAt,
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("render: encoding metadata for %s: %w", f.Name, err)
	}
	return writeFile(path, string(raw)+"\n")
}

// writeFile writes content, creating parent directories as needed.
func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render: creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("render: writing %s: %w", path, err)
	}
	return nil
}
