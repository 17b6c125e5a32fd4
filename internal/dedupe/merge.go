package dedupe

import (
	"strings"

	"github.com/specforge/specforge/internal/feature"
	"github.com/specforge/specforge/internal/similarity"
)

// SpecSeparator marks where concatenated spec text begins after a merge,
// so the provenance of combined requirements is never silently dropped.
const SpecSeparator = "--- Additional Requirements ---"

// MergeResult reconciles an existing task list with an incoming one.
//
// Invariants callers can verify:
//
//	OriginalTaskCount + NewTaskCount == len(MergedTasks)
//	NewTaskCount + DuplicateTasksSkipped == len(incoming)
type MergeResult struct {
	MergedTasks           []feature.Task `json:"merged_tasks"`
	MergedSpec            string         `json:"merged_spec"`
	OriginalTaskCount     int            `json:"original_task_count"`
	NewTaskCount          int            `json:"new_task_count"`
	DuplicateTasksSkipped int            `json:"duplicate_tasks_skipped"`
}

// Merge reconciles existing tasks with incoming ones. An incoming task is a
// duplicate when its summary scores above taskThreshold against any existing
// task's summary — tighter than the feature-level threshold because task
// summaries are shorter and more literal. Unique incoming tasks are appended
// after the existing list and the whole list is renumbered contiguously,
// with task IDs regenerated to match their new sequence.
func Merge(scorer *similarity.Scorer, taskThreshold float64, existing, incoming []feature.Task, existingSpec, newSpec string) MergeResult {
	merged := make([]feature.Task, len(existing))
	copy(merged, existing)

	skipped := 0
	for _, candidate := range incoming {
		if isDuplicateTask(scorer, taskThreshold, candidate, existing) {
			skipped++
			continue
		}
		merged = append(merged, candidate)
	}

	feature.Renumber(merged)

	return MergeResult{
		MergedTasks:           merged,
		MergedSpec:            mergeSpecs(existingSpec, newSpec),
		OriginalTaskCount:     len(existing),
		NewTaskCount:          len(merged) - len(existing),
		DuplicateTasksSkipped: skipped,
	}
}

func isDuplicateTask(scorer *similarity.Scorer, threshold float64, candidate feature.Task, existing []feature.Task) bool {
	for _, task := range existing {
		if scorer.Score(candidate.Summary, task.Summary) > threshold {
			return true
		}
	}
	return false
}

// mergeSpecs combines two specification texts. If one contains the other,
// the longer wins; otherwise both are kept, joined by a separator heading.
func mergeSpecs(existingSpec, newSpec string) string {
	switch {
	case strings.Contains(existingSpec, newSpec):
		return existingSpec
	case strings.Contains(newSpec, existingSpec):
		return newSpec
	default:
		return existingSpec + "\n\n" + SpecSeparator + "\n\n" + newSpec
	}
}
