// Package dedupe implements the deduplication engine: the save-time policy
// deciding whether an incoming feature spec collides with an exact-name
// match or near-duplicates of already-stored features, and how the
// collision is resolved.
//
// The engine never silently overwrites or merges: the default strategy is
// "prompt", which reports the collision without persisting anything and
// expects the caller to re-invoke with an explicit strategy. Save is the
// only write path — skip and prompt outcomes leave the repository
// byte-identical to before the call.
package dedupe

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/specforge/specforge/internal/analysis"
	"github.com/specforge/specforge/internal/config"
	"github.com/specforge/specforge/internal/feature"
	"github.com/specforge/specforge/internal/similarity"
)

// timeNow is a package-level var for testability.
var timeNow = time.Now

// --- Strategy enum ---

// Strategy governs what happens when a save collides with existing features.
type Strategy string

const (
	StrategyMerge   Strategy = config.StrategyMerge
	StrategyReplace Strategy = config.StrategyReplace
	StrategySkip    Strategy = config.StrategySkip
	StrategyPrompt  Strategy = config.StrategyPrompt
)

// --- Duplicate report types ---

// DuplicateType distinguishes an exact name collision from fuzzy matches.
type DuplicateType string

const (
	TypeExactMatch      DuplicateType = "exact_match"
	TypeSimilarFeatures DuplicateType = "similar_features"
)

// RecommendedAction is the engine's suggestion for resolving a collision.
type RecommendedAction string

const (
	ActionMerge   RecommendedAction = "merge"
	ActionReplace RecommendedAction = "replace"
	ActionRename  RecommendedAction = "rename"
	ActionSkip    RecommendedAction = "skip"
)

// SimilarFeature is one fuzzy match from the similarity scan. Derived,
// never persisted.
type SimilarFeature struct {
	FeatureName string             `json:"feature_name"`
	Score       float64            `json:"score"`
	Summary     string             `json:"summary"`
	TaskCount   int                `json:"task_count"`
	Status      feature.TaskStatus `json:"status"`
}

// DuplicateInfo describes a detected collision and the recommended way out.
type DuplicateInfo struct {
	Type              DuplicateType     `json:"type"`
	ExistingFeature   string            `json:"existing_feature,omitempty"`
	SimilarFeatures   []SimilarFeature  `json:"similar_features,omitempty"`
	RecommendedAction RecommendedAction `json:"recommended_action"`
}

// --- Save surface ---

// Options tunes a single Save call. Zero values defer to configuration.
type Options struct {
	SkipSimilarityCheck bool
	SimilarityThreshold float64 // 0 → config default
	OnSimilarFound      Strategy
}

// Outcome reports what a Save call actually did.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeReplaced Outcome = "replaced"
	OutcomeMerged   Outcome = "merged"
	OutcomeSkipped  Outcome = "skipped"
	OutcomePrompt   Outcome = "prompt" // nothing persisted; caller decides
)

// SaveResult is the observable contract of a Save call. Feature, Tasks and
// Files are set only when something was persisted.
type SaveResult struct {
	Outcome   Outcome          `json:"outcome"`
	Feature   *feature.Feature `json:"feature,omitempty"`
	Tasks     []feature.Task   `json:"tasks,omitempty"`
	Files     []string         `json:"files,omitempty"`
	Duplicate *DuplicateInfo   `json:"duplicate,omitempty"`
	Merge     *MergeResult     `json:"merge,omitempty"`
}

// Materializer projects a persisted feature onto the filesystem and
// returns the list of written paths. Abstracted for testability.
type Materializer interface {
	WriteFeature(f feature.Feature, tasks []feature.Task) ([]string, error)
}

// Engine coordinates the similarity scan, strategy dispatch, merge, and
// persistence for feature saves.
//
// Writes are serialized with a single mutex: the scan-then-upsert sequence
// is a read-modify-write that is not atomic at the store level, and a merge
// may write to a different feature name than the one requested. Reads do
// not take the lock.
type Engine struct {
	store  *feature.Store
	scorer *similarity.Scorer
	files  Materializer
	cfg    config.Deduplication

	mu sync.Mutex
}

// New creates an Engine with its dependencies.
func New(store *feature.Store, scorer *similarity.Scorer, files Materializer, cfg config.Deduplication) *Engine {
	return &Engine{store: store, scorer: scorer, files: files, cfg: cfg}
}

// Save persists a feature and its extracted tasks, subject to duplicate
// detection. Validation failures are rejected before any persistence
// attempt; repository errors propagate with no partial writes.
func (e *Engine) Save(name, spec string, result analysis.SpecAnalysis, opts Options) (*SaveResult, error) {
	if err := analysis.ValidateFeatureName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("feature %q: spec text is required", name)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("feature %q: %w", name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.store.Get(name)
	if err != nil && !errors.Is(err, feature.ErrNotFound) {
		return nil, err
	}

	var similar []SimilarFeature
	threshold := e.threshold(opts)
	if !opts.SkipSimilarityCheck && e.cfg.Enabled {
		similar, err = e.FindSimilar(spec, threshold, name)
		if err != nil {
			return nil, err
		}
	}

	// No collision at all: plain upsert.
	if existing == nil && len(similar) == 0 {
		return e.persist(name, spec, result, "", nil, OutcomeCreated)
	}

	info := e.buildDuplicateInfo(existing, similar, threshold)

	strategy := opts.OnSimilarFound
	if strategy == "" {
		strategy = Strategy(e.cfg.DefaultStrategy)
	}

	switch strategy {
	case StrategySkip:
		return &SaveResult{Outcome: OutcomeSkipped, Duplicate: info}, nil

	case StrategyPrompt:
		// Deliberate two-phase flow: report, persist nothing, let the
		// caller re-invoke with an explicit strategy.
		return &SaveResult{Outcome: OutcomePrompt, Duplicate: info}, nil

	case StrategyReplace:
		createdAt := ""
		if existing != nil {
			createdAt = existing.CreatedAt
		}
		return e.persist(name, spec, result, createdAt, info, OutcomeReplaced)

	case StrategyMerge:
		return e.merge(name, spec, result, existing, similar, info)

	default:
		return nil, fmt.Errorf("feature %q: %v", name, config.ValidateStrategy(string(strategy)))
	}
}

// FindSimilar scores every stored feature against the candidate spec and
// returns those at or above the threshold, sorted by descending score
// (ties broken by name for determinism). The exclude name is skipped so an
// exact-name match is not double-reported as a fuzzy one.
func (e *Engine) FindSimilar(spec string, threshold float64, exclude string) ([]SimilarFeature, error) {
	entries, err := e.store.GetAll()
	if err != nil {
		return nil, err
	}

	var matches []SimilarFeature
	for _, entry := range entries {
		if entry.Name == exclude {
			continue
		}
		score := e.scorer.Score(spec, entry.Spec)
		if score < threshold {
			continue
		}

		taskCount, err := e.store.TaskCount(entry.Name)
		if err != nil {
			return nil, err
		}
		summary, err := e.store.Status(entry.Name)
		if err != nil {
			return nil, err
		}
		matches = append(matches, SimilarFeature{
			FeatureName: entry.Name,
			Score:       score,
			Summary:     excerpt(entry.Spec, 160),
			TaskCount:   taskCount,
			Status:      summary.Overall(),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].FeatureName < matches[j].FeatureName
	})
	return matches, nil
}

// buildDuplicateInfo assembles the collision report and its recommendation:
// exact name match → replace; otherwise no fuzzy matches → merge; a very
// strong top match (above the auto-merge threshold) → skip, it already
// exists; a solid match → merge; a borderline one → rename.
func (e *Engine) buildDuplicateInfo(existing *feature.Feature, similar []SimilarFeature, threshold float64) *DuplicateInfo {
	info := &DuplicateInfo{
		Type:            TypeSimilarFeatures,
		SimilarFeatures: similar,
	}
	if existing != nil {
		info.Type = TypeExactMatch
		info.ExistingFeature = existing.Name
	}

	switch {
	case existing != nil:
		info.RecommendedAction = ActionReplace
	case len(similar) == 0:
		info.RecommendedAction = ActionMerge
	case similar[0].Score > e.cfg.AutoMergeThreshold:
		info.RecommendedAction = ActionSkip
	case similar[0].Score > threshold:
		info.RecommendedAction = ActionMerge
	default:
		info.RecommendedAction = ActionRename
	}
	return info
}

// merge reconciles the incoming tasks with an existing feature's task list.
// The target is the exact-name match when there is one, otherwise the
// highest-scoring similar feature — the merged result is saved under the
// target's name.
func (e *Engine) merge(name, spec string, result analysis.SpecAnalysis, existing *feature.Feature, similar []SimilarFeature, info *DuplicateInfo) (*SaveResult, error) {
	target := existing
	if target == nil {
		if len(similar) == 0 {
			// Nothing to merge into; behave like a plain save.
			return e.persist(name, spec, result, "", info, OutcomeCreated)
		}
		loaded, err := e.store.Get(similar[0].FeatureName)
		if err != nil {
			return nil, err
		}
		target = loaded
	}

	existingTasks, err := e.store.GetTasks(target.Name)
	if err != nil {
		return nil, err
	}

	now := timeNow().UTC().Format(time.RFC3339)
	incoming := make([]feature.Task, len(result.Tasks))
	for i, draft := range result.Tasks {
		incoming[i] = feature.FromDraft(target.Name, len(existingTasks)+i, draft, now)
	}

	merged := Merge(e.scorer, e.cfg.TaskSimilarityThreshold, existingTasks, incoming, target.Spec, spec)

	f := feature.Feature{
		Name:      target.Name,
		Spec:      merged.MergedSpec,
		Grade:     result.Grade, // latest quality verdict wins
		Score:     result.Score,
		CreatedAt: target.CreatedAt,
	}
	if err := e.store.Upsert(f, merged.MergedTasks); err != nil {
		return nil, err
	}

	files, err := e.files.WriteFeature(f, merged.MergedTasks)
	if err != nil {
		return nil, fmt.Errorf("feature %q: materialize: %w", f.Name, err)
	}

	return &SaveResult{
		Outcome:   OutcomeMerged,
		Feature:   &f,
		Tasks:     merged.MergedTasks,
		Files:     files,
		Duplicate: info,
		Merge:     &merged,
	}, nil
}

// persist performs the plain upsert path: build tasks from the drafts,
// write the feature atomically, then materialize files.
func (e *Engine) persist(name, spec string, result analysis.SpecAnalysis, createdAt string, info *DuplicateInfo, outcome Outcome) (*SaveResult, error) {
	now := timeNow().UTC().Format(time.RFC3339)
	if createdAt == "" {
		createdAt = now
	}

	tasks := make([]feature.Task, len(result.Tasks))
	for i, draft := range result.Tasks {
		tasks[i] = feature.FromDraft(name, i, draft, now)
	}

	f := feature.Feature{
		Name:      name,
		Spec:      spec,
		Grade:     result.Grade,
		Score:     result.Score,
		CreatedAt: createdAt,
	}
	if err := e.store.Upsert(f, tasks); err != nil {
		return nil, err
	}

	files, err := e.files.WriteFeature(f, tasks)
	if err != nil {
		return nil, fmt.Errorf("feature %q: materialize: %w", name, err)
	}

	return &SaveResult{
		Outcome:   outcome,
		Feature:   &f,
		Tasks:     tasks,
		Files:     files,
		Duplicate: info,
	}, nil
}

func (e *Engine) threshold(opts Options) float64 {
	if opts.SimilarityThreshold > 0 {
		return opts.SimilarityThreshold
	}
	return e.cfg.SimilarityThreshold
}

// excerpt returns the first max bytes of a text, cut at a word boundary.
func excerpt(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	cut := strings.LastIndex(text[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return text[:cut] + "…"
}
