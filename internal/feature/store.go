package feature

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level var for testability.
var timeNow = time.Now

// DBFileName is the SQLite database filename under the data directory.
const DBFileName = "features.db"

// Store is the durable feature repository backed by SQLite.
//
// All mutating operations are transactional: an Upsert either persists the
// feature and its complete task list or leaves the store untouched.
type Store struct {
	db *sql.DB
}

// Open creates the data directory if needed, opens the SQLite database in
// WAL mode, and runs migrations.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("feature: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("feature: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("feature: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("feature: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS features (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT    NOT NULL UNIQUE,
			spec       TEXT    NOT NULL,
			grade      TEXT    NOT NULL,
			score      INTEGER NOT NULL,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id                TEXT    NOT NULL,
			feature_name      TEXT    NOT NULL,
			sequence          INTEGER NOT NULL,
			title             TEXT    NOT NULL,
			slug              TEXT    NOT NULL,
			summary           TEXT    NOT NULL,
			implementation    TEXT    NOT NULL DEFAULT '',
			status            TEXT    NOT NULL DEFAULT 'not_started',
			acceptance_criteria TEXT  NOT NULL DEFAULT '[]',
			test_file         TEXT    NOT NULL DEFAULT '',
			coverage_target   TEXT    NOT NULL DEFAULT '',
			notes             TEXT    NOT NULL DEFAULT '',
			dependencies      TEXT    NOT NULL DEFAULT '[]',
			blocks            TEXT    NOT NULL DEFAULT '[]',
			relevant_patterns TEXT    NOT NULL DEFAULT '[]',
			created_at        TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at        TEXT    NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (feature_name, id),
			FOREIGN KEY (feature_name) REFERENCES features(name) ON DELETE CASCADE
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_sequence ON tasks(feature_name, sequence);
		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(feature_name, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Features ────────────────────────────────────────────────────────────────

// Get retrieves a feature by name. Returns ErrNotFound on a miss.
func (s *Store) Get(name string) (*Feature, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	row := s.db.QueryRow(
		`SELECT name, spec, grade, score, created_at FROM features WHERE name = ?`, name,
	)
	var f Feature
	if err := row.Scan(&f.Name, &f.Spec, &f.Grade, &f.Score, &f.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("feature %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("feature: get %q: %w", name, err)
	}
	return &f, nil
}

// GetAll returns the {name, spec} pairs of every stored feature, ordered by
// name for deterministic scans. This is an O(n) read used by the similarity
// scan — acceptable at the expected scale of tens to hundreds of features.
func (s *Store) GetAll() ([]SpecEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	rows, err := s.db.Query(`SELECT name, spec FROM features ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("feature: scan all: %w", err)
	}
	defer rows.Close()

	var entries []SpecEntry
	for rows.Next() {
		var e SpecEntry
		if err := rows.Scan(&e.Name, &e.Spec); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// List returns a compact view of every feature with its task count.
func (s *Store) List() ([]ListEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	rows, err := s.db.Query(`
		SELECT f.name, f.grade, f.score, f.created_at, COUNT(t.id)
		FROM features f
		LEFT JOIN tasks t ON t.feature_name = f.name
		GROUP BY f.name
		ORDER BY f.name
	`)
	if err != nil {
		return nil, fmt.Errorf("feature: list: %w", err)
	}
	defer rows.Close()

	var entries []ListEntry
	for rows.Next() {
		var e ListEntry
		if err := rows.Scan(&e.Name, &e.Grade, &e.Score, &e.CreatedAt, &e.TaskCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TaskCount returns the number of tasks stored for a feature.
func (s *Store) TaskCount(name string) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotInitialized
	}

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE feature_name = ?`, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("feature: task count for %q: %w", name, err)
	}
	return n, nil
}

// Upsert atomically replaces-or-inserts a feature and its full task list.
// Existing tasks for the name are superseded. The feature row's created_at
// is preserved on replace so repeated identical saves converge to identical
// persisted state.
func (s *Store) Upsert(f Feature, tasks []Task) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	if f.Name == "" {
		return fmt.Errorf("feature: upsert: name is required")
	}
	if f.Spec == "" {
		return fmt.Errorf("feature: upsert %q: spec is empty", f.Name)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("feature: begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	createdAt := f.CreatedAt
	if createdAt == "" {
		createdAt = timeNow().UTC().Format(time.RFC3339)
	}

	if _, err := tx.Exec(`
		INSERT INTO features (name, spec, grade, score, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			spec  = excluded.spec,
			grade = excluded.grade,
			score = excluded.score
	`, f.Name, f.Spec, string(f.Grade), f.Score, createdAt); err != nil {
		return fmt.Errorf("feature: upsert %q: %w", f.Name, err)
	}

	if _, err := tx.Exec(`DELETE FROM tasks WHERE feature_name = ?`, f.Name); err != nil {
		return fmt.Errorf("feature: clear tasks for %q: %w", f.Name, err)
	}

	for _, task := range tasks {
		criteria, err := json.Marshal(task.AcceptanceCriteria)
		if err != nil {
			return fmt.Errorf("feature: marshal criteria for %s: %w", task.ID, err)
		}
		deps, err := json.Marshal(emptyIfNil(task.Dependencies))
		if err != nil {
			return fmt.Errorf("feature: marshal dependencies for %s: %w", task.ID, err)
		}
		blocks, err := json.Marshal(emptyIfNil(task.Blocks))
		if err != nil {
			return fmt.Errorf("feature: marshal blocks for %s: %w", task.ID, err)
		}
		patterns, err := json.Marshal(task.RelevantPatterns)
		if err != nil {
			return fmt.Errorf("feature: marshal patterns for %s: %w", task.ID, err)
		}
		if task.RelevantPatterns == nil {
			patterns = []byte(`[]`)
		}

		if _, err := tx.Exec(`
			INSERT INTO tasks (
				id, feature_name, sequence, title, slug, summary, implementation,
				status, acceptance_criteria, test_file, coverage_target, notes,
				dependencies, blocks, relevant_patterns, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			task.ID, f.Name, task.Sequence, task.Title, task.Slug, task.Summary,
			task.Implementation, string(task.Status), string(criteria),
			task.TestFile, task.CoverageTarget, task.Notes,
			string(deps), string(blocks), string(patterns),
			orNow(task.CreatedAt), orNow(task.UpdatedAt),
		); err != nil {
			return fmt.Errorf("feature: insert task %s for %q: %w", task.ID, f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("feature: commit upsert %q: %w", f.Name, err)
	}
	return nil
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

const taskColumns = `id, feature_name, sequence, title, slug, summary, implementation,
	status, acceptance_criteria, test_file, coverage_target, notes,
	dependencies, blocks, relevant_patterns, created_at, updated_at`

// GetTasks returns a feature's tasks ordered by sequence.
func (s *Store) GetTasks(name string) ([]Task, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE feature_name = ? ORDER BY sequence`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("feature: tasks for %q: %w", name, err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus sets a task's status (and optional notes) and returns the
// updated row. Returns ErrNotFound if the feature/task pair does not exist.
func (s *Store) UpdateTaskStatus(name, taskID string, status TaskStatus, notes string) (*Task, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}

	now := timeNow().UTC().Format(time.RFC3339)

	var res sql.Result
	var err error
	if notes != "" {
		res, err = s.db.Exec(
			`UPDATE tasks SET status = ?, notes = ?, updated_at = ? WHERE feature_name = ? AND id = ?`,
			string(status), notes, now, name, taskID,
		)
	} else {
		res, err = s.db.Exec(
			`UPDATE tasks SET status = ?, updated_at = ? WHERE feature_name = ? AND id = ?`,
			string(status), now, name, taskID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("feature: update status %s/%s: %w", name, taskID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("task %s in feature %q: %w", taskID, name, ErrNotFound)
	}

	row := s.db.QueryRow(
		`SELECT `+taskColumns+` FROM tasks WHERE feature_name = ? AND id = ?`, name, taskID,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("feature: reload task %s/%s: %w", name, taskID, err)
	}
	return &task, nil
}

// Status computes the per-status task breakdown for a feature.
// Returns ErrNotFound if the feature does not exist.
func (s *Store) Status(name string) (*StatusSummary, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}

	if _, err := s.Get(name); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT status, COUNT(*) FROM tasks WHERE feature_name = ? GROUP BY status`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("feature: status for %q: %w", name, err)
	}
	defer rows.Close()

	summary := StatusSummary{FeatureName: name}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		summary.Total += count
		switch TaskStatus(status) {
		case StatusNotStarted:
			summary.NotStarted = count
		case StatusInProgress:
			summary.InProgress = count
		case StatusCompleted:
			summary.Completed = count
		case StatusBlocked:
			summary.Blocked = count
		}
	}
	return &summary, rows.Err()
}

// ─── Scanning helpers ────────────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	var status, criteria, deps, blocks, patterns string
	if err := row.Scan(
		&t.ID, &t.FeatureName, &t.Sequence, &t.Title, &t.Slug, &t.Summary,
		&t.Implementation, &status, &criteria, &t.TestFile, &t.CoverageTarget,
		&t.Notes, &deps, &blocks, &patterns, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return Task{}, err
	}
	t.Status = TaskStatus(status)
	if err := json.Unmarshal([]byte(criteria), &t.AcceptanceCriteria); err != nil {
		return Task{}, fmt.Errorf("feature: decode criteria for %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(deps), &t.Dependencies); err != nil {
		return Task{}, fmt.Errorf("feature: decode dependencies for %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(blocks), &t.Blocks); err != nil {
		return Task{}, fmt.Errorf("feature: decode blocks for %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(patterns), &t.RelevantPatterns); err != nil {
		return Task{}, fmt.Errorf("feature: decode patterns for %s: %w", t.ID, err)
	}
	// JSON "[]" round-trips as an empty non-nil slice; normalize to nil so
	// stored and in-memory tasks compare equal.
	if len(t.Dependencies) == 0 {
		t.Dependencies = nil
	}
	if len(t.Blocks) == 0 {
		t.Blocks = nil
	}
	if len(t.RelevantPatterns) == 0 {
		t.RelevantPatterns = nil
	}
	return t, nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func orNow(ts string) string {
	if ts != "" {
		return ts
	}
	return timeNow().UTC().Format(time.RFC3339)
}
