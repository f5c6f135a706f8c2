// Package store persists scan runs and their notebook summaries in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"juparc/internal/core/errors"
	"juparc/internal/shared/observability"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Run is one batch over a set of roots.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Roots         []string
	NotebookCount int
	FailedCount   int
	Corpus        json.RawMessage
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// NotebookRow is the stored summary of one notebook of a run.
type NotebookRow struct {
	RunID    string
	Name     string
	Status   string
	Language string
	SHA1File string
	Summary  json.RawMessage
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open opens or creates the database at path and applies pending
// migrations. A zero busyTimeout uses the default.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeValidationError, "store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.Newf(errors.CodeValidationError, "store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("create store directory %q", dir))
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("open sqlite store %q", cleanPath))
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("ping sqlite store %q", cleanPath))
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeStorage, fmt.Sprintf("initialize sqlite schema %q", cleanPath))
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// BeginRun records a new run and returns it with a fresh id.
func (s *Store) BeginRun(roots []string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Roots:     roots,
	}
	err := s.withRetry("begin run", func() error {
		_, err := s.db.Exec(`INSERT INTO runs (id, started_at_utc, roots) VALUES (?, ?, ?)`,
			run.ID, run.StartedAt.Format(timeLayout), strings.Join(roots, "\n"))
		return err
	})
	return run, err
}

// SaveNotebook stores or replaces the summary of a notebook within a run.
func (s *Store) SaveNotebook(row NotebookRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(row.Summary) == 0 {
		return errors.AddContext(errors.New(errors.CodeValidationError, "notebook summary is empty"), errors.CtxPath, row.Name)
	}
	query := `
INSERT INTO notebooks (run_id, name, status, language, sha1_file, summary_json)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, name) DO UPDATE SET
  status=excluded.status,
  language=excluded.language,
  sha1_file=excluded.sha1_file,
  summary_json=excluded.summary_json
`
	return s.withRetry("save notebook", func() error {
		_, err := s.db.Exec(query, row.RunID, row.Name, row.Status, row.Language, row.SHA1File, string(row.Summary))
		return err
	})
}

// FinishRun closes a run with its final counts and corpus summary.
func (s *Store) FinishRun(id string, notebooks, failed int, corpus json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res sql.Result
	err := s.withRetry("finish run", func() error {
		var err error
		res, err = s.db.Exec(`
UPDATE runs SET finished_at_utc = ?, notebook_count = ?, failed_count = ?, corpus_json = ?
WHERE id = ?`, time.Now().UTC().Format(timeLayout), notebooks, failed, string(corpus), id)
		return err
	})
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.AddContext(errors.New(errors.CodeNotFound, "run not found"), errors.CtxRun, id)
	}
	return nil
}

const runColumns = `id, started_at_utc, finished_at_utc, roots, notebook_count, failed_count, corpus_json`

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at_utc DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// GetRun returns a run by id, or a NOT_FOUND error.
func (s *Store) GetRun(id string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var run Run
	err := s.withRetry("get run", func() error {
		var qErr error
		run, qErr = scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
		return qErr
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.AddContext(errors.New(errors.CodeNotFound, "run not found"), errors.CtxRun, id)
	}
	return run, err
}

// Notebooks returns the stored summaries of a run ordered by name.
func (s *Store) Notebooks(runID string) ([]NotebookRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load notebooks", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT run_id, name, status, language, sha1_file, summary_json
FROM notebooks WHERE run_id = ? ORDER BY name ASC`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]NotebookRow, 0)
	for rows.Next() {
		var (
			row     NotebookRow
			summary string
		)
		if err := rows.Scan(&row.RunID, &row.Name, &row.Status, &row.Language, &row.SHA1File, &summary); err != nil {
			return nil, fmt.Errorf("scan notebook row: %w", err)
		}
		row.Summary = json.RawMessage(summary)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notebook rows: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                 Run
		startRaw, finishRaw string
		roots, corpus       string
	)
	if err := row.Scan(&run.ID, &startRaw, &finishRaw, &roots, &run.NotebookCount, &run.FailedCount, &corpus); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run row: %w", err)
	}
	started, err := time.Parse(timeLayout, startRaw)
	if err != nil {
		return Run{}, fmt.Errorf("parse run start %q: %w", startRaw, err)
	}
	run.StartedAt = started.UTC()
	if finishRaw != "" {
		finished, err := time.Parse(timeLayout, finishRaw)
		if err != nil {
			return Run{}, fmt.Errorf("parse run finish %q: %w", finishRaw, err)
		}
		run.FinishedAt = finished.UTC()
	}
	if roots != "" {
		run.Roots = strings.Split(roots, "\n")
	}
	if corpus != "" {
		run.Corpus = json.RawMessage(corpus)
	}
	return run, nil
}

// withRetry runs fn, retrying on SQLite lock contention only.
func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			observability.StoreOperationsTotal.WithLabelValues(op, "ok").Inc()
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	observability.StoreOperationsTotal.WithLabelValues(op, "error").Inc()
	if stderrors.Is(lastErr, sql.ErrNoRows) {
		return lastErr
	}
	return errors.AddContext(errors.Wrap(lastErr, errors.CodeStorage, op), errors.CtxOperation, op)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// IsCorruptError reports whether err indicates a damaged database file.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || stderrors.Is(err, os.ErrInvalid)
}
