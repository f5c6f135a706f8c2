package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"juparc/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "juparc.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RunLifecycle(t *testing.T) {
	s := openTestStore(t)

	run, err := s.BeginRun([]string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.False(t, got.Finished())
	assert.Equal(t, []string{"a", "b"}, got.Roots)

	rows := []NotebookRow{
		{RunID: run.ID, Name: "b.ipynb", Status: "ok", Language: "python", Summary: json.RawMessage(`{"name":"b.ipynb"}`)},
		{RunID: run.ID, Name: "a.ipynb", Status: "load-error", Summary: json.RawMessage(`{"name":"a.ipynb"}`)},
		{RunID: run.ID, Name: "b.ipynb", Status: "ok", Language: "python", SHA1File: "abc", Summary: json.RawMessage(`{"name":"b2"}`)},
	}
	for _, row := range rows {
		require.NoError(t, s.SaveNotebook(row))
	}

	corpus := json.RawMessage(`{"name":"<corpus>"}`)
	require.NoError(t, s.FinishRun(run.ID, 2, 1, corpus))

	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.True(t, got.Finished())
	assert.Equal(t, 2, got.NotebookCount)
	assert.Equal(t, 1, got.FailedCount)
	assert.JSONEq(t, string(corpus), string(got.Corpus))

	notebooks, err := s.Notebooks(run.ID)
	require.NoError(t, err)
	require.Len(t, notebooks, 2)
	assert.Equal(t, "a.ipynb", notebooks[0].Name)
	assert.Equal(t, "abc", notebooks[1].SHA1File)
	assert.JSONEq(t, `{"name":"b2"}`, string(notebooks[1].Summary))
}

func TestStore_ListRuns(t *testing.T) {
	s := openTestStore(t)
	var ids []string
	for i := 0; i < 3; i++ {
		run, err := s.BeginRun(nil)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	all, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Nil(t, all[0].Roots)

	limited, err := s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_Errors(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun("missing")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	err = s.FinishRun("missing", 0, 0, nil)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	err = s.SaveNotebook(NotebookRow{RunID: "missing", Name: "x"})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	err = s.SaveNotebook(NotebookRow{RunID: "missing", Name: "x", Summary: json.RawMessage(`{}`)})
	assert.True(t, errors.IsCode(err, errors.CodeStorage), "foreign key violation should surface as storage error")
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open("  ", 0)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = Open(t.TempDir(), 0)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "juparc.db")
	s, err := Open(path, 0)
	require.NoError(t, err)
	_, err = s.db.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "juparc.db")
	s, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(s.db))

	var version int
	require.NoError(t, s.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, SchemaVersion, version)
	require.NoError(t, s.Close())
}

func TestIsCorruptError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite at all, just some bytes padded out"), 0o644))
	_, err := Open(path, 0)
	require.Error(t, err)
	assert.True(t, IsCorruptError(err))
	assert.False(t, IsCorruptError(sql.ErrNoRows))
	assert.False(t, IsCorruptError(nil))
}
