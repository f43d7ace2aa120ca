package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/schema"
)

// RunStore mirrors SchemaPhase rounds and CodePhase iterations into a
// local sqlite database, per SPEC_FULL.md §6. It is never the sole
// source of truth: FileLayout's JSON files always win on read if both
// exist and disagree, and the Orchestrator's public operations never
// require the store to be enabled.
type RunStore struct {
	db *sql.DB
}

// OpenRunStore opens (creating if needed) the sqlite database at path.
func OpenRunStore(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.New(errs.KindIO, path, err)
	}
	s := &RunStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *RunStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS rounds (
	idx INTEGER PRIMARY KEY,
	exemplar_id TEXT NOT NULL,
	schema_before TEXT NOT NULL,
	schema_after TEXT NOT NULL,
	logs TEXT,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS iterations (
	idx INTEGER PRIMARY KEY,
	artifact_source TEXT NOT NULL,
	passed INTEGER NOT NULL,
	aggregate_f1 REAL NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS evaluations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	iteration_idx INTEGER NOT NULL,
	field TEXT NOT NULL,
	precision REAL NOT NULL,
	recall REAL NOT NULL,
	f1 REAL NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return errs.New(errs.KindIO, "migrate", err)
	}
	return nil
}

// InsertRound mirrors one SchemaPhase round.
func (s *RunStore) InsertRound(index int, exemplarID string, before, after *schema.Schema, logs string) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return errs.New(errs.KindIO, "marshal schemaBefore", err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return errs.New(errs.KindIO, "marshal schemaAfter", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO rounds (idx, exemplar_id, schema_before, schema_after, logs, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		index, exemplarID, string(beforeJSON), string(afterJSON), logs, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errs.New(errs.KindIO, "insert round", err)
	}
	return nil
}

// InsertIteration mirrors one CodePhase generate/repair iteration.
func (s *RunStore) InsertIteration(index int, artifactSource string, passed bool, aggregateF1 float64) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO iterations (idx, artifact_source, passed, aggregate_f1, created_at) VALUES (?, ?, ?, ?, ?)`,
		index, artifactSource, boolToInt(passed), aggregateF1, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errs.New(errs.KindIO, "insert iteration", err)
	}
	return nil
}

// InsertEvaluation mirrors one field-level score for an iteration.
func (s *RunStore) InsertEvaluation(iterationIdx int, field string, precision, recall, f1 float64) error {
	_, err := s.db.Exec(
		`INSERT INTO evaluations (iteration_idx, field, precision, recall, f1) VALUES (?, ?, ?, ?, ?)`,
		iterationIdx, field, precision, recall, f1,
	)
	if err != nil {
		return errs.New(errs.KindIO, "insert evaluation", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *RunStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
