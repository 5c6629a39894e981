package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the process's sqlite persistence: the prediction audit trail and
// the API key table. A single connection keeps sqlite writes serialized.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS predictions (
  id TEXT PRIMARY KEY,
  created_at DATETIME NOT NULL,
  model_version TEXT NOT NULL DEFAULT '',
  schema_source TEXT NOT NULL DEFAULT '',
  outcome TEXT NOT NULL,
  results_json TEXT NOT NULL DEFAULT '',
  filled_count INTEGER NOT NULL DEFAULT 0,
  duration_ms REAL NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);

CREATE TABLE IF NOT EXISTS api_keys (
  key_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  prefix TEXT NOT NULL,
  hashed_key TEXT NOT NULL,
  created_at DATETIME NOT NULL,
  last_used_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(hashed_key);
`)
	return err
}

// PredictionRecord is one audited prediction attempt, success or failure.
type PredictionRecord struct {
	ID           string
	CreatedAt    time.Time
	ModelVersion string
	SchemaSource string
	// Outcome is "ok" or the error kind the caller received.
	Outcome     string
	ResultsJSON string
	FilledCount int
	DurationMs  float64
	Error       string
}

func (s *Store) InsertPrediction(ctx context.Context, r PredictionRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO predictions(id, created_at, model_version, schema_source, outcome, results_json, filled_count, duration_ms, error)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, r.ID, r.CreatedAt, r.ModelVersion, r.SchemaSource, r.Outcome, r.ResultsJSON, r.FilledCount, r.DurationMs, r.Error)
	return err
}

// RecentPredictions lists audit records, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, model_version, schema_source, outcome, results_json, filled_count, duration_ms, error
FROM predictions ORDER BY created_at DESC, id DESC LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PredictionRecord
	for rows.Next() {
		var r PredictionRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.ModelVersion, &r.SchemaSource, &r.Outcome, &r.ResultsJSON, &r.FilledCount, &r.DurationMs, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type APIKeyRecord struct {
	ID         string
	Name       string
	Prefix     string
	HashedKey  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

func (s *Store) CreateAPIKey(ctx context.Context, r APIKeyRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO api_keys(key_id, name, prefix, hashed_key, created_at)
VALUES(?, ?, ?, ?, ?);
`, r.ID, r.Name, r.Prefix, r.HashedKey, r.CreatedAt)
	return err
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]APIKeyRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT key_id, name, prefix, hashed_key, created_at, last_used_at
FROM api_keys ORDER BY created_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []APIKeyRecord
	for rows.Next() {
		var r APIKeyRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Prefix, &r.HashedKey, &r.CreatedAt, &r.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetAPIKeyByHash resolves a presented key by its sha256 digest.
func (s *Store) GetAPIKeyByHash(ctx context.Context, hashedKey string) (APIKeyRecord, bool, error) {
	if s.db == nil {
		return APIKeyRecord{}, false, nil
	}
	row := s.db.QueryRowContext(ctx, `
SELECT key_id, name, prefix, hashed_key, created_at, last_used_at
FROM api_keys WHERE hashed_key=?;
`, hashedKey)
	var r APIKeyRecord
	err := row.Scan(&r.ID, &r.Name, &r.Prefix, &r.HashedKey, &r.CreatedAt, &r.LastUsedAt)
	if err == sql.ErrNoRows {
		return APIKeyRecord{}, false, nil
	}
	if err != nil {
		return APIKeyRecord{}, false, err
	}
	return r, true, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE key_id=?;", id)
	return err
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at=? WHERE key_id=?;", time.Now(), id)
	return err
}
