package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/broker-catalog/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	input      TEXT NOT NULL,
	command    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_phases (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     TEXT,
	started_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS page_cache (
	url        TEXT PRIMARY KEY,
	html       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS broker_snapshots (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	seq       INTEGER NOT NULL,
	record_id TEXT NOT NULL,
	data      TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS catalog_records (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	seq           INTEGER NOT NULL,
	record_id     TEXT NOT NULL,
	record_type   TEXT NOT NULL,
	business_name TEXT NOT NULL,
	industry_tag  TEXT NOT NULL,
	geography_tag TEXT NOT NULL,
	size_tag      TEXT NOT NULL,
	deal_status   TEXT NOT NULL,
	raw           TEXT NOT NULL,
	PRIMARY KEY (run_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_command ON runs(command);
CREATE INDEX IF NOT EXISTS idx_run_phases_run_id ON run_phases(run_id);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_catalog_records_seq ON catalog_records(run_id, seq);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal run input")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, command, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(inputJSON), input.Command, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Input:     input,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// UpdateRunResult stores the result and marks the run complete, or failed
// when the result carries an error.
func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(finalStatus(result)), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, input, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Command != "" {
		query += ` AND command = ?`
		args = append(args, filter.Command)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_phases (id, run_id, name, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, runID, name, string(model.PhaseStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert phase for run %s", runID)
	}

	return &model.RunPhase{
		ID:        id,
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal phase result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE run_phases SET status = ?, result = ? WHERE id = ?`,
		string(result.Status), string(resultJSON), phaseID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete phase %s", phaseID)
	}
	return checkRowsAffected(res, "phase", phaseID)
}

func (s *SQLiteStore) GetCachedPage(ctx context.Context, url string) (string, bool, error) {
	var html string
	err := s.db.QueryRowContext(ctx,
		`SELECT html FROM page_cache WHERE url = ? AND expires_at > ?`,
		url, time.Now().UTC(),
	).Scan(&html)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "sqlite: get cached page")
	}
	return html, true, nil
}

func (s *SQLiteStore) SetCachedPage(ctx context.Context, url, html string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_cache (url, html, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET html = excluded.html, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		url, html, now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached page")
}

func (s *SQLiteStore) DeleteExpiredPages(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM page_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired pages")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// SaveBrokers replaces the broker snapshot of a run.
func (s *SQLiteStore) SaveBrokers(ctx context.Context, runID string, brokers []model.BrokerRecord) error {
	return s.inTx(ctx, "save brokers", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM broker_snapshots WHERE run_id = ?`, runID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO broker_snapshots (run_id, seq, record_id, data) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, b := range brokers {
			data, err := json.Marshal(b)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, runID, i, b.RecordID, string(data)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListBrokers(ctx context.Context, runID string) ([]model.BrokerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM broker_snapshots WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list brokers")
	}
	defer rows.Close()

	var out []model.BrokerRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan broker")
		}
		var b model.BrokerRecord
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal broker")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list brokers iterate")
}

// SaveCatalog replaces the catalog snapshot of a run, keeping input order.
func (s *SQLiteStore) SaveCatalog(ctx context.Context, runID string, records []model.CatalogRecord) error {
	return s.inTx(ctx, "save catalog", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_records WHERE run_id = ?`, runID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO catalog_records (run_id, seq, record_id, record_type, business_name,
			 industry_tag, geography_tag, size_tag, deal_status, raw)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, r := range records {
			row, err := catalogRow(runID, i, r)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListCatalog(ctx context.Context, runID string) ([]model.CatalogRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, record_type, business_name, industry_tag, geography_tag, size_tag, deal_status, raw
		 FROM catalog_records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list catalog")
	}
	defer rows.Close()

	var out []model.CatalogRecord
	for rows.Next() {
		r, err := scanCatalog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list catalog iterate")
}

func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: begin", op)
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return eris.Wrapf(err, "sqlite: %s", op)
	}
	return eris.Wrapf(tx.Commit(), "sqlite: %s: commit", op)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var inputJSON string
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &inputJSON, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := json.Unmarshal([]byte(inputJSON), &r.Input); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal run input")
	}
	if resultJSON.Valid {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}

func scanCatalog(row scannable) (model.CatalogRecord, error) {
	var r model.CatalogRecord
	var raw string
	if err := row.Scan(&r.RecordID, &r.RecordType, &r.BusinessName, &r.IndustryTag,
		&r.GeographyTag, &r.SizeTag, &r.DealStatus, &raw); err != nil {
		return r, eris.Wrap(err, "store: scan catalog record")
	}
	if err := json.Unmarshal([]byte(raw), &r.Raw); err != nil {
		return r, eris.Wrap(err, "store: unmarshal catalog raw fields")
	}
	return r, nil
}

// catalogRow flattens a record in catalogColumns order.
func catalogRow(runID string, seq int, r model.CatalogRecord) ([]any, error) {
	raw, err := json.Marshal(r.Raw)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal raw fields of %s", r.RecordID)
	}
	return []any{
		runID, seq, r.RecordID, string(r.RecordType), r.BusinessName,
		r.IndustryTag, r.GeographyTag, r.SizeTag, string(r.DealStatus), string(raw),
	}, nil
}

var catalogColumns = []string{
	"run_id", "seq", "record_id", "record_type", "business_name",
	"industry_tag", "geography_tag", "size_tag", "deal_status", "raw",
}

func finalStatus(result *model.RunResult) model.RunStatus {
	if result != nil && result.Error != "" {
		return model.RunStatusFailed
	}
	return model.RunStatusComplete
}

func listLimit(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}
