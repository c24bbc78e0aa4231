package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store, initializing the
// schema on first use.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.NewStoreError("open", "create database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewStoreError("open", "open database", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.NewStoreError("open", "initialize schema", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Scan runs table, one row per batch scan
	CREATE TABLE IF NOT EXISTS scan_runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		universe TEXT NOT NULL,
		total INTEGER NOT NULL,
		matched INTEGER NOT NULL,
		min_score REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Scan results table, one row per analyzed symbol
	CREATE TABLE IF NOT EXISTS scan_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		is_pattern INTEGER NOT NULL DEFAULT 0,
		score REAL NOT NULL,
		contraction_count INTEGER NOT NULL,
		pivot_price REAL,
		pivot_distance_pct REAL NOT NULL,
		volume_trend REAL NOT NULL,
		range_contraction REAL NOT NULL,
		contractions TEXT,
		diagnostics TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, symbol),
		FOREIGN KEY (run_id) REFERENCES scan_runs(id)
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_scan_runs_universe ON scan_runs(universe);
	CREATE INDEX IF NOT EXISTS idx_scan_results_run ON scan_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_scan_results_symbol ON scan_results(symbol);
	CREATE INDEX IF NOT EXISTS idx_scan_results_score ON scan_results(score);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveScanRun saves a run and its per-symbol results in one transaction.
func (s *SQLiteStore) SaveScanRun(ctx context.Context, run *models.ScanRun, results []ScanResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("save_scan_run", "begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scan_runs (id, started_at, finished_at, universe, total, matched, min_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.Universe, run.Total, run.Matched, run.MinScore)
	if err != nil {
		return apperrors.NewStoreError("save_scan_run", "insert run", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO scan_results (run_id, symbol, is_pattern, score, contraction_count, pivot_price, pivot_distance_pct, volume_trend, range_contraction, contractions, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.NewStoreError("save_scan_run", "prepare statement", err)
	}
	defer stmt.Close()

	for _, r := range results {
		contractions, _ := json.Marshal(r.Contractions)
		diagnostics, _ := json.Marshal(r.Diagnostics)

		var pivot sql.NullFloat64
		if r.PivotPrice != nil {
			pivot = sql.NullFloat64{Float64: *r.PivotPrice, Valid: true}
		}

		isPattern := 0
		if r.IsPattern {
			isPattern = 1
		}

		_, err := stmt.ExecContext(ctx, run.ID, r.Symbol, isPattern, r.Score, r.ContractionCount, pivot, r.PivotDistancePct, r.VolumeTrend, r.RangeContraction, string(contractions), string(diagnostics))
		if err != nil {
			return apperrors.NewStoreError("save_scan_run", "insert result", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("save_scan_run", "commit transaction", err)
	}

	return nil
}

// GetScanRuns retrieves scan runs from the database.
func (s *SQLiteStore) GetScanRuns(ctx context.Context, filter RunFilter) ([]models.ScanRun, error) {
	query := "SELECT id, started_at, finished_at, universe, total, matched, min_score FROM scan_runs WHERE 1=1"
	args := []interface{}{}

	if filter.Universe != "" {
		query += " AND universe = ?"
		args = append(args, filter.Universe)
	}
	if !filter.StartDate.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND started_at <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("get_scan_runs", "query runs", err)
	}
	defer rows.Close()

	var runs []models.ScanRun
	for rows.Next() {
		var r models.ScanRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Universe, &r.Total, &r.Matched, &r.MinScore); err != nil {
			return nil, apperrors.NewStoreError("get_scan_runs", "scan row", err)
		}
		r.Duration = r.FinishedAt.Sub(r.StartedAt)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetScanResults retrieves stored per-symbol results from the database.
func (s *SQLiteStore) GetScanResults(ctx context.Context, filter ResultFilter) ([]ScanResult, error) {
	query := "SELECT run_id, symbol, is_pattern, score, contraction_count, pivot_price, pivot_distance_pct, volume_trend, range_contraction, contractions, diagnostics FROM scan_results WHERE 1=1"
	args := []interface{}{}

	if filter.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.PatternOnly {
		query += " AND is_pattern = 1"
	}
	if filter.MinScore > 0 {
		query += " AND score >= ?"
		args = append(args, filter.MinScore)
	}

	query += " ORDER BY score DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("get_scan_results", "query results", err)
	}
	defer rows.Close()

	var results []ScanResult
	for rows.Next() {
		var r ScanResult
		var isPattern int
		var pivot sql.NullFloat64
		var contractionsJSON, diagnosticsJSON string

		if err := rows.Scan(&r.RunID, &r.Symbol, &isPattern, &r.Score, &r.ContractionCount, &pivot, &r.PivotDistancePct, &r.VolumeTrend, &r.RangeContraction, &contractionsJSON, &diagnosticsJSON); err != nil {
			return nil, apperrors.NewStoreError("get_scan_results", "scan row", err)
		}

		r.IsPattern = isPattern == 1
		if pivot.Valid {
			price := pivot.Float64
			r.PivotPrice = &price
		}
		json.Unmarshal([]byte(contractionsJSON), &r.Contractions)
		json.Unmarshal([]byte(diagnosticsJSON), &r.Diagnostics)
		results = append(results, r)
	}

	return results, rows.Err()
}
