package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/yo-wrangle/yowrangle/internal/model"
)

// HistoryDB provides SQLite-based storage for run reports and image hashes.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file shared by all subsets
// rather than one file per subset. Cross-subset duplicate queries need all
// hashes in one place, and a single file simplifies backup/restore.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "yowrangle.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string. mode=rw refuses to create a
	// new file, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Run reports store complete wrangle results as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subset TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		severity_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_subset ON runs(subset);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- Image hashes track file content across subsets for duplicate detection
	CREATE TABLE IF NOT EXISTS image_hashes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subset TEXT NOT NULL,
		record_id TEXT NOT NULL,
		hash TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(subset, record_id)
	);

	CREATE INDEX IF NOT EXISTS idx_hashes_hash ON image_hashes(hash);
	CREATE INDEX IF NOT EXISTS idx_hashes_subset ON image_hashes(subset);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRunReport saves a complete run report as JSON.
func (hdb *HistoryDB) SaveRunReport(ctx context.Context, report *model.WrangleReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	severitySummary := map[string]int{
		"critical": 0,
		"high":     0,
		"medium":   0,
		"low":      0,
		"info":     0,
	}
	if report.QualityReport != nil {
		severitySummary["critical"] = report.QualityReport.CriticalCount
		severitySummary["high"] = report.QualityReport.HighCount
		severitySummary["medium"] = report.QualityReport.MediumCount
		severitySummary["low"] = report.QualityReport.LowCount
		severitySummary["info"] = report.QualityReport.InfoCount
	}
	severityJSON, _ := json.Marshal(severitySummary) //nolint:errcheck,errchkjson // simple map; Marshal won't fail

	query := `
	INSERT INTO runs (subset, report_json, severity_summary)
	VALUES (?, ?, ?)
	`

	_, err = hdb.db.ExecContext(ctx, query,
		report.Subset,
		string(reportJSON),
		string(severityJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}

	return nil
}

// GetLatestRunReport retrieves the most recent run report for a subset.
// Returns nil without error when the subset has no recorded runs.
func (hdb *HistoryDB) GetLatestRunReport(ctx context.Context, subset string) (*model.WrangleReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE subset = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, subset).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report model.WrangleReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListSubsets returns a list of all subsets with recorded runs.
func (hdb *HistoryDB) ListSubsets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT subset FROM runs
	ORDER BY subset
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subsets: %w", err)
	}
	defer rows.Close()

	var subsets []string
	for rows.Next() {
		var subset string
		if err := rows.Scan(&subset); err != nil {
			return nil, fmt.Errorf("failed to scan subset: %w", err)
		}
		subsets = append(subsets, subset)
	}

	return subsets, rows.Err()
}

// GetRunHistory retrieves all run reports for a subset, newest first.
func (hdb *HistoryDB) GetRunHistory(ctx context.Context, subset string) ([]*model.WrangleReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE subset = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, subset)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var reports []*model.WrangleReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.WrangleReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// RunMetadata contains summary information about a recorded run.
// This is used for displaying run history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Subset is the processed subset name.
	Subset string

	// Timestamp is when the run was recorded.
	Timestamp time.Time

	// SeveritySummary contains counts of findings by severity level.
	SeveritySummary map[string]int
}

// GetRunHistoryWithMetadata retrieves run metadata for a subset.
// This is more efficient than GetRunHistory when only metadata is needed.
func (hdb *HistoryDB) GetRunHistoryWithMetadata(ctx context.Context, subset string) ([]RunMetadata, error) {
	query := `
	SELECT id, subset, timestamp, severity_summary
	FROM runs
	WHERE subset = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, subset)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var severityJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Subset, &timestamp, &severityJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		if severityJSON.Valid && severityJSON.String != "" {
			if err := json.Unmarshal([]byte(severityJSON.String), &meta.SeveritySummary); err != nil {
				meta.SeveritySummary = make(map[string]int)
			}
		} else {
			meta.SeveritySummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRunReportByID retrieves a run report by its database ID.
// Returns nil without error when no run with the ID exists.
func (hdb *HistoryDB) GetRunReportByID(ctx context.Context, id int64) (*model.WrangleReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report model.WrangleReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// HasRecentRun checks if a subset was processed within the specified duration.
func (hdb *HistoryDB) HasRecentRun(ctx context.Context, subset string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM runs
	WHERE subset = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := hdb.db.QueryRowContext(ctx, query, subset, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent run: %w", err)
	}

	return count > 0, nil
}

// HashRecord represents a stored image content hash.
type HashRecord struct {
	ID        int64
	Subset    string
	RecordID  string
	Hash      string
	Timestamp time.Time
}

// InsertImageHash inserts or updates the content hash for a record.
// Uses UPSERT to handle re-runs of the same subset.
func (hdb *HistoryDB) InsertImageHash(ctx context.Context, rec *HashRecord) error {
	query := `
	INSERT INTO image_hashes (subset, record_id, hash)
	VALUES (?, ?, ?)
	ON CONFLICT(subset, record_id) DO UPDATE SET
		hash = excluded.hash,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := hdb.db.ExecContext(ctx, query, rec.Subset, rec.RecordID, rec.Hash)
	if err != nil {
		return fmt.Errorf("failed to insert image hash: %w", err)
	}

	return nil
}

// FindHashMatches returns all stored records sharing the given content hash.
// Matches in a different subset than the one being processed indicate
// train/val leakage.
func (hdb *HistoryDB) FindHashMatches(ctx context.Context, hash string) ([]HashRecord, error) {
	query := `
	SELECT id, subset, record_id, hash, timestamp
	FROM image_hashes
	WHERE hash = ?
	ORDER BY subset, record_id
	`

	rows, err := hdb.db.QueryContext(ctx, query, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to query image hashes: %w", err)
	}
	defer rows.Close()

	var results []HashRecord
	for rows.Next() {
		var rec HashRecord
		var timestamp string

		if err := rows.Scan(&rec.ID, &rec.Subset, &rec.RecordID, &rec.Hash, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan image hash: %w", err)
		}

		rec.Timestamp = parseTimestamp(timestamp)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// DeleteSubsetHashes removes all stored hashes for a subset.
// Used before re-indexing a subset that may have lost images.
func (hdb *HistoryDB) DeleteSubsetHashes(ctx context.Context, subset string) (int64, error) {
	result, err := hdb.db.ExecContext(ctx, `DELETE FROM image_hashes WHERE subset = ?`, subset)
	if err != nil {
		return 0, fmt.Errorf("failed to delete image hashes: %w", err)
	}
	return result.RowsAffected()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
