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

	"github.com/nao1215/aiaudit/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "aiaudit.db"

// AuditDB provides SQLite-based storage for audit results.
type AuditDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AuditDB in dbDir.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return adb, nil
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

func (adb *AuditDB) createTables() error {
	schema := `
	-- One row per audit run; result_json is the AuditResult without raw signals.
	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		site_key TEXT NOT NULL,
		root_url TEXT NOT NULL,
		audited_at INTEGER NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		composite REAL NOT NULL,
		fetched_pages INTEGER NOT NULL,
		failed_pages INTEGER NOT NULL,
		degraded TEXT,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audits_key ON audits(site_key, audited_at);

	-- Pages record what each audit fetched, or why it could not.
	CREATE TABLE IF NOT EXISTS audit_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		audit_id TEXT NOT NULL REFERENCES audits(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		kind TEXT,
		status_code INTEGER,
		failure_reason TEXT,
		UNIQUE(audit_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_audit ON audit_pages(audit_id);
	`
	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAuditResult stores a finished audit and its page list.
func (adb *AuditDB) SaveAuditResult(ctx context.Context, result *model.AuditResult) error {
	stored := *result
	stored.Signals = nil
	resultJSON, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	degradedJSON, err := json.Marshal(result.Degraded)
	if err != nil {
		return fmt.Errorf("failed to serialize degraded sources: %w", err)
	}

	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO audits (id, site_key, root_url, audited_at, composite, fetched_pages, failed_pages, degraded, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		result.Key,
		result.RootURL,
		result.Timestamp.UnixNano(),
		result.Composite,
		result.FetchedPages,
		len(result.FailedPages),
		string(degradedJSON),
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit result: %w", err)
	}

	for _, p := range pageRecords(result) {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_pages (audit_id, url, kind, status_code, failure_reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(audit_id, url) DO UPDATE SET
			kind = excluded.kind,
			status_code = excluded.status_code,
			failure_reason = excluded.failure_reason
		`, result.ID, p.URL, p.Kind, p.StatusCode, p.FailureReason)
		if err != nil {
			return fmt.Errorf("failed to save page %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit result: %w", err)
	}
	return nil
}

// LatestResults returns up to n results for key, newest first.
func (adb *AuditDB) LatestResults(ctx context.Context, key string, n int) ([]*model.AuditResult, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := adb.db.QueryContext(ctx, `
	SELECT result_json FROM audits
	WHERE site_key = ?
	ORDER BY audited_at DESC, rowid DESC
	LIMIT ?
	`, key, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest results: %w", err)
	}
	defer rows.Close()

	var results []*model.AuditResult
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		var result model.AuditResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			continue // Skip malformed results
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

// ListAuditedSites returns every stored site key in sorted order.
func (adb *AuditDB) ListAuditedSites(ctx context.Context) ([]string, error) {
	rows, err := adb.db.QueryContext(ctx, `SELECT DISTINCT site_key FROM audits ORDER BY site_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// AuditMetadata summarizes a stored audit without its full result.
type AuditMetadata struct {
	ID           string
	Key          string
	RootURL      string
	Timestamp    time.Time
	SavedAt      time.Time
	Composite    float64
	FetchedPages int
	FailedPages  int
	Degraded     []string
}

// GetAuditHistoryWithMetadata returns metadata of every audit of key,
// newest first.
func (adb *AuditDB) GetAuditHistoryWithMetadata(ctx context.Context, key string) ([]AuditMetadata, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT id, site_key, root_url, audited_at, saved_at, composite, fetched_pages, failed_pages, degraded
	FROM audits
	WHERE site_key = ?
	ORDER BY audited_at DESC, rowid DESC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []AuditMetadata
	for rows.Next() {
		var (
			meta      AuditMetadata
			auditedAt int64
			savedAt   string
			degraded  sql.NullString
		)
		if err := rows.Scan(&meta.ID, &meta.Key, &meta.RootURL, &auditedAt, &savedAt,
			&meta.Composite, &meta.FetchedPages, &meta.FailedPages, &degraded); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = time.Unix(0, auditedAt).UTC()
		meta.SavedAt = parseTimestamp(savedAt)
		if degraded.Valid && degraded.String != "" {
			if err := json.Unmarshal([]byte(degraded.String), &meta.Degraded); err != nil {
				meta.Degraded = nil
			}
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetAuditResultByID returns the stored result with the given run ID.
func (adb *AuditDB) GetAuditResultByID(ctx context.Context, id string) (*model.AuditResult, error) {
	var resultJSON string
	err := adb.db.QueryRowContext(ctx, `SELECT result_json FROM audits WHERE id = ?`, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit result: %w", err)
	}

	var result model.AuditResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return &result, nil
}

// HasRecentAudit reports whether key was audited within d of now.
func (adb *AuditDB) HasRecentAudit(ctx context.Context, key string, d time.Duration, now time.Time) (bool, error) {
	var count int
	err := adb.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM audits WHERE site_key = ? AND audited_at > ?
	`, key, now.Add(-d).UnixNano()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent audit: %w", err)
	}
	return count > 0, nil
}

// Prune deletes all but the newest keep audits of key and returns how
// many were removed.
func (adb *AuditDB) Prune(ctx context.Context, key string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stale := `
	SELECT id FROM audits WHERE site_key = ?
	ORDER BY audited_at DESC, rowid DESC
	LIMIT -1 OFFSET ?
	`
	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_pages WHERE audit_id IN (`+stale+`)`, key, keep); err != nil {
		return 0, fmt.Errorf("failed to prune pages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM audits WHERE id IN (`+stale+`)`, key, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned audits: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return n, nil
}

// PageRecord is one page row of a stored audit. FailureReason is empty
// for fetched pages.
type PageRecord struct {
	URL           string
	Kind          string
	StatusCode    int
	FailureReason string
}

// AuditPages returns the pages of an audit in insertion order.
func (adb *AuditDB) AuditPages(ctx context.Context, auditID string) ([]PageRecord, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT url, kind, status_code, failure_reason FROM audit_pages
	WHERE audit_id = ?
	ORDER BY id
	`, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var (
			p      PageRecord
			kind   sql.NullString
			status sql.NullInt64
			reason sql.NullString
		)
		if err := rows.Scan(&p.URL, &kind, &status, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Kind, p.StatusCode, p.FailureReason = kind.String, int(status.Int64), reason.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func pageRecords(result *model.AuditResult) []PageRecord {
	var out []PageRecord
	if result.Signals != nil {
		for _, p := range result.Signals.AllPages() {
			out = append(out, PageRecord{URL: p.URL, Kind: p.Kind.String(), StatusCode: p.Technical.StatusCode})
		}
	}
	for _, f := range result.FailedPages {
		out = append(out, PageRecord{URL: f.URL, FailureReason: f.Reason})
	}
	return out
}

// timestampFormats contains the timestamp formats that SQLite may return.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time when
// none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
