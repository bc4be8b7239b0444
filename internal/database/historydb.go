package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/docpointer/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "docpointer.db"

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrNotFound is returned when an extraction ID does not exist.
	ErrNotFound = errors.New("extraction not found")

	// ErrDatabaseNotFound is returned by Open when the file is missing and
	// CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("database not found")
)

// HistoryDB stores extraction reports in SQLite so that past results can be
// listed and re-rendered without re-reading the document.
// A HistoryDB is safe for concurrent use; writes are serialised by the
// single open connection.
//
// Design decision: pointers and matches are stored as rows rather than as
// one JSON blob per extraction, with positions that keep the input order
// when 'history show' or 'compare' rebuilds a report. The summary is the
// only JSON column, since it is always read whole.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
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

// Open opens or creates the history database in dbDir.
// With CreateIfNotExists false a missing file yields ErrDatabaseNotFound,
// which lets read-only commands such as 'history' fail with a clear
// message instead of creating an empty database.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

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
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// createTables creates the schema when it does not exist yet.
func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per extraction run
	CREATE TABLE IF NOT EXISTS extractions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document TEXT NOT NULL,
		stored_name TEXT,
		sha3 TEXT,
		size INTEGER DEFAULT 0,
		page_count INTEGER NOT NULL,
		extracted_at TEXT NOT NULL,
		duration_ns INTEGER DEFAULT 0,
		pointer_count INTEGER NOT NULL,
		match_count INTEGER NOT NULL,
		summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_extractions_document ON extractions(document);
	CREATE INDEX IF NOT EXISTS idx_extractions_sha3 ON extractions(sha3);
	CREATE INDEX IF NOT EXISTS idx_extractions_time ON extractions(extracted_at);

	-- Pointers keep their input position and routed category
	CREATE TABLE IF NOT EXISTS pointers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		extraction_id INTEGER NOT NULL REFERENCES extractions(id),
		position INTEGER NOT NULL,
		query TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pointers_extraction ON pointers(extraction_id);
	CREATE INDEX IF NOT EXISTS idx_pointers_category ON pointers(category);

	-- Matches keep page order then text order via position
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pointer_id INTEGER NOT NULL REFERENCES pointers(id),
		position INTEGER NOT NULL,
		page INTEGER NOT NULL,
		snippet TEXT NOT NULL,
		rationale TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_pointer ON matches(pointer_id);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveExtraction stores a report with its pointers and matches in one
// transaction. On success report.ID is set and returned.
func (h *HistoryDB) SaveExtraction(ctx context.Context, report *model.ExtractionReport) (id int64, err error) {
	summary := report.Summary()
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO extractions (document, stored_name, sha3, size, page_count, extracted_at, duration_ns, pointer_count, match_count, summary)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Document,
		report.StoredName,
		report.SHA3,
		report.Size,
		report.PageCount,
		formatTimestamp(report.ExtractedAt),
		int64(report.Duration),
		summary.Pointers,
		summary.Matches,
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert extraction: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read extraction id: %w", err)
	}

	if report.Response != nil {
		for i, p := range report.Response.Pointers {
			if err = insertPointer(ctx, tx, id, i, p); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit extraction: %w", err)
	}
	report.ID = id
	return id, nil
}

// insertPointer stores one pointer row and its matches inside tx.
func insertPointer(ctx context.Context, tx *sql.Tx, extractionID int64, position int, p model.PointerResult) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO pointers (extraction_id, position, query, category) VALUES (?, ?, ?, ?)`,
		extractionID, position, p.Query, p.Category.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pointer: %w", err)
	}
	pointerID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read pointer id: %w", err)
	}

	for j, m := range p.Matches {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO matches (pointer_id, position, page, snippet, rationale) VALUES (?, ?, ?, ?, ?)`,
			pointerID, j, m.Page, m.Snippet, m.Rationale,
		); err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}
	return nil
}

// GetExtraction rebuilds a stored report, including pointer categories.
func (h *HistoryDB) GetExtraction(ctx context.Context, id int64) (*model.ExtractionReport, error) {
	var (
		report      model.ExtractionReport
		storedName  sql.NullString
		sha3        sql.NullString
		extractedAt string
		durationNS  int64
	)
	err := h.db.QueryRowContext(ctx, `
	SELECT id, document, stored_name, sha3, size, page_count, extracted_at, duration_ns
	FROM extractions
	WHERE id = ?
	`, id).Scan(
		&report.ID,
		&report.Document,
		&storedName,
		&sha3,
		&report.Size,
		&report.PageCount,
		&extractedAt,
		&durationNS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}
	report.StoredName = storedName.String
	report.SHA3 = sha3.String
	report.ExtractedAt = parseTimestamp(extractedAt)
	report.Duration = time.Duration(durationNS)

	pointers, err := h.loadPointers(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Response = &model.ExtractionResponse{Pointers: pointers}
	return &report, nil
}

// loadPointers reads an extraction's pointers in input order, each with
// its matches. Matches is never nil, matching a fresh extraction.
func (h *HistoryDB) loadPointers(ctx context.Context, extractionID int64) ([]model.PointerResult, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT p.id, p.query, p.category, m.page, m.snippet, m.rationale
	FROM pointers p
	LEFT JOIN matches m ON m.pointer_id = p.id
	WHERE p.extraction_id = ?
	ORDER BY p.position, m.position
	`, extractionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pointers: %w", err)
	}
	defer rows.Close()

	pointers := []model.PointerResult{}
	lastID := int64(-1)
	for rows.Next() {
		var (
			pointerID int64
			query     string
			category  string
			page      sql.NullInt64
			snippet   sql.NullString
			rationale sql.NullString
		)
		if err := rows.Scan(&pointerID, &query, &category, &page, &snippet, &rationale); err != nil {
			return nil, fmt.Errorf("failed to scan pointer: %w", err)
		}

		if pointerID != lastID {
			c, err := model.ParseFieldCategory(category)
			if err != nil {
				return nil, err
			}
			pointers = append(pointers, model.PointerResult{Query: query, Category: c, Matches: []model.Match{}})
			lastID = pointerID
		}
		if page.Valid {
			last := &pointers[len(pointers)-1]
			last.Matches = append(last.Matches, model.Match{
				Snippet:   snippet.String,
				Page:      int(page.Int64),
				Rationale: rationale.String,
			})
		}
	}
	return pointers, rows.Err()
}

// ExtractionMetadata summarizes a stored extraction without its matches.
type ExtractionMetadata struct {
	ID          int64     `json:"id"`
	Document    string    `json:"document"`
	StoredName  string    `json:"stored_name,omitempty"`
	SHA3        string    `json:"sha3"`
	PageCount   int       `json:"page_count"`
	ExtractedAt time.Time `json:"extracted_at"`
	Pointers    int       `json:"pointers"`
	Matches     int       `json:"matches"`

	// Summary is the stored per-category match count.
	Summary model.Summary `json:"summary"`
}

// ListOptions filters ListExtractions.
type ListOptions struct {
	// Document restricts results to one document name.
	Document string

	// SHA3 restricts results to one document digest.
	SHA3 string

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// ListExtractions returns extraction metadata, newest first.
func (h *HistoryDB) ListExtractions(ctx context.Context, opts ListOptions) ([]ExtractionMetadata, error) {
	var sb strings.Builder
	sb.WriteString(`
	SELECT id, document, stored_name, sha3, page_count, extracted_at, pointer_count, match_count, summary
	FROM extractions
	WHERE 1=1`)
	args := make([]any, 0, 3)

	if opts.Document != "" {
		sb.WriteString(" AND document = ?")
		args = append(args, opts.Document)
	}
	if opts.SHA3 != "" {
		sb.WriteString(" AND sha3 = ?")
		args = append(args, opts.SHA3)
	}
	sb.WriteString(" ORDER BY extracted_at DESC, id DESC")
	if opts.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
	}

	rows, err := h.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list extractions: %w", err)
	}
	defer rows.Close()

	results := []ExtractionMetadata{}
	for rows.Next() {
		var (
			meta        ExtractionMetadata
			storedName  sql.NullString
			sha3        sql.NullString
			extractedAt string
			summaryJSON sql.NullString
		)
		if err := rows.Scan(
			&meta.ID,
			&meta.Document,
			&storedName,
			&sha3,
			&meta.PageCount,
			&extractedAt,
			&meta.Pointers,
			&meta.Matches,
			&summaryJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan extraction: %w", err)
		}
		meta.StoredName = storedName.String
		meta.SHA3 = sha3.String
		meta.ExtractedAt = parseTimestamp(extractedAt)
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.Summary); err != nil {
				meta.Summary = model.Summary{}
			}
		}
		if meta.Summary.ByCategory == nil {
			meta.Summary.ByCategory = make(map[model.FieldCategory]int)
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// DeleteExtractionsBefore removes extractions older than cutoff together
// with their pointers and matches. It returns the number of extractions
// removed.
func (h *HistoryDB) DeleteExtractionsBefore(ctx context.Context, cutoff time.Time) (n int64, err error) {
	ts := formatTimestamp(cutoff)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
	DELETE FROM matches WHERE pointer_id IN (
		SELECT p.id FROM pointers p JOIN extractions e ON e.id = p.extraction_id
		WHERE e.extracted_at < ?
	)`, ts); err != nil {
		return 0, fmt.Errorf("failed to delete matches: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
	DELETE FROM pointers WHERE extraction_id IN (
		SELECT id FROM extractions WHERE extracted_at < ?
	)`, ts); err != nil {
		return 0, fmt.Errorf("failed to delete pointers: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM extractions WHERE extracted_at < ?`, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to delete extractions: %w", err)
	}
	if n, err = result.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to count deleted extractions: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit deletion: %w", err)
	}
	return n, nil
}

// formatTimestamp stores t in UTC with timeLayout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timestampFormats lists the layouts parseTimestamp accepts, most specific first.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
