package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// GenerationRecord is one row in the generations table, a single pipeline
// invocation, persisted whether or not its stages succeeded.
//
// Records are immutable after insertion: there is no update path. ImagePath
// and ModelPath are empty when the corresponding stage did not produce an
// artifact; ModelPath is never set without ImagePath because model synthesis
// consumes the image output.
type GenerationRecord struct {
	ID             int64
	CreatedAt      time.Time
	UserPrompt     string
	EnhancedPrompt string
	ImagePath      string
	ModelPath      string
	Tags           []string
}

// HistoryStore provides append-only access to past generation records:
// insert, recency listing, substring search, and bulk clear.
//
// Substring search is always lower-cased on both sides; case sensitivity does
// not depend on the storage engine's LIKE defaults.
type HistoryStore struct {
	db *Database
}

// NewHistoryStore creates a store over an initialized Database.
// The schema must already be migrated (Database.Migrate).
func NewHistoryStore(database *Database) *HistoryStore {
	return &HistoryStore{db: database}
}

const recordColumns = `id, user_prompt, enhanced_prompt,
	COALESCE(image_path, ''), COALESCE(model_path, ''),
	COALESCE(tags, ''), created_at`

// Insert appends a new generation record and returns its assigned ID.
// IDs are strictly increasing in insertion order (AUTOINCREMENT).
func (s *HistoryStore) Insert(ctx context.Context, record GenerationRecord) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("history store: database is nil")
	}

	query := `
		INSERT INTO generations (user_prompt, enhanced_prompt, image_path, model_path, tags)
		VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.Exec(query,
		record.UserPrompt,
		record.EnhancedPrompt,
		nullableString(record.ImagePath),
		nullableString(record.ModelPath),
		strings.Join(record.Tags, ","),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert generation record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// ListRecent returns up to limit records, most recently inserted first.
// A non-positive limit falls back to 10.
func (s *HistoryStore) ListRecent(ctx context.Context, limit int) ([]GenerationRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history store: database is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM generations
		ORDER BY id DESC
		LIMIT ?`, recordColumns)

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent generations: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Search returns up to limit records whose user prompt, enhanced prompt, or
// tags contain query as a substring (case-insensitive), most recent first.
func (s *HistoryStore) Search(ctx context.Context, query string, limit int) ([]GenerationRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("history store: database is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	// Comparison is pinned to lower-case on both sides rather than relying
	// on the engine's LIKE case rules.
	stmt := fmt.Sprintf(`
		SELECT %s
		FROM generations
		WHERE LOWER(user_prompt) LIKE '%%' || LOWER(?) || '%%'
		   OR LOWER(enhanced_prompt) LIKE '%%' || LOWER(?) || '%%'
		   OR LOWER(tags) LIKE '%%' || LOWER(?) || '%%'
		ORDER BY id DESC
		LIMIT ?`, recordColumns)

	rows, err := s.db.Query(stmt, query, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search generations: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ClearAll removes every record irreversibly.
func (s *HistoryStore) ClearAll(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("history store: database is nil")
	}

	if _, err := s.db.Exec(`DELETE FROM generations`); err != nil {
		return fmt.Errorf("failed to clear generations: %w", err)
	}
	return nil
}

// Count returns the total number of stored records.
func (s *HistoryStore) Count(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("history store: database is nil")
	}

	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM generations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return n, nil
}

// scanRecords materializes query rows into records, splitting the stored
// comma-joined tag column.
func scanRecords(rows *sql.Rows) ([]GenerationRecord, error) {
	var records []GenerationRecord
	for rows.Next() {
		var rec GenerationRecord
		var tags string
		var createdAt string

		err := rows.Scan(
			&rec.ID,
			&rec.UserPrompt,
			&rec.EnhancedPrompt,
			&rec.ImagePath,
			&rec.ModelPath,
			&tags,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}

		rec.Tags = splitTags(tags)
		rec.CreatedAt = parseSQLiteTime(createdAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation rows: %w", err)
	}

	return records, nil
}

// splitTags parses the comma-joined tag column; empty columns yield nil.
func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// parseSQLiteTime parses the datetime formats SQLite emits for
// CURRENT_TIMESTAMP columns.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nullableString maps "" to SQL NULL so absent artifact paths are stored as
// NULL rather than empty strings.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
