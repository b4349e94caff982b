package catalog

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

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sndx/internal/metadata"
)

// Entry is one recorded notice.
type Entry struct {
	ID         string
	URL        string
	Code       string
	Category   string
	Title      string
	Subtitle   string
	Date       string
	Place      string
	Authors    []string
	Duration   time.Duration
	File       string
	SizeBytes  int64
	RunID      string
	RecordedAt time.Time
}

// NewEntry builds an entry for a finished recording of md saved at file.
// SizeBytes is read from the file when it exists.
func NewEntry(md metadata.RecordingMetadata, file, runID string) Entry {
	entry := Entry{
		URL:      md.URL,
		Code:     md.Code,
		Category: md.Category,
		Title:    md.Title,
		Subtitle: md.Subtitle,
		Date:     md.Date,
		Place:    md.Place,
		Authors:  append([]string(nil), md.Authors...),
		Duration: md.Duration,
		File:     file,
		RunID:    runID,
	}
	if info, err := os.Stat(file); err == nil {
		entry.SizeBytes = info.Size()
	}
	return entry
}

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the catalog database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts entry, replacing any earlier row for the same URL. Missing
// ID and RecordedAt are filled in; the stored entry is returned.
func (s *Store) Record(ctx context.Context, entry Entry) (*Entry, error) {
	if strings.TrimSpace(entry.URL) == "" {
		return nil, errors.New("entry url required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	authors := entry.Authors
	if authors == nil {
		authors = []string{}
	}
	authorsJSON, err := json.Marshal(authors)
	if err != nil {
		return nil, fmt.Errorf("marshal authors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recordings (
            id, url, code, category, title, subtitle, recorded_on, place,
            authors_json, duration_seconds, file_path, size_bytes, run_id, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(url) DO UPDATE SET
            id = excluded.id, code = excluded.code, category = excluded.category,
            title = excluded.title, subtitle = excluded.subtitle,
            recorded_on = excluded.recorded_on, place = excluded.place,
            authors_json = excluded.authors_json, duration_seconds = excluded.duration_seconds,
            file_path = excluded.file_path, size_bytes = excluded.size_bytes,
            run_id = excluded.run_id, recorded_at = excluded.recorded_at`,
		entry.ID,
		entry.URL,
		nullableString(entry.Code),
		nullableString(entry.Category),
		nullableString(entry.Title),
		nullableString(entry.Subtitle),
		nullableString(entry.Date),
		nullableString(entry.Place),
		string(authorsJSON),
		int64(entry.Duration/time.Second),
		entry.File,
		entry.SizeBytes,
		nullableString(entry.RunID),
		entry.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", entry.URL, err)
	}
	return s.Get(ctx, entry.URL)
}

// Get returns the entry for url, or nil when none is recorded.
func (s *Store) Get(ctx context.Context, url string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM recordings WHERE url = ?`, url)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// Has reports whether url has been recorded.
func (s *Store) Has(ctx context.Context, url string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM recordings WHERE url = ?`, url).Scan(&count); err != nil {
		return false, fmt.Errorf("check %s: %w", url, err)
	}
	return count > 0, nil
}

// List returns all entries, most recent first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM recordings ORDER BY recorded_at DESC, url`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Remove deletes the entry for url and reports whether one existed.
func (s *Store) Remove(ctx context.Context, url string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE url = ?`, url)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", url, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

const entryColumns = `id, url, code, category, title, subtitle, recorded_on, place,
    authors_json, duration_seconds, file_path, size_bytes, run_id, recorded_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		entry                                             Entry
		code, category, title, subtitle, date, place, run sql.NullString
		authorsJSON, recordedAt                           string
		durationSeconds                                   int64
	)
	if err := row.Scan(
		&entry.ID, &entry.URL, &code, &category, &title, &subtitle, &date, &place,
		&authorsJSON, &durationSeconds, &entry.File, &entry.SizeBytes, &run, &recordedAt,
	); err != nil {
		return nil, err
	}
	entry.Code = code.String
	entry.Category = category.String
	entry.Title = title.String
	entry.Subtitle = subtitle.String
	entry.Date = date.String
	entry.Place = place.String
	entry.RunID = run.String
	entry.Duration = time.Duration(durationSeconds) * time.Second
	if err := json.Unmarshal([]byte(authorsJSON), &entry.Authors); err != nil {
		return nil, fmt.Errorf("decode authors: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return nil, fmt.Errorf("parse recorded_at: %w", err)
	}
	entry.RecordedAt = ts
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
