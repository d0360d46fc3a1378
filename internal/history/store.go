package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"streamfinder/internal/config"
	"streamfinder/internal/metrics"
	"streamfinder/internal/streams"
)

// Origin labels which surface issued a resolution.
type Origin string

const (
	OriginCLI Origin = "cli"
	OriginAPI Origin = "api"
)

// Entry is one recorded resolution.
type Entry struct {
	ID            int64
	RequestID     string
	MediaType     streams.MediaType
	CanonicalID   string
	Title         string
	OriginalTitle string
	ReleaseYear   int
	PhimAPICount  int
	OphimCount    int
	Outcome       string
	Duration      time.Duration
	Origin        Origin
	CreatedAt     time.Time
}

// NewEntry summarizes a finished resolution.
func NewEntry(requestID string, canonical streams.CanonicalRecord, result streams.AggregateResult, elapsed time.Duration, origin Origin) Entry {
	outcome := metrics.Outcome(result)
	if !canonical.HasID() {
		outcome = metrics.OutcomeNoID
	}
	return Entry{
		RequestID:     requestID,
		MediaType:     canonical.MediaType,
		CanonicalID:   strings.TrimSpace(canonical.ID),
		Title:         canonical.Title,
		OriginalTitle: canonical.OriginalTitle,
		ReleaseYear:   canonical.ReleaseYear,
		PhimAPICount:  len(result.SourceA),
		OphimCount:    len(result.SourceB),
		Outcome:       outcome,
		Duration:      elapsed,
		Origin:        origin,
	}
}

// Store persists resolution summaries in SQLite. The resolver never reads it;
// it exists for the history command.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
	if err := store.upgradeSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts entry, assigning a request id and timestamp when absent.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if s == nil || s.db == nil {
		return entry, errors.New("history store not open")
	}
	if strings.TrimSpace(entry.RequestID) == "" {
		entry.RequestID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	if entry.Origin == "" {
		entry.Origin = OriginCLI
	}
	if entry.MediaType == "" {
		entry.MediaType = streams.MediaMovie
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (
            request_id, media_type, canonical_id, title, original_title, release_year,
            phimapi_count, ophim_count, outcome, duration_ms, origin, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		string(entry.MediaType),
		entry.CanonicalID,
		nullableString(entry.Title),
		nullableString(entry.OriginalTitle),
		nullableInt(entry.ReleaseYear),
		entry.PhimAPICount,
		entry.OphimCount,
		entry.Outcome,
		entry.Duration.Milliseconds(),
		string(entry.Origin),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return entry, fmt.Errorf("insert resolution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return entry, fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// List returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, request_id, media_type, canonical_id, title, original_title, release_year,
        phimapi_count, ophim_count, outcome, duration_ms, origin, created_at
        FROM resolutions ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM resolutions")
	if err != nil {
		return 0, fmt.Errorf("clear resolutions: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry         Entry
		mediaType     string
		title         sql.NullString
		originalTitle sql.NullString
		releaseYear   sql.NullInt64
		durationMS    int64
		origin        string
		createdAt     string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.RequestID,
		&mediaType,
		&entry.CanonicalID,
		&title,
		&originalTitle,
		&releaseYear,
		&entry.PhimAPICount,
		&entry.OphimCount,
		&entry.Outcome,
		&durationMS,
		&origin,
		&createdAt,
	); err != nil {
		return Entry{}, fmt.Errorf("scan resolution: %w", err)
	}
	entry.MediaType = streams.MediaType(mediaType)
	entry.Title = title.String
	entry.OriginalTitle = originalTitle.String
	entry.ReleaseYear = int(releaseYear.Int64)
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	entry.Origin = Origin(origin)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		entry.CreatedAt = ts
	}
	return entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value <= 0 {
		return nil
	}
	return value
}
