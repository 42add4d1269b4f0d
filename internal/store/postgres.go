// Package store persists job postings in Postgres and serves them as a
// paginated feed source, with an optional Redis read-through cache layered
// on top.
package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Frankanator8/jobfinder/internal/feed"
	"github.com/Frankanator8/jobfinder/internal/model"
	"github.com/Frankanator8/jobfinder/internal/telemetry"
)

// DB is the pgx surface the store needs. *pgxpool.Pool satisfies it, as do
// the pgxmock pools used in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrNotFound is returned when a job ID is unknown.
var ErrNotFound = fmt.Errorf("job not found")

// PostgresSource serves pages of postings newest-first using keyset
// pagination over (created_at, id).
type PostgresSource struct {
	db DB
}

// NewPostgresSource constructs a PostgresSource.
func NewPostgresSource(db DB) *PostgresSource {
	return &PostgresSource{db: db}
}

const jobColumns = `id, title, organization, location, compensation, description, category, posting_type, work_type, url, direct_url, logo, posted_at, created_at`

// FetchPage implements feed.Source. The cursor is opaque to callers: it
// encodes the (created_at, id) keyset position of the last row served.
func (s *PostgresSource) FetchPage(ctx context.Context, q feed.PageQuery) (feed.Page, error) {
	if q.PageSize <= 0 {
		q.PageSize = 100
	}

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Cursor != "" {
		at, id, err := decodeCursor(q.Cursor)
		if err != nil {
			return feed.Page{}, fmt.Errorf("decode cursor: %w", err)
		}
		conds = append(conds, fmt.Sprintf("(created_at, id) < (%s, %s)", arg(at), arg(id)))
	}
	if q.Category != "" {
		conds = append(conds, fmt.Sprintf("category = %s", arg(q.Category)))
	}

	sql := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %s", arg(q.PageSize))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return feed.Page{}, fmt.Errorf("query jobs page: %w", err)
	}
	defer rows.Close()

	var (
		page          feed.Page
		lastCreatedAt time.Time
		lastID        string
	)
	for rows.Next() {
		var (
			j         model.Job
			createdAt time.Time
		)
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Organization, &j.Location, &j.Compensation,
			&j.Description, &j.Category, &j.PostingType, &j.WorkType,
			&j.URL, &j.DirectURL, &j.Logo, &j.PostedAt, &createdAt,
		); err != nil {
			return feed.Page{}, fmt.Errorf("scan job: %w", err)
		}
		page.Jobs = append(page.Jobs, j)
		lastCreatedAt, lastID = createdAt, j.ID
	}
	if err := rows.Err(); err != nil {
		return feed.Page{}, fmt.Errorf("jobs page rows: %w", err)
	}

	// A full page may still be the last one; the next fetch returns empty
	// and the caller stops there.
	if len(page.Jobs) == q.PageSize {
		page.NextCursor = encodeCursor(lastCreatedAt, lastID)
	}

	telemetry.PagesFetched.Inc()
	return page, nil
}

// GetJob returns one posting by ID.
func (s *PostgresSource) GetJob(ctx context.Context, id string) (model.Job, error) {
	var (
		j         model.Job
		createdAt time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id,
	).Scan(
		&j.ID, &j.Title, &j.Organization, &j.Location, &j.Compensation,
		&j.Description, &j.Category, &j.PostingType, &j.WorkType,
		&j.URL, &j.DirectURL, &j.Logo, &j.PostedAt, &createdAt,
	)
	if err != nil {
		return model.Job{}, ErrNotFound
	}
	return j, nil
}

// InsertJob inserts a posting unless one with the same url already exists.
// Returns true when a row was written.
func (s *PostgresSource) InsertJob(ctx context.Context, j model.Job) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO jobs (id, title, organization, location, compensation, description,
		                   category, posting_type, work_type, url, direct_url, logo, posted_at)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		 WHERE NOT EXISTS (
		   SELECT 1 FROM jobs WHERE url = $10
		 )`,
		j.ID, j.Title, j.Organization, j.Location, j.Compensation, j.Description,
		j.Category, j.PostingType, j.WorkType, j.URL, j.DirectURL, j.Logo, j.PostedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert job %s: %w", j.URL, err)
	}
	if tag.RowsAffected() == 0 {
		telemetry.IngestDuplicates.Inc()
		return false, nil
	}
	telemetry.IngestInserted.Inc()
	return true, nil
}

// EnsureSchema creates the jobs table if it is missing.
func EnsureSchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS jobs (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			organization TEXT NOT NULL DEFAULT '',
			location     TEXT NOT NULL DEFAULT '',
			compensation TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT '',
			posting_type TEXT NOT NULL DEFAULT '',
			work_type    TEXT NOT NULL DEFAULT '',
			url          TEXT NOT NULL,
			direct_url   TEXT NOT NULL DEFAULT '',
			logo         TEXT NOT NULL DEFAULT '',
			posted_at    TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS jobs_url_idx ON jobs (url);
		CREATE INDEX IF NOT EXISTS jobs_feed_idx ON jobs (created_at DESC, id DESC);
		CREATE INDEX IF NOT EXISTS jobs_category_idx ON jobs (category);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// ─── Cursor codec ────────────────────────────────────────────────────────────

// encodeCursor packs a keyset position as base64("unixNano|id").
func encodeCursor(at time.Time, id string) string {
	raw := strconv.FormatInt(at.UTC().UnixNano(), 10) + "|" + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("cursor is not base64: %w", err)
	}
	nanosStr, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return time.Time{}, "", fmt.Errorf("malformed cursor %q", raw)
	}
	nanos, err := strconv.ParseInt(nanosStr, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed cursor timestamp: %w", err)
	}
	return time.Unix(0, nanos).UTC(), id, nil
}
