package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/Frankanator8/jobfinder/internal/feed"
	"github.com/Frankanator8/jobfinder/internal/model"
)

var jobRowColumns = []string{
	"id", "title", "organization", "location", "compensation", "description",
	"category", "posting_type", "work_type", "url", "direct_url", "logo",
	"posted_at", "created_at",
}

func jobRow(rows *pgxmock.Rows, id string, createdAt time.Time) *pgxmock.Rows {
	return rows.AddRow(
		id, "Backend Engineer", "Acme", "Berlin", "", "",
		"engineering", "full-time", "remote", "https://jobs.example/"+id, "", "",
		(*time.Time)(nil), createdAt,
	)
}

func TestFetchPage_FullPageCarriesCursor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(jobRowColumns)
	jobRow(rows, "j1", base)
	jobRow(rows, "j2", base.Add(-time.Minute))

	mock.ExpectQuery(`SELECT (.+) FROM jobs ORDER BY created_at DESC, id DESC LIMIT \$1`).
		WithArgs(2).
		WillReturnRows(rows)

	src := NewPostgresSource(mock)
	page, err := src.FetchPage(context.Background(), feed.PageQuery{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 2)
	require.Equal(t, "j1", page.Jobs[0].ID)
	require.NotEmpty(t, page.NextCursor)

	// The cursor encodes the last row's keyset position.
	at, id, err := decodeCursor(page.NextCursor)
	require.NoError(t, err)
	require.Equal(t, "j2", id)
	require.True(t, at.Equal(base.Add(-time.Minute)))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPage_ShortPageEndsCollection(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(jobRowColumns)
	jobRow(rows, "j1", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	mock.ExpectQuery(`SELECT (.+) FROM jobs ORDER BY created_at DESC, id DESC LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(rows)

	src := NewPostgresSource(mock)
	page, err := src.FetchPage(context.Background(), feed.PageQuery{PageSize: 5})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	require.Empty(t, page.NextCursor)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPage_CursorAndCategoryNarrowTheQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	pos := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cursor := encodeCursor(pos, "j2")

	rows := pgxmock.NewRows(jobRowColumns)
	jobRow(rows, "j3", pos.Add(-time.Minute))

	mock.ExpectQuery(`SELECT (.+) FROM jobs WHERE \(created_at, id\) < \(\$1, \$2\) AND category = \$3 ORDER BY created_at DESC, id DESC LIMIT \$4`).
		WithArgs(pos, "j2", "engineering", 5).
		WillReturnRows(rows)

	src := NewPostgresSource(mock)
	page, err := src.FetchPage(context.Background(), feed.PageQuery{
		PageSize: 5, Cursor: cursor, Category: "engineering",
	})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	require.Equal(t, "j3", page.Jobs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPage_RejectsMalformedCursor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	src := NewPostgresSource(mock)
	_, err = src.FetchPage(context.Background(), feed.PageQuery{PageSize: 5, Cursor: "!!not-base64!!"})
	require.Error(t, err)
}

func TestInsertJob_DeduplicatesByURL(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	job := model.Job{ID: "j1", Title: "Backend Engineer", URL: "https://jobs.example/j1"}

	mock.ExpectExec(`(?s)INSERT INTO jobs.+WHERE NOT EXISTS`).
		WithArgs(job.ID, job.Title, "", "", "", "", "", "", "", job.URL, "", "", (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`(?s)INSERT INTO jobs.+WHERE NOT EXISTS`).
		WithArgs(job.ID, job.Title, "", "", "", "", "", "", "", job.URL, "", "", (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	src := NewPostgresSource(mock)

	written, err := src.InsertJob(context.Background(), job)
	require.NoError(t, err)
	require.True(t, written)

	written, err = src.InsertJob(context.Background(), job)
	require.NoError(t, err)
	require.False(t, written)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 31, 9, 30, 0, 123456789, time.UTC)
	gotAt, gotID, err := decodeCursor(encodeCursor(at, "job|with|pipes"))
	require.NoError(t, err)
	require.True(t, gotAt.Equal(at))
	// Cut splits at the first pipe, so IDs containing pipes survive.
	require.Equal(t, "job|with|pipes", gotID)
}
