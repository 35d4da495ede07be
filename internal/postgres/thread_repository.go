package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

const threadColumns = `id, thread_name, display_name, post_id, subreddit, t0,
	youtube_id, api_id, created_by_user_id, sections_id, events_id,
	event_column_headers, utc_col_index`

type ThreadRepo struct {
	pool *pgxpool.Pool
}

func NewThreadRepo(pool *pgxpool.Pool) *ThreadRepo {
	return &ThreadRepo{pool: pool}
}

func scanThread(row pgx.Row) (*domain.Thread, error) {
	var t domain.Thread
	err := row.Scan(
		&t.ID, &t.ThreadName, &t.DisplayName, &t.PostID, &t.Subreddit, &t.T0,
		&t.YoutubeID, &t.APIID, &t.CreatedByUserID, &t.SectionsID, &t.EventsID,
		&t.EventColumnHeaders, &t.UTCColIndex,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan thread: %w", err)
	}
	return &t, nil
}

func (r *ThreadRepo) FindAll(ctx context.Context) ([]domain.Thread, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+threadColumns+` FROM threads ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, *t)
	}
	return threads, rows.Err()
}

func (r *ThreadRepo) Find(ctx context.Context, id int32) (*domain.Thread, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+threadColumns+` FROM threads WHERE id = $1`, id)
	return scanThread(row)
}

func (r *ThreadRepo) Insert(ctx context.Context, data domain.InsertThread, createdByUserID int32) (*domain.Thread, error) {
	headers := data.EventColumnHeaders
	if headers == nil {
		headers = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO threads (thread_name, display_name, subreddit, t0, youtube_id,
			api_id, created_by_user_id, event_column_headers, utc_col_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+threadColumns,
		data.ThreadName, data.DisplayName, data.Subreddit, data.T0, data.YoutubeID,
		data.APIID, createdByUserID, headers, data.UTCColIndex,
	)
	return scanThread(row)
}

func (r *ThreadRepo) Update(ctx context.Context, id int32, data domain.UpdateThread) (*domain.Thread, error) {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if data.DisplayName != nil {
		add("display_name", *data.DisplayName)
	}
	if data.T0 != nil {
		add("t0", *data.T0)
	}
	if data.YoutubeID != nil {
		add("youtube_id", *data.YoutubeID)
	}
	if data.APIID != nil {
		add("api_id", *data.APIID)
	}
	if data.SectionsID != nil {
		add("sections_id", data.SectionsID)
	}
	if data.EventsID != nil {
		add("events_id", data.EventsID)
	}
	if data.EventColumnHeaders != nil {
		add("event_column_headers", data.EventColumnHeaders)
	}

	if len(sets) == 0 {
		return r.Find(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE threads SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), threadColumns)
	return scanThread(r.pool.QueryRow(ctx, query, args...))
}

func (r *ThreadRepo) SetPostID(ctx context.Context, id int32, postID string) (*domain.Thread, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE threads SET post_id = $1 WHERE id = $2 RETURNING `+threadColumns,
		postID, id,
	)
	return scanThread(row)
}

func (r *ThreadRepo) Delete(ctx context.Context, id int32) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM threads WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete thread: %w", err)
	}
	return tag.RowsAffected(), nil
}
