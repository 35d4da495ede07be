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

const eventColumns = `id, posted, message, terminal_count, utc, in_thread_id`

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Posted, &e.Message, &e.TerminalCount, &e.UTC, &e.InThreadID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return &e, nil
}

func (r *EventRepo) FindAll(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *EventRepo) Find(ctx context.Context, id int32) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (r *EventRepo) Insert(ctx context.Context, data domain.InsertEvent) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (posted, message, terminal_count, utc, in_thread_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+eventColumns,
		data.Posted, data.Message, data.TerminalCount, data.UTC, data.InThreadID,
	)
	return scanEvent(row)
}

func (r *EventRepo) Update(ctx context.Context, id int32, data domain.UpdateEvent) (*domain.Event, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if data.Posted != nil {
		add("posted", *data.Posted)
	}
	if data.Message != nil {
		add("message", *data.Message)
	}
	if data.TerminalCount != nil {
		add("terminal_count", *data.TerminalCount)
	}
	if data.UTC != nil {
		add("utc", *data.UTC)
	}

	if len(sets) == 0 {
		return r.Find(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), eventColumns)
	return scanEvent(r.pool.QueryRow(ctx, query, args...))
}

func (r *EventRepo) Delete(ctx context.Context, id int32) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete event: %w", err)
	}
	return tag.RowsAffected(), nil
}
