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

const presetEventColumns = `id, holds_clock, message, name`

type PresetEventRepo struct {
	pool *pgxpool.Pool
}

func NewPresetEventRepo(pool *pgxpool.Pool) *PresetEventRepo {
	return &PresetEventRepo{pool: pool}
}

func scanPresetEvent(row pgx.Row) (*domain.PresetEvent, error) {
	var p domain.PresetEvent
	err := row.Scan(&p.ID, &p.HoldsClock, &p.Message, &p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan preset event: %w", err)
	}
	return &p, nil
}

func (r *PresetEventRepo) FindAll(ctx context.Context) ([]domain.PresetEvent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+presetEventColumns+` FROM preset_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list preset events: %w", err)
	}
	defer rows.Close()

	var presets []domain.PresetEvent
	for rows.Next() {
		p, err := scanPresetEvent(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, *p)
	}
	return presets, rows.Err()
}

func (r *PresetEventRepo) Find(ctx context.Context, id int32) (*domain.PresetEvent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+presetEventColumns+` FROM preset_events WHERE id = $1`, id)
	return scanPresetEvent(row)
}

func (r *PresetEventRepo) Insert(ctx context.Context, data domain.InsertPresetEvent) (*domain.PresetEvent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO preset_events (holds_clock, message, name)
		VALUES ($1, $2, $3)
		RETURNING `+presetEventColumns,
		data.HoldsClock, data.Message, data.Name,
	)
	return scanPresetEvent(row)
}

func (r *PresetEventRepo) Update(ctx context.Context, id int32, data domain.UpdatePresetEvent) (*domain.PresetEvent, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if data.HoldsClock != nil {
		add("holds_clock", *data.HoldsClock)
	}
	if data.Message != nil {
		add("message", *data.Message)
	}
	if data.Name != nil {
		add("name", *data.Name)
	}

	if len(sets) == 0 {
		return r.Find(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE preset_events SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), presetEventColumns)
	return scanPresetEvent(r.pool.QueryRow(ctx, query, args...))
}

func (r *PresetEventRepo) Delete(ctx context.Context, id int32) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM preset_events WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete preset event: %w", err)
	}
	return tag.RowsAffected(), nil
}
