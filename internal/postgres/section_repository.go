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

const sectionColumns = `id, is_events_section, name, content,
	lock_held_by_user_id, lock_assigned_at_utc, in_thread_id`

type SectionRepo struct {
	pool *pgxpool.Pool
}

func NewSectionRepo(pool *pgxpool.Pool) *SectionRepo {
	return &SectionRepo{pool: pool}
}

func scanSection(row pgx.Row) (*domain.Section, error) {
	var s domain.Section
	err := row.Scan(
		&s.ID, &s.IsEventsSection, &s.Name, &s.Content,
		&s.LockHeldByUserID, &s.LockAssignedAtUTC, &s.InThreadID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan section: %w", err)
	}
	return &s, nil
}

func (r *SectionRepo) FindAll(ctx context.Context) ([]domain.Section, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sectionColumns+` FROM sections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []domain.Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *s)
	}
	return sections, rows.Err()
}

func (r *SectionRepo) Find(ctx context.Context, id int32) (*domain.Section, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id)
	return scanSection(row)
}

func (r *SectionRepo) Insert(ctx context.Context, data domain.InsertSection) (*domain.Section, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sections (is_events_section, name, content, in_thread_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+sectionColumns,
		data.IsEventsSection, data.Name, data.Content, data.InThreadID,
	)
	return scanSection(row)
}

func (r *SectionRepo) Update(ctx context.Context, id int32, data domain.UpdateSection) (*domain.Section, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if data.Name != nil {
		add("name", *data.Name)
	}
	if data.Content != nil {
		add("content", *data.Content)
	}

	if len(sets) == 0 {
		return r.Find(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE sections SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), sectionColumns)
	return scanSection(r.pool.QueryRow(ctx, query, args...))
}

func (r *SectionRepo) SetLock(ctx context.Context, id int32, lockState domain.SectionLock) (*domain.Section, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sections SET lock_held_by_user_id = $1, lock_assigned_at_utc = $2
		WHERE id = $3
		RETURNING `+sectionColumns,
		lockState.LockHeldByUserID, lockState.LockAssignedAtUTC, id,
	)
	return scanSection(row)
}

func (r *SectionRepo) Delete(ctx context.Context, id int32) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete section: %w", err)
	}
	return tag.RowsAffected(), nil
}
