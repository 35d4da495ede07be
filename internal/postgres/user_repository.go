package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevinmiles/Enceladus-API/internal/crypto"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

const userColumns = `id, reddit_username, lang, refresh_token,
	is_global_admin, is_admin, is_mod`

// UserRepo persists users. Refresh tokens are encrypted at rest with the
// configured crypto service and decrypted on the way out.
type UserRepo struct {
	pool   *pgxpool.Pool
	crypto crypto.Service
}

func NewUserRepo(pool *pgxpool.Pool, cryptoService crypto.Service) *UserRepo {
	return &UserRepo{pool: pool, crypto: cryptoService}
}

func (r *UserRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.RedditUsername, &u.Lang, &u.RefreshToken,
		&u.IsGlobalAdmin, &u.IsAdmin, &u.IsMod,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.RefreshToken, err = r.crypto.Decrypt(u.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Find(ctx context.Context, id int32) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanUser(row)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE reddit_username = $1`, username)
	return r.scanUser(row)
}

func (r *UserRepo) Insert(ctx context.Context, data domain.InsertUser) (*domain.User, error) {
	encToken, err := r.crypto.Encrypt(data.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	lang := data.Lang
	if lang == "" {
		lang = "en"
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (reddit_username, lang, refresh_token, is_global_admin, is_admin, is_mod)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		data.RedditUsername, lang, encToken, data.IsGlobalAdmin, data.IsAdmin, data.IsMod,
	)
	return r.scanUser(row)
}

func (r *UserRepo) Update(ctx context.Context, id int32, data domain.UpdateUser) (*domain.User, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if data.Lang != nil {
		add("lang", *data.Lang)
	}
	if data.RefreshToken != nil {
		encToken, err := r.crypto.Encrypt(*data.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		add("refresh_token", encToken)
	}
	if data.IsGlobalAdmin != nil {
		add("is_global_admin", *data.IsGlobalAdmin)
	}
	if data.IsAdmin != nil {
		add("is_admin", *data.IsAdmin)
	}
	if data.IsMod != nil {
		add("is_mod", *data.IsMod)
	}

	if len(sets) == 0 {
		return r.Find(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, args...))
}

func (r *UserRepo) Delete(ctx context.Context, id int32) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected(), nil
}
