package app

import (
	"context"
	"errors"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

// ListUsers returns every user, bypassing the cache. Refresh tokens are
// never serialized, so the result is safe to return as-is.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.stores.Users.FindAll(ctx)
	if err != nil {
		return nil, storeErr(err, "users")
	}
	return users, nil
}

// GetUser returns one user through the cache.
func (s *Service) GetUser(ctx context.Context, id int32) (*domain.User, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return &u, nil
}

// UpsertRedditUser records a completed OAuth flow. A first-time login
// creates the user and announces it in the user room; a returning login
// refreshes the stored token and language.
func (s *Service) UpsertRedditUser(ctx context.Context, username, lang, refreshToken string) (*domain.User, error) {
	existing, err := s.stores.Users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, storeErr(err, "user")
	}

	if errors.Is(err, domain.ErrNotFound) {
		created, err := s.stores.Users.Insert(ctx, domain.InsertUser{
			RedditUsername: username,
			Lang:           lang,
			RefreshToken:   refreshToken,
		})
		if err != nil {
			return nil, storeErr(err, "user")
		}
		s.caches.Users.Put(created.ID, *created)
		s.hub.Publish(ws.UserRoom(), ws.ActionCreate, ws.DataTypeUser, created)
		return created, nil
	}

	data := domain.UpdateUser{
		Lang:         &lang,
		RefreshToken: &refreshToken,
	}
	updated, err := s.stores.Users.Update(ctx, existing.ID, data)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	s.caches.Users.Put(updated.ID, *updated)
	s.hub.PublishUpdate(ws.UserRoom(), ws.DataTypeUser, updated.ID, domain.UpdateUser{Lang: &lang})

	return updated, nil
}

// UpdateUser applies a partial update. Users may change their own
// language; role flags require a global admin.
func (s *Service) UpdateUser(ctx context.Context, actor *domain.User, id int32, data domain.UpdateUser) (*domain.User, error) {
	changesRoles := data.IsGlobalAdmin != nil || data.IsAdmin != nil || data.IsMod != nil
	if changesRoles && !actor.IsGlobalAdmin {
		return nil, apperr.UnauthorizedError("only a global admin may change roles")
	}
	if !actor.IsGlobalAdmin && actor.ID != id {
		return nil, apperr.UnauthorizedError("not allowed to modify this user")
	}

	updated, err := s.stores.Users.Update(ctx, id, data)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	s.caches.Users.Put(id, *updated)

	// Strip the token change before broadcasting.
	public := data
	public.RefreshToken = nil
	s.hub.PublishUpdate(ws.UserRoom(), ws.DataTypeUser, id, public)

	return updated, nil
}

// DeleteUser removes an account. Self-service or global admin only.
func (s *Service) DeleteUser(ctx context.Context, actor *domain.User, id int32) error {
	if !actor.IsGlobalAdmin && actor.ID != id {
		return apperr.UnauthorizedError("not allowed to delete this user")
	}

	rows, err := s.stores.Users.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "user")
	}
	if rows == 0 {
		return apperr.NotFoundError("user not found")
	}

	s.caches.Users.Invalidate(id)
	s.hub.PublishDelete(ws.UserRoom(), ws.DataTypeUser, id)

	return nil
}
