package app

import (
	"context"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
)

// Preset events are moderator tooling, not viewer-visible state, so
// their mutations are never broadcast.

// ListPresetEvents returns every preset event, bypassing the cache.
func (s *Service) ListPresetEvents(ctx context.Context) ([]domain.PresetEvent, error) {
	presets, err := s.stores.PresetEvents.FindAll(ctx)
	if err != nil {
		return nil, storeErr(err, "preset events")
	}
	return presets, nil
}

// GetPresetEvent returns one preset event through the cache.
func (s *Service) GetPresetEvent(ctx context.Context, id int32) (*domain.PresetEvent, error) {
	p, err := s.getPresetEvent(ctx, id)
	if err != nil {
		return nil, storeErr(err, "preset event")
	}
	return &p, nil
}

// CreatePresetEvent inserts a reusable event template.
func (s *Service) CreatePresetEvent(ctx context.Context, actor *domain.User, data domain.InsertPresetEvent) (*domain.PresetEvent, error) {
	if err := authorizePresetMutation(actor); err != nil {
		return nil, err
	}
	if data.Name == "" {
		return nil, apperr.ValidationError("name is required")
	}

	p, err := s.stores.PresetEvents.Insert(ctx, data)
	if err != nil {
		return nil, storeErr(err, "preset event")
	}
	s.caches.PresetEvents.Put(p.ID, *p)
	return p, nil
}

// UpdatePresetEvent applies a partial update to a template.
func (s *Service) UpdatePresetEvent(ctx context.Context, actor *domain.User, id int32, data domain.UpdatePresetEvent) (*domain.PresetEvent, error) {
	if err := authorizePresetMutation(actor); err != nil {
		return nil, err
	}

	updated, err := s.stores.PresetEvents.Update(ctx, id, data)
	if err != nil {
		return nil, storeErr(err, "preset event")
	}
	s.caches.PresetEvents.Put(id, *updated)
	return updated, nil
}

// DeletePresetEvent removes a template.
func (s *Service) DeletePresetEvent(ctx context.Context, actor *domain.User, id int32) error {
	if err := authorizePresetMutation(actor); err != nil {
		return err
	}

	rows, err := s.stores.PresetEvents.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "preset event")
	}
	if rows == 0 {
		return apperr.NotFoundError("preset event not found")
	}
	s.caches.PresetEvents.Invalidate(id)
	return nil
}

func authorizePresetMutation(actor *domain.User) error {
	if actor.IsGlobalAdmin || actor.IsAdmin || actor.IsMod {
		return nil
	}
	return apperr.UnauthorizedError("not allowed to manage preset events")
}
