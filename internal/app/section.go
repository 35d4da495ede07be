package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
	"github.com/kevinmiles/Enceladus-API/internal/lock"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

// ListSections returns every section, bypassing the cache.
func (s *Service) ListSections(ctx context.Context) ([]domain.Section, error) {
	sections, err := s.stores.Sections.FindAll(ctx)
	if err != nil {
		return nil, storeErr(err, "sections")
	}
	return sections, nil
}

// GetSection returns one section through the cache.
func (s *Service) GetSection(ctx context.Context, id int32) (*domain.Section, error) {
	sec, err := s.getSection(ctx, id)
	if err != nil {
		return nil, storeErr(err, "section")
	}
	return &sec, nil
}

// CreateSection inserts a section and appends its id to the parent
// thread's order list. Both changes flow through the pipeline, so the
// room sees the new section followed by the thread's updated list.
func (s *Service) CreateSection(ctx context.Context, actor *domain.User, data domain.InsertSection) (*domain.Section, error) {
	thread, err := s.getThread(ctx, data.InThreadID)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	if !actor.CanModifyThread(&thread) {
		return nil, apperr.UnauthorizedError("not allowed to modify this thread")
	}

	sec, err := s.stores.Sections.Insert(ctx, data)
	if err != nil {
		return nil, storeErr(err, "section")
	}
	s.caches.Sections.Put(sec.ID, *sec)
	s.hub.Publish(ws.ThreadRoom(thread.ID), ws.ActionCreate, ws.DataTypeSection, sec)

	s.updateThreadList(ctx, thread.ID, domain.UpdateThread{
		SectionsID: copyAppend(thread.SectionsID, sec.ID),
	})

	return sec, nil
}

// UpdateSection applies a partial update to a section's editable fields.
func (s *Service) UpdateSection(ctx context.Context, actor *domain.User, id int32, data domain.UpdateSection) (*domain.Section, error) {
	sec, err := s.getSection(ctx, id)
	if err != nil {
		return nil, storeErr(err, "section")
	}
	if err := s.authorizeThreadMutation(ctx, actor, sec.InThreadID); err != nil {
		return nil, err
	}

	updated, err := s.stores.Sections.Update(ctx, id, data)
	if err != nil {
		return nil, storeErr(err, "section")
	}
	s.caches.Sections.Put(id, *updated)
	s.hub.PublishUpdate(ws.ThreadRoom(sec.InThreadID), ws.DataTypeSection, id, data)

	if t, err := s.getThread(ctx, sec.InThreadID); err == nil {
		s.syncMirror(ctx, &t)
	}

	return updated, nil
}

// DeleteSection removes a section, drops it from the parent thread's
// order list, and publishes a tombstone.
func (s *Service) DeleteSection(ctx context.Context, actor *domain.User, id int32) error {
	sec, err := s.getSection(ctx, id)
	if err != nil {
		return storeErr(err, "section")
	}
	if err := s.authorizeThreadMutation(ctx, actor, sec.InThreadID); err != nil {
		return err
	}

	rows, err := s.stores.Sections.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "section")
	}
	if rows == 0 {
		return apperr.NotFoundError("section not found")
	}

	s.caches.Sections.Invalidate(id)
	s.hub.PublishDelete(ws.ThreadRoom(sec.InThreadID), ws.DataTypeSection, id)

	if thread, err := s.getThread(ctx, sec.InThreadID); err == nil {
		s.updateThreadList(ctx, thread.ID, domain.UpdateThread{
			SectionsID: copyRemove(thread.SectionsID, id),
		})
	}

	return nil
}

// SetSectionLock runs one lock transition for the actor. Unknown section
// is a 404, missing thread authority a 401, and an illegal transition a
// 403. The broadcast carries both lock fields explicitly so a release
// reaches viewers as a null holder.
func (s *Service) SetSectionLock(ctx context.Context, actor *domain.User, id int32, target *int32) (*domain.Section, error) {
	sec, err := s.getSection(ctx, id)
	if err != nil {
		return nil, storeErr(err, "section")
	}
	if err := s.authorizeThreadMutation(ctx, actor, sec.InThreadID); err != nil {
		return nil, err
	}

	newLock, err := s.locks.Transition(domain.SectionLock{
		LockHeldByUserID:  sec.LockHeldByUserID,
		LockAssignedAtUTC: sec.LockAssignedAtUTC,
	}, actor.ID, target)
	if err != nil {
		if errors.Is(err, lock.ErrForbidden) {
			return nil, apperr.ForbiddenError("lock is held by another user")
		}
		return nil, apperr.InternalError("lock transition failed", err)
	}

	updated, err := s.stores.Sections.SetLock(ctx, id, newLock)
	if err != nil {
		return nil, storeErr(err, "section")
	}
	s.caches.Sections.Put(id, *updated)
	s.hub.PublishUpdate(ws.ThreadRoom(sec.InThreadID), ws.DataTypeSection, id, newLock)

	return updated, nil
}

// authorizeThreadMutation checks the actor may mutate children of the
// given thread. A missing parent row is treated as missing authority.
func (s *Service) authorizeThreadMutation(ctx context.Context, actor *domain.User, threadID int32) error {
	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return apperr.UnauthorizedError("not allowed to modify this thread")
	}
	if !actor.CanModifyThread(&thread) {
		return apperr.UnauthorizedError("not allowed to modify this thread")
	}
	return nil
}

// updateThreadList persists a child-id list change on the parent thread
// through the same persist/cache/broadcast pipeline as a direct thread
// update, then syncs the external post.
func (s *Service) updateThreadList(ctx context.Context, threadID int32, data domain.UpdateThread) {
	updated, err := s.stores.Threads.Update(ctx, threadID, data)
	if err != nil {
		slog.Error("Failed to update thread id list", "thread_id", threadID, "error", err)
		return
	}
	s.caches.Threads.Put(threadID, *updated)
	s.hub.PublishUpdate(ws.ThreadRoom(threadID), ws.DataTypeThread, threadID, data)
	s.syncMirror(ctx, updated)
}
