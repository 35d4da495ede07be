package app

import (
	"context"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

// ListEvents returns every event, bypassing the cache.
func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.stores.Events.FindAll(ctx)
	if err != nil {
		return nil, storeErr(err, "events")
	}
	return events, nil
}

// GetEvent returns one event through the cache.
func (s *Service) GetEvent(ctx context.Context, id int32) (*domain.Event, error) {
	ev, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, storeErr(err, "event")
	}
	return &ev, nil
}

// CreateEvent inserts an event and appends its id to the parent
// thread's order list.
func (s *Service) CreateEvent(ctx context.Context, actor *domain.User, data domain.InsertEvent) (*domain.Event, error) {
	thread, err := s.getThread(ctx, data.InThreadID)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	if !actor.CanModifyThread(&thread) {
		return nil, apperr.UnauthorizedError("not allowed to modify this thread")
	}
	if data.Message == "" || data.TerminalCount == "" {
		return nil, apperr.UnprocessableError("message and terminal_count are required")
	}

	ev, err := s.stores.Events.Insert(ctx, data)
	if err != nil {
		return nil, storeErr(err, "event")
	}
	s.caches.Events.Put(ev.ID, *ev)
	s.hub.Publish(ws.ThreadRoom(thread.ID), ws.ActionCreate, ws.DataTypeEvent, ev)

	s.updateThreadList(ctx, thread.ID, domain.UpdateThread{
		EventsID: copyAppend(thread.EventsID, ev.ID),
	})

	return ev, nil
}

// UpdateEvent applies a partial update, typically flipping posted or
// editing the message during a live thread.
func (s *Service) UpdateEvent(ctx context.Context, actor *domain.User, id int32, data domain.UpdateEvent) (*domain.Event, error) {
	ev, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, storeErr(err, "event")
	}
	if err := s.authorizeThreadMutation(ctx, actor, ev.InThreadID); err != nil {
		return nil, err
	}

	updated, err := s.stores.Events.Update(ctx, id, data)
	if err != nil {
		return nil, storeErr(err, "event")
	}
	s.caches.Events.Put(id, *updated)
	s.hub.PublishUpdate(ws.ThreadRoom(ev.InThreadID), ws.DataTypeEvent, id, data)

	if t, err := s.getThread(ctx, ev.InThreadID); err == nil {
		s.syncMirror(ctx, &t)
	}

	return updated, nil
}

// DeleteEvent removes an event, drops it from the parent thread's order
// list, and publishes a tombstone.
func (s *Service) DeleteEvent(ctx context.Context, actor *domain.User, id int32) error {
	ev, err := s.getEvent(ctx, id)
	if err != nil {
		return storeErr(err, "event")
	}
	if err := s.authorizeThreadMutation(ctx, actor, ev.InThreadID); err != nil {
		return err
	}

	rows, err := s.stores.Events.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "event")
	}
	if rows == 0 {
		return apperr.NotFoundError("event not found")
	}

	s.caches.Events.Invalidate(id)
	s.hub.PublishDelete(ws.ThreadRoom(ev.InThreadID), ws.DataTypeEvent, id)

	if thread, err := s.getThread(ctx, ev.InThreadID); err == nil {
		s.updateThreadList(ctx, thread.ID, domain.UpdateThread{
			EventsID: copyRemove(thread.EventsID, id),
		})
	}

	return nil
}
