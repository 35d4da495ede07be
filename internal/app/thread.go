package app

import (
	"context"
	"log/slog"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

// FullThread is a thread with every foreign key resolved, for viewers
// loading a page in one request.
type FullThread struct {
	domain.Thread
	CreatedBy *domain.User   `json:"created_by_user"`
	Sections  []FullSection  `json:"sections"`
	Events    []domain.Event `json:"events"`
}

// FullSection embeds the lock holder so viewers can show who is editing.
type FullSection struct {
	domain.Section
	LockHeldBy *domain.User `json:"lock_held_by_user"`
}

// ListThreads returns every thread, bypassing the cache.
func (s *Service) ListThreads(ctx context.Context) ([]domain.Thread, error) {
	threads, err := s.stores.Threads.FindAll(ctx)
	if err != nil {
		return nil, storeErr(err, "threads")
	}
	return threads, nil
}

// GetThread returns one thread through the cache.
func (s *Service) GetThread(ctx context.Context, id int32) (*domain.Thread, error) {
	t, err := s.getThread(ctx, id)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	return &t, nil
}

// GetFullThread resolves the creator, all sections with their lock
// holders, and all events, in the thread's declared order. Ids pointing
// at deleted rows are skipped.
func (s *Service) GetFullThread(ctx context.Context, id int32) (*FullThread, error) {
	t, err := s.getThread(ctx, id)
	if err != nil {
		return nil, storeErr(err, "thread")
	}

	full := &FullThread{
		Thread:   t,
		Sections: make([]FullSection, 0, len(t.SectionsID)),
		Events:   make([]domain.Event, 0, len(t.EventsID)),
	}

	if creator, err := s.getUser(ctx, t.CreatedByUserID); err == nil {
		full.CreatedBy = &creator
	}

	for _, sectionID := range t.SectionsID {
		sec, err := s.getSection(ctx, sectionID)
		if err != nil {
			continue
		}
		fullSec := FullSection{Section: sec}
		if sec.LockHeldByUserID != nil {
			if holder, err := s.getUser(ctx, *sec.LockHeldByUserID); err == nil {
				fullSec.LockHeldBy = &holder
			}
		}
		full.Sections = append(full.Sections, fullSec)
	}

	for _, eventID := range t.EventsID {
		ev, err := s.getEvent(ctx, eventID)
		if err != nil {
			continue
		}
		full.Events = append(full.Events, ev)
	}

	return full, nil
}

// CreateThread inserts a thread owned by the actor and announces it in
// the thread_create room. When the thread names a subreddit and a
// mirror is configured, a self post is submitted immediately; a failed
// submission is logged and the thread stands without a post.
func (s *Service) CreateThread(ctx context.Context, actor *domain.User, data domain.InsertThread) (*domain.Thread, error) {
	if data.ThreadName == "" || data.DisplayName == "" {
		return nil, apperr.ValidationError("thread_name and display_name are required")
	}

	t, err := s.stores.Threads.Insert(ctx, data, actor.ID)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	s.caches.Threads.Put(t.ID, *t)
	s.hub.Publish(ws.ThreadCreateRoom(), ws.ActionCreate, ws.DataTypeThread, t)

	if s.mirror != nil && t.Subreddit != nil {
		s.submitPost(ctx, actor, t)
	}

	return t, nil
}

func (s *Service) submitPost(ctx context.Context, actor *domain.User, t *domain.Thread) {
	body := s.renderThreadBody(ctx, t)
	postID, err := s.mirror.Submit(ctx, actor.RefreshToken, *t.Subreddit, t.DisplayName, body)
	if err != nil {
		slog.Error("Failed to submit thread to reddit", "thread_id", t.ID, "error", err)
		return
	}

	updated, err := s.stores.Threads.SetPostID(ctx, t.ID, postID)
	if err != nil {
		slog.Error("Failed to persist reddit post id", "thread_id", t.ID, "error", err)
		return
	}
	*t = *updated
	s.caches.Threads.Put(t.ID, *t)
	s.hub.PublishUpdate(ws.ThreadRoom(t.ID), ws.DataTypeThread, t.ID, map[string]string{"post_id": postID})
}

// UpdateThread applies a partial update. The sections_id and events_id
// lists may only be reordered; adding or removing ids fails with a 412.
func (s *Service) UpdateThread(ctx context.Context, actor *domain.User, id int32, data domain.UpdateThread) (*domain.Thread, error) {
	current, err := s.getThread(ctx, id)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	if !actor.CanModifyThread(&current) {
		return nil, apperr.UnauthorizedError("not allowed to modify this thread")
	}

	if data.SectionsID != nil && !sameIDSet(current.SectionsID, data.SectionsID) {
		return nil, apperr.PreconditionError("sections_id may only be reordered")
	}
	if data.EventsID != nil && !sameIDSet(current.EventsID, data.EventsID) {
		return nil, apperr.PreconditionError("events_id may only be reordered")
	}

	updated, err := s.stores.Threads.Update(ctx, id, data)
	if err != nil {
		return nil, storeErr(err, "thread")
	}
	s.caches.Threads.Put(id, *updated)
	s.hub.PublishUpdate(ws.ThreadRoom(id), ws.DataTypeThread, id, data)
	s.syncMirror(ctx, updated)

	return updated, nil
}

// DeleteThread removes a thread and all its children, invalidates their
// cache entries, and publishes a tombstone to the thread's room.
func (s *Service) DeleteThread(ctx context.Context, actor *domain.User, id int32) error {
	current, err := s.getThread(ctx, id)
	if err != nil {
		return storeErr(err, "thread")
	}
	if !actor.CanModifyThread(&current) {
		return apperr.UnauthorizedError("not allowed to modify this thread")
	}

	rows, err := s.stores.Threads.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "thread")
	}
	if rows == 0 {
		return apperr.NotFoundError("thread not found")
	}

	s.caches.Threads.Invalidate(id)
	for _, sectionID := range current.SectionsID {
		s.caches.Sections.Invalidate(sectionID)
	}
	for _, eventID := range current.EventsID {
		s.caches.Events.Invalidate(eventID)
	}
	s.hub.PublishDelete(ws.ThreadRoom(id), ws.DataTypeThread, id)

	return nil
}

// ApproveThread approves the thread's reddit post using the actor's
// credentials. The actor must moderate the subreddit on reddit's side.
func (s *Service) ApproveThread(ctx context.Context, actor *domain.User, id int32) error {
	postID, err := s.mirroredPost(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.mirror.Approve(ctx, actor.RefreshToken, postID); err != nil {
		return apperr.ExternalError("failed to approve reddit post", err)
	}
	return nil
}

// SetThreadSticky pins or unpins the thread's reddit post.
func (s *Service) SetThreadSticky(ctx context.Context, actor *domain.User, id int32, sticky bool) error {
	postID, err := s.mirroredPost(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.mirror.SetSticky(ctx, actor.RefreshToken, postID, sticky); err != nil {
		return apperr.ExternalError("failed to change reddit post sticky state", err)
	}
	return nil
}

func (s *Service) mirroredPost(ctx context.Context, actor *domain.User, id int32) (string, error) {
	current, err := s.getThread(ctx, id)
	if err != nil {
		return "", storeErr(err, "thread")
	}
	if !actor.CanModifyThread(&current) {
		return "", apperr.UnauthorizedError("not allowed to modify this thread")
	}
	if s.mirror == nil {
		return "", apperr.UnprocessableError("reddit integration is not configured")
	}
	if current.PostID == nil {
		return "", apperr.UnprocessableError("thread has no reddit post")
	}
	return *current.PostID, nil
}
