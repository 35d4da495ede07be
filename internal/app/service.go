// Package app implements the mutation pipeline. Every write follows the
// same order: persist to the store, refresh the entity cache, then
// broadcast to the owning room. Broadcast failures never abort a
// mutation that already persisted.
package app

import (
	"context"
	"errors"

	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/cache"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
	"github.com/kevinmiles/Enceladus-API/internal/lock"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

// ForumMirror posts rendered threads to an external forum. Implemented
// by the reddit client; nil-able so the server runs without credentials.
type ForumMirror interface {
	Submit(ctx context.Context, refreshToken, subreddit, title, body string) (string, error)
	Edit(ctx context.Context, refreshToken, postID, body string) error
	Approve(ctx context.Context, refreshToken, postID string) error
	SetSticky(ctx context.Context, refreshToken, postID string, sticky bool) error
}

// Stores bundles the persistence interfaces the service depends on.
type Stores struct {
	Threads      domain.ThreadStore
	Sections     domain.SectionStore
	Events       domain.EventStore
	Users        domain.UserStore
	PresetEvents domain.PresetEventStore
}

// Caches bundles the per-entity-type snapshot caches.
type Caches struct {
	Threads      *cache.Cache[domain.Thread]
	Sections     *cache.Cache[domain.Section]
	Events       *cache.Cache[domain.Event]
	Users        *cache.Cache[domain.User]
	PresetEvents *cache.Cache[domain.PresetEvent]
}

// NewCaches creates the five entity caches at their default capacities.
func NewCaches() (*Caches, error) {
	threads, err := cache.New[domain.Thread]("thread", cache.ThreadCapacity)
	if err != nil {
		return nil, err
	}
	sections, err := cache.New[domain.Section]("section", cache.SectionCapacity)
	if err != nil {
		return nil, err
	}
	events, err := cache.New[domain.Event]("event", cache.EventCapacity)
	if err != nil {
		return nil, err
	}
	users, err := cache.New[domain.User]("user", cache.UserCapacity)
	if err != nil {
		return nil, err
	}
	presetEvents, err := cache.New[domain.PresetEvent]("preset_event", cache.PresetEventCapacity)
	if err != nil {
		return nil, err
	}
	return &Caches{
		Threads:      threads,
		Sections:     sections,
		Events:       events,
		Users:        users,
		PresetEvents: presetEvents,
	}, nil
}

// Service is the single entry point for all entity reads and mutations.
type Service struct {
	stores Stores
	caches *Caches
	hub    *ws.Hub
	locks  *lock.Manager
	mirror ForumMirror
}

// NewService wires the mutation pipeline. mirror may be nil, in which
// case threads are never posted externally.
func NewService(stores Stores, caches *Caches, hub *ws.Hub, locks *lock.Manager, mirror ForumMirror) *Service {
	return &Service{
		stores: stores,
		caches: caches,
		hub:    hub,
		locks:  locks,
		mirror: mirror,
	}
}

// --- cached single-entity reads ---

func (s *Service) getThread(ctx context.Context, id int32) (domain.Thread, error) {
	return s.caches.Threads.GetOrLoad(ctx, id, func(ctx context.Context, id int32) (domain.Thread, error) {
		t, err := s.stores.Threads.Find(ctx, id)
		if err != nil {
			return domain.Thread{}, err
		}
		return *t, nil
	})
}

func (s *Service) getSection(ctx context.Context, id int32) (domain.Section, error) {
	return s.caches.Sections.GetOrLoad(ctx, id, func(ctx context.Context, id int32) (domain.Section, error) {
		sec, err := s.stores.Sections.Find(ctx, id)
		if err != nil {
			return domain.Section{}, err
		}
		return *sec, nil
	})
}

func (s *Service) getEvent(ctx context.Context, id int32) (domain.Event, error) {
	return s.caches.Events.GetOrLoad(ctx, id, func(ctx context.Context, id int32) (domain.Event, error) {
		ev, err := s.stores.Events.Find(ctx, id)
		if err != nil {
			return domain.Event{}, err
		}
		return *ev, nil
	})
}

func (s *Service) getUser(ctx context.Context, id int32) (domain.User, error) {
	return s.caches.Users.GetOrLoad(ctx, id, func(ctx context.Context, id int32) (domain.User, error) {
		u, err := s.stores.Users.Find(ctx, id)
		if err != nil {
			return domain.User{}, err
		}
		return *u, nil
	})
}

func (s *Service) getPresetEvent(ctx context.Context, id int32) (domain.PresetEvent, error) {
	return s.caches.PresetEvents.GetOrLoad(ctx, id, func(ctx context.Context, id int32) (domain.PresetEvent, error) {
		p, err := s.stores.PresetEvents.Find(ctx, id)
		if err != nil {
			return domain.PresetEvent{}, err
		}
		return *p, nil
	})
}

// storeErr maps store failures onto structured errors. ErrNotFound
// becomes a 404; anything else is an internal error.
func storeErr(err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFoundError(what + " not found")
	}
	return apperr.InternalError("database operation failed", err)
}

// sameIDSet reports whether a and b contain the same set of ids,
// ignoring order. Used to restrict id-list updates to reordering.
func sameIDSet(a, b []int32) bool {
	set := make(map[int32]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	other := make(map[int32]struct{}, len(b))
	for _, id := range b {
		other[id] = struct{}{}
	}
	for _, id := range a {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// copyAppend returns a fresh slice so the cached parent's list is never
// mutated through a shared backing array.
func copyAppend(list []int32, id int32) []int32 {
	out := make([]int32, 0, len(list)+1)
	out = append(out, list...)
	return append(out, id)
}

// copyRemove returns list without id, always as a fresh slice.
func copyRemove(list []int32, id int32) []int32 {
	out := make([]int32, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
