package httpserver

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/kevinmiles/Enceladus-API/internal/app"
	"github.com/kevinmiles/Enceladus-API/internal/config"
	"github.com/kevinmiles/Enceladus-API/internal/domain"
	"github.com/kevinmiles/Enceladus-API/internal/lock"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

// memStores is a minimal in-memory backing store sufficient for exercising
// the HTTP surface end to end.
type memStores struct {
	mu       sync.Mutex
	threads  map[int32]domain.Thread
	sections map[int32]domain.Section
	events   map[int32]domain.Event
	users    map[int32]domain.User
	presets  map[int32]domain.PresetEvent
	nextID   int32
}

func newMemStores() *memStores {
	return &memStores{
		threads:  make(map[int32]domain.Thread),
		sections: make(map[int32]domain.Section),
		events:   make(map[int32]domain.Event),
		users:    make(map[int32]domain.User),
		presets:  make(map[int32]domain.PresetEvent),
	}
}

func (m *memStores) id() int32 {
	m.nextID++
	return m.nextID
}

type memThreads struct{ m *memStores }

func (s *memThreads) FindAll(context.Context) ([]domain.Thread, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.Thread, 0, len(s.m.threads))
	for _, t := range s.m.threads {
		out = append(out, t)
	}
	return out, nil
}

func (s *memThreads) Find(_ context.Context, id int32) (*domain.Thread, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *memThreads) Insert(_ context.Context, data domain.InsertThread, createdByUserID int32) (*domain.Thread, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t := domain.Thread{
		ID:              s.m.id(),
		ThreadName:      data.ThreadName,
		DisplayName:     data.DisplayName,
		Subreddit:       data.Subreddit,
		CreatedByUserID: createdByUserID,
		SectionsID:      []int32{},
		EventsID:        []int32{},
	}
	s.m.threads[t.ID] = t
	return &t, nil
}

func (s *memThreads) Update(_ context.Context, id int32, data domain.UpdateThread) (*domain.Thread, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.DisplayName != nil {
		t.DisplayName = *data.DisplayName
	}
	if data.SectionsID != nil {
		t.SectionsID = data.SectionsID
	}
	if data.EventsID != nil {
		t.EventsID = data.EventsID
	}
	s.m.threads[id] = t
	return &t, nil
}

func (s *memThreads) SetPostID(_ context.Context, id int32, postID string) (*domain.Thread, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.PostID = &postID
	s.m.threads[id] = t
	return &t, nil
}

func (s *memThreads) Delete(_ context.Context, id int32) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.threads[id]; !ok {
		return 0, nil
	}
	delete(s.m.threads, id)
	return 1, nil
}

type memSections struct{ m *memStores }

func (s *memSections) FindAll(context.Context) ([]domain.Section, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.Section, 0, len(s.m.sections))
	for _, sec := range s.m.sections {
		out = append(out, sec)
	}
	return out, nil
}

func (s *memSections) Find(_ context.Context, id int32) (*domain.Section, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sec, ok := s.m.sections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sec, nil
}

func (s *memSections) Insert(_ context.Context, data domain.InsertSection) (*domain.Section, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sec := domain.Section{
		ID:              s.m.id(),
		IsEventsSection: data.IsEventsSection,
		Name:            data.Name,
		Content:         data.Content,
		InThreadID:      data.InThreadID,
	}
	s.m.sections[sec.ID] = sec
	return &sec, nil
}

func (s *memSections) Update(_ context.Context, id int32, data domain.UpdateSection) (*domain.Section, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sec, ok := s.m.sections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.Name != nil {
		sec.Name = *data.Name
	}
	if data.Content != nil {
		sec.Content = *data.Content
	}
	s.m.sections[id] = sec
	return &sec, nil
}

func (s *memSections) SetLock(_ context.Context, id int32, lockState domain.SectionLock) (*domain.Section, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sec, ok := s.m.sections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sec.LockHeldByUserID = lockState.LockHeldByUserID
	sec.LockAssignedAtUTC = lockState.LockAssignedAtUTC
	s.m.sections[id] = sec
	return &sec, nil
}

func (s *memSections) Delete(_ context.Context, id int32) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.sections[id]; !ok {
		return 0, nil
	}
	delete(s.m.sections, id)
	return 1, nil
}

type memEvents struct{ m *memStores }

func (s *memEvents) FindAll(context.Context) ([]domain.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.Event, 0, len(s.m.events))
	for _, ev := range s.m.events {
		out = append(out, ev)
	}
	return out, nil
}

func (s *memEvents) Find(_ context.Context, id int32) (*domain.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	ev, ok := s.m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ev, nil
}

func (s *memEvents) Insert(_ context.Context, data domain.InsertEvent) (*domain.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	ev := domain.Event{
		ID:         s.m.id(),
		Posted:     data.Posted,
		Message:    data.Message,
		UTC:        data.UTC,
		InThreadID: data.InThreadID,
	}
	s.m.events[ev.ID] = ev
	return &ev, nil
}

func (s *memEvents) Update(_ context.Context, id int32, data domain.UpdateEvent) (*domain.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	ev, ok := s.m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.Message != nil {
		ev.Message = *data.Message
	}
	if data.Posted != nil {
		ev.Posted = *data.Posted
	}
	s.m.events[id] = ev
	return &ev, nil
}

func (s *memEvents) Delete(_ context.Context, id int32) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.events[id]; !ok {
		return 0, nil
	}
	delete(s.m.events, id)
	return 1, nil
}

type memUsers struct{ m *memStores }

func (s *memUsers) FindAll(context.Context) ([]domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.User, 0, len(s.m.users))
	for _, u := range s.m.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *memUsers) Find(_ context.Context, id int32) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.RedditUsername == username {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUsers) Insert(_ context.Context, data domain.InsertUser) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u := domain.User{
		ID:             s.m.id(),
		RedditUsername: data.RedditUsername,
		Lang:           data.Lang,
		RefreshToken:   data.RefreshToken,
		IsGlobalAdmin:  data.IsGlobalAdmin,
		IsAdmin:        data.IsAdmin,
		IsMod:          data.IsMod,
	}
	s.m.users[u.ID] = u
	return &u, nil
}

func (s *memUsers) Update(_ context.Context, id int32, data domain.UpdateUser) (*domain.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.Lang != nil {
		u.Lang = *data.Lang
	}
	if data.RefreshToken != nil {
		u.RefreshToken = *data.RefreshToken
	}
	if data.IsGlobalAdmin != nil {
		u.IsGlobalAdmin = *data.IsGlobalAdmin
	}
	if data.IsAdmin != nil {
		u.IsAdmin = *data.IsAdmin
	}
	if data.IsMod != nil {
		u.IsMod = *data.IsMod
	}
	s.m.users[id] = u
	return &u, nil
}

func (s *memUsers) Delete(_ context.Context, id int32) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.users[id]; !ok {
		return 0, nil
	}
	delete(s.m.users, id)
	return 1, nil
}

type memPresets struct{ m *memStores }

func (s *memPresets) FindAll(context.Context) ([]domain.PresetEvent, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]domain.PresetEvent, 0, len(s.m.presets))
	for _, p := range s.m.presets {
		out = append(out, p)
	}
	return out, nil
}

func (s *memPresets) Find(_ context.Context, id int32) (*domain.PresetEvent, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.presets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *memPresets) Insert(_ context.Context, data domain.InsertPresetEvent) (*domain.PresetEvent, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p := domain.PresetEvent{
		ID:         s.m.id(),
		HoldsClock: data.HoldsClock,
		Message:    data.Message,
		Name:       data.Name,
	}
	s.m.presets[p.ID] = p
	return &p, nil
}

func (s *memPresets) Update(_ context.Context, id int32, data domain.UpdatePresetEvent) (*domain.PresetEvent, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.presets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.Name != nil {
		p.Name = *data.Name
	}
	if data.Message != nil {
		p.Message = *data.Message
	}
	s.m.presets[id] = p
	return &p, nil
}

func (s *memPresets) Delete(_ context.Context, id int32) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.presets[id]; !ok {
		return 0, nil
	}
	delete(s.m.presets, id)
	return 1, nil
}

type fakePinger struct{ err error }

func (p *fakePinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	srv    *Server
	server *httptest.Server
	stores *memStores
	pinger *fakePinger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	stores := newMemStores()
	caches, err := app.NewCaches()
	require.NoError(t, err)

	clock := clockwork.NewRealClock()
	hub := ws.NewHub(clock)
	t.Cleanup(func() { hub.Stop() })

	service := app.NewService(app.Stores{
		Threads:      &memThreads{m: stores},
		Sections:     &memSections{m: stores},
		Events:       &memEvents{m: stores},
		Users:        &memUsers{m: stores},
		PresetEvents: &memPresets{m: stores},
	}, caches, hub, lock.NewManager(clock), nil)

	cfg := &config.Config{
		AppEnv:        "test",
		Port:          "0",
		JWTSecret:     "test-jwt-secret",
		SessionSecret: "test-session-secret",
	}

	pinger := &fakePinger{}
	srv := NewServer(cfg, service, hub, nil, pinger)

	server := httptest.NewServer(srv.Handler())
	t.Cleanup(server.Close)

	return &testEnv{srv: srv, server: server, stores: stores, pinger: pinger}
}

func (e *testEnv) seedUser(t *testing.T, u domain.User) *domain.User {
	t.Helper()
	created, err := (&memUsers{m: e.stores}).Insert(context.Background(), domain.InsertUser{
		RedditUsername: u.RedditUsername,
		Lang:           u.Lang,
		RefreshToken:   u.RefreshToken,
		IsGlobalAdmin:  u.IsGlobalAdmin,
		IsAdmin:        u.IsAdmin,
		IsMod:          u.IsMod,
	})
	require.NoError(t, err)
	return created
}

func (e *testEnv) token(t *testing.T, userID int32) string {
	t.Helper()
	token, err := e.srv.issueToken(userID)
	require.NoError(t, err)
	return token
}
