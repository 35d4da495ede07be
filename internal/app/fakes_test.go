package app

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/kevinmiles/Enceladus-API/internal/domain"
	"github.com/kevinmiles/Enceladus-API/internal/lock"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

// memDB is a shared in-memory backing store for the fake repositories.
type memDB struct {
	mu       sync.Mutex
	threads  map[int32]domain.Thread
	sections map[int32]domain.Section
	events   map[int32]domain.Event
	users    map[int32]domain.User
	presets  map[int32]domain.PresetEvent
	nextID   int32
}

func newMemDB() *memDB {
	return &memDB{
		threads:  make(map[int32]domain.Thread),
		sections: make(map[int32]domain.Section),
		events:   make(map[int32]domain.Event),
		users:    make(map[int32]domain.User),
		presets:  make(map[int32]domain.PresetEvent),
	}
}

func (db *memDB) id() int32 {
	db.nextID++
	return db.nextID
}

type fakeThreads struct{ db *memDB }

func (f *fakeThreads) FindAll(context.Context) ([]domain.Thread, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]domain.Thread, 0, len(f.db.threads))
	for _, t := range f.db.threads {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeThreads) Find(_ context.Context, id int32) (*domain.Thread, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (f *fakeThreads) Insert(_ context.Context, data domain.InsertThread, createdByUserID int32) (*domain.Thread, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t := domain.Thread{
		ID:                 f.db.id(),
		ThreadName:         data.ThreadName,
		DisplayName:        data.DisplayName,
		Subreddit:          data.Subreddit,
		T0:                 data.T0,
		YoutubeID:          data.YoutubeID,
		APIID:              data.APIID,
		CreatedByUserID:    createdByUserID,
		SectionsID:         []int32{},
		EventsID:           []int32{},
		EventColumnHeaders: data.EventColumnHeaders,
		UTCColIndex:        data.UTCColIndex,
	}
	f.db.threads[t.ID] = t
	return &t, nil
}

func (f *fakeThreads) Update(_ context.Context, id int32, data domain.UpdateThread) (*domain.Thread, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.DisplayName != nil {
		t.DisplayName = *data.DisplayName
	}
	if data.T0 != nil {
		t.T0 = data.T0
	}
	if data.YoutubeID != nil {
		t.YoutubeID = data.YoutubeID
	}
	if data.APIID != nil {
		t.APIID = data.APIID
	}
	if data.SectionsID != nil {
		t.SectionsID = data.SectionsID
	}
	if data.EventsID != nil {
		t.EventsID = data.EventsID
	}
	if data.EventColumnHeaders != nil {
		t.EventColumnHeaders = data.EventColumnHeaders
	}
	f.db.threads[id] = t
	return &t, nil
}

func (f *fakeThreads) SetPostID(_ context.Context, id int32, postID string) (*domain.Thread, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.PostID = &postID
	f.db.threads[id] = t
	return &t, nil
}

func (f *fakeThreads) Delete(_ context.Context, id int32) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.threads[id]; !ok {
		return 0, nil
	}
	delete(f.db.threads, id)
	for secID, sec := range f.db.sections {
		if sec.InThreadID == id {
			delete(f.db.sections, secID)
		}
	}
	for evID, ev := range f.db.events {
		if ev.InThreadID == id {
			delete(f.db.events, evID)
		}
	}
	return 1, nil
}

type fakeSections struct{ db *memDB }

func (f *fakeSections) FindAll(context.Context) ([]domain.Section, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]domain.Section, 0, len(f.db.sections))
	for _, sec := range f.db.sections {
		out = append(out, sec)
	}
	return out, nil
}

func (f *fakeSections) Find(_ context.Context, id int32) (*domain.Section, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	sec, ok := f.db.sections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sec, nil
}

func (f *fakeSections) Insert(_ context.Context, data domain.InsertSection) (*domain.Section, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	sec := domain.Section{
		ID:              f.db.id(),
		IsEventsSection: data.IsEventsSection,
		Name:            data.Name,
		Content:         data.Content,
		InThreadID:      data.InThreadID,
	}
	f.db.sections[sec.ID] = sec
	return &sec, nil
}

func (f *fakeSections) Update(_ context.Context, id int32, data domain.UpdateSection) (*domain.Section, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	sec, ok := f.db.sections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.Name != nil {
		sec.Name = *data.Name
	}
	if data.Content != nil {
		sec.Content = *data.Content
	}
	f.db.sections[id] = sec
	return &sec, nil
}

func (f *fakeSections) SetLock(_ context.Context, id int32, lockState domain.SectionLock) (*domain.Section, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	sec, ok := f.db.sections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sec.LockHeldByUserID = lockState.LockHeldByUserID
	sec.LockAssignedAtUTC = lockState.LockAssignedAtUTC
	f.db.sections[id] = sec
	return &sec, nil
}

func (f *fakeSections) Delete(_ context.Context, id int32) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.sections[id]; !ok {
		return 0, nil
	}
	delete(f.db.sections, id)
	return 1, nil
}

type fakeEvents struct{ db *memDB }

func (f *fakeEvents) FindAll(context.Context) ([]domain.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]domain.Event, 0, len(f.db.events))
	for _, ev := range f.db.events {
		out = append(out, ev)
	}
	return out, nil
}

func (f *fakeEvents) Find(_ context.Context, id int32) (*domain.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ev, ok := f.db.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ev, nil
}

func (f *fakeEvents) Insert(_ context.Context, data domain.InsertEvent) (*domain.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ev := domain.Event{
		ID:            f.db.id(),
		Posted:        data.Posted,
		Message:       data.Message,
		TerminalCount: data.TerminalCount,
		UTC:           data.UTC,
		InThreadID:    data.InThreadID,
	}
	f.db.events[ev.ID] = ev
	return &ev, nil
}

func (f *fakeEvents) Update(_ context.Context, id int32, data domain.UpdateEvent) (*domain.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ev, ok := f.db.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.Posted != nil {
		ev.Posted = *data.Posted
	}
	if data.Message != nil {
		ev.Message = *data.Message
	}
	if data.TerminalCount != nil {
		ev.TerminalCount = *data.TerminalCount
	}
	if data.UTC != nil {
		ev.UTC = *data.UTC
	}
	f.db.events[id] = ev
	return &ev, nil
}

func (f *fakeEvents) Delete(_ context.Context, id int32) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.events[id]; !ok {
		return 0, nil
	}
	delete(f.db.events, id)
	return 1, nil
}

type fakeUsers struct{ db *memDB }

func (f *fakeUsers) FindAll(context.Context) ([]domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]domain.User, 0, len(f.db.users))
	for _, u := range f.db.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Find(_ context.Context, id int32) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.RedditUsername == username {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) Insert(_ context.Context, data domain.InsertUser) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u := domain.User{
		ID:             f.db.id(),
		RedditUsername: data.RedditUsername,
		Lang:           data.Lang,
		RefreshToken:   data.RefreshToken,
		IsGlobalAdmin:  data.IsGlobalAdmin,
		IsAdmin:        data.IsAdmin,
		IsMod:          data.IsMod,
	}
	f.db.users[u.ID] = u
	return &u, nil
}

func (f *fakeUsers) Update(_ context.Context, id int32, data domain.UpdateUser) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
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
	f.db.users[id] = u
	return &u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id int32) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.users[id]; !ok {
		return 0, nil
	}
	delete(f.db.users, id)
	return 1, nil
}

type fakePresets struct{ db *memDB }

func (f *fakePresets) FindAll(context.Context) ([]domain.PresetEvent, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]domain.PresetEvent, 0, len(f.db.presets))
	for _, p := range f.db.presets {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePresets) Find(_ context.Context, id int32) (*domain.PresetEvent, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.presets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakePresets) Insert(_ context.Context, data domain.InsertPresetEvent) (*domain.PresetEvent, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p := domain.PresetEvent{
		ID:         f.db.id(),
		HoldsClock: data.HoldsClock,
		Message:    data.Message,
		Name:       data.Name,
	}
	f.db.presets[p.ID] = p
	return &p, nil
}

func (f *fakePresets) Update(_ context.Context, id int32, data domain.UpdatePresetEvent) (*domain.PresetEvent, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.presets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if data.HoldsClock != nil {
		p.HoldsClock = *data.HoldsClock
	}
	if data.Message != nil {
		p.Message = *data.Message
	}
	if data.Name != nil {
		p.Name = *data.Name
	}
	f.db.presets[id] = p
	return &p, nil
}

func (f *fakePresets) Delete(_ context.Context, id int32) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.presets[id]; !ok {
		return 0, nil
	}
	delete(f.db.presets, id)
	return 1, nil
}

// fakeMirror records forum calls and can be told to fail.
type fakeMirror struct {
	mu       sync.Mutex
	submits  []string
	edits    []string
	approves []string
	stickies []bool
	err      error
}

func (m *fakeMirror) Submit(_ context.Context, _, subreddit, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.submits = append(m.submits, subreddit)
	return "t3_test", nil
}

func (m *fakeMirror) Edit(_ context.Context, _, postID, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.edits = append(m.edits, body)
	_ = postID
	return nil
}

func (m *fakeMirror) Approve(_ context.Context, _, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.approves = append(m.approves, postID)
	return nil
}

func (m *fakeMirror) SetSticky(_ context.Context, _, _ string, sticky bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.stickies = append(m.stickies, sticky)
	return nil
}

type fixture struct {
	service *Service
	db      *memDB
	clock   *clockwork.FakeClock
	mirror  *fakeMirror
}

func newFixture(t testingT, mirror *fakeMirror) *fixture {
	db := newMemDB()
	caches, err := NewCaches()
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	hub := ws.NewHub(clockwork.NewRealClock())
	t.Cleanup(func() { hub.Stop() })

	stores := Stores{
		Threads:      &fakeThreads{db: db},
		Sections:     &fakeSections{db: db},
		Events:       &fakeEvents{db: db},
		Users:        &fakeUsers{db: db},
		PresetEvents: &fakePresets{db: db},
	}

	var m ForumMirror
	if mirror != nil {
		m = mirror
	}
	service := NewService(stores, caches, hub, lock.NewManager(clock), m)

	return &fixture{service: service, db: db, clock: clock, mirror: mirror}
}

type testingT interface {
	require.TestingT
	Cleanup(func())
	Helper()
}

func (f *fixture) seedUser(t testingT, u domain.User) *domain.User {
	t.Helper()
	created, err := f.service.stores.Users.Insert(context.Background(), domain.InsertUser{
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
