package domain

import "context"

// ThreadStore is the persistence surface for threads.
// FindAll deliberately skips any caching layer the caller maintains.
type ThreadStore interface {
	FindAll(ctx context.Context) ([]Thread, error)
	Find(ctx context.Context, id int32) (*Thread, error)
	Insert(ctx context.Context, data InsertThread, createdByUserID int32) (*Thread, error)
	Update(ctx context.Context, id int32, data UpdateThread) (*Thread, error)
	SetPostID(ctx context.Context, id int32, postID string) (*Thread, error)
	Delete(ctx context.Context, id int32) (int64, error)
}

type SectionStore interface {
	FindAll(ctx context.Context) ([]Section, error)
	Find(ctx context.Context, id int32) (*Section, error)
	Insert(ctx context.Context, data InsertSection) (*Section, error)
	Update(ctx context.Context, id int32, data UpdateSection) (*Section, error)
	SetLock(ctx context.Context, id int32, lock SectionLock) (*Section, error)
	Delete(ctx context.Context, id int32) (int64, error)
}

type EventStore interface {
	FindAll(ctx context.Context) ([]Event, error)
	Find(ctx context.Context, id int32) (*Event, error)
	Insert(ctx context.Context, data InsertEvent) (*Event, error)
	Update(ctx context.Context, id int32, data UpdateEvent) (*Event, error)
	Delete(ctx context.Context, id int32) (int64, error)
}

type UserStore interface {
	FindAll(ctx context.Context) ([]User, error)
	Find(ctx context.Context, id int32) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Insert(ctx context.Context, data InsertUser) (*User, error)
	Update(ctx context.Context, id int32, data UpdateUser) (*User, error)
	Delete(ctx context.Context, id int32) (int64, error)
}

type PresetEventStore interface {
	FindAll(ctx context.Context) ([]PresetEvent, error)
	Find(ctx context.Context, id int32) (*PresetEvent, error)
	Insert(ctx context.Context, data InsertPresetEvent) (*PresetEvent, error)
	Update(ctx context.Context, id int32, data UpdatePresetEvent) (*PresetEvent, error)
	Delete(ctx context.Context, id int32) (int64, error)
}
