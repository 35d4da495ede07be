package domain

// Section is one block of a thread. An events section renders the
// thread's event table; any other section renders its own content.
type Section struct {
	ID                int32  `json:"id"`
	IsEventsSection   bool   `json:"is_events_section"`
	Name              string `json:"name"`
	Content           string `json:"content"`
	LockHeldByUserID  *int32 `json:"lock_held_by_user_id"`
	LockAssignedAtUTC int64  `json:"lock_assigned_at_utc"`
	InThreadID        int32  `json:"in_thread_id"`
}

type InsertSection struct {
	IsEventsSection bool   `json:"is_events_section"`
	Name            string `json:"name"`
	Content         string `json:"content"`
	InThreadID      int32  `json:"in_thread_id"`
}

// UpdateSection is a partial update of the editable fields.
// Lock changes go through SectionLock instead.
type UpdateSection struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}

// SectionLock is the persisted outcome of a lock transition.
type SectionLock struct {
	LockHeldByUserID  *int32 `json:"lock_held_by_user_id"`
	LockAssignedAtUTC int64  `json:"lock_assigned_at_utc"`
}
