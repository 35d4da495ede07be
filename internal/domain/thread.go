package domain

// Thread is a live-update document: an ordered list of sections plus an
// ordered list of timestamped events, optionally mirrored to a Reddit
// self post once approved.
type Thread struct {
	ID                 int32    `json:"id"`
	ThreadName         string   `json:"thread_name"`
	DisplayName        string   `json:"display_name"`
	PostID             *string  `json:"post_id"`
	Subreddit          *string  `json:"subreddit"`
	T0                 *int64   `json:"t0"`
	YoutubeID          *string  `json:"youtube_id"`
	APIID              *string  `json:"api_id"`
	CreatedByUserID    int32    `json:"created_by_user_id"`
	SectionsID         []int32  `json:"sections_id"`
	EventsID           []int32  `json:"events_id"`
	EventColumnHeaders []string `json:"event_column_headers"`
	UTCColIndex        *int16   `json:"utc_col_index"`
}

// InsertThread carries the user-suppliable fields of a new thread.
// Server-set fields (post_id, created_by_user_id, the id lists) are
// filled in by the mutation pipeline.
type InsertThread struct {
	ThreadName         string   `json:"thread_name"`
	DisplayName        string   `json:"display_name"`
	Subreddit          *string  `json:"subreddit"`
	T0                 *int64   `json:"t0"`
	YoutubeID          *string  `json:"youtube_id"`
	APIID              *string  `json:"api_id"`
	EventColumnHeaders []string `json:"event_column_headers"`
	UTCColIndex        *int16   `json:"utc_col_index"`
}

// UpdateThread is a partial update; nil fields are left untouched.
// SectionsID and EventsID may only reorder the existing ids, never add
// or remove (the pipeline enforces this).
type UpdateThread struct {
	DisplayName        *string  `json:"display_name,omitempty"`
	T0                 *int64   `json:"t0,omitempty"`
	YoutubeID          *string  `json:"youtube_id,omitempty"`
	APIID              *string  `json:"api_id,omitempty"`
	SectionsID         []int32  `json:"sections_id,omitempty"`
	EventsID           []int32  `json:"events_id,omitempty"`
	EventColumnHeaders []string `json:"event_column_headers,omitempty"`
}
