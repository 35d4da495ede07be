package domain

// Event is a single timestamped row of a thread's event table.
// Unposted events are drafts and are excluded from the rendered table.
type Event struct {
	ID            int32  `json:"id"`
	Posted        bool   `json:"posted"`
	Message       string `json:"message"`
	TerminalCount string `json:"terminal_count"`
	UTC           int64  `json:"utc"`
	InThreadID    int32  `json:"in_thread_id"`
}

type InsertEvent struct {
	Posted        bool   `json:"posted"`
	Message       string `json:"message"`
	TerminalCount string `json:"terminal_count"`
	UTC           int64  `json:"utc"`
	InThreadID    int32  `json:"in_thread_id"`
}

type UpdateEvent struct {
	Posted        *bool   `json:"posted,omitempty"`
	Message       *string `json:"message,omitempty"`
	TerminalCount *string `json:"terminal_count,omitempty"`
	UTC           *int64  `json:"utc,omitempty"`
}

// PresetEvent is a reusable event template moderators can insert with
// one click during a live thread.
type PresetEvent struct {
	ID         int32  `json:"id"`
	HoldsClock bool   `json:"holds_clock"`
	Message    string `json:"message"`
	Name       string `json:"name"`
}

type InsertPresetEvent struct {
	HoldsClock bool   `json:"holds_clock"`
	Message    string `json:"message"`
	Name       string `json:"name"`
}

type UpdatePresetEvent struct {
	HoldsClock *bool   `json:"holds_clock,omitempty"`
	Message    *string `json:"message,omitempty"`
	Name       *string `json:"name,omitempty"`
}
