package store

import "time"

// Profile is the denormalized profiles row kept in lock-step with the
// identity provider on every sign-in and auth-state change.
type Profile struct {
	ID        string
	Email     string
	FullName  string
	UpdatedAt time.Time
}

// projectRow mirrors the projects table: flat, snake_cased, sections held
// as an opaque JSONB blob.
type projectRow struct {
	ID        string
	UserID    string
	Title     string
	Type      string
	MainTopic string
	Sections  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// sectionRecord is the persisted shape of one section inside the JSONB
// blob. Keys are snake_case; timestamps inside history entries are
// ISO-8601 strings.
type sectionRecord struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	IsGenerated bool            `json:"is_generated"`
	History     []historyRecord `json:"history"`
}

type historyRecord struct {
	Timestamp       string `json:"timestamp"`
	Prompt          string `json:"prompt"`
	PreviousContent string `json:"previous_content"`
}
