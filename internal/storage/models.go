package storage

import "time"

// Snippet is a durable, immutable-once-created code record. There is no
// update or delete path; IDs are generated at creation and never reused.
type Snippet struct {
	ID        string    `json:"snippetID" db:"snippet_id"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
