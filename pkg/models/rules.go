package models

import (
	"time"
)

// StreamRule is a named set of keywords for the filtered stream. A post
// matches the rule if its lower-cased content contains any keyword as a
// substring; rules are additive across the active set.
type StreamRule struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
}
