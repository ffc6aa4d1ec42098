package domain

import "time"

// Account is one roster entry. Identity is the handle; Company is the
// display name used in notifications.
type Account struct {
	Handle  string
	Company string
}

// Post is a social-media post fetched from a provider, source-agnostic.
type Post struct {
	ID        string
	Text      string
	Author    string
	Company   string
	URL       string
	CreatedAt time.Time
	Reply     bool
}
