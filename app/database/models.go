package database

import (
	"time"
)

type Source struct {
	ID           string // Database UUID
	UserID       string
	Name         string // Configuration source identifier derived from filename
	Type         string // gmail | outlook | rss | forwarding
	URL          string
	LastPolledAt *time.Time
	NextPollAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Item struct {
	ID               string
	UserID           string
	SourceID         string
	Title            string
	Content          string // sanitized, normalized HTML
	RawContent       string // original body, kept only when the source opts in
	URL              string
	PublishedAt      time.Time
	NormalizedHash   string // exact-duplicate key, unique per user
	Fingerprint      string // near-duplicate simhash
	ExtractionMethod string
	IsRead           bool
	Metadata         map[string]interface{}
	CreatedAt        time.Time
}

// ItemFingerprint is the projection used for near-duplicate comparison.
type ItemFingerprint struct {
	ID          string
	Fingerprint string
}
