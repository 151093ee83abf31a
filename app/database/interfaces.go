package database

import (
	"context"
	"time"
)

type SourceRepository interface {
	GetSource(userID, name string) (*Source, error)
	GetSourceCount() (int, error)

	UpsertSource(userID, name, sourceType, url string) (string, error)
	UpdatePollStatus(sourceID string, polledAt, nextPoll time.Time) error
}

type ItemRepository interface {
	InsertItem(ctx context.Context, item Item) error
	FindIDByHash(ctx context.Context, userID, normalizedHash string) (string, error)
	GetRecentFingerprints(ctx context.Context, userID string, limit int, since time.Time) ([]ItemFingerprint, error)

	GetItems(userID string, limit int) ([]Item, error)
	GetItemCount(userID string) (int, error)
	GetItemStats() (total int, unread int, err error)
	MarkRead(itemID string, isRead bool) error
}
