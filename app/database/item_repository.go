package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrDuplicateItem is returned when an insert loses the uniqueness race on
// (user_id, normalized_hash). Callers re-resolve it as an exact duplicate.
var ErrDuplicateItem = errors.New("item with this normalized hash already exists for user")

const uniqueViolationCode = "23505"

var _ ItemRepository = (*ItemRepositoryPg)(nil)

// ItemRepositoryPg handles database operations for items.
type ItemRepositoryPg struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepositoryPg {
	return &ItemRepositoryPg{db: db}
}

func (r *ItemRepositoryPg) InsertItem(ctx context.Context, item Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal item metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO items (
			id, user_id, source_id, title, content, raw_content, url,
			published_at, normalized_hash, fingerprint, extraction_method,
			is_read, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, item.ID, item.UserID, item.SourceID, item.Title, item.Content,
		item.RawContent, item.URL, item.PublishedAt, item.NormalizedHash,
		item.Fingerprint, item.ExtractionMethod, item.IsRead, metadata)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return ErrDuplicateItem
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// FindIDByHash returns the ID of the user's item with the given normalized
// hash, or empty string if none exists.
func (r *ItemRepositoryPg) FindIDByHash(ctx context.Context, userID, normalizedHash string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM items WHERE user_id = $1 AND normalized_hash = $2 LIMIT 1
	`, userID, normalizedHash).Scan(&id)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find item by hash: %w", err)
	}
	return id, nil
}

// GetRecentFingerprints returns fingerprints of the user's most recent items
// within the recency window, newest first.
func (r *ItemRepositoryPg) GetRecentFingerprints(ctx context.Context, userID string, limit int, since time.Time) ([]ItemFingerprint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, fingerprint
		FROM items
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent fingerprints: %w", err)
	}
	defer rows.Close()

	var fingerprints []ItemFingerprint
	for rows.Next() {
		var fp ItemFingerprint
		if err := rows.Scan(&fp.ID, &fp.Fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint row: %w", err)
		}
		fingerprints = append(fingerprints, fp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fingerprint rows: %w", err)
	}

	return fingerprints, nil
}

func (r *ItemRepositoryPg) GetItems(userID string, limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, source_id, title, content, raw_content, url,
		       published_at, normalized_hash, fingerprint, extraction_method,
		       is_read, metadata, created_at
		FROM items
		WHERE user_id = $1
		ORDER BY published_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func (r *ItemRepositoryPg) GetItemCount(userID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM items WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *ItemRepositoryPg) GetItemStats() (int, int, error) {
	var total, unread int
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_read = false THEN 1 ELSE 0 END), 0)
		FROM items
	`).Scan(&total, &unread)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}
	return total, unread, nil
}

func (r *ItemRepositoryPg) MarkRead(itemID string, isRead bool) error {
	result, err := r.db.Exec("UPDATE items SET is_read = $2 WHERE id = $1", itemID, isRead)
	if err != nil {
		return fmt.Errorf("failed to update read status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s not found", itemID)
	}

	return nil
}

func scanItem(rows *sql.Rows) (Item, error) {
	var item Item
	var metadata []byte

	err := rows.Scan(
		&item.ID, &item.UserID, &item.SourceID, &item.Title, &item.Content,
		&item.RawContent, &item.URL, &item.PublishedAt, &item.NormalizedHash,
		&item.Fingerprint, &item.ExtractionMethod, &item.IsRead, &metadata,
		&item.CreatedAt,
	)
	if err != nil {
		return Item{}, fmt.Errorf("failed to scan item row: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
			return Item{}, fmt.Errorf("failed to unmarshal item metadata: %w", err)
		}
	}

	return item, nil
}
