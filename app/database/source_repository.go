package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ SourceRepository = (*SourceRepositoryPg)(nil)

// SourceRepositoryPg handles database operations for ingestion sources.
type SourceRepositoryPg struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepositoryPg {
	return &SourceRepositoryPg{db: db}
}

// EnsureUser registers a user ID referenced by source configuration.
func (r *SourceRepositoryPg) EnsureUser(userID string) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// UpsertSource registers a configured source and returns its database ID.
func (r *SourceRepositoryPg) UpsertSource(userID, name, sourceType, url string) (string, error) {
	if err := r.EnsureUser(userID); err != nil {
		return "", err
	}

	var id string
	err := r.db.QueryRow(`
		INSERT INTO sources (id, user_id, name, type, url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, name) DO UPDATE SET
			type = EXCLUDED.type,
			url = EXCLUDED.url,
			updated_at = NOW()
		RETURNING id
	`, uuid.NewString(), userID, name, sourceType, url).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to upsert source: %w", err)
	}

	return id, nil
}

func (r *SourceRepositoryPg) GetSource(userID, name string) (*Source, error) {
	var source Source
	err := r.db.QueryRow(`
		SELECT id, user_id, name, type, COALESCE(url, ''),
		       last_polled_at, next_poll_at, created_at, updated_at
		FROM sources
		WHERE user_id = $1 AND name = $2
	`, userID, name).Scan(
		&source.ID, &source.UserID, &source.Name, &source.Type, &source.URL,
		&source.LastPolledAt, &source.NextPollAt, &source.CreatedAt, &source.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return &source, nil
}

func (r *SourceRepositoryPg) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

// UpdatePollStatus records a completed poll and schedules the next one.
func (r *SourceRepositoryPg) UpdatePollStatus(sourceID string, polledAt, nextPoll time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_polled_at = $2, next_poll_at = $3, updated_at = NOW()
		WHERE id = $1
	`, sourceID, polledAt, nextPoll)
	if err != nil {
		return fmt.Errorf("failed to update poll status: %w", err)
	}
	return nil
}
