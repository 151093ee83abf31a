package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/content"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/database"
)

type Status string

const (
	StatusNew            Status = "new"
	StatusExactDuplicate Status = "exact"
	StatusNearDuplicate  Status = "near"
)

// Decision is the verdict for an inbound item. ExistingItemID is set for
// duplicate statuses.
type Decision struct {
	Status         Status
	ExistingItemID string
}

// Near-duplicate comparison is bounded: only this many of the user's most
// recent items, no older than the window, are compared.
const (
	DefaultRecentLimit = 200
	DefaultWindow      = 30 * 24 * time.Hour
)

// Service decides whether an inbound fingerprint is new, an exact duplicate,
// or a near-duplicate of a prior item. All lookups are user-scoped.
type Service struct {
	itemRepo    database.ItemRepository
	recentLimit int
	window      time.Duration
}

func NewService(itemRepo database.ItemRepository) *Service {
	return &Service{
		itemRepo:    itemRepo,
		recentLimit: DefaultRecentLimit,
		window:      DefaultWindow,
	}
}

func (s *Service) Decide(ctx context.Context, userID, sourceID string, fp content.Fingerprint) (Decision, error) {
	existingID, err := s.itemRepo.FindIDByHash(ctx, userID, fp.Hash)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check exact duplicate: %w", err)
	}
	if existingID != "" {
		return Decision{Status: StatusExactDuplicate, ExistingItemID: existingID}, nil
	}

	since := time.Now().UTC().Add(-s.window)
	recent, err := s.itemRepo.GetRecentFingerprints(ctx, userID, s.recentLimit, since)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load recent fingerprints: %w", err)
	}

	for _, candidate := range recent {
		if content.IsNearDuplicate(fp.SimHash, candidate.Fingerprint) {
			slog.Debug("Near-duplicate detected",
				"user_id", userID, "source_id", sourceID,
				"existing_item_id", candidate.ID)
			return Decision{Status: StatusNearDuplicate, ExistingItemID: candidate.ID}, nil
		}
	}

	return Decision{Status: StatusNew}, nil
}

// ResolveConflict re-resolves a lost insert race as an exact duplicate. The
// winning row must exist; if the lookup still comes back empty something is
// wrong with the storage layer.
func (s *Service) ResolveConflict(ctx context.Context, userID, hash string) (Decision, error) {
	existingID, err := s.itemRepo.FindIDByHash(ctx, userID, hash)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to re-resolve duplicate: %w", err)
	}
	if existingID == "" {
		return Decision{}, fmt.Errorf("uniqueness conflict for user %s but no existing item found", userID)
	}
	return Decision{Status: StatusExactDuplicate, ExistingItemID: existingID}, nil
}
