package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/content"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/database"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/dedup"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/email"
)

// PipelineResult reports the outcome of one message run: the dedup verdict
// and, for accepted messages, the created item ID.
type PipelineResult struct {
	Decision   dedup.Decision
	ItemID     string
	Extraction content.ExtractionResult
}

// Pipeline runs decode, extract, fingerprint and the dedup decision for one
// inbound message. It holds no state of its own and is safe for concurrent
// use across workers.
type Pipeline struct {
	decoder      *email.Decoder
	extractor    *content.Extractor
	dedupService *dedup.Service
	itemRepo     database.ItemRepository
}

func NewPipeline(decoder *email.Decoder, extractor *content.Extractor,
	dedupService *dedup.Service, itemRepo database.ItemRepository) *Pipeline {
	return &Pipeline{
		decoder:      decoder,
		extractor:    extractor,
		dedupService: dedupService,
		itemRepo:     itemRepo,
	}
}

// Run processes one raw message for a user/source scope. itemURL is the
// canonical URL of the entry when the channel knows one (RSS); storeRaw keeps
// the original body on the item.
//
// An empty RawMessage or a message with no content at all is a caller
// contract violation and returns an error; everything else degrades.
func (p *Pipeline) Run(ctx context.Context, userID, sourceID string, raw email.RawMessage, itemURL string, storeRaw bool) (*PipelineResult, error) {
	if raw.IsEmpty() {
		return nil, fmt.Errorf("raw message is empty")
	}

	parsed := p.decoder.Run(raw)

	result := p.extractor.Run(parsed.HTMLBody, parsed.TextBody, email.SenderBaseURL(parsed.From))
	title := content.TitleOrSubject(result.Title, parsed.Subject)

	fingerprint, err := content.ComputeFingerprint(content.CanonicalText(result.TextContent))
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint message %q: %w", parsed.MessageID, err)
	}

	decision, err := p.dedupService.Decide(ctx, userID, sourceID, fingerprint)
	if err != nil {
		return nil, err
	}
	if decision.Status != dedup.StatusNew {
		return &PipelineResult{Decision: decision, Extraction: result}, nil
	}

	item := database.Item{
		ID:               uuid.NewString(),
		UserID:           userID,
		SourceID:         sourceID,
		Title:            title,
		Content:          result.Content,
		URL:              itemURL,
		PublishedAt:      parsed.Date,
		NormalizedHash:   fingerprint.Hash,
		Fingerprint:      fingerprint.SimHash,
		ExtractionMethod: string(result.Method),
		Metadata:         buildMetadata(parsed, result),
	}

	if storeRaw {
		if parsed.HTMLBody != "" {
			item.RawContent = parsed.HTMLBody
		} else {
			item.RawContent = parsed.TextBody
		}
	}

	if err := p.itemRepo.InsertItem(ctx, item); err != nil {
		if errors.Is(err, database.ErrDuplicateItem) {
			// Lost the insert race: another worker stored the same content
			// for this user first.
			resolved, rerr := p.dedupService.ResolveConflict(ctx, userID, fingerprint.Hash)
			if rerr != nil {
				return nil, rerr
			}
			slog.Debug("Insert conflict re-resolved as exact duplicate",
				"user_id", userID, "existing_item_id", resolved.ExistingItemID)
			return &PipelineResult{Decision: resolved, Extraction: result}, nil
		}
		return nil, err
	}

	return &PipelineResult{
		Decision:   decision,
		ItemID:     item.ID,
		Extraction: result,
	}, nil
}

func buildMetadata(parsed email.ParsedEmail, result content.ExtractionResult) map[string]interface{} {
	metadata := map[string]interface{}{
		"sender_name":  parsed.From.Name,
		"sender_email": parsed.From.Email,
		"word_count":   result.WordCount,
		"reading_time": result.ReadingTime,
		"excerpt":      result.Excerpt,
		"link_count":   len(result.Links),
		"image_count":  len(result.Images),
	}

	if parsed.MessageID != "" {
		metadata["message_id"] = parsed.MessageID
	}
	if parsed.ListID != "" {
		metadata["list_id"] = parsed.ListID
	}
	if parsed.CampaignID != "" {
		metadata["campaign_id"] = parsed.CampaignID
	}
	if parsed.ListUnsubscribe != "" {
		metadata["list_unsubscribe"] = parsed.ListUnsubscribe
	}
	if len(parsed.Attachments) > 0 {
		metadata["attachment_count"] = len(parsed.Attachments)
	}
	if parsed.Error != "" {
		metadata["decode_error"] = parsed.Error
	}
	if result.Error != "" {
		metadata["extraction_error"] = result.Error
	}

	return metadata
}
