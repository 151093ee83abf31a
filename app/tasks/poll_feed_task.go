package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/dedup"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/email"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
)

// PollFeedTask fetches an RSS/Atom feed and runs each new entry through the
// pipeline.
type PollFeedTask struct {
	Task
	SourceConfig *sources.Config
	SourceID     string
	httpClient   *http.Client
	seenFilter   *dedup.SeenFilter
	pipeline     *Pipeline
	userAgent    string
}

func NewPollFeedTask(sourceConfig *sources.Config, sourceID string, httpClient *http.Client,
	seenFilter *dedup.SeenFilter, pipeline *Pipeline, userAgent string) *PollFeedTask {
	return &PollFeedTask{
		Task:         NewTask(TaskTypePollFeed, sourceConfig.Name),
		SourceConfig: sourceConfig,
		SourceID:     sourceID,
		httpClient:   httpClient,
		seenFilter:   seenFilter,
		pipeline:     pipeline,
		userAgent:    userAgent,
	}
}

func (t *PollFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := t.fetchFeed(ctx, t.SourceConfig.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	newCount := 0
	duplicateCount := 0
	skippedCount := 0

	entries := feed.Items
	if len(entries) > t.SourceConfig.Settings.MaxItems {
		entries = entries[:t.SourceConfig.Settings.MaxItems]
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		guid := entry.GUID
		if guid == "" {
			guid = entry.Link
		}
		isNew, err := t.seenFilter.IsNew(ctx, t.SourceID+":"+guid)
		if err != nil {
			slog.Warn("Seen filter unavailable, falling through to hash dedup", "source", t.SourceName, "error", err)
		} else if !isNew {
			skippedCount++
			continue
		}

		raw := t.entryToRawMessage(feed, entry)
		result, err := t.pipeline.Run(ctx, t.SourceConfig.UserID, t.SourceID, raw, entry.Link, t.SourceConfig.Settings.StoreRaw)
		if err != nil {
			slog.Error("Failed to process feed entry", "source", t.SourceName, "guid", guid, "error", err)
			continue
		}

		if result.Decision.Status == dedup.StatusNew {
			newCount++
		} else {
			duplicateCount++
		}
	}

	slog.Info("Task completed",
		"type", string(t.GetType()),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"total", len(entries),
		"new", newCount,
		"duplicates", duplicateCount,
		"skipped", skippedCount)

	return nil
}

// entryToRawMessage shapes a feed entry like an inbound message so the whole
// pipeline applies: the feed title acts as sender, the entry title as subject.
func (t *PollFeedTask) entryToRawMessage(feed *gofeed.Feed, entry *gofeed.Item) email.RawMessage {
	from := feed.Title
	if entry.Author != nil && entry.Author.Email != "" {
		from = fmt.Sprintf("%s <%s>", feed.Title, entry.Author.Email)
	} else if feed.Link != "" {
		from = fmt.Sprintf("%s <feed@%s>", feed.Title, hostOf(feed.Link))
	}

	body := entry.Content
	if body == "" {
		body = entry.Description
	}

	timestamp := ""
	if entry.PublishedParsed != nil {
		timestamp = entry.PublishedParsed.UTC().Format(time.RFC3339)
	}

	return email.RawMessage{
		Webhook: &email.WebhookPayload{
			Envelope:  email.Envelope{From: from},
			Subject:   entry.Title,
			HTML:      body,
			Timestamp: timestamp,
		},
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func (t *PollFeedTask) fetchFeed(ctx context.Context, feedURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.SourceConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
