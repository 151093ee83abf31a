package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/dedup"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/email"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/mailbox"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
)

// PollMailboxTask polls an OAuth-backed mailbox (gmail or outlook), fetches
// raw MIME messages and runs them through the pipeline. The access token is
// read from the environment variable named in the source configuration;
// token refresh is an external collaborator.
type PollMailboxTask struct {
	Task
	SourceConfig *sources.Config
	SourceID     string
	seenFilter   *dedup.SeenFilter
	pipeline     *Pipeline

	// newClient is swapped in tests.
	newClient func(sourceType, accessToken string, timeout time.Duration) (mailbox.Client, error)
}

func NewPollMailboxTask(sourceConfig *sources.Config, sourceID string,
	seenFilter *dedup.SeenFilter, pipeline *Pipeline) *PollMailboxTask {
	return &PollMailboxTask{
		Task:         NewTask(TaskTypePollMailbox, sourceConfig.Name),
		SourceConfig: sourceConfig,
		SourceID:     sourceID,
		seenFilter:   seenFilter,
		pipeline:     pipeline,
		newClient:    mailbox.NewClient,
	}
}

func (t *PollMailboxTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	tokenEnv := t.SourceConfig.Mailbox.TokenEnv
	if tokenEnv == "" {
		return fmt.Errorf("source %s has no mailbox.token_env configured", t.SourceName)
	}
	token := os.Getenv(tokenEnv)
	if token == "" {
		return fmt.Errorf("access token env %s is empty", tokenEnv)
	}

	timeout := time.Duration(t.SourceConfig.Settings.Timeout) * time.Second
	client, err := t.newClient(t.SourceConfig.Type, token, timeout)
	if err != nil {
		return err
	}

	ids, err := client.ListMessageIDs(ctx, t.SourceConfig.Mailbox.Label, t.SourceConfig.Settings.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to list mailbox messages: %w", err)
	}

	newCount := 0
	duplicateCount := 0
	skippedCount := 0
	errorCount := 0

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		isNew, err := t.seenFilter.IsNew(ctx, t.SourceID+":"+id)
		if err != nil {
			slog.Warn("Seen filter unavailable, falling through to hash dedup", "source", t.SourceName, "error", err)
		} else if !isNew {
			skippedCount++
			continue
		}

		source, err := client.FetchRaw(ctx, id)
		if err != nil {
			slog.Error("Failed to fetch mailbox message", "source", t.SourceName, "provider_id", id, "error", err)
			errorCount++
			continue
		}

		result, err := t.pipeline.Run(ctx, t.SourceConfig.UserID, t.SourceID,
			email.RawMessage{MIMESource: source}, "", t.SourceConfig.Settings.StoreRaw)
		if err != nil {
			slog.Error("Failed to process mailbox message", "source", t.SourceName, "provider_id", id, "error", err)
			errorCount++
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
		"total", len(ids),
		"new", newCount,
		"duplicates", duplicateCount,
		"skipped", skippedCount,
		"errors", errorCount)

	return nil
}
