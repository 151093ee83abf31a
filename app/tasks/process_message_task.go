package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/dedup"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/email"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
)

// ProcessMessageTask runs the pipeline for one inbound message, typically
// enqueued by the webhook handler for forwarding sources.
type ProcessMessageTask struct {
	Task
	SourceConfig *sources.Config
	SourceID     string
	RawMessage   email.RawMessage
	pipeline     *Pipeline
}

func NewProcessMessageTask(sourceConfig *sources.Config, sourceID string, raw email.RawMessage, pipeline *Pipeline) *ProcessMessageTask {
	return &ProcessMessageTask{
		Task:         NewTask(TaskTypeProcessMessage, sourceConfig.Name),
		SourceConfig: sourceConfig,
		SourceID:     sourceID,
		RawMessage:   raw,
		pipeline:     pipeline,
	}
}

func (t *ProcessMessageTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.pipeline.Run(ctx, t.SourceConfig.UserID, t.SourceID, t.RawMessage, "", t.SourceConfig.Settings.StoreRaw)
	if err != nil {
		return fmt.Errorf("failed to process message: %w", err)
	}

	logArgs := []any{
		"type", string(t.GetType()),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"status", string(result.Decision.Status),
		"method", string(result.Extraction.Method),
	}
	if result.Decision.Status == dedup.StatusNew {
		logArgs = append(logArgs, "item_id", result.ItemID)
	} else {
		logArgs = append(logArgs, "existing_item_id", result.Decision.ExistingItemID)
	}
	slog.Info("Task completed", logArgs...)

	return nil
}
