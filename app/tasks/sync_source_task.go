package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/database"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
)

type SyncSourceTask struct {
	Task
	SourceConfig *sources.Config
	sourceRepo   database.SourceRepository
}

func NewSyncSourceTask(sourceConfig *sources.Config, sourceRepo database.SourceRepository) *SyncSourceTask {
	return &SyncSourceTask{
		Task:         NewTask(TaskTypeSyncSource, sourceConfig.Name),
		SourceConfig: sourceConfig,
		sourceRepo:   sourceRepo,
	}
}

func (t *SyncSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := t.sourceRepo.UpsertSource(
		t.SourceConfig.UserID,
		t.SourceConfig.Name,
		t.SourceConfig.Type,
		t.SourceConfig.URL)
	if err != nil {
		slog.Error("Task failed", "type", "SyncSource", "source", t.SourceName, "error", err)
		return fmt.Errorf("failed to sync source config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSource",
		"source", t.SourceName,
		"duration", t.GetDuration())

	return nil
}
