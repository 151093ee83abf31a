package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/cfg"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/database"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/dedup"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache *sources.ConfigCache
	sourceRepo  database.SourceRepository
	httpClient  *http.Client
	seenFilter  *dedup.SeenFilter
	pipeline    *Pipeline
	userAgent   string
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *sources.ConfigCache, sourceRepo database.SourceRepository,
	httpClient *http.Client, seenFilter *dedup.SeenFilter, pipeline *Pipeline) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		configCache: configCache,
		sourceRepo:  sourceRepo,
		httpClient:  httpClient,
		seenFilter:  seenFilter,
		pipeline:    pipeline,
		userAgent:   c.UserAgent,
		interval:    time.Duration(c.SchedulerInterval) * time.Second,
		workerCount: c.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueuePollTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Syncing source configurations", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		syncTask := NewSyncSourceTask(sourceConfig, s.sourceRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSourceTask", "source", sourceConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueuePollTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	for _, sourceConfig := range sourceConfigs {
		if sourceConfig.Type == sources.TypeForwarding {
			// Forwarding sources are push-based via the webhook endpoint.
			continue
		}

		source, err := s.sourceRepo.GetSource(sourceConfig.UserID, sourceConfig.Name)
		if err != nil {
			slog.Warn("Failed to get source from database, skipping", "source", sourceConfig.Name, "error", err)
			continue
		}
		if source == nil {
			slog.Warn("Source not found in database, skipping", "source", sourceConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if source.NextPollAt != nil && source.NextPollAt.After(now) {
			slog.Debug("Source not due for polling yet", "source", sourceConfig.Name, "next_poll_at", source.NextPollAt)
			continue
		}

		if err := s.EnqueuePoll(sourceConfig, source.ID); err != nil {
			slog.Warn("Failed to enqueue poll task", "source", sourceConfig.Name, "error", err)
			continue
		}

		nextPoll := now.Add(time.Duration(sourceConfig.Settings.PollInterval) * time.Second)
		if err := s.sourceRepo.UpdatePollStatus(source.ID, now, nextPoll); err != nil {
			slog.Warn("Failed to update poll status", "source", sourceConfig.Name, "error", err)
		}
	}
}

// EnqueuePoll schedules the poll task matching the source type. The API
// force-poll endpoint uses it directly.
func (s *Scheduler) EnqueuePoll(sourceConfig *sources.Config, sourceID string) error {
	switch sourceConfig.Type {
	case sources.TypeRSS:
		return s.EnqueueTask(NewPollFeedTask(sourceConfig, sourceID, s.httpClient, s.seenFilter, s.pipeline, s.userAgent))
	case sources.TypeGmail, sources.TypeOutlook:
		return s.EnqueueTask(NewPollMailboxTask(sourceConfig, sourceID, s.seenFilter, s.pipeline))
	default:
		return fmt.Errorf("source type %s is not pollable", sourceConfig.Type)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
