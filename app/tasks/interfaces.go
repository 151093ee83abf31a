package tasks

import (
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
)

type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueuePoll(sourceConfig *sources.Config, sourceID string) error
}
