package api

import (
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/database"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/dedup"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/tasks"
)

type Handler struct {
	configCache *sources.ConfigCache
	sourceRepo  database.SourceRepository
	itemRepo    database.ItemRepository
	seenFilter  *dedup.SeenFilter
	pipeline    *tasks.Pipeline
	scheduler   tasks.TaskSchedulerInterface
}
