package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/database"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/dedup"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/email"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/sources"
	"github.com/miraclmoore/newsletter-scraper-platform-sub001/app/tasks"
)

func NewHandler(configCache *sources.ConfigCache, sourceRepo database.SourceRepository,
	itemRepo database.ItemRepository, seenFilter *dedup.SeenFilter,
	pipeline *tasks.Pipeline, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		configCache: configCache,
		sourceRepo:  sourceRepo,
		itemRepo:    itemRepo,
		seenFilter:  seenFilter,
		pipeline:    pipeline,
		scheduler:   scheduler,
	}
}

// PostInboundWebhook accepts forwarded newsletter messages, either as the
// provider's JSON payload or as a raw MIME message, routes them to a
// forwarding source by recipient address, and enqueues processing.
func (h *Handler) PostInboundWebhook(c *gin.Context) {
	raw, ok := h.readInboundMessage(c)
	if !ok {
		return
	}

	recipients, messageID := email.RoutingInfo(raw)

	var sourceConfig *sources.Config
	for _, recipient := range recipients {
		if match, err := h.configCache.GetConfigByAlias(recipient); err == nil {
			sourceConfig = match
			break
		}
	}
	if sourceConfig == nil {
		slog.Warn("No forwarding source matches webhook recipients", "recipients", strings.Join(recipients, ","))
		c.JSON(http.StatusNotFound, gin.H{"error": "No forwarding source matches the recipient address"})
		return
	}

	if isNew, err := h.seenFilter.IsNew(c.Request.Context(), sourceConfig.Name+":"+messageID); err != nil {
		slog.Warn("Seen filter unavailable, continuing", "source", sourceConfig.Name, "error", err)
	} else if !isNew {
		c.JSON(http.StatusAccepted, gin.H{"status": "duplicate", "message_id": messageID})
		return
	}

	sourceID, err := h.resolveSourceID(sourceConfig)
	if err != nil {
		slog.Error("Database error", "operation", "resolve_source", "source", sourceConfig.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	task := tasks.NewProcessMessageTask(sourceConfig, sourceID, raw, h.pipeline)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing process task", "source", sourceConfig.Name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue message processing"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"source":  sourceConfig.Name,
		"task_id": task.GetID(),
	})
}

func (h *Handler) readInboundMessage(c *gin.Context) (email.RawMessage, bool) {
	contentType := c.ContentType()

	if strings.Contains(contentType, "json") {
		var payload email.WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload", "details": err.Error()})
			return email.RawMessage{}, false
		}
		return email.RawMessage{Webhook: &payload}, true
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty request body"})
		return email.RawMessage{}, false
	}

	return email.RawMessage{MIMESource: string(body)}, true
}

func (h *Handler) resolveSourceID(sourceConfig *sources.Config) (string, error) {
	source, err := h.sourceRepo.GetSource(sourceConfig.UserID, sourceConfig.Name)
	if err != nil {
		return "", err
	}
	if source != nil {
		return source.ID, nil
	}

	// Not synced yet, register it now so the message is not lost.
	return h.sourceRepo.UpsertSource(sourceConfig.UserID, sourceConfig.Name, sourceConfig.Type, sourceConfig.URL)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"loaded_configurations": h.configCache.GetConfigCount(),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		stats["sources"] = sourceCount
	}

	if total, unread, err := h.itemRepo.GetItemStats(); err == nil {
		stats["items"] = map[string]interface{}{
			"total":  total,
			"unread": unread,
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	list := make([]map[string]interface{}, 0, len(configs))

	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":          sourceConfig.Name,
			"user_id":       sourceConfig.UserID,
			"type":          sourceConfig.Type,
			"url":           sourceConfig.URL,
			"enabled":       sourceConfig.Settings.Enabled,
			"max_items":     sourceConfig.Settings.MaxItems,
			"poll_interval": (time.Duration(sourceConfig.Settings.PollInterval) * time.Second).String(),
		}

		if source, err := h.sourceRepo.GetSource(sourceConfig.UserID, sourceConfig.Name); err == nil && source != nil {
			sourceInfo["last_polled_at"] = source.LastPolledAt
			sourceInfo["next_poll_at"] = source.NextPollAt
			sourceInfo["updated_at"] = source.UpdatedAt
		}

		list = append(list, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": list,
		"total":   len(list),
	})
}

func (h *Handler) APIGetSourceDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	sourceConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	source, err := h.sourceRepo.GetSource(sourceConfig.UserID, name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if source == nil {
		slog.Error("Source not found in database", "source", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":          name,
		"user_id":       sourceConfig.UserID,
		"type":          sourceConfig.Type,
		"url":           sourceConfig.URL,
		"alias":         sourceConfig.Alias,
		"enabled":       sourceConfig.Settings.Enabled,
		"max_items":     sourceConfig.Settings.MaxItems,
		"poll_interval": (time.Duration(sourceConfig.Settings.PollInterval) * time.Second).String(),
		"timeout":       (time.Duration(sourceConfig.Settings.Timeout) * time.Second).String(),
		"store_raw":     sourceConfig.Settings.StoreRaw,
	}

	if sourceConfig.Mailbox.Address != "" {
		details["mailbox"] = map[string]interface{}{
			"address": sourceConfig.Mailbox.Address,
			"label":   sourceConfig.Mailbox.Label,
		}
	}

	details["database"] = map[string]interface{}{
		"id":             source.ID,
		"last_polled_at": source.LastPolledAt,
		"next_poll_at":   source.NextPollAt,
		"created_at":     source.CreatedAt,
		"updated_at":     source.UpdatedAt,
	}

	if itemCount, err := h.itemRepo.GetItemCount(sourceConfig.UserID); err == nil {
		details["user_item_count"] = itemCount
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIListItems(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id query parameter"})
		return
	}

	limit := 50
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit query parameter"})
			return
		}
		limit = parsed
	}

	items, err := h.itemRepo.GetItems(userID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		list = append(list, map[string]interface{}{
			"id":                item.ID,
			"source_id":         item.SourceID,
			"title":             item.Title,
			"content":           item.Content,
			"url":               item.URL,
			"published_at":      item.PublishedAt,
			"extraction_method": item.ExtractionMethod,
			"is_read":           item.IsRead,
			"metadata":          item.Metadata,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"items": list,
		"total": len(list),
	})
}

func (h *Handler) APIMarkItemRead(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing item id parameter"})
		return
	}

	request := struct {
		Read *bool `json:"read"`
	}{}
	read := true
	if err := c.ShouldBindJSON(&request); err == nil && request.Read != nil {
		read = *request.Read
	}

	if err := h.itemRepo.MarkRead(itemID, read); err != nil {
		slog.Error("Database error", "operation", "mark_read", "item_id", itemID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": itemID, "read": read})
}

func (h *Handler) APIPollSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	sourceConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	if sourceConfig.Type == sources.TypeForwarding {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Forwarding sources are push-based and cannot be polled"})
		return
	}

	sourceID, err := h.resolveSourceID(sourceConfig)
	if err != nil {
		slog.Error("Database error", "operation", "resolve_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := h.scheduler.EnqueuePoll(sourceConfig, sourceID); err != nil {
		slog.Error("Error enqueueing poll task", "source", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue poll task", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Poll task enqueued successfully",
		"source":  name,
	})
}
