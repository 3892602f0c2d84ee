// Package langfuse is the client-side access layer to the prompt management
// API. Prompt reads go through a per-kind TTL cache and may degrade to a
// caller supplied fallback; score writes go straight to the transport.
//
// All methods are safe for concurrent use.
package langfuse

import (
	"context"
	"time"

	"github.com/google/uuid"

	"prompt-access/internal/common/cache"
	"prompt-access/internal/common/logger"
	"prompt-access/internal/models"
)

const (
	promptsResource = "/api/public/v2/prompts"
	scoresResource  = "/api/public/scores"

	defaultPrefetchConcurrency = 4
)

// Transport performs one request against the API. See internal/common/http.
type Transport interface {
	Send(ctx context.Context, method, path string, body interface{}) ([]byte, error)
}

type Config struct {
	// CacheTTL nil means cache.DefaultTTL. A value <= 0 disables caching.
	CacheTTL            *time.Duration
	CleanupInterval     time.Duration
	PrefetchConcurrency int
	Clock               func() time.Time
	NewScoreID          func() string
}

type Client struct {
	transport Transport
	logger    logger.Logger

	textCache *cache.TTLCache[models.PromptKey, *models.TextPrompt]
	chatCache *cache.TTLCache[models.PromptKey, *models.ChatPrompt]

	prefetchConcurrency int
	newScoreID          func() string
}

func NewClient(transport Transport, cfg Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	ttl := cache.DefaultTTL
	if cfg.CacheTTL != nil {
		ttl = *cfg.CacheTTL
	}

	c := &Client{
		transport:           transport,
		logger:              log.WithFields(map[string]interface{}{"component": "prompt-access"}),
		prefetchConcurrency: cfg.PrefetchConcurrency,
		newScoreID:          cfg.NewScoreID,
	}
	if c.prefetchConcurrency <= 0 {
		c.prefetchConcurrency = defaultPrefetchConcurrency
	}
	if c.newScoreID == nil {
		c.newScoreID = uuid.NewString
	}

	c.textCache = cache.New[models.PromptKey, *models.TextPrompt](cache.Config{
		TTL:             ttl,
		CleanupInterval: cfg.CleanupInterval,
		Name:            string(models.PromptKindText),
		Clock:           cfg.Clock,
	}, (*models.TextPrompt).Clone)
	c.chatCache = cache.New[models.PromptKey, *models.ChatPrompt](cache.Config{
		TTL:             ttl,
		CleanupInterval: cfg.CleanupInterval,
		Name:            string(models.PromptKindChat),
		Clock:           cfg.Clock,
	}, (*models.ChatPrompt).Clone)

	return c
}

// ClearCache drops every cached prompt of both kinds.
func (c *Client) ClearCache() {
	c.textCache.Clear()
	c.chatCache.Clear()
	c.logger.Debug("prompt cache cleared", nil)
}

// Close stops the cache janitors. The client must not be used afterwards.
func (c *Client) Close() {
	c.textCache.Close()
	c.chatCache.Close()
}
