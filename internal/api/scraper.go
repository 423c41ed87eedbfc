package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/b9ops/dashboard/internal/perf"
	"github.com/b9ops/dashboard/internal/scraper"
	"github.com/b9ops/dashboard/pkg/config"
	"github.com/b9ops/dashboard/pkg/logging"
)

// ScraperHandler proxies scraper control to the external scraper service.
// Proxy failures never propagate: the UI must not block on an unreachable
// dependency, so start/stop report best-effort acceptance and status
// degrades to a synthetic "stopped" payload.
type ScraperHandler struct {
	pool   *perf.Pool
	dedup  *perf.Deduplicator
	logger *zap.Logger

	// Unreachable-service warnings are throttled so a polling UI does not
	// flood the log.
	warnUnreachable func()
}

// NewScraperHandler creates the scraper proxy backed by a bounded client
// pool.
func NewScraperHandler(scraperCfg *config.ScraperConfig, poolCfg *config.PoolConfig) *ScraperHandler {
	logger := logging.GetLogger().With(zap.String("component", "scraper-proxy"))

	factory := func() (perf.Client, error) {
		return scraper.New(scraperCfg), nil
	}
	pool := perf.NewPool(factory, poolCfg.Min, poolCfg.Max, poolCfg.AcquireTimeout)

	statusTTL := scraperCfg.StatusInterval
	if statusTTL <= 0 {
		statusTTL = 5 * time.Second
	}

	return &ScraperHandler{
		pool:  pool,
		dedup: perf.NewDeduplicator(statusTTL),
		warnUnreachable: perf.Throttle(30*time.Second, func() {
			logger.Warn("scraper service unreachable, serving degraded status")
		}),
		logger: logger,
	}
}

// Close shuts down the client pool.
func (h *ScraperHandler) Close() error {
	return h.pool.Close()
}

// Start handles POST /api/scraper/start
func (h *ScraperHandler) Start(c *gin.Context) {
	err := h.withClient(c.Request.Context(), func(client *scraper.Client) error {
		return client.Start(c.Request.Context())
	})
	if err != nil {
		// Best-effort: the request was accepted even if the service could
		// not confirm it.
		h.logger.Warn("scraper start could not be confirmed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stop handles POST /api/scraper/stop
func (h *ScraperHandler) Stop(c *gin.Context) {
	err := h.withClient(c.Request.Context(), func(client *scraper.Client) error {
		return client.Stop(c.Request.Context())
	})
	if err != nil {
		h.logger.Warn("scraper stop could not be confirmed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StatusDetailed handles GET /api/scraper/status-detailed. Concurrent polls
// inside the status interval collapse into one upstream request.
func (h *ScraperHandler) StatusDetailed(c *gin.Context) {
	result, err := h.dedup.Do("status-detailed", func() (interface{}, error) {
		var status *scraper.Status
		err := h.withClient(c.Request.Context(), func(client *scraper.Client) error {
			var innerErr error
			status, innerErr = client.StatusDetailed(c.Request.Context())
			return innerErr
		})
		return status, err
	})
	if err != nil {
		h.warnUnreachable()
		c.JSON(http.StatusOK, scraper.StoppedStatus())
		return
	}
	c.JSON(http.StatusOK, result.(*scraper.Status))
}

// withClient runs fn with a pooled scraper client.
func (h *ScraperHandler) withClient(ctx context.Context, fn func(*scraper.Client) error) error {
	client, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer h.pool.Release(client)
	return fn(client.(*scraper.Client))
}
