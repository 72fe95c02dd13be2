// Package api serves the persisted datasets to the dashboard
// collaborator over HTTP. It is read-only: scraping is driven by the
// CLI, not the API.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/feeds"
)

// NewRouter creates a configured Gin engine with all routes.
//
// Middleware chain: Recovery → Logger. The health endpoint sits next to
// the dataset routes; there is no auth surface on a read-only local API.
func NewRouter(cfg *config.Config, allFeeds []feeds.Feed, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", Health(startTime))
	v1.GET("/datasets", ListDatasets(cfg.Output.Dir, allFeeds))
	v1.GET("/datasets/:feed", GetDataset(cfg.Output.Dir, allFeeds))
	v1.GET("/datasets/:feed/summary", GetSummary(cfg.Output.Dir, allFeeds))

	return r
}
