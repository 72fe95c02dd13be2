package api

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/feeds"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/sink"
)

// Health returns a handler for GET /api/v1/health.
func Health(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: "0.1.0",
		})
	}
}

// ListDatasets returns a handler for GET /api/v1/datasets: every known
// feed with its on-disk row count.
func ListDatasets(dir string, allFeeds []feeds.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := make([]models.DatasetInfo, 0, len(allFeeds))
		for _, f := range allFeeds {
			info := models.DatasetInfo{Feed: f.Name}
			if _, rows, err := sink.ReadCSV(sink.DatasetPath(dir, f.Name)); err == nil {
				info.Present = true
				info.Rows = len(rows)
			}
			infos = append(infos, info)
		}
		c.JSON(http.StatusOK, gin.H{"datasets": infos})
	}
}

// GetDataset returns a handler for GET /api/v1/datasets/:feed, serving
// the raw CSV.
func GetDataset(dir string, allFeeds []feeds.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		feed, ok := lookupFeed(allFeeds, c.Param("feed"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": models.ErrorDetail{
				Code: "UNKNOWN_FEED", Message: "no such feed",
			}})
			return
		}
		path := sink.DatasetPath(dir, feed.Name)
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": models.ErrorDetail{
				Code: "DATASET_MISSING", Message: "feed has not been harvested yet",
			}})
			return
		}
		c.Header("Content-Type", "text/csv")
		c.File(path)
	}
}

// GetSummary returns a handler for GET /api/v1/datasets/:feed/summary.
//
// The summary tolerates datasets that have not been through the external
// sentiment classifier: the sentiment block is simply omitted. Date
// coverage counts unparsable entries as missing instead of dropping them.
func GetSummary(dir string, allFeeds []feeds.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		feed, ok := lookupFeed(allFeeds, c.Param("feed"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": models.ErrorDetail{
				Code: "UNKNOWN_FEED", Message: "no such feed",
			}})
			return
		}
		header, rows, err := sink.ReadCSV(sink.DatasetPath(dir, feed.Name))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": models.ErrorDetail{
				Code: "DATASET_MISSING", Message: "feed has not been harvested yet",
			}})
			return
		}
		c.JSON(http.StatusOK, Summarize(feed.Name, header, rows))
	}
}

// Summarize builds a DatasetSummary from a raw header+rows table.
func Summarize(feed string, header []string, rows [][]string) models.DatasetSummary {
	summary := models.DatasetSummary{
		Feed:    feed,
		Rows:    len(rows),
		Columns: header,
	}

	if col := columnIndex(header, "sentiment"); col >= 0 {
		s := &models.SentimentSummary{}
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			switch row[col] {
			case "Positive":
				s.Positive++
			case "Negative":
				s.Negative++
			default:
				s.Other++
			}
		}
		summary.Sentiment = s
	}

	if col := dateColumn(header); col >= 0 {
		d := &models.DateCoverage{Column: header[col]}
		for _, row := range rows {
			if col < len(row) {
				if _, err := time.Parse(time.RFC3339, row[col]); err == nil {
					d.Parsed++
					continue
				}
			}
			d.Missing++
		}
		summary.Dates = d
	}

	return summary
}

func lookupFeed(allFeeds []feeds.Feed, name string) (feeds.Feed, bool) {
	for _, f := range allFeeds {
		if f.Name == name {
			return f, true
		}
	}
	return feeds.Feed{}, false
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// dateColumn prefers the parsed date column, then any column with "date"
// in its name.
func dateColumn(header []string) int {
	if i := columnIndex(header, "date_parsed"); i >= 0 {
		return i
	}
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "date") {
			return i
		}
	}
	return -1
}
