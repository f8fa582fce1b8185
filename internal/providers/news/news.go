// Package news fetches market headlines for the dashboard sidebar from an
// RSS/Atom feed.
package news

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/pkg/models"
)

// Client fetches headlines from one feed URL.
type Client struct {
	url    string
	parser *gofeed.Parser
	logger *zap.Logger
}

// NewClient creates a feed client for url.
func NewClient(url string, logger *zap.Logger) *Client {
	return &Client{url: url, parser: gofeed.NewParser(), logger: logger.Named("news")}
}

// Headlines returns up to limit items from the feed, newest first as
// published by the feed itself.
func (c *Client) Headlines(ctx context.Context, limit int) ([]models.NewsItem, error) {
	feed, err := c.parser.ParseURLWithContext(c.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("news: parse feed: %w", err)
	}
	source := feed.Title
	if source == "" {
		source = c.url
	}
	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		n := models.NewsItem{Title: it.Title, Link: it.Link, Source: source}
		if it.PublishedParsed != nil {
			n.PublishedAt = it.PublishedParsed.Format(time.RFC3339)
		}
		items = append(items, n)
	}
	c.logger.Debug("headlines fetched", zap.Int("items", len(items)))
	return items, nil
}
