package filings

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// feedPath is EDGAR's per-registrant Atom feed of recent filings.
const feedPath = "/cgi-bin/browse-edgar?action=getcompany&CIK=%s&type=&dateb=&owner=include&count=%d&output=atom"

// Feed reads a registrant's EDGAR Atom feed.
type Feed struct {
	fetcher Fetcher
	baseURL string
	parser  *gofeed.Parser
}

// NewFeed creates a feed reader. An empty baseURL selects the production
// EDGAR host.
func NewFeed(fetcher Fetcher, baseURL string) *Feed {
	if baseURL == "" {
		baseURL = DefaultArchiveBaseURL
	}
	return &Feed{
		fetcher: fetcher,
		baseURL: baseURL,
		parser:  gofeed.NewParser(),
	}
}

// Latest returns up to limit entries of the registrant's filing feed,
// newest first. cik must be the canonical 10-digit form.
func (f *Feed) Latest(ctx context.Context, cik string, limit int) ([]models.FeedEntry, error) {
	if limit <= 0 || limit > DefaultFilingLimit {
		limit = DefaultFilingLimit
	}

	u := f.baseURL + fmt.Sprintf(feedPath, cik, limit)
	body, err := f.fetcher.Fetch(ctx, u, map[string]string{"Accept": "application/atom+xml"})
	if err != nil {
		return nil, fmt.Errorf("fetch filing feed for %s: %w", cik, err)
	}

	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse filing feed for %s: %w", cik, err)
	}

	entries := make([]models.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if len(entries) >= limit {
			break
		}
		entry := models.FeedEntry{
			Title:   item.Title,
			Link:    item.Link,
			Summary: item.Description,
		}
		if item.UpdatedParsed != nil {
			entry.Updated = *item.UpdatedParsed
		} else if item.PublishedParsed != nil {
			entry.Updated = *item.PublishedParsed
		} else {
			entry.Updated = time.Time{}
		}
		if len(item.Categories) > 0 {
			entry.Category = item.Categories[0]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
