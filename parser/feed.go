package parser

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"
)

// extractFeed maps RSS/Atom feed items onto Records. The gofeed library
// detects the format, so one code path covers both. Items missing a title
// or link get a nil field, mirroring the HTML extractor's per-row policy.
func extractFeed(body []byte) ([]Record, error) {
	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	var records []Record
	for i, item := range feed.Items {
		var rec Record
		if item.Title != "" {
			title := item.Title
			rec.Title = &title
		} else {
			log.Warn("title could not be extracted from feed item", "item", i)
		}
		if item.Link != "" {
			link := item.Link
			rec.URL = &link
		} else {
			log.Warn("link could not be extracted from feed item", "item", i)
		}
		records = append(records, rec)
	}

	return records, nil
}
