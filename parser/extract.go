package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
)

// extractHTML walks every node matching rowSelector and pulls a title/url
// pair from the nested link element matched by linkSelector. A row with no
// link element yields no record; a missing title or href yields a record
// with that field nil. Rows never abort the batch.
func extractHTML(body []byte, rowSelector, linkSelector string) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var records []Record
	doc.Find(rowSelector).Each(func(i int, row *goquery.Selection) {
		link := row.Find(linkSelector).First()
		if link.Length() == 0 {
			log.Warn("no link element found in listing row", "row", i)
			return
		}

		var rec Record
		if title := strings.TrimSpace(link.Text()); title != "" {
			rec.Title = &title
		} else {
			log.Warn("title could not be extracted", "row", i)
		}
		if href, ok := link.Attr("href"); ok {
			rec.URL = &href
		} else {
			log.Warn("url could not be extracted", "row", i)
		}
		records = append(records, rec)
	})

	return records, nil
}

// filterComplete keeps only records fit for storage. The url is the dedupe
// key and is required; a record with a url but no title still passes.
func filterComplete(records []Record) []Record {
	var complete []Record
	for _, rec := range records {
		if rec.URL == nil || *rec.URL == "" {
			continue
		}
		complete = append(complete, rec)
	}
	return complete
}
