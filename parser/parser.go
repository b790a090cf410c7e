// Package parser implements the article harvesting pipeline: fetch a source
// listing, extract title/url pairs, drop incomplete rows, and persist the
// batch with url-based deduplication.
package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Record is one title/url pair extracted from a source row. A nil field
// means the row was missing that piece of data.
type Record struct {
	Title *string
	URL   *string
}

// Source describes where and how to harvest listings. HTML sources are
// walked with CSS selectors; feed sources are parsed as RSS/Atom.
type Source struct {
	URL          string
	Kind         string // "html" or "feed"
	RowSelector  string
	LinkSelector string
}

// Pipeline runs one full harvest: fetch, extract, filter, persist. A
// Pipeline holds no per-run state, so a single instance can be driven by a
// scheduler for the lifetime of the process.
type Pipeline struct {
	source Source
	store  *RecordStore
	fetch  fetchFunc
}

// NewPipeline creates a pipeline for the given source, persisting into
// store.
func NewPipeline(source Source, store *RecordStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source: source,
		store:  store,
		fetch:  newFetcher(defaultFetchTimeout),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PipelineOption customizes pipeline construction.
type PipelineOption func(*Pipeline)

// WithFetchTimeout bounds the single outbound request of each run.
func WithFetchTimeout(timeout time.Duration) PipelineOption {
	return func(p *Pipeline) { p.fetch = newFetcher(timeout) }
}

// WithFetcher replaces the outbound fetch. Used in tests to simulate
// transport failures without a network.
func WithFetcher(f func(ctx context.Context, url string) ([]byte, error)) PipelineOption {
	return func(p *Pipeline) { p.fetch = f }
}

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

// Run executes one harvest. A failed fetch abandons the whole run and
// nothing is persisted; per-row extraction problems only drop the affected
// row. An empty batch is logged and skipped, never treated as an error.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Debug("run started", "url", p.source.URL)

	body, err := p.fetch(ctx, p.source.URL)
	if err != nil {
		log.Error("failed to fetch source page", "url", p.source.URL, "err", err)
		return fmt.Errorf("fetch %s: %w", p.source.URL, err)
	}

	var records []Record
	switch p.source.Kind {
	case "feed":
		records, err = extractFeed(body)
	default:
		records, err = extractHTML(body, p.source.RowSelector, p.source.LinkSelector)
	}
	if err != nil {
		log.Error("failed to parse source page", "url", p.source.URL, "err", err)
		return fmt.Errorf("parse %s: %w", p.source.URL, err)
	}

	batch := filterComplete(records)
	if len(batch) == 0 {
		log.Warn("no usable records extracted, skipping persistence", "url", p.source.URL)
		return nil
	}

	inserted, err := p.store.SaveBatch(ctx, batch)
	if err != nil {
		log.Error("failed to persist batch", "err", err)
		return fmt.Errorf("persist batch: %w", err)
	}

	log.Info("run completed", "extracted", len(records), "batch", len(batch), "inserted", inserted)
	return nil
}
