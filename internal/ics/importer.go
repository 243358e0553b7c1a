package ics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"studydash/internal/config"
	appLog "studydash/internal/log"
	"studydash/internal/planner"
)

// Importer pulls subscribed feeds into the dashboard's event list.
type Importer struct {
	fetcher *Fetcher
	sources []Source
	svc     *planner.Service

	pastDays   int
	futureDays int

	// running guards against overlapping syncs (cron tick + manual trigger).
	running sync.Mutex
}

// NewImporter wires an Importer from config.
func NewImporter(cfg *config.Config, svc *planner.Service, fetcher *Fetcher) *Importer {
	if fetcher == nil {
		fetcher = NewFetcher(cfg.Sync.CacheDir, nil)
	}
	return &Importer{
		fetcher:    fetcher,
		sources:    SourcesFromConfig(cfg.ICS),
		svc:        svc,
		pastDays:   cfg.Sync.PastDays,
		futureDays: cfg.Sync.FutureDays,
	}
}

// SourceReport is the outcome of syncing one feed.
type SourceReport struct {
	Source    string              `json:"source"`
	FromCache bool                `json:"from_cache"`
	Events    int                 `json:"events"`
	Truncated []string            `json:"truncated,omitempty"`
	Merge     planner.MergeResult `json:"merge"`
	Error     string              `json:"error,omitempty"`
}

// Sources returns the configured feeds.
func (im *Importer) Sources() []Source {
	return im.sources
}

// Sync fetches, parses and expands every feed and merges the events into the
// store. A failing feed does not stop the others; their errors are joined.
// Feeds that fail to fetch keep their previously imported events.
func (im *Importer) Sync(ctx context.Context) ([]SourceReport, error) {
	im.running.Lock()
	defer im.running.Unlock()

	today := im.svc.Today()
	cfg := ExpandConfig{
		Location:   im.svc.Location(),
		RangeStart: today.AddDate(0, 0, -im.pastDays),
		RangeEnd:   today.AddDate(0, 0, im.futureDays),
	}

	reports := make([]SourceReport, 0, len(im.sources))
	var errs []error

	results, fetchErrs := im.fetcher.FetchAll(ctx, im.sources)
	errs = append(errs, fetchErrs...)
	fetched := make(map[string]bool, len(results))

	for _, res := range results {
		fetched[res.Source.ID] = true
		rep := SourceReport{Source: res.Source.ID, FromCache: res.FromCache}

		parsed, err := ParseICS(res.Source, res.Body)
		if err != nil {
			rep.Error = err.Error()
			reports = append(reports, rep)
			errs = append(errs, fmt.Errorf("source %s: %w", res.Source.ID, err))
			continue
		}

		expanded, err := ExpandEvents(parsed, cfg)
		if err != nil {
			rep.Error = err.Error()
			reports = append(reports, rep)
			errs = append(errs, fmt.Errorf("source %s: %w", res.Source.ID, err))
			continue
		}
		rep.Events = len(expanded.Events)
		rep.Truncated = expanded.TruncatedEvents

		merge, err := im.svc.ImportEvents(ctx, res.Source.ID, expanded.Events)
		if err != nil {
			// A save failure will fail every other source the same way.
			rep.Error = err.Error()
			reports = append(reports, rep)
			return reports, errors.Join(append(errs, err)...)
		}
		rep.Merge = merge
		reports = append(reports, rep)
	}

	for _, src := range im.sources {
		if !fetched[src.ID] {
			reports = append(reports, SourceReport{Source: src.ID, Error: "fetch failed"})
		}
	}

	appLog.Info("ics sync finished", "sources", len(im.sources), "errors", len(errs), "today", today.Format(time.DateOnly))
	return reports, errors.Join(errs...)
}
