package scraper

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/shayan4Ii/google-map-scraper/internal/engine/geo"
	"github.com/shayan4Ii/google-map-scraper/internal/engine/session"
	"github.com/shayan4Ii/google-map-scraper/internal/model"
)

const searchBaseURL = "https://www.google.com/maps/search/"

// Stats tracks live progress across the whole run.
type Stats struct {
	QueriesDone atomic.Int64
	Discovered  atomic.Int64
	Extracted   atomic.Int64
	Skipped     atomic.Int64
}

// Store persists extracted batches. Satisfied by storage.Store.
type Store interface {
	InsertBatch(businesses []model.Business) (int, error)
}

// Exporter writes one tabular artifact set per search term. Satisfied by
// export.Writer.
type Exporter interface {
	ExportQuery(query string, businesses []model.Business) error
}

// RunOptions provides optional hooks for the scraping pipeline.
type RunOptions struct {
	// OnBatch is called with each term's extracted businesses after
	// filtering, before export.
	OnBatch func(query string, businesses []model.Business)
	// Stats allows passing an external Stats object for live progress
	// tracking. If nil, Run creates its own.
	Stats *Stats
}

// Run processes every search term in order: discover result handles, extract
// each one, filter, persist and export — fully finishing a term before the
// next begins. A failed place is logged and skipped; a failed session ends
// the run.
func Run(ctx context.Context, sess session.Session, params model.SearchParams, store Store, exporter Exporter, logger zerolog.Logger, opts *RunOptions) (*Stats, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}

	for i, query := range params.Queries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		qlog := logger.With().Int("index", i).Str("query", query).Logger()
		qlog.Info().Msg("starting search")

		if err := sess.Navigate(ctx, buildSearchURL(query, params.Lang)); err != nil {
			return stats, fmt.Errorf("opening search for %q: %w", query, err)
		}

		handles, state, err := discover(ctx, sess, params.Target, params.MaxPolls, params.SettleWait, qlog)
		if err != nil {
			return stats, fmt.Errorf("discovering results for %q: %w", query, err)
		}
		stats.Discovered.Add(int64(len(handles)))

		businesses := make([]model.Business, 0, len(handles))
		for idx, handle := range handles {
			b, err := extractBusiness(ctx, sess, handle, query)
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				stats.Skipped.Add(1)
				qlog.Error().Err(err).Int("item", idx+1).Int("of", len(handles)).Msg("skipping place")
				continue
			}
			businesses = append(businesses, b)
			stats.Extracted.Add(1)
		}

		if params.HasGeoFilter() {
			before := len(businesses)
			businesses = geo.FilterNear(businesses, params.NearLat, params.NearLng, params.RadiusKM)
			qlog.Info().Int("kept", len(businesses)).Int("dropped", before-len(businesses)).Msg("geo filter applied")
		}

		if opts.OnBatch != nil {
			opts.OnBatch(query, businesses)
		}

		if store != nil && len(businesses) > 0 {
			if _, err := store.InsertBatch(businesses); err != nil {
				qlog.Error().Err(err).Msg("storing batch")
			}
		}
		if exporter != nil {
			if err := exporter.ExportQuery(query, businesses); err != nil {
				return stats, fmt.Errorf("exporting %q: %w", query, err)
			}
		}

		stats.QueriesDone.Add(1)
		qlog.Info().
			Int("total", len(businesses)).
			Stringer("state", state).
			Msg("search complete")
	}

	return stats, nil
}

func buildSearchURL(query, lang string) string {
	u := searchBaseURL + url.QueryEscape(query)
	if lang != "" {
		u += "?hl=" + url.QueryEscape(lang)
	}
	return u
}
