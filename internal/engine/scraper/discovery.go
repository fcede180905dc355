package scraper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/shayan4Ii/google-map-scraper/internal/engine/session"
)

// placeLinkSelector matches the anchor of every result card in the feed.
const placeLinkSelector = `a[href*="/maps/place/"]`

// stableAttemptLimit is how many consecutive zero-growth polls we tolerate
// before declaring the result list exhausted. Result loading is incremental
// and bursty, so a single stale reading is not evidence of exhaustion.
const stableAttemptLimit = 3

const defaultMaxPolls = 60

// DiscoveryState is the terminal state of a discovery run.
type DiscoveryState int

const (
	// TargetReached: the feed yielded at least the requested number of
	// places and the handle set was truncated to exactly that many.
	TargetReached DiscoveryState = iota
	// Exhausted: the feed stopped growing (or the poll budget ran out)
	// before the target was met; everything found is returned.
	Exhausted
)

func (s DiscoveryState) String() string {
	if s == TargetReached {
		return "target_reached"
	}
	return "exhausted"
}

// discover scrolls the result feed until either target handles are visible
// or growth stalls for stableAttemptLimit consecutive polls. target <= 0
// means unbounded: collect until exhaustion. maxPolls caps the total number
// of poll iterations so a feed that never stabilizes cannot hang the run.
//
// The returned handles are a snapshot in feed order; extraction must not
// assume they survive later page mutations beyond their own activation.
func discover(ctx context.Context, sess session.Session, target, maxPolls int, settle time.Duration, logger zerolog.Logger) ([]session.Element, DiscoveryState, error) {
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}

	previousCount := 0
	stableAttempts := 0

	for poll := 0; poll < maxPolls; poll++ {
		if err := ctx.Err(); err != nil {
			return nil, Exhausted, err
		}

		if err := sess.ScrollFurther(ctx); err != nil {
			return nil, Exhausted, err
		}
		if err := sess.Settle(ctx, settle); err != nil {
			return nil, Exhausted, err
		}

		handles, err := sess.Locate(ctx, placeLinkSelector)
		if err != nil {
			return nil, Exhausted, err
		}
		currentCount := len(handles)

		switch {
		case target > 0 && currentCount >= target:
			logger.Info().Int("count", target).Msg("target reached")
			return handles[:target], TargetReached, nil

		case currentCount == previousCount:
			stableAttempts++
			logger.Info().
				Int("count", currentCount).
				Int("attempt", stableAttempts).
				Int("limit", stableAttemptLimit).
				Msg("no new results")
			if stableAttempts >= stableAttemptLimit {
				logger.Info().Int("count", currentCount).Msg("arrived at all available results")
				return handles, Exhausted, nil
			}

		default:
			stableAttempts = 0
			logger.Info().Int("count", currentCount).Msg("currently discovered")
		}

		previousCount = currentCount
	}

	// Poll budget spent on a feed that kept trickling. Return what we have
	// rather than abort the whole term.
	handles, err := sess.Locate(ctx, placeLinkSelector)
	if err != nil {
		return nil, Exhausted, err
	}
	if target > 0 && len(handles) > target {
		handles = handles[:target]
	}
	logger.Warn().
		Int("count", len(handles)).
		Int("max_polls", maxPolls).
		Msg("poll budget exhausted before results stabilized")
	return handles, Exhausted, nil
}
