package scraper

import "errors"

var (
	// ErrMalformedURL means a place URL carries no parseable @lat,lng
	// segment. Scoped to the single place being extracted.
	ErrMalformedURL = errors.New("malformed place URL: no @lat,lng segment")

	// ErrSettleTimeout means the page never reached the expected state
	// within the polling budget.
	ErrSettleTimeout = errors.New("page did not settle in time")
)
