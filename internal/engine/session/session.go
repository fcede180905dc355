// Package session abstracts the single shared browser page the scraper
// drives. The engine only ever talks to these two interfaces, so tests can
// substitute fakes and the chromedp wiring stays in one place.
package session

import (
	"context"
	"time"
)

// Session is one logical browser page. All operations are blocking and the
// page is a single stateful resource: there is exactly one current URL at a
// time, and every call may observe side effects of earlier ones.
type Session interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Locate returns handles for every current match of the CSS selector.
	// Zero matches is not an error.
	Locate(ctx context.Context, selector string) ([]Element, error)
	// CurrentURL reports the page's current location.
	CurrentURL(ctx context.Context) (string, error)
	// ScrollFurther scrolls the results panel toward its end so more
	// results load.
	ScrollFurther(ctx context.Context) error
	// Settle blocks for d, or until ctx is done.
	Settle(ctx context.Context, d time.Duration) error
}

// Element is an opaque handle to one located node. Handles index into the
// live DOM: they stay valid only while the page content they were located
// in is still rendered.
type Element interface {
	// Text returns the node's visible text, trimmed.
	Text(ctx context.Context) (string, error)
	// Attribute returns the named attribute and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// Activate clicks the node.
	Activate(ctx context.Context) error
}
