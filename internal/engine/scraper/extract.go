package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shayan4Ii/google-map-scraper/internal/engine/session"
	"github.com/shayan4Ii/google-map-scraper/internal/model"
)

// Detail pane selectors. Each field has its own independent query; a field
// missing from the pane never affects the others.
const (
	addressSelector = `button[data-item-id="address"] div[class*="fontBodyMedium"]`
	websiteSelector = `a[data-item-id="authority"] div[class*="fontBodyMedium"]`
	phoneSelector   = `button[data-item-id^="phone:tel:"] div[class*="fontBodyMedium"]`
	reviewsSelector = `button[jsaction="pane.reviewChart.moreReviews"] span`
	ratingSelector  = `div[jsaction="pane.reviewChart.moreReviews"] div[role="img"]`
)

const (
	panePollInterval = 500 * time.Millisecond
	panePollAttempts = 20
)

// extractBusiness activates one result handle, waits for the detail pane to
// reflect it, and reads the record fields. Any error fails only this place;
// the caller logs it and moves on.
func extractBusiness(ctx context.Context, sess session.Session, handle session.Element, query string) (model.Business, error) {
	urlBefore, err := sess.CurrentURL(ctx)
	if err != nil {
		return model.Business{}, err
	}

	if err := handle.Activate(ctx); err != nil {
		return model.Business{}, err
	}
	if err := awaitDetailPane(ctx, sess, urlBefore); err != nil {
		return model.Business{}, err
	}

	b := model.Business{Query: query}

	// The display label lives on the result card itself, not in the pane.
	if name, ok, err := handle.Attribute(ctx, "aria-label"); err == nil && ok {
		b.Name = strings.TrimSpace(name)
	}

	if b.Address, err = firstText(ctx, sess, addressSelector); err != nil {
		return model.Business{}, err
	}
	if b.Website, err = firstText(ctx, sess, websiteSelector); err != nil {
		return model.Business{}, err
	}
	if b.PhoneNumber, err = firstText(ctx, sess, phoneSelector); err != nil {
		return model.Business{}, err
	}

	if b.ReviewCount, err = extractReviewCount(ctx, sess); err != nil {
		return model.Business{}, err
	}
	if b.Rating, err = extractRating(ctx, sess); err != nil {
		return model.Business{}, err
	}

	url, err := sess.CurrentURL(ctx)
	if err != nil {
		return model.Business{}, err
	}
	lat, lng, err := ParseCoordinates(url)
	if err != nil {
		return model.Business{}, err
	}
	b.URL = url
	b.Lat = lat
	b.Lng = lng

	return b, nil
}

// awaitDetailPane polls until the page URL has moved to the activated
// place. This replaces a fixed sleep: it fails loudly with ErrSettleTimeout
// instead of silently reading fields off a stale pane.
func awaitDetailPane(ctx context.Context, sess session.Session, urlBefore string) error {
	for attempt := 0; attempt < panePollAttempts; attempt++ {
		url, err := sess.CurrentURL(ctx)
		if err != nil {
			return err
		}
		if url != urlBefore && strings.Contains(url, "/maps/place/") {
			return nil
		}
		if err := sess.Settle(ctx, panePollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: detail pane after %d attempts", ErrSettleTimeout, panePollAttempts)
}

// firstText returns the visible text of the selector's first match, or ""
// when the pane has no such element.
func firstText(ctx context.Context, sess session.Session, selector string) (string, error) {
	matches, err := sess.Locate(ctx, selector)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].Text(ctx)
}

func extractReviewCount(ctx context.Context, sess session.Session) (model.Optional[int], error) {
	matches, err := sess.Locate(ctx, reviewsSelector)
	if err != nil {
		return model.None[int](), err
	}
	if len(matches) == 0 {
		return model.None[int](), nil
	}
	text, err := matches[0].Text(ctx)
	if err != nil {
		return model.None[int](), err
	}

	count, err := parseReviewCount(text)
	if err != nil {
		return model.None[int](), err
	}
	return model.Some(count), nil
}

func extractRating(ctx context.Context, sess session.Session) (model.Optional[float64], error) {
	matches, err := sess.Locate(ctx, ratingSelector)
	if err != nil {
		return model.None[float64](), err
	}
	if len(matches) == 0 {
		return model.None[float64](), nil
	}
	label, ok, err := matches[0].Attribute(ctx, "aria-label")
	if err != nil {
		return model.None[float64](), err
	}
	if !ok {
		return model.None[float64](), nil
	}

	rating, err := parseRating(label)
	if err != nil {
		return model.None[float64](), err
	}
	return model.Some(rating), nil
}

// parseReviewCount reads the leading token of texts like "1,234 reviews",
// stripping thousands separators.
func parseReviewCount(text string) (int, error) {
	token := leadingToken(text)
	if token == "" {
		return 0, fmt.Errorf("empty review count text %q", text)
	}
	token = strings.ReplaceAll(token, ",", "")
	token = strings.ReplaceAll(token, ".", "")
	count, err := strconv.Atoi(token)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("unparseable review count %q", text)
	}
	return count, nil
}

// parseRating reads the leading token of labels like "4,5 stars",
// normalizing the decimal comma some locales use.
func parseRating(label string) (float64, error) {
	token := leadingToken(label)
	if token == "" {
		return 0, fmt.Errorf("empty rating label %q", label)
	}
	token = strings.ReplaceAll(token, ",", ".")
	rating, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable rating %q", label)
	}
	return rating, nil
}

func leadingToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
