package session

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// consent dialog buttons vary by locale; try the known ones.
var consentSelectors = []string{
	`button[aria-label="Accept all"]`,
	`button[aria-label="I agree"]`,
	`button[aria-label="Accept all cookies"]`,
	`button[jsname="b3VHJd"]`,
}

// Browser is the chromedp-backed Session. One Browser owns one Chrome tab;
// the scraper runs strictly sequentially against it.
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBrowser launches Chrome and returns a Session bound to a fresh tab.
// CHROME_PATH overrides the executable location.
func NewBrowser(parent context.Context, headless bool) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.UserAgent(userAgent),
	)
	if path := os.Getenv("CHROME_PATH"); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	// Start the browser process now so launch failures surface here
	// instead of on the first navigation.
	if err := chromedp.Run(ctx); err != nil {
		ctxCancel()
		allocCancel()
		return nil, fmt.Errorf("launching chrome: %w", err)
	}

	return &Browser{
		ctx: ctx,
		cancel: func() {
			ctxCancel()
			allocCancel()
		},
	}, nil
}

func (b *Browser) Close() {
	b.cancel()
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	err := b.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	b.dismissConsent(ctx)
	return nil
}

func (b *Browser) Locate(ctx context.Context, selector string) ([]Element, error) {
	var count int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	if err := b.run(ctx, chromedp.Evaluate(script, &count)); err != nil {
		return nil, fmt.Errorf("locating %q: %w", selector, err)
	}

	elements := make([]Element, count)
	for i := range elements {
		elements[i] = &browserElement{browser: b, selector: selector, index: i}
	}
	return elements, nil
}

func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := b.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return url, nil
}

func (b *Browser) ScrollFurther(ctx context.Context) error {
	// Google Maps renders results in a feed panel; fall back to the window
	// if it is not there yet.
	const script = `(function () {
		const panel = document.querySelector('div[role="feed"]');
		if (panel) {
			panel.scrollTop = panel.scrollHeight;
			return true;
		}
		window.scrollBy(0, 10000);
		return false;
	})()`
	var scrolled bool
	if err := b.run(ctx, chromedp.Evaluate(script, &scrolled)); err != nil {
		return fmt.Errorf("scrolling results: %w", err)
	}
	return nil
}

func (b *Browser) Settle(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.ctx.Done():
		return b.ctx.Err()
	}
}

// dismissConsent clicks through Google's consent dialog when it shows up.
// Best effort: absence of the dialog is the common case.
func (b *Browser) dismissConsent(ctx context.Context) {
	for _, sel := range consentSelectors {
		var clicked bool
		script := fmt.Sprintf(`(function () {
			const btn = document.querySelector(%q);
			if (btn) { btn.click(); return true; }
			return false;
		})()`, sel)
		if err := b.run(ctx, chromedp.Evaluate(script, &clicked)); err == nil && clicked {
			b.Settle(ctx, 1500*time.Millisecond)
			return
		}
	}
}

// run executes actions on the tab, honoring the caller's deadline.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := b.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(b.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// browserElement addresses the i-th match of a selector. Handles captured
// before a page mutation may go stale; callers treat failures as per-item
// errors, never as fatal.
type browserElement struct {
	browser  *Browser
	selector string
	index    int
}

func (e *browserElement) Text(ctx context.Context) (string, error) {
	script := fmt.Sprintf(`(function () {
		const el = document.querySelectorAll(%q)[%d];
		return el ? (el.innerText || el.textContent || '') : '';
	})()`, e.selector, e.index)
	var text string
	if err := e.browser.run(ctx, chromedp.Evaluate(script, &text)); err != nil {
		return "", fmt.Errorf("reading text of %q[%d]: %w", e.selector, e.index, err)
	}
	return strings.TrimSpace(text), nil
}

func (e *browserElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	script := fmt.Sprintf(`(function () {
		const el = document.querySelectorAll(%q)[%d];
		if (!el) return {value: "", ok: false};
		const v = el.getAttribute(%q);
		return v === null ? {value: "", ok: false} : {value: v, ok: true};
	})()`, e.selector, e.index, name)
	var res struct {
		Value string `json:"value"`
		OK    bool   `json:"ok"`
	}
	if err := e.browser.run(ctx, chromedp.Evaluate(script, &res)); err != nil {
		return "", false, fmt.Errorf("reading attribute %q of %q[%d]: %w", name, e.selector, e.index, err)
	}
	return res.Value, res.OK, nil
}

func (e *browserElement) Activate(ctx context.Context) error {
	script := fmt.Sprintf(`(function () {
		const el = document.querySelectorAll(%q)[%d];
		if (!el) return false;
		el.click();
		return true;
	})()`, e.selector, e.index)
	var clicked bool
	if err := e.browser.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("clicking %q[%d]: %w", e.selector, e.index, err)
	}
	if !clicked {
		return fmt.Errorf("clicking %q[%d]: handle is stale", e.selector, e.index)
	}
	return nil
}
