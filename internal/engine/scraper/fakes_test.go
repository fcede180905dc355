package scraper

import (
	"context"
	"time"

	"github.com/shayan4Ii/google-map-scraper/internal/engine/session"
)

// fakeSession scripts the page the engine sees. Locate on the result-link
// selector replays counts (repeating the last one); every other selector is
// answered from the fields map.
type fakeSession struct {
	counts  []int
	handles []*fakeElement
	fields  map[string][]session.Element

	url       string
	navigated []string
	navErr    error
	scrollErr error

	locates int
	scrolls int
	settles int
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return s.navErr
}

func (s *fakeSession) Locate(_ context.Context, selector string) ([]session.Element, error) {
	if selector != placeLinkSelector {
		return s.fields[selector], nil
	}

	idx := s.locates
	if idx >= len(s.counts) {
		idx = len(s.counts) - 1
	}
	s.locates++

	n := 0
	if idx >= 0 {
		n = s.counts[idx]
	}
	elements := make([]session.Element, n)
	for i := range elements {
		if i < len(s.handles) {
			elements[i] = s.handles[i]
		} else {
			elements[i] = &fakeElement{}
		}
	}
	return elements, nil
}

func (s *fakeSession) CurrentURL(context.Context) (string, error) {
	return s.url, nil
}

func (s *fakeSession) ScrollFurther(context.Context) error {
	s.scrolls++
	return s.scrollErr
}

func (s *fakeSession) Settle(context.Context, time.Duration) error {
	s.settles++
	return nil
}

type fakeElement struct {
	text        string
	attrs       map[string]string
	activateErr error
	onActivate  func()
}

func (e *fakeElement) Text(context.Context) (string, error) {
	return e.text, nil
}

func (e *fakeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) Activate(context.Context) error {
	if e.activateErr != nil {
		return e.activateErr
	}
	if e.onActivate != nil {
		e.onActivate()
	}
	return nil
}
