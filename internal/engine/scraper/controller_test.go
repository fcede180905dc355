package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shayan4Ii/google-map-scraper/internal/model"
)

type fakeStore struct {
	batches [][]model.Business
	err     error
}

func (s *fakeStore) InsertBatch(businesses []model.Business) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, businesses)
	return len(businesses), nil
}

type fakeExporter struct {
	queries []string
	batches [][]model.Business
	err     error
}

func (e *fakeExporter) ExportQuery(query string, businesses []model.Business) error {
	if e.err != nil {
		return e.err
	}
	e.queries = append(e.queries, query)
	e.batches = append(e.batches, businesses)
	return nil
}

// placeHandles builds result cards whose activation moves the fake page to a
// distinct place URL, so the detail-pane wait sees real navigation.
func placeHandles(sess *fakeSession, names ...string) []*fakeElement {
	handles := make([]*fakeElement, len(names))
	for i, name := range names {
		url := fmt.Sprintf("https://www.google.com/maps/place/%s/@%d.5,%d.5,15z", name, i+1, i+1)
		handles[i] = &fakeElement{
			attrs:      map[string]string{"aria-label": name},
			onActivate: placeURL(sess, url),
		}
	}
	return handles
}

func TestRunSkipsFailedPlace(t *testing.T) {
	sess := &fakeSession{url: searchURL, counts: []int{5}}
	sess.handles = placeHandles(sess, "A", "B", "C", "D", "E")
	sess.handles[2].activateErr = errors.New("node detached")
	sess.handles[2].onActivate = nil

	store := &fakeStore{}
	exporter := &fakeExporter{}
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	params := model.SearchParams{Queries: []string{"coffee"}, Target: 5}
	stats, err := Run(context.Background(), sess, params, store, exporter, logger, nil)
	require.NoError(t, err)

	require.Len(t, exporter.batches, 1)
	got := exporter.batches[0]
	require.Len(t, got, 4, "the broken place must not abort its neighbors")
	names := make([]string, len(got))
	for i, b := range got {
		names[i] = b.Name
	}
	assert.Equal(t, []string{"A", "B", "D", "E"}, names, "survivors keep discovery order")

	assert.EqualValues(t, 1, stats.QueriesDone.Load())
	assert.EqualValues(t, 5, stats.Discovered.Load())
	assert.EqualValues(t, 4, stats.Extracted.Load())
	assert.EqualValues(t, 1, stats.Skipped.Load())

	assert.Equal(t, 1, strings.Count(buf.String(), "skipping place"))
	assert.Contains(t, buf.String(), "node detached")
}

func TestRunSequentialQueries(t *testing.T) {
	sess := &fakeSession{url: searchURL, counts: []int{2}}
	sess.handles = placeHandles(sess, "First", "Second")

	exporter := &fakeExporter{}
	var seen []string
	opts := &RunOptions{OnBatch: func(query string, businesses []model.Business) {
		seen = append(seen, fmt.Sprintf("%s:%d", query, len(businesses)))
	}}

	params := model.SearchParams{Queries: []string{"coffee shop", "tea house"}, Target: 2}
	stats, err := Run(context.Background(), sess, params, &fakeStore{}, exporter, zerolog.Nop(), opts)
	require.NoError(t, err)

	// One search page per term, visited in input order.
	assert.Equal(t, []string{
		"https://www.google.com/maps/search/coffee+shop",
		"https://www.google.com/maps/search/tea+house",
	}, sess.navigated)

	// A term is fully exported before the next begins.
	assert.Equal(t, []string{"coffee shop", "tea house"}, exporter.queries)
	assert.Equal(t, []string{"coffee shop:2", "tea house:2"}, seen)
	assert.EqualValues(t, 2, stats.QueriesDone.Load())
	assert.EqualValues(t, 4, stats.Extracted.Load())

	for _, batch := range exporter.batches {
		require.Len(t, batch, 2)
		assert.Equal(t, batch[0].Query, batch[1].Query)
	}
}

func TestRunLangParameter(t *testing.T) {
	sess := &fakeSession{url: searchURL, counts: []int{0}}

	params := model.SearchParams{Queries: []string{"cafe"}, Lang: "de"}
	_, err := Run(context.Background(), sess, params, nil, nil, zerolog.Nop(), nil)
	require.NoError(t, err)

	require.Len(t, sess.navigated, 1)
	assert.Equal(t, "https://www.google.com/maps/search/cafe?hl=de", sess.navigated[0])
}

func TestRunNavigationFailureAborts(t *testing.T) {
	sess := &fakeSession{url: searchURL, navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	params := model.SearchParams{Queries: []string{"coffee"}}
	_, err := Run(context.Background(), sess, params, nil, &fakeExporter{}, zerolog.Nop(), nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, `opening search for "coffee"`)
}

func TestRunStoreFailureIsNotFatal(t *testing.T) {
	sess := &fakeSession{url: searchURL, counts: []int{1}}
	sess.handles = placeHandles(sess, "Solo")

	store := &fakeStore{err: errors.New("disk full")}
	exporter := &fakeExporter{}
	var buf bytes.Buffer

	params := model.SearchParams{Queries: []string{"coffee"}, Target: 1}
	_, err := Run(context.Background(), sess, params, store, exporter, zerolog.New(&buf), nil)
	require.NoError(t, err, "export still runs when persistence fails")

	assert.Equal(t, []string{"coffee"}, exporter.queries)
	assert.Contains(t, buf.String(), "storing batch")
}

func TestRunExportFailureAborts(t *testing.T) {
	sess := &fakeSession{url: searchURL, counts: []int{1}}
	sess.handles = placeHandles(sess, "Solo")

	exporter := &fakeExporter{err: errors.New("permission denied")}
	params := model.SearchParams{Queries: []string{"coffee"}, Target: 1}
	_, err := Run(context.Background(), sess, params, nil, exporter, zerolog.Nop(), nil)
	assert.ErrorContains(t, err, `exporting "coffee"`)
}

func TestRunGeoFilter(t *testing.T) {
	sess := &fakeSession{url: searchURL, counts: []int{2}}
	sess.handles = []*fakeElement{
		{
			attrs:      map[string]string{"aria-label": "Near"},
			onActivate: placeURL(sess, "https://www.google.com/maps/place/Near/@52.52,13.405,15z"),
		},
		{
			attrs:      map[string]string{"aria-label": "Far"},
			onActivate: placeURL(sess, "https://www.google.com/maps/place/Far/@48.8566,2.3522,15z"),
		},
	}

	exporter := &fakeExporter{}
	params := model.SearchParams{
		Queries:  []string{"coffee"},
		Target:   2,
		NearLat:  52.52,
		NearLng:  13.405,
		RadiusKM: 50,
	}
	_, err := Run(context.Background(), sess, params, nil, exporter, zerolog.Nop(), nil)
	require.NoError(t, err)

	require.Len(t, exporter.batches, 1)
	require.Len(t, exporter.batches[0], 1)
	assert.Equal(t, "Near", exporter.batches[0][0].Name)
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := &fakeSession{url: searchURL, counts: []int{5}}
	stats, err := Run(ctx, sess, model.SearchParams{Queries: []string{"coffee"}}, nil, nil, zerolog.Nop(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, stats.QueriesDone.Load())
	assert.Empty(t, sess.navigated)
}
