package scraper

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCoordinates extracts latitude and longitude from a Google Maps place
// URL. The canonical form embeds them after the "/@" marker:
//
//	https://www.google.com/maps/place/Foo/@12.345,-98.765,15z/data=...
//
// Anything after the second comma (zoom, tilt) is ignored.
func ParseCoordinates(rawURL string) (lat, lng float64, err error) {
	_, after, found := strings.Cut(rawURL, "/@")
	if !found {
		return 0, 0, fmt.Errorf("%w: %s", ErrMalformedURL, rawURL)
	}
	if idx := strings.IndexByte(after, '/'); idx >= 0 {
		after = after[:idx]
	}

	parts := strings.Split(after, ",")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMalformedURL, rawURL)
	}

	lat, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad latitude %q", ErrMalformedURL, parts[0])
	}
	lng, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad longitude %q", ErrMalformedURL, parts[1])
	}
	return lat, lng, nil
}
