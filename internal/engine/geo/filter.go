// Package geo filters extracted places by distance from a center point.
package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/shayan4Ii/google-map-scraper/internal/model"
)

// FilterNear keeps businesses within radiusKM of (lat, lng). Places at the
// zero coordinate are dropped: extraction guarantees real coordinates, so a
// 0,0 pair is a parsing artifact, not a location.
func FilterNear(businesses []model.Business, lat, lng, radiusKM float64) []model.Business {
	center := orb.Point{lng, lat} // orb.Point is [lng, lat]
	radiusMeters := radiusKM * 1000

	var kept []model.Business
	for _, b := range businesses {
		if b.Lat == 0 && b.Lng == 0 {
			continue
		}
		if orbgeo.Distance(center, orb.Point{b.Lng, b.Lat}) <= radiusMeters {
			kept = append(kept, b)
		}
	}
	return kept
}
