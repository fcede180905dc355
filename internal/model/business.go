package model

import "time"

// Business represents one place scraped from Google Maps.
// Lat, Lng and URL are mandatory: extraction rejects a place without them.
// Everything else is best-effort and may legitimately be absent.
type Business struct {
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	Website     string            `json:"website"`
	PhoneNumber string            `json:"phone_number"`
	ReviewCount Optional[int]     `json:"reviews_count"`
	Rating      Optional[float64] `json:"reviews_average"`
	Lat         float64           `json:"latitude"`
	Lng         float64           `json:"longitude"`
	URL         string            `json:"url"`
	Query       string            `json:"query"`
}

// SearchParams holds all configuration for a scraping session.
type SearchParams struct {
	Queries []string
	Target  int // max places per query; 0 = collect everything

	OutputDir string
	DBPath    string

	Headless   bool
	SettleWait time.Duration // wait after each scroll/activation
	MaxPolls   int           // hard ceiling on discovery poll iterations
	Lang       string        // hl parameter

	// Optional geographic filter on extracted places.
	NearLat  float64
	NearLng  float64
	RadiusKM float64

	Debug bool
}

func (p *SearchParams) HasGeoFilter() bool {
	return p.RadiusKM > 0 && (p.NearLat != 0 || p.NearLng != 0)
}
