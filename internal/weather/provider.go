package weather

import (
	"context"
)

// Provider abstracts the forecast endpoint. query is free text, a "lat,lon"
// pair, or anything else the upstream accepts as a location.
type Provider interface {
	Name() string
	Forecast(ctx context.Context, query string, days int) (Snapshot, error)
}

// Geocoder resolves partial text into location suggestions.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]LocationSuggestion, error)
}
