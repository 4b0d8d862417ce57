package weather

import (
	"context"
	"log"
	"strings"
)

// Service is the weather fetch and location lookup entry point used by the
// view-models. It performs no caching and no retries: every call is a fresh
// upstream request and the caller decides whether to try again.
type Service struct {
	provider        Provider
	geocoder        Geocoder
	defaultLocation string
}

// NewService creates a new Service. Empty fetch queries resolve to
// defaultLocation.
func NewService(provider Provider, geocoder Geocoder, defaultLocation string) *Service {
	return &Service{
		provider:        provider,
		geocoder:        geocoder,
		defaultLocation: defaultLocation,
	}
}

// DefaultLocation returns the fallback locality for empty queries.
func (s *Service) DefaultLocation() string {
	return s.defaultLocation
}

// Fetch returns the current conditions and a ForecastDays-day forecast for
// query. Failures are always *Error values.
func (s *Service) Fetch(ctx context.Context, query string) (Snapshot, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		q = s.defaultLocation
	}

	log.Printf("DEBUG: Fetch called for %q via %s", q, s.provider.Name())
	snap, err := s.provider.Forecast(ctx, q, ForecastDays)
	if err != nil {
		log.Printf("ERROR: fetch failed for %q: %v", q, err)
		return Snapshot{}, err
	}
	return snap, nil
}

// Search resolves partial input into suggestions. Blank input yields no
// suggestions without calling the upstream.
func (s *Service) Search(ctx context.Context, query string) ([]LocationSuggestion, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	suggestions, err := s.geocoder.Search(ctx, q)
	if err != nil {
		log.Printf("ERROR: location search failed for %q: %v", q, err)
		return nil, err
	}
	return suggestions, nil
}
