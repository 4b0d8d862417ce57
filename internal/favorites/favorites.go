// Package favorites keeps the bookmarked cities. A favorite is identified
// by its (name, country, latitude, longitude) value, never by a generated
// id, so cities built independently from a suggestion and from a snapshot
// de-duplicate against each other.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/i474232898/weather-app/internal/observe"
	"github.com/i474232898/weather-app/internal/store"
	"github.com/i474232898/weather-app/internal/weather"
)

// City is a bookmarked locality. Compare with ==.
type City struct {
	Name      string  `json:"name" validate:"required"`
	Country   string  `json:"country" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// FromSuggestion builds a favorite from a geocoding suggestion.
func FromSuggestion(s weather.LocationSuggestion) City {
	return City{Name: s.Name, Country: s.Country, Latitude: s.Latitude, Longitude: s.Longitude}
}

// FromLocation builds a favorite from a snapshot's resolved location.
func FromLocation(l weather.Location) City {
	return City{Name: l.Name, Country: l.Country, Latitude: l.Lat, Longitude: l.Lon}
}

// DisplayName returns "{name}, {country}".
func (c City) DisplayName() string {
	return fmt.Sprintf("%s, %s", c.Name, c.Country)
}

// Coordinates returns the "lat,lon" query form of the city.
func (c City) Coordinates() string {
	return weather.FormatCoordinates(c.Latitude, c.Longitude)
}

// Matches reports whether s describes this city.
func (c City) Matches(s weather.LocationSuggestion) bool {
	return c == FromSuggestion(s)
}

// Store is the persisted favorites list. Every successful mutation is
// saved under store.KeyFavoriteCities and then broadcast, as the complete
// list, to all subscribers. A failed save leaves both the in-memory and
// the published list untouched.
type Store struct {
	kv store.Store

	write sync.Mutex // serializes mutate-persist-publish

	mu     sync.RWMutex
	cities []City

	subject *observe.Subject[[]City]
}

// New loads the persisted favorites. A corrupt blob is logged and treated
// as an empty list; a backend failure is returned.
func New(ctx context.Context, kv store.Store) (*Store, error) {
	var cities []City
	if _, err := store.LoadJSON(ctx, kv, store.KeyFavoriteCities, &cities); err != nil {
		if !errors.Is(err, store.ErrCorrupt) {
			return nil, fmt.Errorf("load favorites: %w", err)
		}
		log.Printf("ERROR: discarding unreadable favorites: %v", err)
		cities = nil
	}
	cities = dedupe(cities)

	return &Store{
		kv:      kv,
		cities:  cities,
		subject: observe.New(clone(cities)),
	}, nil
}

// List returns a copy of the current favorites in insertion order.
func (s *Store) List() []City {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.cities)
}

// Add appends c unless an equal city is already stored. It reports whether
// c was added; on a persistence failure it returns false and the error.
func (s *Store) Add(ctx context.Context, c City) (bool, error) {
	s.write.Lock()
	defer s.write.Unlock()

	if s.IsFavorite(c) {
		return false, nil
	}

	next := append(s.List(), c)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops every entry equal to c. Removing an absent city still
// persists (and republishes) the unchanged list.
func (s *Store) Remove(ctx context.Context, c City) error {
	s.write.Lock()
	defer s.write.Unlock()

	current := s.List()
	next := current[:0]
	for _, existing := range current {
		if existing != c {
			next = append(next, existing)
		}
	}
	return s.commit(ctx, next)
}

// Clear removes all favorites.
func (s *Store) Clear(ctx context.Context) error {
	s.write.Lock()
	defer s.write.Unlock()

	return s.commit(ctx, []City{})
}

// IsFavorite reports whether a city equal to c is stored. No I/O.
func (s *Store) IsFavorite(c City) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.cities {
		if existing == c {
			return true
		}
	}
	return false
}

// IsFavoriteNamed reports whether any favorite has this name and country,
// whatever its coordinates. No I/O.
func (s *Store) IsFavoriteNamed(name, country string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.cities {
		if existing.Name == name && existing.Country == country {
			return true
		}
	}
	return false
}

// Subscribe registers fn for every published list, starting with the
// current one. Call the returned function to unsubscribe.
func (s *Store) Subscribe(fn func([]City)) func() {
	return s.subject.Subscribe(fn)
}

// commit persists next, then swaps it in and publishes it. Callers hold
// s.write.
func (s *Store) commit(ctx context.Context, next []City) error {
	if err := store.SaveJSON(ctx, s.kv, store.KeyFavoriteCities, next); err != nil {
		log.Printf("ERROR: saving favorites failed: %v", err)
		return fmt.Errorf("save favorites: %w", err)
	}

	s.mu.Lock()
	s.cities = next
	s.mu.Unlock()

	s.subject.Publish(clone(next))
	return nil
}

func clone(cities []City) []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

func dedupe(cities []City) []City {
	out := make([]City, 0, len(cities))
	seen := make(map[City]struct{}, len(cities))
	for _, c := range cities {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
