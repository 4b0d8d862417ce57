package viewmodel

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/i474232898/weather-app/internal/favorites"
	"github.com/i474232898/weather-app/internal/observe"
	"github.com/i474232898/weather-app/internal/recents"
	"github.com/i474232898/weather-app/internal/weather"
)

// Phase is the fetch lifecycle: Idle, then Loading, then Loaded or Error.
// A new fetch re-enters Loading from any phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*p = PhaseIdle
	case "loading":
		*p = PhaseLoading
	case "loaded":
		*p = PhaseLoaded
	case "error":
		*p = PhaseError
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// Fetcher loads weather snapshots.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (weather.Snapshot, error)
	DefaultLocation() string
}

// WeatherState is the published state of the weather screen. Snapshot is
// kept through Loading and Error so a stale result can stay on screen.
type WeatherState struct {
	Phase             Phase             `json:"phase"`
	Snapshot          *weather.Snapshot `json:"snapshot,omitempty"`
	SearchLocation    string            `json:"searchLocation"`
	IsCurrentFavorite bool              `json:"isCurrentFavorite"`
	ErrorMessage      string            `json:"errorMessage,omitempty"`
}

// WeatherModel owns the fetch lifecycle and keeps IsCurrentFavorite in
// step with both the snapshot and the favorites list.
//
// The model never holds its lock across favorites mutations; the store's
// subscribers run synchronously on the mutating goroutine. Read-only
// IsFavorite lookups under the lock are safe because the store publishes
// outside its own lock.
type WeatherModel struct {
	fetcher   Fetcher
	favorites *favorites.Store
	locations *recents.List[string]

	mu    sync.Mutex
	state WeatherState
	token uint64

	subject     *observe.Subject[WeatherState]
	unsubscribe func()
}

// NewWeatherModel wires a weather model. The search location starts at
// the fetcher's default locality.
func NewWeatherModel(fetcher Fetcher, favs *favorites.Store, recentLocations *recents.List[string]) *WeatherModel {
	m := &WeatherModel{
		fetcher:   fetcher,
		favorites: favs,
		locations: recentLocations,
		state:     WeatherState{SearchLocation: fetcher.DefaultLocation()},
	}
	m.subject = observe.New(m.state)
	m.unsubscribe = favs.Subscribe(func([]favorites.City) { m.reconcileFavorite() })
	return m
}

// State returns the latest published state.
func (m *WeatherModel) State() WeatherState {
	return m.subject.Value()
}

// Subscribe registers fn for every state change, starting with the
// current state. fn must not call the model's mutating methods.
func (m *WeatherModel) Subscribe(fn func(WeatherState)) func() {
	return m.subject.Subscribe(fn)
}

// SetSearchLocation sets the query used by Search.
func (m *WeatherModel) SetSearchLocation(q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SearchLocation = q
	m.publishLocked()
}

// Search fetches the current search location.
func (m *WeatherModel) Search(ctx context.Context) error {
	return m.Fetch(ctx, m.State().SearchLocation)
}

// Refresh re-fetches the displayed location by its coordinates, or the
// search location when nothing is displayed yet.
func (m *WeatherModel) Refresh(ctx context.Context) error {
	if snap := m.State().Snapshot; snap != nil {
		return m.Fetch(ctx, weather.FormatCoordinates(snap.Location.Lat, snap.Location.Lon))
	}
	return m.Search(ctx)
}

// Fetch loads weather for query. A result that arrives after a newer
// Fetch has started is returned to its caller but not applied.
func (m *WeatherModel) Fetch(ctx context.Context, query string) error {
	m.mu.Lock()
	m.token++
	token := m.token
	m.state.Phase = PhaseLoading
	m.state.ErrorMessage = ""
	m.publishLocked()
	m.mu.Unlock()

	snap, err := m.fetcher.Fetch(ctx, query)

	m.mu.Lock()
	if token != m.token {
		m.mu.Unlock()
		log.Printf("DEBUG: dropping stale weather for %q", query)
		return err
	}
	if err != nil {
		m.state.Phase = PhaseError
		m.state.ErrorMessage = err.Error()
		m.publishLocked()
		m.mu.Unlock()
		log.Printf("ERROR: weather fetch %q failed: %v", query, err)
		return err
	}
	m.state.Phase = PhaseLoaded
	m.state.Snapshot = &snap
	m.state.IsCurrentFavorite = m.favorites.IsFavorite(favorites.FromLocation(snap.Location))
	m.publishLocked()
	m.mu.Unlock()

	if err := m.locations.Add(ctx, snap.Location.Name); err != nil {
		m.setError("could not save recent location: " + err.Error())
	}
	return nil
}

// ToggleFavorite flips the favorite status of the displayed location and
// reports whether it is now a favorite. Without a snapshot it does nothing
// and returns false.
func (m *WeatherModel) ToggleFavorite(ctx context.Context) (bool, error) {
	snap := m.State().Snapshot
	if snap == nil {
		return false, nil
	}
	city := favorites.FromLocation(snap.Location)

	if m.favorites.IsFavorite(city) {
		if err := m.favorites.Remove(ctx, city); err != nil {
			m.setError("could not remove favorite: " + err.Error())
			return true, err
		}
		return false, nil
	}
	if _, err := m.favorites.Add(ctx, city); err != nil {
		m.setError("could not save favorite: " + err.Error())
		return false, err
	}
	return true, nil
}

// SelectFavorite displays a favorite by fetching its coordinates.
func (m *WeatherModel) SelectFavorite(ctx context.Context, c favorites.City) error {
	m.SetSearchLocation(c.Coordinates())
	return m.Search(ctx)
}

// AddFavorite bookmarks c. It reports false when an equal favorite
// already exists.
func (m *WeatherModel) AddFavorite(ctx context.Context, c favorites.City) (bool, error) {
	added, err := m.favorites.Add(ctx, c)
	if err != nil {
		m.setError("could not save favorite: " + err.Error())
	}
	return added, err
}

// AddFavoriteFromSuggestion bookmarks a search suggestion.
func (m *WeatherModel) AddFavoriteFromSuggestion(ctx context.Context, s weather.LocationSuggestion) (bool, error) {
	return m.AddFavorite(ctx, favorites.FromSuggestion(s))
}

// RemoveFavorite removes c from the favorites.
func (m *WeatherModel) RemoveFavorite(ctx context.Context, c favorites.City) error {
	if err := m.favorites.Remove(ctx, c); err != nil {
		m.setError("could not remove favorite: " + err.Error())
		return err
	}
	return nil
}

// ClearFavorites removes every favorite.
func (m *WeatherModel) ClearFavorites(ctx context.Context) error {
	if err := m.favorites.Clear(ctx); err != nil {
		m.setError("could not clear favorites: " + err.Error())
		return err
	}
	return nil
}

// Favorites returns the favorites in insertion order.
func (m *WeatherModel) Favorites() []favorites.City {
	return m.favorites.List()
}

// IsSuggestionFavorite reports whether s is bookmarked.
func (m *WeatherModel) IsSuggestionFavorite(s weather.LocationSuggestion) bool {
	return m.favorites.IsFavorite(favorites.FromSuggestion(s))
}

// RecentLocations returns recently displayed location names, most recent
// first.
func (m *WeatherModel) RecentLocations() []string {
	return m.locations.Items()
}

// Close detaches the model from the favorites store.
func (m *WeatherModel) Close() {
	m.unsubscribe()
}

func (m *WeatherModel) reconcileFavorite() {
	m.mu.Lock()
	defer m.mu.Unlock()

	fav := false
	if m.state.Snapshot != nil {
		fav = m.favorites.IsFavorite(favorites.FromLocation(m.state.Snapshot.Location))
	}
	if fav == m.state.IsCurrentFavorite {
		return
	}
	m.state.IsCurrentFavorite = fav
	m.publishLocked()
}

func (m *WeatherModel) setError(msg string) {
	log.Printf("ERROR: %s", msg)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ErrorMessage = msg
	m.publishLocked()
}

func (m *WeatherModel) publishLocked() {
	m.subject.Publish(m.state)
}
