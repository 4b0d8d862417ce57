// Package viewmodel reconciles the services and stores into observable
// screen state: the debounced location search and the weather screen.
package viewmodel

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-app/internal/common"
	"github.com/i474232898/weather-app/internal/location"
	"github.com/i474232898/weather-app/internal/observe"
	"github.com/i474232898/weather-app/internal/recents"
	"github.com/i474232898/weather-app/internal/search"
	"github.com/i474232898/weather-app/internal/weather"
)

// MinQueryLength is the shortest trimmed input that triggers a lookup.
const MinQueryLength = 2

// Geocoder turns free text into location suggestions.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]weather.LocationSuggestion, error)
}

// Locator resolves the device position.
type Locator interface {
	RequestLocation(ctx context.Context) (location.Coordinate, error)
}

// SearchState is the published state of the search field.
type SearchState struct {
	Text         string                       `json:"text"`
	Suggestions  []weather.LocationSuggestion `json:"suggestions"`
	IsSearching  bool                         `json:"isSearching"`
	ErrorMessage string                       `json:"errorMessage,omitempty"`
}

// SearchModel drives location suggestions from a text field. Text changes
// are debounced; only the settled value reaches the geocoder. Each lookup
// carries a token and a delivery is dropped when a newer lookup (or a
// clearing short input) has started since.
//
// Subscribers run synchronously while the model is locked: they may call
// State but must not call the model's mutating methods.
type SearchModel struct {
	geocoder  Geocoder
	locator   Locator
	recents   *recents.List[weather.LocationSuggestion]
	debouncer *search.Debouncer[string]

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state SearchState
	token uint64

	subject *observe.Subject[SearchState]
}

// NewSearchModel wires a search model. quiet is the debounce interval;
// zero selects search.DefaultQuietPeriod. locator may be nil when the
// device location is unavailable.
func NewSearchModel(geocoder Geocoder, locator Locator, recentSearches *recents.List[weather.LocationSuggestion], quiet time.Duration) *SearchModel {
	ctx, cancel := context.WithCancel(context.Background())
	m := &SearchModel{
		geocoder: geocoder,
		locator:  locator,
		recents:  recentSearches,
		ctx:      ctx,
		cancel:   cancel,
		subject:  observe.New(SearchState{Suggestions: []weather.LocationSuggestion{}}),
	}
	m.debouncer = search.NewDebouncer(quiet, m.lookup)
	return m
}

// State returns the latest published state.
func (m *SearchModel) State() SearchState {
	return m.subject.Value()
}

// Subscribe registers fn for every state change, starting with the
// current state.
func (m *SearchModel) Subscribe(fn func(SearchState)) func() {
	return m.subject.Subscribe(fn)
}

// SetSearchText updates the field text and restarts the quiet period.
func (m *SearchModel) SetSearchText(text string) {
	m.mu.Lock()
	m.state.Text = text
	m.publishLocked()
	m.mu.Unlock()

	m.debouncer.Push(text)
}

// lookup runs on the debouncer's goroutine with a settled value.
func (m *SearchModel) lookup(text string) {
	query := strings.TrimSpace(text)

	m.mu.Lock()
	m.token++
	token := m.token
	if !common.HasMinRunes(query, MinQueryLength) {
		m.state.Suggestions = nil
		m.state.IsSearching = false
		m.publishLocked()
		m.mu.Unlock()
		return
	}
	m.state.IsSearching = true
	m.state.ErrorMessage = ""
	m.publishLocked()
	m.mu.Unlock()

	suggestions, err := m.geocoder.Search(m.ctx, query)

	m.mu.Lock()
	defer m.mu.Unlock()
	if token != m.token {
		log.Printf("DEBUG: dropping stale suggestions for %q", query)
		return
	}
	m.state.IsSearching = false
	if err != nil {
		log.Printf("ERROR: location search %q failed: %v", query, err)
		m.state.ErrorMessage = err.Error()
	} else {
		m.state.Suggestions = suggestions
	}
	m.publishLocked()
}

// UseCurrentLocation asks for the device position and, on success, puts
// its "lat,lon" form into the search text. Failures land in ErrorMessage.
func (m *SearchModel) UseCurrentLocation(ctx context.Context) error {
	if m.locator == nil {
		m.setError(location.ErrLocationDisabled.Error())
		return location.ErrLocationDisabled
	}
	coord, err := m.locator.RequestLocation(ctx)
	if err != nil {
		log.Printf("ERROR: device location: %v", err)
		m.setError(err.Error())
		return err
	}
	m.SetSearchText(coord.Query())
	return nil
}

// RecordSelection remembers a chosen suggestion in the recent searches.
func (m *SearchModel) RecordSelection(ctx context.Context, s weather.LocationSuggestion) error {
	if err := m.recents.Add(ctx, s); err != nil {
		m.setError("could not save recent search: " + err.Error())
		return err
	}
	return nil
}

// RecentSearches returns the recent selections, most recent first.
func (m *SearchModel) RecentSearches() []weather.LocationSuggestion {
	return m.recents.Items()
}

// Close stops the debouncer and cancels in-flight lookups.
func (m *SearchModel) Close() {
	m.debouncer.Stop()
	m.cancel()
}

func (m *SearchModel) setError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ErrorMessage = msg
	m.publishLocked()
}

func (m *SearchModel) publishLocked() {
	st := m.state
	st.Suggestions = make([]weather.LocationSuggestion, len(m.state.Suggestions))
	copy(st.Suggestions, m.state.Suggestions)
	m.subject.Publish(st)
}
