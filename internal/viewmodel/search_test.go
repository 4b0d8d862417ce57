package viewmodel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-app/internal/location"
	"github.com/i474232898/weather-app/internal/weather"
)

const quiet = 20 * time.Millisecond

type fakeGeocoder struct {
	mu      sync.Mutex
	queries []string
	err     error
	result  []weather.LocationSuggestion
}

func (g *fakeGeocoder) Search(_ context.Context, q string) ([]weather.LocationSuggestion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, q)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *fakeGeocoder) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.queries...)
}

func (g *fakeGeocoder) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

type fakeLocator struct {
	coord location.Coordinate
	err   error
}

func (l fakeLocator) RequestLocation(context.Context) (location.Coordinate, error) {
	return l.coord, l.err
}

func TestLondYieldsSuggestions(t *testing.T) {
	h := newHarness(t)
	up := newUpstream(t)
	m := NewSearchModel(up.service(), nil, h.searches, quiet)
	defer m.Close()

	m.SetSearchText("Lond")
	waitFor(t, "suggestions", func() bool {
		st := m.State()
		return len(st.Suggestions) > 0 && !st.IsSearching
	})

	for _, s := range m.State().Suggestions {
		if s.DisplayName() != s.Name+", "+s.Country {
			t.Fatalf("unexpected display name %q", s.DisplayName())
		}
	}
	if m.State().Suggestions[0].DisplayName() != "London, United Kingdom" {
		t.Fatalf("unexpected first suggestion %+v", m.State().Suggestions[0])
	}
	if n := up.searches.Load(); n != 1 {
		t.Fatalf("expected one upstream lookup, got %d", n)
	}
}

func TestRapidTypingTriggersOneLookup(t *testing.T) {
	g := &fakeGeocoder{result: []weather.LocationSuggestion{weather.NewSuggestion("Paris", "", "France", 48.87, 2.33)}}
	m := NewSearchModel(g, nil, newHarness(t).searches, quiet)
	defer m.Close()

	for _, text := range []string{"P", "Pa", "Par", "Pari", "Paris"} {
		m.SetSearchText(text)
		time.Sleep(quiet / 4)
	}
	waitFor(t, "lookup", func() bool { return len(m.State().Suggestions) == 1 })
	time.Sleep(3 * quiet)

	if got := g.calls(); len(got) != 1 || got[0] != "Paris" {
		t.Fatalf("expected a single lookup for Paris, got %v", got)
	}
	if m.State().Text != "Paris" {
		t.Fatalf("unexpected text %q", m.State().Text)
	}
}

func TestShortInputClearsWithoutLookup(t *testing.T) {
	g := &fakeGeocoder{result: []weather.LocationSuggestion{weather.NewSuggestion("Rome", "Lazio", "Italy", 41.9, 12.48)}}
	m := NewSearchModel(g, nil, newHarness(t).searches, quiet)
	defer m.Close()

	m.SetSearchText("Rome")
	waitFor(t, "suggestions", func() bool { return len(m.State().Suggestions) == 1 })

	m.SetSearchText(" R ")
	waitFor(t, "cleared suggestions", func() bool { return len(m.State().Suggestions) == 0 })

	if got := g.calls(); len(got) != 1 {
		t.Fatalf("expected short input to skip the geocoder, got %v", got)
	}
}

func TestLookupErrorKeepsSuggestions(t *testing.T) {
	g := &fakeGeocoder{result: []weather.LocationSuggestion{weather.NewSuggestion("Rome", "Lazio", "Italy", 41.9, 12.48)}}
	m := NewSearchModel(g, nil, newHarness(t).searches, quiet)
	defer m.Close()

	m.SetSearchText("Rome")
	waitFor(t, "suggestions", func() bool { return len(m.State().Suggestions) == 1 })

	g.fail(&weather.Error{Kind: weather.KindNetwork, Err: errors.New("offline")})
	m.SetSearchText("Romeo")
	waitFor(t, "error message", func() bool { return m.State().ErrorMessage != "" })

	st := m.State()
	if st.IsSearching {
		t.Fatal("expected isSearching to reset after failure")
	}
	if len(st.Suggestions) != 1 || st.Suggestions[0].Name != "Rome" {
		t.Fatalf("expected previous suggestions to remain, got %v", st.Suggestions)
	}
}

func TestUseCurrentLocation(t *testing.T) {
	g := &fakeGeocoder{}
	m := NewSearchModel(g, fakeLocator{coord: location.Coordinate{Latitude: 41.9, Longitude: 12.48}}, newHarness(t).searches, quiet)
	defer m.Close()

	if err := m.UseCurrentLocation(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.State().Text != "41.9,12.48" {
		t.Fatalf("unexpected text %q", m.State().Text)
	}
	waitFor(t, "coordinate lookup", func() bool {
		got := g.calls()
		return len(got) == 1 && got[0] == "41.9,12.48"
	})
}

func TestUseCurrentLocationErrors(t *testing.T) {
	tests := []struct {
		name    string
		locator Locator
		want    error
	}{
		{"denied", fakeLocator{err: location.ErrAccessDenied}, location.ErrAccessDenied},
		{"unavailable", fakeLocator{err: location.ErrUnableToGetLocation}, location.ErrUnableToGetLocation},
		{"no locator", nil, location.ErrLocationDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSearchModel(&fakeGeocoder{}, tt.locator, newHarness(t).searches, quiet)
			defer m.Close()

			err := m.UseCurrentLocation(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if m.State().ErrorMessage != tt.want.Error() {
				t.Fatalf("unexpected message %q", m.State().ErrorMessage)
			}
			if m.State().Text != "" {
				t.Fatal("expected search text untouched")
			}
		})
	}
}

func TestRecordSelection(t *testing.T) {
	h := newHarness(t)
	m := NewSearchModel(&fakeGeocoder{}, nil, h.searches, quiet)
	defer m.Close()
	ctx := context.Background()

	london := weather.NewSuggestion("London", "", "United Kingdom", 51.52, -0.11)
	paris := weather.NewSuggestion("Paris", "", "France", 48.87, 2.33)
	_ = m.RecordSelection(ctx, london)
	_ = m.RecordSelection(ctx, paris)
	_ = m.RecordSelection(ctx, london)

	got := m.RecentSearches()
	if len(got) != 2 || got[0].Name != "London" || got[1].Name != "Paris" {
		t.Fatalf("unexpected recents %v", got)
	}

	h.kv.fail.Store(true)
	if err := m.RecordSelection(ctx, weather.NewSuggestion("Oslo", "", "Norway", 59.91, 10.75)); err == nil {
		t.Fatal("expected persistence failure")
	}
	if m.State().ErrorMessage == "" || len(m.RecentSearches()) != 2 {
		t.Fatal("expected message and unchanged recents")
	}
}
