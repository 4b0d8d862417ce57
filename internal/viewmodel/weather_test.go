package viewmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/i474232898/weather-app/internal/favorites"
	"github.com/i474232898/weather-app/internal/weather"
)

func TestFetchRomeAndToggleFavorite(t *testing.T) {
	h := newHarness(t)
	m := NewWeatherModel(newUpstream(t).service(), h.favorites, h.locations)
	defer m.Close()
	ctx := context.Background()

	if err := m.Fetch(ctx, "Rome"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	st := m.State()
	if st.Phase != PhaseLoaded || st.Snapshot == nil {
		t.Fatalf("expected loaded state, got %+v", st)
	}
	if st.Snapshot.Location.Name != "Rome" || len(st.Snapshot.Forecast) != weather.ForecastDays {
		t.Fatalf("unexpected snapshot %+v", st.Snapshot.Location)
	}
	if st.IsCurrentFavorite {
		t.Fatal("expected Rome not to be a favorite yet")
	}

	now, err := m.ToggleFavorite(ctx)
	if err != nil || !now {
		t.Fatalf("expected toggle to add, got %v %v", now, err)
	}
	want := favorites.City{Name: "Rome", Country: "Italy", Latitude: 41.9, Longitude: 12.48}
	if got := h.favorites.List(); len(got) != 1 || got[0] != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !m.State().IsCurrentFavorite {
		t.Fatal("expected favorite flag to follow the store")
	}

	now, err = m.ToggleFavorite(ctx)
	if err != nil || now {
		t.Fatalf("expected toggle to remove, got %v %v", now, err)
	}
	if len(h.favorites.List()) != 0 || h.favorites.IsFavorite(want) || m.State().IsCurrentFavorite {
		t.Fatal("expected Rome to be gone from favorites")
	}

	if got := m.RecentLocations(); len(got) != 1 || got[0] != "Rome" {
		t.Fatalf("expected Rome in recent locations, got %v", got)
	}
}

func TestToggleWithoutSnapshotIsNoop(t *testing.T) {
	h := newHarness(t)
	m := NewWeatherModel(newScriptedFetcher(), h.favorites, h.locations)
	defer m.Close()

	now, err := m.ToggleFavorite(context.Background())
	if err != nil || now {
		t.Fatalf("expected no-op false, got %v %v", now, err)
	}
	if len(h.favorites.List()) != 0 {
		t.Fatal("expected no favorites")
	}
}

func TestSearchUsesSearchLocation(t *testing.T) {
	h := newHarness(t)
	f := newScriptedFetcher()
	f.results["Rome"] = snapshotFor("Rome", "Italy", 41.9, 12.48)
	f.results["Oslo"] = snapshotFor("Oslo", "Norway", 59.91, 10.75)
	m := NewWeatherModel(f, h.favorites, h.locations)
	defer m.Close()
	ctx := context.Background()

	if m.State().SearchLocation != "Rome" || m.State().Phase != PhaseIdle {
		t.Fatalf("unexpected initial state %+v", m.State())
	}
	_ = m.Search(ctx)
	m.SetSearchLocation("Oslo")
	_ = m.Search(ctx)

	if got := m.State().Snapshot.Location.Name; got != "Oslo" {
		t.Fatalf("expected Oslo, got %s", got)
	}
	if got := m.RecentLocations(); len(got) != 2 || got[0] != "Oslo" {
		t.Fatalf("unexpected recents %v", got)
	}
}

func TestFetchErrorKeepsPreviousSnapshot(t *testing.T) {
	h := newHarness(t)
	f := newScriptedFetcher()
	f.results["Rome"] = snapshotFor("Rome", "Italy", 41.9, 12.48)
	f.errs["Atlantis"] = &weather.Error{Kind: weather.KindInvalidResponse, StatusCode: 400}
	m := NewWeatherModel(f, h.favorites, h.locations)
	defer m.Close()
	ctx := context.Background()

	_ = m.Fetch(ctx, "Rome")
	err := m.Fetch(ctx, "Atlantis")
	if !errors.Is(err, weather.ErrInvalidResponse) {
		t.Fatalf("expected invalid response, got %v", err)
	}

	st := m.State()
	if st.Phase != PhaseError || st.ErrorMessage == "" {
		t.Fatalf("expected error state, got %+v", st)
	}
	if st.Snapshot == nil || st.Snapshot.Location.Name != "Rome" {
		t.Fatal("expected the stale snapshot to remain")
	}
	if got := m.RecentLocations(); len(got) != 1 {
		t.Fatalf("expected failed fetch not to be recorded, got %v", got)
	}
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	h := newHarness(t)
	f := newScriptedFetcher()
	f.results["Rome"] = snapshotFor("Rome", "Italy", 41.9, 12.48)
	f.results["Paris"] = snapshotFor("Paris", "France", 48.87, 2.33)
	release := make(chan struct{})
	f.block["Rome"] = release
	m := NewWeatherModel(f, h.favorites, h.locations)
	defer m.Close()
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- m.Fetch(ctx, "Rome") }()
	waitFor(t, "slow fetch to start", func() bool { return m.State().Phase == PhaseLoading })

	if err := m.Fetch(ctx, "Paris"); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if got := m.State().Snapshot.Location.Name; got != "Paris" {
		t.Fatalf("expected later request to win, got %s", got)
	}
	if got := m.RecentLocations(); len(got) != 1 || got[0] != "Paris" {
		t.Fatalf("expected only Paris recorded, got %v", got)
	}
}

func TestFavoriteFlagFollowsStoreChanges(t *testing.T) {
	h := newHarness(t)
	f := newScriptedFetcher()
	f.results["Rome"] = snapshotFor("Rome", "Italy", 41.9, 12.48)
	m := NewWeatherModel(f, h.favorites, h.locations)
	defer m.Close()
	ctx := context.Background()
	_ = m.Fetch(ctx, "Rome")

	suggestion := weather.NewSuggestion("Rome", "Lazio", "Italy", 41.9, 12.48)
	added, err := m.AddFavoriteFromSuggestion(ctx, suggestion)
	if err != nil || !added {
		t.Fatalf("expected add, got %v %v", added, err)
	}
	if !m.State().IsCurrentFavorite || !m.IsSuggestionFavorite(suggestion) {
		t.Fatal("expected suggestion favorite to mark the displayed city")
	}
	if added, _ := m.AddFavoriteFromSuggestion(ctx, suggestion); added {
		t.Fatal("expected duplicate suggestion to be rejected")
	}

	if err := m.ClearFavorites(ctx); err != nil {
		t.Fatal(err)
	}
	if m.State().IsCurrentFavorite || m.IsSuggestionFavorite(suggestion) {
		t.Fatal("expected clear to reset favorite state")
	}
}

func TestSelectFavoriteFetchesCoordinates(t *testing.T) {
	h := newHarness(t)
	f := newScriptedFetcher()
	f.results["59.91,10.75"] = snapshotFor("Oslo", "Norway", 59.91, 10.75)
	m := NewWeatherModel(f, h.favorites, h.locations)
	defer m.Close()

	oslo := favorites.City{Name: "Oslo", Country: "Norway", Latitude: 59.91, Longitude: 10.75}
	if err := m.SelectFavorite(context.Background(), oslo); err != nil {
		t.Fatal(err)
	}
	if m.State().SearchLocation != "59.91,10.75" || m.State().Snapshot.Location.Name != "Oslo" {
		t.Fatalf("unexpected state %+v", m.State())
	}
}

func TestRefreshUsesDisplayedCoordinates(t *testing.T) {
	h := newHarness(t)
	f := newScriptedFetcher()
	f.results["Rome"] = snapshotFor("Rome", "Italy", 41.9, 12.48)
	f.results["41.9,12.48"] = snapshotFor("Rome", "Italy", 41.9, 12.48)
	m := NewWeatherModel(f, h.favorites, h.locations)
	defer m.Close()
	ctx := context.Background()

	_ = m.Refresh(ctx)
	_ = m.Refresh(ctx)
	if len(f.queries) != 2 || f.queries[0] != "Rome" || f.queries[1] != "41.9,12.48" {
		t.Fatalf("unexpected queries %v", f.queries)
	}
}

func TestPersistenceFailureSurfacesMessage(t *testing.T) {
	h := newHarness(t)
	f := newScriptedFetcher()
	f.results["Rome"] = snapshotFor("Rome", "Italy", 41.9, 12.48)
	m := NewWeatherModel(f, h.favorites, h.locations)
	defer m.Close()
	ctx := context.Background()
	_ = m.Fetch(ctx, "Rome")

	h.kv.fail.Store(true)
	now, err := m.ToggleFavorite(ctx)
	if err == nil || now {
		t.Fatalf("expected failed toggle, got %v %v", now, err)
	}
	st := m.State()
	if st.IsCurrentFavorite || st.ErrorMessage == "" {
		t.Fatalf("expected rollback with message, got %+v", st)
	}
	if len(h.favorites.List()) != 0 {
		t.Fatal("expected favorites unchanged")
	}
}

func TestDisplayAccessors(t *testing.T) {
	h := newHarness(t)
	m := NewWeatherModel(newUpstream(t).service(), h.favorites, h.locations)
	defer m.Close()

	for name, got := range map[string]string{
		"temperature": m.CurrentTemperature(),
		"humidity":    m.Humidity(),
		"wind":        m.WindSpeed(),
		"rain":        m.ChanceOfRain(),
		"local time":  m.LocalTime(),
	} {
		if got != NotAvailable {
			t.Errorf("%s: expected %q before loading, got %q", name, NotAvailable, got)
		}
	}
	if !m.IsDaytime() || m.ConditionIconURL() != "" || len(m.HourlyForecast()) != 0 {
		t.Fatal("unexpected defaults without snapshot")
	}

	if err := m.Fetch(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"temperature", m.CurrentTemperature(), "18.3°C"},
		{"feels like", m.FeelsLike(), "18.3°C"},
		{"humidity", m.Humidity(), "52%"},
		{"wind speed", m.WindSpeed(), "13.7 km/h"},
		{"wind direction", m.WindDirection(), "WSW"},
		{"chance of rain", m.ChanceOfRain(), "0%"},
		{"uv", m.UVIndex(), "4.2"},
		{"condition", m.ConditionText(), "Sunny"},
		{"icon", m.ConditionIconURL(), "https://cdn.weatherapi.com/weather/64x64/day/113.png"},
		{"local time", m.LocalTime(), "Saturday, 22 March, 14:25"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, tt.got)
		}
	}
	if m.ConditionCategory() != weather.CategoryClear || !m.IsDaytime() {
		t.Fatal("unexpected condition category or daytime flag")
	}
	if len(m.ForecastDays()) != 3 || len(m.HourlyForecast()) != 2 {
		t.Fatal("unexpected forecast shape")
	}

	d := m.Display()
	if d.Location != "Rome, Italy" || d.Temperature != "18.3°C" || d.IsFavorite {
		t.Fatalf("unexpected display %+v", d)
	}
}
