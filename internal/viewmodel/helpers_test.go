package viewmodel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-app/internal/favorites"
	"github.com/i474232898/weather-app/internal/recents"
	"github.com/i474232898/weather-app/internal/store"
	"github.com/i474232898/weather-app/internal/weather"
	"github.com/i474232898/weather-app/internal/weather/providers"
)

// upstream fakes WeatherAPI with the provider fixtures.
type upstream struct {
	*httptest.Server
	searches atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	forecast := readFixture(t, "forecast_rome.json")
	search := readFixture(t, "search_lond.json")

	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/forecast.json":
			w.Write(forecast)
		case "/search.json":
			u.searches.Add(1)
			w.Write(search)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) service() *weather.Service {
	p := providers.NewWeatherAPIProvider(u.Client(), providers.WeatherAPIConfig{APIKey: "k", BaseURL: u.URL})
	return weather.NewService(p, p, "Rome")
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../weather/providers/testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

type flakyKV struct {
	*store.MemoryStore
	fail atomic.Bool
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.fail.Load() {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

type harness struct {
	kv        *flakyKV
	favorites *favorites.Store
	locations *recents.List[string]
	searches  *recents.List[weather.LocationSuggestion]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	kv := &flakyKV{MemoryStore: store.NewMemoryStore()}
	favs, err := favorites.New(ctx, kv)
	if err != nil {
		t.Fatal(err)
	}
	locations, err := recents.NewLocations(ctx, kv, recents.DefaultLimit)
	if err != nil {
		t.Fatal(err)
	}
	searches, err := recents.NewSearches(ctx, kv, recents.DefaultLimit)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{kv: kv, favorites: favs, locations: locations, searches: searches}
}

// scriptedFetcher answers each query from a table; queries listed in
// block wait until released.
type scriptedFetcher struct {
	mu      sync.Mutex
	results map[string]weather.Snapshot
	errs    map[string]error
	block   map[string]chan struct{}
	queries []string
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		results: map[string]weather.Snapshot{},
		errs:    map[string]error{},
		block:   map[string]chan struct{}{},
	}
}

func (f *scriptedFetcher) DefaultLocation() string { return "Rome" }

func (f *scriptedFetcher) Fetch(ctx context.Context, query string) (weather.Snapshot, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	gate := f.block[query]
	snap, err := f.results[query], f.errs[query]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return snap, err
}

func snapshotFor(name, country string, lat, lon float64) weather.Snapshot {
	return weather.Snapshot{
		Location: weather.Location{Name: name, Country: country, Lat: lat, Lon: lon},
		Forecast: make([]weather.ForecastDay, weather.ForecastDays),
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
