package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-app/internal/api/http"
	"github.com/i474232898/weather-app/internal/config"
	"github.com/i474232898/weather-app/internal/events"
	"github.com/i474232898/weather-app/internal/favorites"
	"github.com/i474232898/weather-app/internal/location"
	"github.com/i474232898/weather-app/internal/recents"
	"github.com/i474232898/weather-app/internal/scheduler"
	"github.com/i474232898/weather-app/internal/store"
	"github.com/i474232898/weather-app/internal/viewmodel"
	"github.com/i474232898/weather-app/internal/weather"
	"github.com/i474232898/weather-app/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	favs, err := favorites.New(ctx, kv)
	if err != nil {
		log.Fatalf("failed to load favorites: %v", err)
	}
	recentLocations, err := recents.NewLocations(ctx, kv, cfg.RecentsLimit)
	if err != nil {
		log.Fatalf("failed to load recent locations: %v", err)
	}
	recentSearches, err := recents.NewSearches(ctx, kv, cfg.RecentsLimit)
	if err != nil {
		log.Fatalf("failed to load recent searches: %v", err)
	}

	// HTTPTimeout of 0 leaves outbound calls unbounded.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewWeatherAPIProvider(httpClient, providers.WeatherAPIConfig{
		APIKey:  cfg.WeatherAPIKey,
		BaseURL: cfg.WeatherAPIBaseURL,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	})
	service := weather.NewService(provider, provider, cfg.DefaultLocation)

	var locator viewmodel.Locator
	if cfg.DeviceLocation != "" {
		platform, err := location.NewEnvPlatform(cfg.DeviceLocation)
		if err != nil {
			log.Fatalf("invalid DEVICE_LOCATION: %v", err)
		}
		locator = location.NewLocator(platform)
	}

	weatherModel := viewmodel.NewWeatherModel(service, favs, recentLocations)
	defer weatherModel.Close()
	searchModel := viewmodel.NewSearchModel(service, locator, recentSearches, cfg.SearchDebounce)
	defer searchModel.Close()

	// The API serves the loading state until this completes.
	go loadDefaultLocation(ctx, weatherModel, cfg.DefaultLocation)

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewFavoritesPublisher(events.NewKafkaWriter(cfg.KafkaBrokers), cfg.KafkaTopic)
		publisher.Attach(favs)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Printf("ERROR: closing favorites publisher: %v", err)
			}
		}()
		log.Printf("INFO: publishing favorites to topic=%s", cfg.KafkaTopic)
	}

	sched := scheduler.New(cfg.RefreshInterval, weatherModel)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-app",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:  weatherModel,
		Search:   searchModel,
		Geocoder: service,
		Locator:  locator,
	})

	go func() {
		log.Printf("INFO: listening on :%s (store=%s)", cfg.Port, cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

type searcher interface {
	Search(ctx context.Context) error
}

// loadDefaultLocation fetches the startup locality once. Failures are only
// logged; the next user action retries.
func loadDefaultLocation(ctx context.Context, m searcher, name string) error {
	if err := m.Search(ctx); err != nil {
		log.Printf("ERROR: initial weather fetch for %q failed: %v", name, err)
		return err
	}
	log.Printf("INFO: loaded initial weather for %q", name)
	return nil
}

// openStore builds the backend selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.AppConfig) (store.Store, func(), error) {
	noop := func() {}
	closer := func(c io.Closer) func() {
		return func() {
			if err := c.Close(); err != nil {
				log.Printf("ERROR: closing store: %v", err)
			}
		}
	}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemoryStore(), noop, nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.StoreDSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		s, err := store.OpenSQLite(ctx, cfg.StoreDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s), nil
	case config.DriverPostgres:
		s, err := store.OpenPostgres(ctx, cfg.StoreDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s), nil
	case config.DriverRedis:
		s, err := store.OpenRedis(ctx, cfg.StoreDSN, "weather-app:")
		if err != nil {
			return nil, nil, err
		}
		return s, closer(s), nil
	case config.DriverS3:
		s, err := store.NewS3Store(ctx, store.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
