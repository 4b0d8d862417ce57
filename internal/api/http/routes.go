package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/weather-app/internal/common"
	"github.com/i474232898/weather-app/internal/favorites"
	"github.com/i474232898/weather-app/internal/location"
	"github.com/i474232898/weather-app/internal/platform/obs"
	"github.com/i474232898/weather-app/internal/viewmodel"
	"github.com/i474232898/weather-app/internal/weather"
)

var validate = validator.New()

// Deps are the components the API exposes. Locator may be nil.
type Deps struct {
	Weather  *viewmodel.WeatherModel
	Search   *viewmodel.SearchModel
	Geocoder viewmodel.Geocoder
	Locator  viewmodel.Locator
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1", requestID)

	v1.Get("/weather", func(c *fiber.Ctx) error {
		ctx := requestContext(c)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			deps.Weather.SetSearchLocation(q)
		}
		if err := deps.Weather.Search(ctx); err != nil {
			return weatherError(err)
		}
		return c.JSON(deps.Weather.State())
	})

	v1.Get("/weather/display", func(c *fiber.Ctx) error {
		return c.JSON(deps.Weather.Display())
	})

	v1.Post("/favorites/toggle", func(c *fiber.Ctx) error {
		now, err := deps.Weather.ToggleFavorite(requestContext(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save favorites")
		}
		return c.JSON(fiber.Map{"isFavorite": now})
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		return c.JSON(deps.Weather.Favorites())
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		city, err := bindCity(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		added, err := deps.Weather.AddFavorite(requestContext(c), city)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save favorites")
		}
		status := fiber.StatusOK
		if added {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{"added": added, "favorite": city})
	})

	v1.Delete("/favorites", func(c *fiber.Ctx) error {
		city, err := bindCity(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := deps.Weather.RemoveFavorite(requestContext(c), city); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save favorites")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/favorites/select", func(c *fiber.Ctx) error {
		city, err := bindCity(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := deps.Weather.SelectFavorite(requestContext(c), city); err != nil {
			return weatherError(err)
		}
		return c.JSON(deps.Weather.State())
	})

	v1.Post("/favorites/from-suggestion", func(c *fiber.Ctx) error {
		s, err := bindSuggestion(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		added, err := deps.Weather.AddFavoriteFromSuggestion(requestContext(c), s)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save favorites")
		}
		status := fiber.StatusOK
		if added {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{"added": added, "favorite": favorites.FromSuggestion(s)})
	})

	v1.Delete("/favorites/all", func(c *fiber.Ctx) error {
		if err := deps.Weather.ClearFavorites(requestContext(c)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save favorites")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if !common.HasMinRunes(q, viewmodel.MinQueryLength) {
			return c.JSON([]suggestionView{})
		}
		suggestions, err := deps.Geocoder.Search(requestContext(c), q)
		if err != nil {
			return weatherError(err)
		}
		out := make([]suggestionView, 0, len(suggestions))
		for _, s := range suggestions {
			out = append(out, suggestionView{
				LocationSuggestion: s,
				DisplayName:        s.DisplayName(),
				IsFavorite:         deps.Weather.IsSuggestionFavorite(s),
			})
		}
		return c.JSON(out)
	})

	v1.Put("/search/text", func(c *fiber.Ctx) error {
		var req searchTextRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		deps.Search.SetSearchText(req.Text)
		return c.Status(fiber.StatusAccepted).JSON(deps.Search.State())
	})

	v1.Get("/search/state", func(c *fiber.Ctx) error {
		return c.JSON(deps.Search.State())
	})

	// Puts the device position into the search text, which then runs
	// through the debounced lookup like typed input.
	v1.Post("/search/current-location", func(c *fiber.Ctx) error {
		if err := deps.Search.UseCurrentLocation(requestContext(c)); err != nil {
			return locationError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(deps.Search.State())
	})

	v1.Get("/recents/searches", func(c *fiber.Ctx) error {
		return c.JSON(deps.Search.RecentSearches())
	})

	v1.Post("/recents/searches", func(c *fiber.Ctx) error {
		s, err := bindSuggestion(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := deps.Search.RecordSelection(requestContext(c), s); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save recent searches")
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	})

	v1.Get("/recents/locations", func(c *fiber.Ctx) error {
		return c.JSON(deps.Weather.RecentLocations())
	})

	v1.Get("/location/current", func(c *fiber.Ctx) error {
		if deps.Locator == nil {
			return locationError(location.ErrLocationDisabled)
		}
		coord, err := deps.Locator.RequestLocation(requestContext(c))
		if err != nil {
			return locationError(err)
		}
		return c.JSON(fiber.Map{
			"latitude":  coord.Latitude,
			"longitude": coord.Longitude,
			"query":     coord.Query(),
		})
	})
}

// requestID tags each request so obs.Time lines can be correlated.
func requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)
	c.Locals(obs.RequestIDKey, id)
	return c.Next()
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if id, ok := c.Locals(obs.RequestIDKey).(string); ok {
		ctx = context.WithValue(ctx, obs.RequestIDKey, id)
	}
	return ctx
}

// weatherError maps the fetch taxonomy onto statuses that keep "upstream
// rejected us" apart from "upstream unreachable".
func weatherError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidURL):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrNetwork):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, weather.ErrInvalidResponse), errors.Is(err, weather.ErrDecoding):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}

func locationError(err error) error {
	switch {
	case errors.Is(err, location.ErrAccessDenied):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, location.ErrLocationDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, location.ErrUnableToGetLocation.Error())
	}
}

// favoriteRequest is the body of POST and DELETE /favorites.
type favoriteRequest struct {
	Name      string   `json:"name" validate:"required"`
	Country   string   `json:"country" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func bindCity(c *fiber.Ctx) (favorites.City, error) {
	var req favoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return favorites.City{}, errors.New("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return favorites.City{}, err
	}
	return favorites.City{
		Name:      req.Name,
		Country:   req.Country,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}, nil
}

type suggestionRequest struct {
	Name      string   `json:"name" validate:"required"`
	Region    string   `json:"region"`
	Country   string   `json:"country" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func bindSuggestion(c *fiber.Ctx) (weather.LocationSuggestion, error) {
	var req suggestionRequest
	if err := c.BodyParser(&req); err != nil {
		return weather.LocationSuggestion{}, errors.New("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return weather.LocationSuggestion{}, err
	}
	return weather.NewSuggestion(req.Name, req.Region, req.Country, *req.Latitude, *req.Longitude), nil
}

// suggestionView is a suggestion as listed by GET /search.
type suggestionView struct {
	weather.LocationSuggestion
	DisplayName string `json:"displayName"`
	IsFavorite  bool   `json:"isFavorite"`
}

type searchTextRequest struct {
	Text string `json:"text"`
}
