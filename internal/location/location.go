// Package location turns the device location permission flow into a single
// request/response call.
package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-app/internal/weather"
)

var (
	ErrAccessDenied        = errors.New("location access denied; enable it in settings")
	ErrLocationDisabled    = errors.New("location services are disabled; enable them in settings")
	ErrUnableToGetLocation = errors.New("unable to get your current location")
)

// Authorization is the platform's location permission state.
type Authorization int

const (
	NotDetermined Authorization = iota
	Authorized
	Denied
	Restricted
)

func (a Authorization) String() string {
	switch a {
	case NotDetermined:
		return "not-determined"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	default:
		return "unknown(" + strconv.Itoa(int(a)) + ")"
	}
}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Query returns the "lat,lon" text form accepted by the weather search.
func (c Coordinate) Query() string {
	return weather.FormatCoordinates(c.Latitude, c.Longitude)
}

var validate = validator.New()

// ParseCoordinate parses "lat,lon".
func ParseCoordinate(s string) (Coordinate, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: expected \"lat,lon\"", s)
	}
	var c Coordinate
	var err error
	if c.Latitude, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Coordinate{}, fmt.Errorf("parse latitude: %w", err)
	}
	if c.Longitude, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return Coordinate{}, fmt.Errorf("parse longitude: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return Coordinate{}, fmt.Errorf("coordinate %q out of range: %w", s, err)
	}
	return c, nil
}

// Platform is the device location service the core consumes. It is
// implemented outside the core (by the host app, or EnvPlatform).
type Platform interface {
	AuthorizationStatus() Authorization
	// RequestPermission prompts the user and returns the resulting state.
	RequestPermission(ctx context.Context) (Authorization, error)
	// RequestOneShotLocation asks for a single location fix.
	RequestOneShotLocation(ctx context.Context) (Coordinate, error)
}

// Locator drives the permission flow on a Platform.
type Locator struct {
	platform Platform
}

func NewLocator(p Platform) *Locator {
	return &Locator{platform: p}
}

// RequestLocation returns the device position. Failures are one of
// ErrAccessDenied, ErrLocationDisabled or ErrUnableToGetLocation (possibly
// wrapped), or the context error.
func (l *Locator) RequestLocation(ctx context.Context) (Coordinate, error) {
	status := l.platform.AuthorizationStatus()

	if status == NotDetermined {
		granted, err := l.platform.RequestPermission(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Coordinate{}, ctx.Err()
			}
			return Coordinate{}, fmt.Errorf("%w: permission request: %v", ErrUnableToGetLocation, err)
		}
		log.Printf("DEBUG: location permission resolved to %s", granted)
		status = granted
	}

	switch status {
	case Authorized:
		c, err := l.platform.RequestOneShotLocation(ctx)
		if err == nil {
			return c, nil
		}
		if ctx.Err() != nil {
			return Coordinate{}, ctx.Err()
		}
		if errors.Is(err, ErrLocationDisabled) || errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrUnableToGetLocation) {
			return Coordinate{}, err
		}
		return Coordinate{}, fmt.Errorf("%w: %v", ErrUnableToGetLocation, err)
	case Denied, Restricted:
		return Coordinate{}, ErrAccessDenied
	default:
		// Includes a prompt the user dismissed without deciding.
		return Coordinate{}, ErrUnableToGetLocation
	}
}

// EnvPlatform is a Platform backed by a fixed position, used when the core
// runs as a local service. A nil position behaves like disabled location
// services.
type EnvPlatform struct {
	position *Coordinate
}

// NewEnvPlatform parses raw as "lat,lon"; an empty raw value means location
// services are off.
func NewEnvPlatform(raw string) (*EnvPlatform, error) {
	if strings.TrimSpace(raw) == "" {
		return &EnvPlatform{}, nil
	}
	c, err := ParseCoordinate(raw)
	if err != nil {
		return nil, err
	}
	return &EnvPlatform{position: &c}, nil
}

func (p *EnvPlatform) AuthorizationStatus() Authorization {
	return Authorized
}

func (p *EnvPlatform) RequestPermission(context.Context) (Authorization, error) {
	return Authorized, nil
}

func (p *EnvPlatform) RequestOneShotLocation(context.Context) (Coordinate, error) {
	if p.position == nil {
		return Coordinate{}, ErrLocationDisabled
	}
	return *p.position, nil
}
