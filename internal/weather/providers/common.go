package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-app/internal/weather"
)

var validate = validator.New()

// HTTPClientConfig bundles the HTTP client and its client-side limits.
type HTTPClientConfig struct {
	Client  *http.Client
	Limiter *rate.Limiter // nil disables limiting
}

var errNoHTTPClient = errors.New("http client not configured")

type httpResult struct {
	status int
	body   []byte
}

// buildURL joins base and path and attaches params. It fails when the
// result is not an absolute http(s) URL.
func buildURL(base, path string, params url.Values) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return nil, &weather.Error{Kind: weather.KindInvalidURL, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &weather.Error{Kind: weather.KindInvalidURL, Err: fmt.Errorf("not an absolute http url: %q", u.String())}
	}
	u.RawQuery = params.Encode()
	return u, nil
}

// redacted returns u as a string with the api key masked, for logging.
func redacted(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
	}
	c.RawQuery = q.Encode()
	return c.String()
}

// doGet performs one GET through the limiter and the circuit breaker and
// returns the body of a 2xx answer. It does not retry. Errors are
// *weather.Error values. Only transport failures count against the
// breaker; any answer from the server, whatever its status, is a success
// for it and surfaces as KindInvalidResponse when outside 2xx.
func doGet(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	u *url.URL,
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, &weather.Error{Kind: weather.KindNetwork, Err: errNoHTTPClient}
	}

	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			return nil, &weather.Error{Kind: weather.KindNetwork, Err: fmt.Errorf("rate limit wait canceled: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &weather.Error{Kind: weather.KindInvalidURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	log.Printf("DEBUG: GET %s", redacted(u))

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		return httpResult{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.Error{Kind: weather.KindNetwork, Err: fmt.Errorf("circuit breaker open: %w", err)}
		}
		return nil, &weather.Error{Kind: weather.KindNetwork, Err: err}
	}

	res, ok := result.(httpResult)
	if !ok {
		return nil, &weather.Error{Kind: weather.KindNetwork, Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}

	log.Printf("DEBUG: GET %s status=%d bytes=%d", u.Path, res.status, len(res.body))

	if res.status < 200 || res.status > 299 {
		return nil, &weather.Error{
			Kind:       weather.KindInvalidResponse,
			StatusCode: res.status,
			Err:        fmt.Errorf("API error (status %d): %s", res.status, strings.TrimSpace(string(res.body))),
		}
	}
	return res.body, nil
}

// decodeValidated unmarshals body into v and checks it against the
// validate tags of v's type.
func decodeValidated(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &weather.Error{Kind: weather.KindDecoding, Err: err}
	}
	if err := validate.Struct(v); err != nil {
		return &weather.Error{Kind: weather.KindDecoding, Err: err}
	}
	return nil
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
	})
}
