package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/net/html/charset"

	"github.com/i474232898/house-display/internal/timetable"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

var (
	errNoHTTPClient = errors.New("http client not configured")
	errUnexpected   = errors.New("unexpected status code")
)

// BreakerConfig controls when the circuit opens and how long it stays open.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig mirrors the settings used for the other search providers.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         5,
		Interval:            1 * time.Minute,
		Timeout:             2 * time.Minute,
		ConsecutiveFailures: 5,
	}
}

// HTTPFetcher implements timetable.Fetcher over net/http.
// Failed requests are not retried; an open circuit fails fast.
type HTTPFetcher struct {
	name      string
	client    *http.Client
	userAgent string
	circuit   *gobreaker.CircuitBreaker
}

// NewHTTPFetcher returns a fetcher using client behind a circuit breaker called name.
func NewHTTPFetcher(name string, client *http.Client, cfg BreakerConfig) *HTTPFetcher {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up is not a failure of the search service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &HTTPFetcher{
		name:      name,
		client:    client,
		userAgent: "house-display/1.0",
		circuit:   cb,
	}
}

// Fetch issues a GET for rawURL and returns the body decoded to UTF-8.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if f.client == nil {
		return "", fmt.Errorf("%w: %v", timetable.ErrFetchFailure, errNoHTTPClient)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", timetable.ErrMalformedURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %v", timetable.ErrFetchFailure, ctx.Err())
	}

	result, err := f.circuit.Execute(func() (interface{}, error) {
		resp, execErr := f.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}

		return readBody(resp)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %s circuit open: %v", timetable.ErrFetchFailure, f.name, err)
		}
		return "", fmt.Errorf("%w: %v", timetable.ErrFetchFailure, err)
	}

	body, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected result type from circuit breaker", timetable.ErrFetchFailure)
	}
	return body, nil
}

// readBody converts the body to UTF-8. JSON is taken as UTF-8; HTML uses the
// Content-Type charset, a BOM or a <meta> declaration, and otherwise stays
// untouched when it is already valid UTF-8.
func readBody(resp *http.Response) (string, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if isJSON(contentType) {
		return string(data), nil
	}

	enc, name, certain := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(data)) {
		return strings.TrimPrefix(string(data), "\ufeff"), nil
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s body: %w", name, err)
	}
	return string(decoded), nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
