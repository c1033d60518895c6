package timetable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Option configures an Agent.
type Option func(*Agent)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(a *Agent) {
		a.clock = c
	}
}

// WithSecretProvider enables the JSON API variant.
func WithSecretProvider(p SecretProvider) Option {
	return func(a *Agent) {
		a.secrets = p
	}
}

// WithExtractor sets the extraction policy.
func WithExtractor(e Extractor) Option {
	return func(a *Agent) {
		a.extractor = e
	}
}

// Agent runs the search pipeline: snapshot, query, fetch, extract.
// It keeps the records of the last successful search and the API key once resolved.
type Agent struct {
	fetcher   Fetcher
	clock     Clock
	secrets   SecretProvider
	extractor Extractor

	mu      sync.RWMutex
	records []TrainTime

	secretMu sync.Mutex
	secret   SecretKey
}

// NewAgent creates an Agent on top of fetcher.
func NewAgent(fetcher Fetcher, opts ...Option) *Agent {
	a := &Agent{
		fetcher: fetcher,
		clock:   SystemClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Search fetches the web result page for route departing now and returns its records.
// Any failure aborts the call and leaves the previously stored records untouched.
func (a *Agent) Search(ctx context.Context, route RouteConfig) ([]TrainTime, error) {
	snapshot := CaptureSnapshot(a.clock)

	query, err := BuildWebQuery(route, snapshot)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("from", route.Origin.Name).
		Str("to", route.Destination.Name).
		Str("url", query).
		Msg("searching train times")

	body, err := a.fetcher.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	records, err := a.extractor.Extract(body)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("records", len(records)).Msg("extracted train times")

	a.mu.Lock()
	a.records = records
	a.mu.Unlock()

	return copyRecords(records), nil
}

// Records returns the records of the last successful Search.
func (a *Agent) Records() []TrainTime {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyRecords(a.records)
}

// ResolveResourceURI queries the JSON API for route departing now and returns
// the results page URL it points to.
func (a *Agent) ResolveResourceURI(ctx context.Context, route RouteConfig) (string, error) {
	key, err := a.resolveSecret(ctx)
	if err != nil {
		return "", err
	}

	query, err := BuildAPIQuery(route, CaptureSnapshot(a.clock), key)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("from", route.Origin.Code).
		Str("to", route.Destination.Code).
		Msg("querying course api")

	body, err := a.fetcher.Fetch(ctx, query)
	if err != nil {
		return "", err
	}

	return parseResourceURI(body)
}

// resolveSecret memoizes the first successful lookup for the lifetime of the Agent.
func (a *Agent) resolveSecret(ctx context.Context) (SecretKey, error) {
	a.secretMu.Lock()
	defer a.secretMu.Unlock()

	if a.secret != "" {
		return a.secret, nil
	}
	if a.secrets == nil {
		return "", fmt.Errorf("%w: no secret provider configured", ErrCredentialMissing)
	}

	key, err := a.secrets.Secret(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("%w: provider returned an empty key", ErrCredentialMissing)
	}
	a.secret = key
	return key, nil
}

type courseResponse struct {
	ResultSet *struct {
		ResourceURI json.RawMessage `json:"ResourceURI"`
	} `json:"ResultSet"`
}

func parseResourceURI(body string) (string, error) {
	var payload courseResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.ResultSet == nil || len(payload.ResultSet.ResourceURI) == 0 {
		return "", fmt.Errorf("%w: ResultSet.ResourceURI missing", ErrMalformedResponse)
	}

	var raw string
	if err := json.Unmarshal(payload.ResultSet.ResourceURI, &raw); err != nil {
		raw = string(payload.ResultSet.ResourceURI)
	}
	raw = strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if raw == "" {
		return "", fmt.Errorf("%w: ResultSet.ResourceURI empty", ErrMalformedResponse)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: resource uri %q", ErrMalformedURL, raw)
	}
	return u.String(), nil
}

// Format renders records one per line as "from -> to".
func Format(records []TrainTime) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

func copyRecords(records []TrainTime) []TrainTime {
	if records == nil {
		return nil
	}
	out := make([]TrainTime, len(records))
	copy(out, records)
	return out
}
