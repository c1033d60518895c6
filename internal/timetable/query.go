package timetable

import (
	"fmt"
	"net/url"
	"strconv"
)

// BuildWebQuery returns the roote search URL for route departing at t.
// url.Values.Encode sorts keys, so identical input yields identical output.
func BuildWebQuery(route RouteConfig, t TimeSnapshot) (string, error) {
	base, err := parseBase(route.WebBaseURL)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("dep", route.Origin.Name)
	values.Set("dep_code", route.Origin.Code)
	values.Set("arr", route.Destination.Name)
	values.Set("arr_code", route.Destination.Code)
	values.Set("via1", route.Via1.Name)
	values.Set("via1_code", route.Via1.Code)
	values.Set("via2", route.Via2.Name)
	values.Set("via2_code", route.Via2.Code)
	values.Set("provider", route.Provider)

	values.Set("yyyymm", t.YearMonth)
	values.Set("day", t.Day)
	values.Set("hour", t.Hour)
	values.Set("minute10", t.MinuteTens)
	values.Set("minute1", t.MinuteOnes)

	values.Set("locale", route.Locale)
	values.Set("connect", strconv.FormatBool(route.Connect))
	values.Set("highway", strconv.FormatBool(route.Modes.Highway))
	values.Set("liner", strconv.FormatBool(route.Modes.Liner))
	values.Set("local", strconv.FormatBool(route.Modes.Local))
	values.Set("plane", strconv.FormatBool(route.Modes.Plane))
	values.Set("shinkansen", strconv.FormatBool(route.Modes.Shinkansen))
	values.Set("ship", strconv.FormatBool(route.Modes.Ship))
	values.Set("sort", route.Sort)
	values.Set("submit_btn", route.SubmitLabel)
	values.Set("surcharge", strconv.Itoa(route.Surcharge))
	values.Set("ticket_type", strconv.Itoa(route.TicketType))
	values.Set("transfer", strconv.Itoa(route.Transfer))
	values.Set("type", route.SearchType)
	values.Set("utf8", route.Checkmark)

	base.RawQuery = values.Encode()
	return base.String(), nil
}

// BuildAPIQuery returns the JSON API search URL for route departing at t.
func BuildAPIQuery(route RouteConfig, t TimeSnapshot, key SecretKey) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty api key", ErrCredentialMissing)
	}

	base, err := parseBase(route.APIBaseURL)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("key", string(key))
	values.Set("from", route.Origin.Code)
	values.Set("to", route.Destination.Code)
	values.Set("date", t.Date())
	values.Set("time", t.ClockTime())

	base.RawQuery = values.Encode()
	return base.String(), nil
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrMalformedURL, raw)
	}
	return u, nil
}
