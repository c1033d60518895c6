package timetable

import "errors"

var (
	// ErrFetchFailure is returned when the transport could not deliver a response.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrMalformedURL is returned when a query or redirect target does not parse as a URL.
	ErrMalformedURL = errors.New("malformed url")
	// ErrCredentialMissing is returned when the API key cannot be resolved.
	ErrCredentialMissing = errors.New("credential missing")
	// ErrMalformedResponse is returned when a response lacks the expected structure.
	ErrMalformedResponse = errors.New("malformed response")
)
