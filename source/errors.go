package source

import "errors"

var (
	// ErrUnexpectedStatus is returned when a remote fetch answers with a
	// non-2xx status code.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrMalformedPayload is returned when a downloaded file cannot be
	// parsed in its declared format.
	ErrMalformedPayload = errors.New("malformed payload")
)
