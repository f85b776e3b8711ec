package apperr

import "errors"

// Sentinel errors shared across the application. Services return these (or
// wrap them with context) without knowing anything about HTTP; the API layer
// maps them to status codes with errors.Is.

var (
	// ErrConfiguration signifies a missing or unusable API credential.
	// Detected before any model call is attempted.
	ErrConfiguration = errors.New("configuration error")

	// ErrDecoding signifies that an uploaded text or markdown file is not
	// valid UTF-8 and cannot be included in the model payload.
	ErrDecoding = errors.New("decoding error")

	// ErrUnsupportedFormat signifies an upload whose suffix is not one of
	// the supported document types, when the reject policy is active.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrGateway signifies any failure from the generation provider: auth
	// failure, quota, network error, malformed response. Recovered at the
	// pipeline boundary, never retried automatically.
	ErrGateway = errors.New("gateway error")

	// ErrNotFound signifies that a requested session does not exist or has
	// already been torn down.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies client input that failed request validation.
	ErrValidation = errors.New("validation failed")
)
