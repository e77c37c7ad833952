package domain

import "errors"

// ClientError marks a failure caused by the request itself (empty query,
// unsupported input, missing auth). The HTTP layer maps it to a 4xx status;
// everything else is treated as a server-side failure.
type ClientError struct {
	Msg string
}

func (e *ClientError) Error() string { return e.Msg }

// NewClientError wraps a descriptive message as a client input error.
func NewClientError(msg string) error { return &ClientError{Msg: msg} }

// IsClientError reports whether err belongs to the client input taxonomy.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

var (
	// ErrEmptyQuery rejects empty or whitespace-only query text.
	ErrEmptyQuery = NewClientError("query text is missing")
	// ErrNoFiles rejects ingestion requests that carry no files.
	ErrNoFiles = NewClientError("no files selected")
	// ErrUnauthorized is returned when no user can be resolved for a request.
	ErrUnauthorized = NewClientError("authorization required")
)
