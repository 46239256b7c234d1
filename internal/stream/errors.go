package stream

import (
	"errors"
	"fmt"
)

// ErrStreamUnavailable is returned when the response body cannot be opened or read.
var ErrStreamUnavailable = errors.New("stream unavailable")

// ErrMalformedResponse is returned when a non-streaming reply is not valid JSON.
var ErrMalformedResponse = errors.New("malformed response")

// RemoteError is returned for a non-2xx response. Body holds the response text.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote error: status %d: %s", e.StatusCode, e.Body)
}

// DecodeSkipped describes one event that could not be decoded.
// It is reported to the decoder's skip hook and the debug log, never returned.
type DecodeSkipped struct {
	Payload string
	Err     error
}

func (s DecodeSkipped) String() string {
	return fmt.Sprintf("skipped event %q: %v", s.Payload, s.Err)
}
