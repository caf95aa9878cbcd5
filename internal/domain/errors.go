package domain

import "errors"

// Pipeline errors. Classification and gatekeeping outcomes are values, not
// errors; only genuine failures live here.
var (
	// ErrExtractionFailed is returned when no extractor produced usable media.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrExtractionTimeout is returned when an extractor subprocess timed out.
	ErrExtractionTimeout = errors.New("extraction timed out")

	// ErrNoMedia is returned when extraction succeeded but produced no media files.
	ErrNoMedia = errors.New("no media files produced")

	// ErrTransportTimeout is a soft delivery timeout. The remote side may have
	// the content anyway; it is logged but never surfaced to the user.
	ErrTransportTimeout = errors.New("transport timed out")
)

// RequestError wraps an error with request context.
type RequestError struct {
	RequestID RequestID
	Op        string
	Err       error
}

func (e *RequestError) Error() string {
	if e.RequestID != "" {
		return e.Op + " [" + e.RequestID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError.
func NewRequestError(id RequestID, op string, err error) *RequestError {
	return &RequestError{
		RequestID: id,
		Op:        op,
		Err:       err,
	}
}
