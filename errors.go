package nanobanana

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind classifies why a generation call did not produce an image.
type FailureKind int

const (
	// Network means the endpoint could not be reached at all.
	Network FailureKind = iota + 1
	// HTTPStatus means the endpoint answered with a non-2xx status.
	HTTPStatus
	// Blocked means the prompt was rejected by a safety filter.
	Blocked
	// Truncated means the first candidate stopped for a reason other than STOP.
	Truncated
	// EmptyResponse means there were no candidates or no parts to inspect.
	EmptyResponse
	// NoImagePart means the parts carried neither image data nor text.
	NoImagePart
	// TextOnlyFallback means the model answered with text instead of an image.
	TextOnlyFallback
)

func (k FailureKind) String() string {
	switch k {
	case Network:
		return "network"
	case HTTPStatus:
		return "http_status"
	case Blocked:
		return "blocked"
	case Truncated:
		return "truncated"
	case EmptyResponse:
		return "empty_response"
	case NoImagePart:
		return "no_image_part"
	case TextOnlyFallback:
		return "text_only_fallback"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Sentinel errors matched by GenerationError under errors.Is.
var (
	ErrNetwork          = errors.New("network error: could not reach the API")
	ErrHTTPStatus       = errors.New("API returned an error status")
	ErrBlocked          = errors.New("request was blocked")
	ErrTruncated        = errors.New("generation was interrupted")
	ErrEmptyResponse    = errors.New("response contained nothing to use")
	ErrNoImagePart      = errors.New("no image was generated")
	ErrTextOnlyFallback = errors.New("model answered with text instead of an image")
)

var kindSentinels = map[FailureKind]error{
	Network:          ErrNetwork,
	HTTPStatus:       ErrHTTPStatus,
	Blocked:          ErrBlocked,
	Truncated:        ErrTruncated,
	EmptyResponse:    ErrEmptyResponse,
	NoImagePart:      ErrNoImagePart,
	TextOnlyFallback: ErrTextOnlyFallback,
}

// GenerationError is the single failure shape of a generation call.
// Every failure is terminal for the call that produced it.
type GenerationError struct {
	Kind FailureKind

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Diagnostic carries the raw context (status, body or transport error
	// text) needed to debug the call without running it again.
	Diagnostic string

	// Err is the underlying transport error, if any.
	Err error
}

// Message returns the short user-facing line for the failure.
func (e *GenerationError) Message() string {
	msg := kindSentinels[e.Kind]
	if msg == nil {
		return e.Kind.String()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d)", msg.Error(), e.StatusCode)
	}
	return msg.Error()
}

func (e *GenerationError) Error() string {
	if e.Diagnostic == "" {
		return e.Message()
	}
	return e.Message() + ": " + e.Diagnostic
}

// Is matches the sentinel error of the failure kind.
func (e *GenerationError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// AsGenerationError extracts a GenerationError from err.
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}

// KindOf returns the failure kind of err, or 0 if err is not a GenerationError.
func KindOf(err error) FailureKind {
	if genErr, ok := AsGenerationError(err); ok {
		return genErr.Kind
	}
	return 0
}

// RateLimitError is returned when the client-side request guard is exhausted.
// The endpoint is not contacted.
type RateLimitError struct {
	RetryAfter time.Duration
	Model      string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("request limit reached for %s, retry after %v",
		e.Model, e.RetryAfter.Round(time.Second))
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// Session errors that never reach the endpoint.
var (
	ErrBusy           = errors.New("a generation is already in progress")
	ErrMissingAPIKey  = errors.New("API key is not set")
	ErrHistoryIndex   = errors.New("history index out of range")
	ErrNoImage        = errors.New("no image to save")
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrStorageNotConfigured is returned when a download is attempted
	// without a configured storage backend.
	ErrStorageNotConfigured = errors.New("storage not configured")
)
