package reader

import "errors"

// Construction errors: rejected synchronously at construction.
var (
	ErrNoEventTypes      = errors.New("reader: eventTypes must be non-empty")
	ErrPositionsMismatch = errors.New("reader: fromPositions must have exactly one entry per configured event type")
)

// Runtime errors: surfaced to the host so the surrounding subscription can
// be torn down. None is retried internally.
var (
	// ErrProtocolViolation indicates a completion arrived that doesn't match
	// an outstanding request, or an unknown stream/mode combination — a bug
	// in the caller or transport, not a recoverable condition.
	ErrProtocolViolation = errors.New("reader: protocol violation")
	// ErrUnsupportedResult indicates a read completed with a result code
	// this reader doesn't know how to interpret.
	ErrUnsupportedResult = errors.New("reader: unsupported read result")
	// ErrDisposed is returned by Start, Pause, and Resume when called after
	// Dispose; completion handlers drop stale completions silently instead.
	ErrDisposed = errors.New("reader: disposed")
)
