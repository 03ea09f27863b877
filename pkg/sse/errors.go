package sse

import "errors"

var (
	// ErrInvalidLine indicates a non-blank line with no colon, or a field
	// name this decoder does not recognize.
	ErrInvalidLine = errors.New("invalid SSE line")

	// ErrDuplicateEventField indicates a second "event:" line in one event.
	ErrDuplicateEventField = errors.New("duplicated event field")

	// ErrDuplicateIDField indicates a second "id:" line in one event.
	ErrDuplicateIDField = errors.New("duplicated id field")

	// ErrDuplicateRetryField indicates a second "retry:" line in one event.
	ErrDuplicateRetryField = errors.New("duplicated retry field")

	// ErrInvalidUTF8 indicates a field value that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("field value is not valid UTF-8")
)
