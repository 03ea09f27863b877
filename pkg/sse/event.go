// Package sse provides a strict, pull-based SSE (Server-Sent Events) decoder
// for consuming streaming LLM provider responses. It turns an arbitrary byte
// stream — chunks may split mid-line, mid-UTF-8-codepoint, or mid-payload —
// into discrete, field-complete events.
//
// The decoder is deliberately strict: malformed lines, unknown field names and
// duplicated singular fields terminate the stream instead of being skipped.
// Downstream consumers aggregate these events into tool calls and assistant
// messages, so a silently dropped field corrupts model output.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the event ID from the "id:" field, if present.
	ID string

	// Retry is the reconnection delay from the "retry:" field, if present.
	Retry *uint64

	// set-once tracking for duplicate field detection. Data is cumulative
	// and has no flag; hasData distinguishes "data:" (empty value) from
	// no data field at all.
	hasType  bool
	hasID    bool
	hasData  bool
	hasRetry bool
}
