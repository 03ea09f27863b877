package sse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// assembler groups terminator-stripped field lines into events. It owns the
// event under construction and a FIFO queue of completed events; both are
// drained by the Stream that feeds it.
type assembler struct {
	current *Event
	queue   []*Event
}

// consumeLine processes one line with its terminator already stripped.
// A blank line dispatches the in-progress event to the queue; field lines
// mutate the in-progress event, creating it on first touch. Comment lines
// (leading ':') are skipped without starting an event.
func (a *assembler) consumeLine(line []byte) error {
	if len(line) == 0 {
		if a.current != nil {
			a.queue = append(a.queue, a.current)
			a.current = nil
		}
		return nil
	}

	field, value, ok := strings.Cut(string(line), ":")
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLine, line)
	}

	// Comment line: the field name is empty ("":"comment text").
	if field == "" {
		return nil
	}

	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s field", ErrInvalidUTF8, field)
	}

	// A single space after the colon is part of the delimiter.
	value = strings.TrimPrefix(value, " ")

	if a.current == nil {
		a.current = &Event{}
	}
	ev := a.current

	switch field {
	case "data":
		if ev.hasData {
			// Multiple data fields are joined with "\n".
			ev.Data += "\n"
		}
		ev.Data += value
		ev.hasData = true
	case "event":
		if ev.hasType {
			return ErrDuplicateEventField
		}
		ev.Type = value
		ev.hasType = true
	case "id":
		if ev.hasID {
			return ErrDuplicateIDField
		}
		ev.ID = value
		ev.hasID = true
	case "retry":
		if ev.hasRetry {
			return ErrDuplicateRetryField
		}
		ms, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("parsing retry field: %w", err)
		}
		ev.Retry = &ms
		ev.hasRetry = true
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidLine, field)
	}

	return nil
}

// flush moves the in-progress event, if any, to the queue. Called when the
// transport ends without a trailing blank line.
func (a *assembler) flush() {
	if a.current != nil {
		a.queue = append(a.queue, a.current)
		a.current = nil
	}
}

// pop removes and returns the front of the queue, or nil if empty.
func (a *assembler) pop() *Event {
	if len(a.queue) == 0 {
		return nil
	}
	ev := a.queue[0]
	a.queue = a.queue[1:]
	return ev
}
