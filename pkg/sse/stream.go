package sse

import (
	"errors"
	"fmt"
	"io"
)

const defaultBufferSize = 8 * 1024

// Stream is a pull-based SSE decoder over a transport byte stream, typically
// an HTTP response body. Each call to Next returns the next complete event;
// events already assembled from a previous chunk are drained before another
// transport read is issued, so a single chunk carrying several events delivers
// them one at a time in arrival order.
//
// Stream holds exactly three pieces of mutable state beyond the read buffer:
// the assembler's output queue, the event under construction, and the
// carried-over unterminated line fragment from the previous chunk. None of it
// is shared; a Stream must not be used from multiple goroutines.
type Stream struct {
	r   io.Reader
	asm assembler

	// pending is the trailing fragment of the previous chunk that did not
	// end on a line boundary, prepended to the next chunk's first line.
	pending []byte

	buf    []byte
	eof    bool
	failed bool
}

// Option configures a Stream.
type Option func(*Stream)

// WithBufferSize sets the transport read buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.buf = make([]byte, n)
		}
	}
}

// NewStream returns a Stream decoding SSE events from r.
func NewStream(r io.Reader, opts ...Option) *Stream {
	s := &Stream{
		r:   r,
		buf: make([]byte, defaultBufferSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next complete SSE event. It blocks only when the internal
// queue is empty and another transport read is required. Next returns
// (nil, nil) once the transport is exhausted and any partially built event
// has been flushed. Any error — malformed input or a wrapped transport
// failure — is terminal: after returning one, Next yields no further items.
func (s *Stream) Next() (*Event, error) {
	if s.failed {
		return nil, nil
	}

	for {
		if ev := s.asm.pop(); ev != nil {
			return ev, nil
		}
		if s.eof {
			return nil, nil
		}

		n, err := s.r.Read(s.buf)
		if n > 0 {
			if cerr := s.consume(s.buf[:n]); cerr != nil {
				s.failed = true
				return nil, cerr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.eof = true
				if ferr := s.finish(); ferr != nil {
					s.failed = true
					return nil, ferr
				}
				continue
			}
			s.failed = true
			return nil, fmt.Errorf("reading response body: %w", err)
		}
		// Zero-byte read without an error: try again.
	}
}

// consume prepends the carried-over fragment to one transport chunk, splits
// the result into lines, feeds every terminated line to the assembler and
// saves the new unterminated tail for the next chunk. Prepending happens
// before the split so a terminator straddling two chunks (including a "\r\n"
// broken between its two bytes) is seen whole.
func (s *Stream) consume(chunk []byte) error {
	if len(s.pending) > 0 {
		chunk = append(s.pending, chunk...)
		s.pending = nil
	}
	lines, tail := splitLines(chunk)
	for _, line := range lines {
		if err := s.asm.consumeLine(trimTerminator(line)); err != nil {
			return err
		}
	}
	if len(tail) > 0 {
		// The tail may alias the read buffer; copy before it is reused.
		s.pending = append([]byte(nil), tail...)
	}
	return nil
}

// finish runs at end of transport: a non-empty carried-over fragment is fed
// to the assembler as a final, unterminated field line, and any event still
// under construction is dispatched as-is rather than dropped.
func (s *Stream) finish() error {
	if len(s.pending) > 0 {
		line := trimTerminator(s.pending)
		s.pending = nil
		if err := s.asm.consumeLine(line); err != nil {
			return err
		}
	}
	s.asm.flush()
	return nil
}
