package sse_test

import (
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/sse"
)

// chunkReader yields one pre-cut chunk per Read call, simulating a transport
// that splits the stream at arbitrary byte boundaries.
type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := r.chunks[0]
	r.chunks = r.chunks[1:]
	n := copy(p, chunk)
	// Chunks in these tests are always smaller than the read buffer.
	Expect(n).To(Equal(len(chunk)))
	return n, nil
}

// failingReader returns some bytes and then a transport error.
type failingReader struct {
	data []byte
	err  error
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	r.done = true
	return copy(p, r.data), nil
}

// drain pulls every event from the stream until exhaustion or error.
func drain(s *sse.Stream) ([]*sse.Event, error) {
	var events []*sse.Event
	for {
		ev, err := s.Next()
		if err != nil {
			return events, err
		}
		if ev == nil {
			return events, nil
		}
		events = append(events, ev)
	}
}

// cut splits input into chunks of at most size bytes.
func cut(input string, size int) [][]byte {
	var chunks [][]byte
	data := []byte(input)
	for len(data) > 0 {
		n := min(size, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

var _ = Describe("Stream", func() {
	Describe("Next", func() {
		Context("with standard SSE events", func() {
			It("parses a single event", func() {
				s := sse.NewStream(strings.NewReader("data: hello world\n\n"))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello world"))
				Expect(ev.Type).To(BeEmpty())
				Expect(ev.ID).To(BeEmpty())

				ev, err = s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("parses multiple events in order", func() {
				s := sse.NewStream(strings.NewReader("data: first\n\ndata: second\n\n"))

				events, err := drain(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(2))
				Expect(events[0].Data).To(Equal("first"))
				Expect(events[1].Data).To(Equal("second"))
			})

			It("parses event type, id and retry fields", func() {
				s := sse.NewStream(strings.NewReader("event: delta\nid: 42\nretry: 1500\ndata: hello\n\n"))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Type).To(Equal("delta"))
				Expect(ev.ID).To(Equal("42"))
				Expect(ev.Retry).To(HaveValue(BeEquivalentTo(1500)))
				Expect(ev.Data).To(Equal("hello"))
			})

			It("joins multiple data lines with newline", func() {
				s := sse.NewStream(strings.NewReader("data: foo\ndata: bar\n\n"))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("foo\nbar"))
			})

			It("preserves an empty data line in the join", func() {
				s := sse.NewStream(strings.NewReader("data: foo\ndata:\ndata: bar\n\n"))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("foo\n\nbar"))
			})

			It("strips at most one leading space from a value", func() {
				s := sse.NewStream(strings.NewReader("data:  two spaces\n\n"))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal(" two spaces"))
			})

			It("accepts CRLF line terminators", func() {
				s := sse.NewStream(strings.NewReader("event: delta\r\ndata: hi\r\n\r\n"))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Type).To(Equal("delta"))
				Expect(ev.Data).To(Equal("hi"))
			})

			It("accepts bare CR line terminators", func() {
				s := sse.NewStream(strings.NewReader("event: delta\rdata: hi\r\rdata: next\r\r"))

				events, err := drain(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(2))
				Expect(events[0].Type).To(Equal("delta"))
				Expect(events[0].Data).To(Equal("hi"))
				Expect(events[1].Data).To(Equal("next"))
			})

			It("skips comment lines without starting an event", func() {
				s := sse.NewStream(strings.NewReader(": keep-alive\n\n: another\ndata: real\n\n"))

				events, err := drain(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
				Expect(events[0].Data).To(Equal("real"))
			})

			It("ignores leading blank lines", func() {
				s := sse.NewStream(strings.NewReader("\n\n\ndata: hi\n\n"))

				events, err := drain(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(1))
			})
		})

		Context("with chunked transports", func() {
			It("delivers events queued from a single chunk one at a time", func() {
				r := &chunkReader{chunks: [][]byte{
					[]byte("data: one\n\ndata: two\n\ndata: three\n\n"),
				}}
				s := sse.NewStream(r)

				events, err := drain(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(events).To(HaveLen(3))
				Expect(events[0].Data).To(Equal("one"))
				Expect(events[1].Data).To(Equal("two"))
				Expect(events[2].Data).To(Equal("three"))
			})

			It("reassembles a line split across chunks", func() {
				r := &chunkReader{chunks: [][]byte{
					[]byte("data: hel"),
					[]byte("lo world"),
					[]byte("\n\n"),
				}}
				s := sse.NewStream(r)

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello world"))
			})

			It("reassembles a CRLF split between chunks", func() {
				r := &chunkReader{chunks: [][]byte{
					[]byte("data: hi\r"),
					[]byte("\n\r\n"),
				}}
				s := sse.NewStream(r)

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hi"))
			})

			It("skips zero-byte reads", func() {
				r := &chunkReader{chunks: [][]byte{
					[]byte("data: hi"),
					{},
					[]byte("\n\n"),
				}}
				s := sse.NewStream(r)

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hi"))
			})

			It("yields identical events for any chunking of the same bytes", func() {
				input := "event: chunk\ndata: {\"text\":\"héllo • wörld\"}\ndata: more\n\nid: 7\r\ndata: second\r\n\r\ndata: third\r\r"

				whole, err := drain(sse.NewStream(strings.NewReader(input)))
				Expect(err).NotTo(HaveOccurred())

				// Sizes 1..5 exercise splits inside CRLFs, UTF-8 code
				// points and the JSON payload alike.
				for size := 1; size <= 5; size++ {
					chunked, err := drain(sse.NewStream(&chunkReader{chunks: cut(input, size)}))
					Expect(err).NotTo(HaveOccurred())
					Expect(chunked).To(Equal(whole), "chunk size %d", size)
				}
			})
		})

		Context("at end of transport", func() {
			It("flushes an in-progress event when the stream ends without a blank line", func() {
				s := sse.NewStream(strings.NewReader("data: partial"))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).NotTo(BeNil())
				Expect(ev.Data).To(Equal("partial"))

				ev, err = s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("flushes a carried-over fragment ending in a bare CR", func() {
				s := sse.NewStream(strings.NewReader("data: tail\r"))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("tail"))
			})

			It("returns no items for an empty transport", func() {
				s := sse.NewStream(strings.NewReader(""))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})
		})

		Context("with malformed input", func() {
			It("fails on a line without a colon", func() {
				s := sse.NewStream(strings.NewReader("not a field line\n"))

				_, err := s.Next()
				Expect(err).To(MatchError(sse.ErrInvalidLine))
			})

			It("fails on an unknown field name", func() {
				s := sse.NewStream(strings.NewReader("custom: value\n"))

				_, err := s.Next()
				Expect(err).To(MatchError(sse.ErrInvalidLine))
			})

			It("fails on a duplicated event field", func() {
				s := sse.NewStream(strings.NewReader("event: a\nevent: b\n\n"))

				_, err := s.Next()
				Expect(err).To(MatchError(sse.ErrDuplicateEventField))
			})

			It("fails on a duplicated id field", func() {
				s := sse.NewStream(strings.NewReader("id: 1\nid: 2\n\n"))

				_, err := s.Next()
				Expect(err).To(MatchError(sse.ErrDuplicateIDField))
			})

			It("fails on a duplicated retry field", func() {
				s := sse.NewStream(strings.NewReader("retry: 100\nretry: 200\n\n"))

				_, err := s.Next()
				Expect(err).To(MatchError(sse.ErrDuplicateRetryField))
			})

			It("fails on a non-integer retry value", func() {
				s := sse.NewStream(strings.NewReader("retry: soon\n\n"))

				_, err := s.Next()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("parsing retry field"))
			})

			It("yields no further items after a terminal error", func() {
				s := sse.NewStream(strings.NewReader("event: a\nevent: b\ndata: x\n\n"))

				_, err := s.Next()
				Expect(err).To(MatchError(sse.ErrDuplicateEventField))

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})
		})

		Context("with transport errors", func() {
			It("wraps and surfaces the transport error", func() {
				cause := errors.New("connection reset")
				s := sse.NewStream(&failingReader{data: []byte("data: ok\n\n"), err: cause})

				ev, err := s.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("ok"))

				_, err = s.Next()
				Expect(err).To(MatchError(cause))
				Expect(err.Error()).To(ContainSubstring("reading response body"))
			})
		})
	})
})
