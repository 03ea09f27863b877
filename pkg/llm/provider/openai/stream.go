// Package openai decodes OpenAI Chat Completions streaming responses into
// the normalized llm.ResponseEvent sequence. It drives an sse.Stream over the
// raw response body in a background goroutine, merges per-index tool-call
// fragments and text deltas, and hands completed events to the caller over a
// bounded channel.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/sse"
)

const (
	// doneSentinel is the literal, non-JSON data payload terminating an
	// OpenAI stream. It must be checked before attempting a JSON decode.
	doneSentinel = "[DONE]"

	// ModelHeader is the response header carrying the identity of the model
	// actually serving the request.
	ModelHeader = "openai-model"

	// defaultChannelCapacity bounds the event channel. A full channel stalls
	// the decoder instead of growing memory; the bound is sized to absorb
	// normal delta-rate bursts.
	defaultChannelCapacity = 1600

	// defaultIdleTimeout is the maximum wait between successive SSE events
	// before the stream is considered stalled.
	defaultIdleTimeout = 5 * time.Minute
)

// ChatStream aggregates one streaming chat completion. All state below the
// channel is owned by the single run goroutine; a fresh ChatStream is created
// per call and discarded when the call terminates.
type ChatStream struct {
	events      chan llm.ResponseEvent
	done        chan struct{}
	stream      *sse.Stream
	body        io.Closer
	logger      *slog.Logger
	idleTimeout time.Duration
	readBufSize int
	headerModel string

	createdEmitted  bool
	responseID      string
	usage           *llm.Usage
	text            strings.Builder
	toolCalls       []aggregatedCall
	lastServerModel string
}

// aggregatedCall is one tool call under construction, addressed by the
// positional index the provider attaches to every fragment.
type aggregatedCall struct {
	id        string
	name      string
	arguments string
}

// Option configures a ChatStream.
type Option func(*ChatStream)

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *ChatStream) {
		s.logger = l
	}
}

// WithIdleTimeout sets the maximum wait between successive SSE events.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *ChatStream) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithChannelCapacity sets the event channel bound.
func WithChannelCapacity(n int) Option {
	return func(s *ChatStream) {
		if n > 0 {
			s.events = make(chan llm.ResponseEvent, n)
		}
	}
}

// WithReadBufferSize sets the transport read buffer size in bytes, passed
// through to the underlying SSE decoder.
func WithReadBufferSize(n int) Option {
	return func(s *ChatStream) {
		if n > 0 {
			s.readBufSize = n
		}
	}
}

// NewChatStream starts decoding a streaming chat completion from body.
// The header, if non-nil, is inspected once for the model-identity header,
// which is surfaced as the first ServerModel event before any chunk decodes.
// The body is closed when decoding finishes for any reason.
func NewChatStream(ctx context.Context, body io.ReadCloser, header http.Header, opts ...Option) *ChatStream {
	s := &ChatStream{
		events:      make(chan llm.ResponseEvent, defaultChannelCapacity),
		done:        make(chan struct{}),
		body:        body,
		logger:      logger.Nop(),
		idleTimeout: defaultIdleTimeout,
	}
	if header != nil {
		s.headerModel = header.Get(ModelHeader)
	}
	for _, opt := range opts {
		opt(s)
	}

	var streamOpts []sse.Option
	if s.readBufSize > 0 {
		streamOpts = append(streamOpts, sse.WithBufferSize(s.readBufSize))
	}
	s.stream = sse.NewStream(body, streamOpts...)

	go s.run(ctx)

	return s
}

// Events returns the ordered event channel. The channel is closed after the
// terminal event — EventCompleted on a clean finish, EventError otherwise.
func (s *ChatStream) Events() <-chan llm.ResponseEvent {
	return s.events
}

// pullResult carries one sse.Stream pull across the pump goroutine boundary.
type pullResult struct {
	event *sse.Event
	err   error
}

// run drives the SSE stream to completion. It is the only goroutine touching
// the aggregation state, so event ordering on the channel matches production
// order exactly.
func (s *ChatStream) run(ctx context.Context) {
	defer close(s.events)
	defer close(s.done)
	defer s.body.Close()

	if s.headerModel != "" {
		if !s.noteServerModel(ctx, s.headerModel) {
			return
		}
	}

	// The pump isolates the blocking transport read so each pull can be
	// raced against the idle timer.
	pulls := make(chan pullResult)
	go s.pump(ctx, pulls)

	timer := time.NewTimer(s.idleTimeout)
	defer timer.Stop()

	for {
		timer.Reset(s.idleTimeout)

		select {
		case <-ctx.Done():
			return

		case <-timer.C:
			s.send(ctx, llm.ResponseEvent{Type: llm.EventError, Err: ErrIdleTimeout})
			return

		case res, ok := <-pulls:
			if !ok || (res.event == nil && res.err == nil) {
				// Transport exhausted without a [DONE] sentinel.
				s.send(ctx, llm.ResponseEvent{Type: llm.EventError, Err: ErrStreamClosed})
				return
			}
			if res.err != nil {
				s.send(ctx, llm.ResponseEvent{Type: llm.EventError, Err: fmt.Errorf("reading SSE stream: %w", res.err)})
				return
			}
			if s.processEvent(ctx, res.event) {
				return
			}
		}
	}
}

// pump pulls SSE events on a dedicated goroutine and forwards each result.
// It exits on the first error, on stream exhaustion, or once run has returned
// for any reason. Closing the response body unblocks a pull stuck in a
// transport read.
func (s *ChatStream) pump(ctx context.Context, out chan<- pullResult) {
	defer close(out)

	for {
		ev, err := s.stream.Next()
		select {
		case out <- pullResult{event: ev, err: err}:
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
		if err != nil || ev == nil {
			return
		}
	}
}

// processEvent interprets one SSE event's data payload. It returns true once
// the stream has finished and run should exit.
func (s *ChatStream) processEvent(ctx context.Context, ev *sse.Event) bool {
	if strings.TrimSpace(ev.Data) == doneSentinel {
		s.finalize(ctx)
		return true
	}

	var chunk chatChunk
	if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
		// Providers occasionally emit non-JSON keep-alive records; skip the
		// payload rather than killing the stream.
		s.logger.Debug("skipping undecodable stream chunk",
			"error", err,
			"data", ev.Data,
		)
		return false
	}

	if !s.createdEmitted {
		if !s.send(ctx, llm.ResponseEvent{Type: llm.EventCreated}) {
			return true
		}
		s.createdEmitted = true
	}

	if s.responseID == "" && chunk.ID != "" {
		s.responseID = chunk.ID
	}

	if chunk.Usage != nil {
		s.usage = &llm.Usage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
			TotalTokens:      chunk.Usage.TotalTokens,
		}
	}

	if chunk.Model != "" {
		if !s.noteServerModel(ctx, chunk.Model) {
			return true
		}
	}

	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			s.text.WriteString(choice.Delta.Content)
			if !s.send(ctx, llm.ResponseEvent{Type: llm.EventOutputTextDelta, Delta: choice.Delta.Content}) {
				return true
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			s.mergeToolCall(tc)
		}
	}

	return false
}

// noteServerModel emits a ServerModel event unless model matches the last
// value reported, suppressing the duplicate notifications providers produce
// by repeating the model name on every chunk.
func (s *ChatStream) noteServerModel(ctx context.Context, model string) bool {
	if model == s.lastServerModel {
		return true
	}
	s.lastServerModel = model
	return s.send(ctx, llm.ResponseEvent{Type: llm.EventServerModel, Model: model})
}

// mergeToolCall folds one fragment into the index-addressed table, growing it
// with empty placeholders so sparse or out-of-order index arrival keeps its
// positional semantics. Name and argument fragments concatenate; a non-empty
// id replaces any previously stored id for the same index, unlike the
// response-level id where the first value wins.
func (s *ChatStream) mergeToolCall(tc toolCallDelta) {
	if tc.Index < 0 {
		s.logger.Warn("dropping tool call fragment with negative index",
			"index", tc.Index,
		)
		return
	}

	for len(s.toolCalls) <= tc.Index {
		s.toolCalls = append(s.toolCalls, aggregatedCall{})
	}

	call := &s.toolCalls[tc.Index]
	if tc.ID != "" {
		call.id = tc.ID
	}
	call.name += tc.Function.Name
	call.arguments += tc.Function.Arguments
}

// finalize runs on the [DONE] sentinel: completed tool calls first in index
// order, then the assistant message if any text accumulated, then Completed.
func (s *ChatStream) finalize(ctx context.Context) {
	var suppressed int

	for i, call := range s.toolCalls {
		if call.name == "" {
			// A call whose name never arrived cannot be dispatched.
			suppressed++
			continue
		}

		id := call.id
		if id == "" {
			id = fmt.Sprintf("tool-call-%d", i)
		}

		done := llm.ResponseEvent{
			Type: llm.EventOutputItemDone,
			Item: &llm.OutputItem{
				Type: llm.OutputItemFunctionCall,
				Call: &llm.ToolCall{
					ID:        id,
					Name:      call.name,
					Arguments: call.arguments,
				},
			},
		}
		if !s.send(ctx, done) {
			return
		}
	}

	if suppressed > 0 {
		s.logger.Warn("suppressed nameless tool call fragments at end of stream",
			"count", suppressed,
		)
	}

	if text := s.text.String(); strings.TrimSpace(text) != "" {
		msg := llm.NewTextMessage("assistant", text)
		done := llm.ResponseEvent{
			Type: llm.EventOutputItemDone,
			Item: &llm.OutputItem{
				Type:    llm.OutputItemMessage,
				Message: &msg,
			},
		}
		if !s.send(ctx, done) {
			return
		}
	}

	s.send(ctx, llm.ResponseEvent{
		Type: llm.EventCompleted,
		Completed: &llm.CompletedResponse{
			ID:        s.responseID,
			Usage:     s.usage,
			CanAppend: false,
		},
	})
}

// send delivers one event, blocking while the channel is full so a slow
// consumer backpressures the decoder. It returns false once the caller has
// cancelled, which discards further output without treating it as an error.
func (s *ChatStream) send(ctx context.Context, ev llm.ResponseEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
