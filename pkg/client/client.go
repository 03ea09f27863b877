// Package client issues streaming chat completion requests against an
// OpenAI-compatible provider and hands the response stream to the decoder.
// It owns request construction and HTTP error surfacing only; everything
// after the response body is established belongs to the openai decoder.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/provider/openai"
	"github.com/papercomputeco/relay/pkg/logger"
)

const (
	completionsPath = "/chat/completions"

	// maxErrorBodyBytes caps how much of a non-2xx response body is read
	// into the returned error.
	maxErrorBodyBytes = 4 * 1024
)

// ErrNotEventStream indicates the provider answered with a non-streaming
// content type where an SSE stream was expected.
var ErrNotEventStream = errors.New("response is not an event stream")

// Client issues streaming chat completion requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
	streamOpts []openai.Option
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The default has no overall
// timeout: streaming responses stay open far longer than any sane request
// timeout, so stalls are handled by the decoder's idle timeout instead.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithStreamOptions sets options passed through to each ChatStream.
func WithStreamOptions(opts ...openai.Option) Option {
	return func(c *Client) {
		c.streamOpts = opts
	}
}

// New creates a Client for the provider at baseURL, authenticating with
// apiKey and requesting completions from model.
func New(baseURL, apiKey, model string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StreamCompletion posts messages as a streaming chat completion request and
// returns the decoding ChatStream. The returned stream owns the response
// body; the caller consumes events until the channel closes.
func (c *Client) StreamCompletion(ctx context.Context, messages []llm.Message) (*openai.ChatStream, error) {
	reqBody := openai.Request{
		Model:         c.model,
		Messages:      toRequestMessages(messages),
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Request-Id", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("completion request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "text/event-stream" {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: content type %q", ErrNotEventStream, resp.Header.Get("Content-Type"))
	}

	c.logger.Debug("completion stream established",
		"request_id", requestID,
		"model", c.model,
		"elapsed", time.Since(start),
	)

	opts := append([]openai.Option{openai.WithLogger(c.logger)}, c.streamOpts...)

	return openai.NewChatStream(ctx, resp.Body, resp.Header, opts...), nil
}

// toRequestMessages flattens provider-agnostic messages into OpenAI's wire
// format. Tool results become role "tool" messages carrying the call id.
func toRequestMessages(messages []llm.Message) []openai.RequestMessage {
	out := make([]openai.RequestMessage, 0, len(messages))
	for _, msg := range messages {
		converted := openai.RequestMessage{
			Role:    msg.Role,
			Content: msg.GetText(),
		}
		for _, block := range msg.Content {
			if block.Type == "tool_result" {
				converted.Role = "tool"
				converted.Content = block.ToolOutput
				converted.ToolCallID = block.ToolResultID
			}
		}
		out = append(out, converted)
	}
	return out
}
