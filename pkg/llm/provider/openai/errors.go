package openai

import "errors"

var (
	// ErrIdleTimeout indicates the transport stopped producing events for
	// longer than the configured idle window without signalling end of stream.
	ErrIdleTimeout = errors.New("idle timeout waiting for stream events")

	// ErrStreamClosed indicates the transport ended before the [DONE]
	// sentinel arrived.
	ErrStreamClosed = errors.New("stream closed before completion finished")
)
