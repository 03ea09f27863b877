package openai

// chatChunk represents one streaming chunk of OpenAI's Chat Completions API
// (object "chat.completion.chunk"). Decoding is permissive: absent or unknown
// fields simply default, since providers add fields freely.
type chatChunk struct {
	ID      string        `json:"id"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
	Usage   *chunkUsage   `json:"usage,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

type chunkDelta struct {
	Content   string          `json:"content"`
	ToolCalls []toolCallDelta `json:"tool_calls,omitempty"`
}

// toolCallDelta is one fragment of a tool call. Fragments for the same call
// share a positional index; the id typically arrives only on the first
// fragment, while name and arguments are streamed as string pieces.
type toolCallDelta struct {
	Index    int           `json:"index"`
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type,omitempty"`
	Function functionDelta `json:"function"`
}

type functionDelta struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chunkUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is OpenAI's chat completion request format, restricted to the
// fields the relay client sends.
type Request struct {
	Model         string           `json:"model"`
	Messages      []RequestMessage `json:"messages"`
	Stream        bool             `json:"stream"`
	StreamOptions *StreamOptions   `json:"stream_options,omitempty"`
	Tools         []map[string]any `json:"tools,omitempty"`
}

// RequestMessage is a message in OpenAI's request format.
type RequestMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// StreamOptions controls streaming behavior of the request.
type StreamOptions struct {
	// IncludeUsage asks the provider to send usage totals on the terminal chunk.
	IncludeUsage bool `json:"include_usage"`
}
