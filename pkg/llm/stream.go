package llm

// ResponseEventType discriminates the variants of ResponseEvent.
type ResponseEventType string

const (
	// EventCreated is emitted exactly once, before any output, as soon as
	// the first chunk of the response decodes successfully.
	EventCreated ResponseEventType = "created"

	// EventServerModel reports the model identity the server claims to be
	// serving. Repeats of the same value are suppressed; a changed value is
	// reported again.
	EventServerModel ResponseEventType = "server_model"

	// EventOutputTextDelta carries one fragment of assistant text, not the
	// accumulated total.
	EventOutputTextDelta ResponseEventType = "output_text_delta"

	// EventOutputItemDone carries one completed output item: a fully merged
	// tool call, or the final assistant message. Tool calls are always
	// delivered before the assistant message.
	EventOutputItemDone ResponseEventType = "output_item_done"

	// EventCompleted is the last successful event of a response, carrying
	// the response id and final usage totals.
	EventCompleted ResponseEventType = "completed"

	// EventError is terminal: no further events follow it on the channel.
	EventError ResponseEventType = "error"
)

// ResponseEvent is one normalized event of a streaming chat completion.
// Exactly one payload field is populated, selected by Type.
type ResponseEvent struct {
	Type ResponseEventType

	// Model is set for EventServerModel.
	Model string

	// Delta is set for EventOutputTextDelta.
	Delta string

	// Item is set for EventOutputItemDone.
	Item *OutputItem

	// Completed is set for EventCompleted.
	Completed *CompletedResponse

	// Err is set for EventError.
	Err error
}

// OutputItemType discriminates the variants of OutputItem.
type OutputItemType string

const (
	OutputItemFunctionCall OutputItemType = "function_call"
	OutputItemMessage      OutputItemType = "message"
)

// OutputItem is one completed item of model output.
type OutputItem struct {
	Type OutputItemType

	// Call is set for OutputItemFunctionCall.
	Call *ToolCall

	// Message is set for OutputItemMessage.
	Message *Message
}

// ToolCall is a fully merged tool/function call: every name and argument
// fragment streamed for its index has been concatenated.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// CompletedResponse carries the terminal metadata of a finished response.
type CompletedResponse struct {
	// ID is the response id reported by the provider, or "" if none arrived.
	ID string

	// Usage is the last usage payload observed, usually from the terminal
	// chunk. Nil if the provider never reported usage.
	Usage *Usage

	// CanAppend reports whether the provider supports continuing this
	// response in a follow-up call. Chat completions cannot be appended to.
	CanAppend bool
}
