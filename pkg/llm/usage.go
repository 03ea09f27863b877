package llm

// Usage contains token counts for a completed response. Providers typically
// send usage only on the terminal streaming chunk.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}
