// internal/workers/prompts/compile-prompt/models.go
package compileprompt

import "prompt-access/internal/models"

type Input struct {
	PromptName       string                 `json:"promptName"`
	Version          *int                   `json:"version,omitempty"`
	Label            string                 `json:"label,omitempty"`
	Type             models.PromptKind      `json:"type"`
	Variables        map[string]interface{} `json:"variables,omitempty"`
	FallbackText     *string                `json:"fallbackText,omitempty"`
	FallbackMessages []models.ChatMessage   `json:"fallbackMessages,omitempty"`
}

// Output carries compiledText for text prompts and compiledMessages for chat
// prompts.
type Output struct {
	CompiledText     string               `json:"compiledText,omitempty"`
	CompiledMessages []models.ChatMessage `json:"compiledMessages,omitempty"`
	PromptVersion    int                  `json:"promptVersion"`
	IsFallback       bool                 `json:"isFallback"`
}
