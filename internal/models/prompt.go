// internal/models/prompt.go
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jinzhu/copier"
)

type PromptKind string

const (
	PromptKindText PromptKind = "text"
	PromptKindChat PromptKind = "chat"
)

// PromptKey identifies a cached prompt. It is comparable and used directly as
// a map key. A key without version and label is distinct from every resolved
// version of the same name.
type PromptKey struct {
	Name       string
	Version    int
	HasVersion bool
	Label      string
	HasLabel   bool
}

// NewPromptKey builds a key; a nil version or empty label means "not set".
func NewPromptKey(name string, version *int, label string) PromptKey {
	key := PromptKey{Name: name}
	if version != nil {
		key.Version = *version
		key.HasVersion = true
	}
	if label != "" {
		key.Label = label
		key.HasLabel = true
	}
	return key
}

func (k PromptKey) String() string {
	var b strings.Builder
	b.WriteString(k.Name)
	if k.HasVersion {
		b.WriteString("-version:")
		b.WriteString(strconv.Itoa(k.Version))
	}
	if k.HasLabel {
		b.WriteString("-label:")
		b.WriteString(k.Label)
	}
	return b.String()
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is implemented by *TextPrompt and *ChatPrompt only.
type Prompt interface {
	Kind() PromptKind
	PromptName() string
	PromptVersion() int
	Fallback() bool
	isPrompt()
}

type TextPrompt struct {
	Name       string                 `json:"name"`
	Version    int                    `json:"version"`
	Prompt     string                 `json:"prompt"`
	Config     map[string]interface{} `json:"config"`
	Labels     []string               `json:"labels"`
	Tags       []string               `json:"tags"`
	IsFallback bool                   `json:"isFallback"`
}

func (p *TextPrompt) Kind() PromptKind   { return PromptKindText }
func (p *TextPrompt) PromptName() string { return p.Name }
func (p *TextPrompt) PromptVersion() int { return p.Version }
func (p *TextPrompt) Fallback() bool     { return p.IsFallback }
func (p *TextPrompt) isPrompt()          {}

// Compile substitutes variables into the prompt text. Placeholders without a
// matching variable are kept verbatim.
func (p *TextPrompt) Compile(vars map[string]interface{}) string {
	return compileTemplate(p.Prompt, vars)
}

// Clone returns a deep copy that shares no maps or slices with p.
func (p *TextPrompt) Clone() *TextPrompt {
	if p == nil {
		return nil
	}
	out := &TextPrompt{}
	if err := copier.CopyWithOption(out, p, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds, which cannot happen here.
		panic(fmt.Sprintf("clone text prompt: %v", err))
	}
	return out
}

type ChatPrompt struct {
	Name       string                 `json:"name"`
	Version    int                    `json:"version"`
	Messages   []ChatMessage          `json:"prompt"`
	Config     map[string]interface{} `json:"config"`
	Labels     []string               `json:"labels"`
	Tags       []string               `json:"tags"`
	IsFallback bool                   `json:"isFallback"`
}

func (p *ChatPrompt) Kind() PromptKind   { return PromptKindChat }
func (p *ChatPrompt) PromptName() string { return p.Name }
func (p *ChatPrompt) PromptVersion() int { return p.Version }
func (p *ChatPrompt) Fallback() bool     { return p.IsFallback }
func (p *ChatPrompt) isPrompt()          {}

// Compile substitutes variables into every message, keeping order and roles.
func (p *ChatPrompt) Compile(vars map[string]interface{}) []ChatMessage {
	out := make([]ChatMessage, len(p.Messages))
	for i, m := range p.Messages {
		out[i] = ChatMessage{Role: m.Role, Content: compileTemplate(m.Content, vars)}
	}
	return out
}

func (p *ChatPrompt) Clone() *ChatPrompt {
	if p == nil {
		return nil
	}
	out := &ChatPrompt{}
	if err := copier.CopyWithOption(out, p, copier.Option{DeepCopy: true}); err != nil {
		panic(fmt.Sprintf("clone chat prompt: %v", err))
	}
	return out
}

// NewTextFallback builds a local prompt that is never cached.
func NewTextFallback(name, text string) *TextPrompt {
	return &TextPrompt{
		Name:       name,
		Prompt:     text,
		Config:     map[string]interface{}{},
		IsFallback: true,
	}
}

func NewChatFallback(name string, messages []ChatMessage) *ChatPrompt {
	msgs := make([]ChatMessage, len(messages))
	copy(msgs, messages)
	return &ChatPrompt{
		Name:       name,
		Messages:   msgs,
		Config:     map[string]interface{}{},
		IsFallback: true,
	}
}

// PromptPayload is the body of GET /api/public/v2/prompts/{name}. Prompt is
// a string for text prompts and a message array for chat prompts.
type PromptPayload struct {
	Name    string                 `json:"name"`
	Version int                    `json:"version"`
	Type    PromptKind             `json:"type"`
	Prompt  json.RawMessage        `json:"prompt"`
	Config  map[string]interface{} `json:"config"`
	Labels  []string               `json:"labels"`
	Tags    []string               `json:"tags"`
}

func (p *PromptPayload) ToTextPrompt() (*TextPrompt, error) {
	if p.Type != PromptKindText {
		return nil, fmt.Errorf("payload type is %q, not %q", p.Type, PromptKindText)
	}
	var text string
	if err := json.Unmarshal(p.Prompt, &text); err != nil {
		return nil, fmt.Errorf("decode text prompt: %w", err)
	}
	return &TextPrompt{
		Name:    p.Name,
		Version: p.Version,
		Prompt:  text,
		Config:  nonNilConfig(p.Config),
		Labels:  p.Labels,
		Tags:    p.Tags,
	}, nil
}

func (p *PromptPayload) ToChatPrompt() (*ChatPrompt, error) {
	if p.Type != PromptKindChat {
		return nil, fmt.Errorf("payload type is %q, not %q", p.Type, PromptKindChat)
	}
	var messages []ChatMessage
	if err := json.Unmarshal(p.Prompt, &messages); err != nil {
		return nil, fmt.Errorf("decode chat prompt: %w", err)
	}
	return &ChatPrompt{
		Name:     p.Name,
		Version:  p.Version,
		Messages: messages,
		Config:   nonNilConfig(p.Config),
		Labels:   p.Labels,
		Tags:     p.Tags,
	}, nil
}

func nonNilConfig(cfg map[string]interface{}) map[string]interface{} {
	if cfg == nil {
		return map[string]interface{}{}
	}
	return cfg
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

func compileTemplate(tmpl string, vars map[string]interface{}) string {
	if len(vars) == 0 {
		return tmpl
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := lookupVariable(vars, key)
		if !ok {
			return match
		}
		return formatVariable(value)
	})
}

// lookupVariable prefers an exact key and falls back to a dotted path into
// nested maps.
func lookupVariable(vars map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := vars[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}

	current := interface{}(vars)
	for _, part := range strings.Split(key, ".") {
		currentMap, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		val, exists := currentMap[part]
		if !exists {
			return nil, false
		}
		current = val
	}
	return current, true
}

func formatVariable(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}
