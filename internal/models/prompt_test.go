package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestPromptKey_Identity(t *testing.T) {
	plain := NewPromptKey("greeting", nil, "")
	v1 := NewPromptKey("greeting", intPtr(1), "")
	prod := NewPromptKey("greeting", nil, "production")

	assert.Equal(t, plain, NewPromptKey("greeting", nil, ""))
	assert.NotEqual(t, plain, v1)
	assert.NotEqual(t, plain, prod)
	assert.NotEqual(t, v1, NewPromptKey("greeting", intPtr(2), ""))

	// version 0 set explicitly is not the same identity as no version
	assert.NotEqual(t, plain, NewPromptKey("greeting", intPtr(0), ""))

	m := map[PromptKey]int{plain: 1, v1: 2, prod: 3}
	assert.Len(t, m, 3)

	assert.Equal(t, "greeting", plain.String())
	assert.Equal(t, "greeting-version:1", v1.String())
	assert.Equal(t, "greeting-label:production", prod.String())
}

func TestTextPrompt_Compile(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]interface{}
		expected string
	}{
		{
			name:     "single variable",
			template: "Hello {{name}}!",
			vars:     map[string]interface{}{"name": "Ada"},
			expected: "Hello Ada!",
		},
		{
			name:     "whitespace inside braces",
			template: "Hello {{ name }}!",
			vars:     map[string]interface{}{"name": "Ada"},
			expected: "Hello Ada!",
		},
		{
			name:     "unresolved placeholder is kept",
			template: "Hello {{name}}, you are {{age}}",
			vars:     map[string]interface{}{"name": "Ada"},
			expected: "Hello Ada, you are {{age}}",
		},
		{
			name:     "no variables",
			template: "Hello {{name}}",
			vars:     nil,
			expected: "Hello {{name}}",
		},
		{
			name:     "numbers and booleans",
			template: "{{count}} items, in stock: {{inStock}}, price {{price}}",
			vars:     map[string]interface{}{"count": 3, "inStock": true, "price": 9.5},
			expected: "3 items, in stock: true, price 9.5",
		},
		{
			name:     "nested lookup",
			template: "Dear {{user.name}}",
			vars:     map[string]interface{}{"user": map[string]interface{}{"name": "Grace"}},
			expected: "Dear Grace",
		},
		{
			name:     "dotted exact key wins",
			template: "{{user.name}}",
			vars: map[string]interface{}{
				"user.name": "exact",
				"user":      map[string]interface{}{"name": "nested"},
			},
			expected: "exact",
		},
		{
			name:     "repeated variable",
			template: "{{x}}-{{x}}",
			vars:     map[string]interface{}{"x": "a"},
			expected: "a-a",
		},
		{
			name:     "nil value renders empty",
			template: "[{{x}}]",
			vars:     map[string]interface{}{"x": nil},
			expected: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &TextPrompt{Name: "t", Prompt: tt.template}
			assert.Equal(t, tt.expected, p.Compile(tt.vars))
		})
	}
}

func TestChatPrompt_Compile(t *testing.T) {
	p := &ChatPrompt{
		Name: "support",
		Messages: []ChatMessage{
			{Role: "system", Content: "You help {{company}} customers."},
			{Role: "user", Content: "My order {{orderId}} is late"},
			{Role: "assistant", Content: "Sorry about {{unknown}}"},
		},
	}

	got := p.Compile(map[string]interface{}{"company": "Acme", "orderId": "A-42"})
	want := []ChatMessage{
		{Role: "system", Content: "You help Acme customers."},
		{Role: "user", Content: "My order A-42 is late"},
		{Role: "assistant", Content: "Sorry about {{unknown}}"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("compiled messages mismatch (-want +got):\n%s", diff)
	}

	// the template itself is untouched
	assert.Equal(t, "You help {{company}} customers.", p.Messages[0].Content)
}

func TestClone_IsDeep(t *testing.T) {
	text := &TextPrompt{
		Name:    "greeting",
		Version: 3,
		Prompt:  "Hi {{name}}",
		Config:  map[string]interface{}{"model": "gpt-4o", "temperature": 0.2},
		Labels:  []string{"production"},
		Tags:    []string{"onboarding"},
	}
	tc := text.Clone()
	require.Equal(t, text, tc)

	tc.Config["model"] = "changed"
	tc.Labels[0] = "changed"
	tc.Tags = append(tc.Tags, "more")
	assert.Equal(t, "gpt-4o", text.Config["model"])
	assert.Equal(t, "production", text.Labels[0])
	assert.Len(t, text.Tags, 1)

	chat := &ChatPrompt{
		Name:     "support",
		Version:  1,
		Messages: []ChatMessage{{Role: "system", Content: "x"}},
		Config:   map[string]interface{}{"temperature": 0.1},
		Labels:   []string{"latest"},
		Tags:     []string{"support"},
	}
	cc := chat.Clone()
	require.Equal(t, chat, cc)
	cc.Messages[0].Content = "changed"
	assert.Equal(t, "x", chat.Messages[0].Content)

	var nilText *TextPrompt
	assert.Nil(t, nilText.Clone())
}

func TestFallbacks(t *testing.T) {
	text := NewTextFallback("greeting", "Hello {{name}}")
	assert.True(t, text.Fallback())
	assert.Equal(t, PromptKindText, text.Kind())
	assert.Equal(t, 0, text.PromptVersion())
	assert.Equal(t, "Hello Ada", text.Compile(map[string]interface{}{"name": "Ada"}))

	msgs := []ChatMessage{{Role: "system", Content: "be brief"}}
	chat := NewChatFallback("support", msgs)
	msgs[0].Content = "mutated"
	assert.True(t, chat.Fallback())
	assert.Equal(t, PromptKindChat, chat.Kind())
	assert.Equal(t, "be brief", chat.Messages[0].Content)
}

func TestPromptPayload_Materialize(t *testing.T) {
	textJSON := `{"name":"greeting","version":2,"type":"text","prompt":"Hi {{name}}","config":{"model":"x"},"labels":["production"],"tags":[]}`
	var textPayload PromptPayload
	require.NoError(t, json.Unmarshal([]byte(textJSON), &textPayload))

	text, err := textPayload.ToTextPrompt()
	require.NoError(t, err)
	assert.Equal(t, "Hi {{name}}", text.Prompt)
	assert.Equal(t, 2, text.Version)
	assert.Equal(t, []string{"production"}, text.Labels)
	assert.False(t, text.IsFallback)

	_, err = textPayload.ToChatPrompt()
	assert.Error(t, err)

	chatJSON := `{"name":"support","version":1,"type":"chat","prompt":[{"role":"system","content":"Be {{tone}}"}]}`
	var chatPayload PromptPayload
	require.NoError(t, json.Unmarshal([]byte(chatJSON), &chatPayload))

	chat, err := chatPayload.ToChatPrompt()
	require.NoError(t, err)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "system", chat.Messages[0].Role)
	assert.NotNil(t, chat.Config)

	_, err = chatPayload.ToTextPrompt()
	assert.Error(t, err)
}

func TestPrompt_SealedUnion(t *testing.T) {
	prompts := []Prompt{&TextPrompt{Name: "a"}, &ChatPrompt{Name: "b"}}
	kinds := []PromptKind{}
	for _, p := range prompts {
		switch v := p.(type) {
		case *TextPrompt:
			kinds = append(kinds, v.Kind())
		case *ChatPrompt:
			kinds = append(kinds, v.Kind())
		}
	}
	assert.Equal(t, []PromptKind{PromptKindText, PromptKindChat}, kinds)
}
