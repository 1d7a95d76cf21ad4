package model

import (
	"context"
	"fmt"
)

// Request captures one normalized completion request produced by an agent.
type Request struct {
	// System sets the drafting instructions, typically rendered from an
	// agent's role template.
	System string `json:"system,omitempty"`
	// Prompt is the user-turn payload, typically a serialized slice of the
	// fact state the agent reasons over.
	Prompt string `json:"prompt"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion for a request.
type Response struct {
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by drafting agents.
type Model interface {
	// Complete returns one completion for the request. Implementations must
	// honor ctx cancellation: the engine treats an overrunning call as a
	// contained agent failure.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are canned per prompt, so runs driven by a MockModel are fully
// deterministic.
type MockModel struct {
	info      Info
	responses map[string]string
	err       error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith makes every subsequent Complete call return err. Used to exercise
// the containment path of model-backed agents.
func (m *MockModel) FailWith(err error) { m.err = err }

// Complete implements Model. Unknown prompts get a derived echo response so
// examples work without scripting every exchange.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("no prompt provided")
	}

	content, ok := m.responses[req.Prompt]
	if !ok {
		content = fmt.Sprintf("mock response to: %s", req.Prompt)
	}
	return &Response{Content: content, FinishReason: "stop"}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
