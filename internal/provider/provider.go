// Package provider wraps command-line AI tools behind a unified
// generation interface with buffered and streaming calls.
package provider

import (
	"context"
	"time"
)

// Provider defines the interface for AI CLI providers.
type Provider interface {
	// Name returns the provider's unique identifier (e.g., "claude").
	Name() string

	// Available checks if the provider's CLI tool is installed and accessible.
	Available() bool

	// Generate sends a request and returns the fully-buffered response.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GenerateStream sends a request and invokes onChunk for each piece of
	// incremental output, returning the accumulated response at the end.
	// Callers that only need the final result should use Generate.
	GenerateStream(ctx context.Context, req *Request, onChunk func(chunk string) error) (*Response, error)
}

// Request represents a generation request to an AI provider.
type Request struct {
	// System is the role-fixed system prompt prepended to the user prompt.
	System string

	// Prompt is the input text to send to the AI.
	Prompt string

	// Model is the specific model to use. If empty, the provider's
	// default model will be used.
	Model string
}

// Response represents a provider's response.
type Response struct {
	// Content is the AI-generated text response.
	Content string `json:"content"`

	// Model is the model that was used for this response.
	Model string `json:"model,omitempty"`

	// Provider is the name of the provider that generated this response.
	Provider string `json:"provider,omitempty"`

	// Duration is the time taken to generate the response.
	Duration time.Duration `json:"duration,omitempty"`
}

// Config holds configuration for creating a provider.
type Config struct {
	// Name is the unique identifier for this provider.
	Name string

	// Command is the CLI executable name (e.g., "claude", "gemini").
	Command string

	// Args are default arguments to pass to the CLI command.
	Args []string

	// ModelFlag is the CLI flag used to select a model (e.g., "--model").
	// If empty, Request.Model is ignored.
	ModelFlag string

	// DefaultModel is the model to use when Request.Model is empty.
	DefaultModel string

	// Timeout is the maximum duration for a request. Default: 5 minutes.
	Timeout time.Duration
}
