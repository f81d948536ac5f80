package provider

import (
	"context"
	"fmt"
	"time"
)

// MockProvider generates simulated responses for testing and demos.
type MockProvider struct {
	delay time.Duration
}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{delay: 100 * time.Millisecond}
}

// Name returns the provider identifier.
func (p *MockProvider) Name() string {
	return "mock"
}

// Available always returns true for mock provider.
func (p *MockProvider) Available() bool {
	return true
}

// Generate produces a simulated response.
func (p *MockProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.delay):
	}

	content := fmt.Sprintf("---ARGUMENT---\nMock response to: %s... [Simulated content]\n---END ARGUMENT---", truncate(req.Prompt, 50))
	return &Response{Content: content, Provider: "mock"}, nil
}

// GenerateStream produces a simulated response in a single chunk.
func (p *MockProvider) GenerateStream(ctx context.Context, req *Request, onChunk func(chunk string) error) (*Response, error) {
	resp, err := p.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if onChunk != nil {
		if err := onChunk(resp.Content); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
