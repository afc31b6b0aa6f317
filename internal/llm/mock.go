package llm

import "context"

// MockProvider is a test double with injectable behavior.
type MockProvider struct {
	CompleteFunc func(ctx context.Context, req Request) (*Response, error)
	Calls        []Request
}

// NewMockProvider returns a mock that echoes a canned response.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	m.Calls = append(m.Calls, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &Response{Text: "mock response", Provider: "mock", Model: "mock"}, nil
}

func (m *MockProvider) Name() string  { return "mock" }
func (m *MockProvider) Model() string { return "mock" }
