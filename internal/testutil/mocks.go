package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/kaiwsv/rootsrecipes-api/internal/ai"
)

// MockGroundedProvider is a mock implementation of ai.GroundedProvider.
type MockGroundedProvider struct {
	GenerateGroundedFunc func(ctx context.Context, req ai.GroundedRequest) (*ai.GroundedResult, error)

	mu    sync.Mutex
	calls []ai.GroundedRequest
}

func (m *MockGroundedProvider) GenerateGrounded(ctx context.Context, req ai.GroundedRequest) (*ai.GroundedResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.GenerateGroundedFunc != nil {
		return m.GenerateGroundedFunc(ctx, req)
	}
	return nil, fmt.Errorf("GenerateGrounded not configured")
}

// CallCount returns how many times GenerateGrounded has been invoked.
func (m *MockGroundedProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the requests seen so far, in order.
func (m *MockGroundedProvider) Calls() []ai.GroundedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.GroundedRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
