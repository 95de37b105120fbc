// internal/agent/mocks_test.go
package agent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vxkade/uipilot/api/schemas"
)

// mockBackend is a scripted schemas.Backend.
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Setup(ctx context.Context, initialURL string) error {
	args := m.Called(ctx, initialURL)
	return args.Error(0)
}

func (m *mockBackend) GetCurrentState(ctx context.Context) (*schemas.ScreenState, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*schemas.ScreenState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) Navigate(ctx context.Context, url string) schemas.ExecutionResult {
	args := m.Called(ctx, url)
	return args.Get(0).(schemas.ExecutionResult)
}

func (m *mockBackend) Click(ctx context.Context, target string) schemas.ExecutionResult {
	args := m.Called(ctx, target)
	return args.Get(0).(schemas.ExecutionResult)
}

func (m *mockBackend) Type(ctx context.Context, target, text string) schemas.ExecutionResult {
	args := m.Called(ctx, target, text)
	return args.Get(0).(schemas.ExecutionResult)
}

func (m *mockBackend) Scroll(ctx context.Context, direction schemas.ScrollDirection) schemas.ExecutionResult {
	args := m.Called(ctx, direction)
	return args.Get(0).(schemas.ExecutionResult)
}

func (m *mockBackend) PressKey(ctx context.Context, keyName string) schemas.ExecutionResult {
	args := m.Called(ctx, keyName)
	return args.Get(0).(schemas.ExecutionResult)
}

func (m *mockBackend) Mode() schemas.TargetMode {
	args := m.Called()
	return args.Get(0).(schemas.TargetMode)
}

func (m *mockBackend) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockTranslator is a scripted schemas.Translator.
type mockTranslator struct {
	mock.Mock
}

func (m *mockTranslator) Translate(ctx context.Context, command string, state *schemas.ScreenState) (*schemas.ActionPlan, error) {
	args := m.Called(ctx, command, state)
	if p := args.Get(0); p != nil {
		return p.(*schemas.ActionPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTranslator) ExtractData(ctx context.Context, query string, state *schemas.ScreenState) (map[string]any, error) {
	args := m.Called(ctx, query, state)
	if d := args.Get(0); d != nil {
		return d.(map[string]any), args.Error(1)
	}
	return nil, args.Error(1)
}
