package modaics

import (
	"context"
	"encoding/json"

	"github.com/modaics/modaics-go/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockTransport mocks the Transport interface for service tests.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Execute(ctx context.Context, req *types.Request, result interface{}) error {
	args := m.Called(ctx, req, result)

	if response, ok := args.Get(0).(string); ok && response != "" && result != nil {
		if err := json.Unmarshal([]byte(response), result); err != nil {
			return err
		}
	}
	return args.Error(1)
}

func (m *MockTransport) Cancel(endpoint string) {
	m.Called(endpoint)
}

func (m *MockTransport) CancelAll() {
	m.Called()
}

// newTestClient wires a client around a mock transport.
func newTestClient(t *MockTransport) *Client {
	c := &Client{
		options: &ClientOptions{},
		configs: NewConfigProvider(ConfigFor(Development)),
	}
	c.transport = t
	c.initServices()
	return c
}
