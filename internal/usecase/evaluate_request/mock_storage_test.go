package evaluate_request

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/domain/repository"
)

// MockRecorder is a mock implementation of the DecisionRecorder interface for testing purposes
type MockRecorder struct {
	mock.Mock
}

// Record mocks the Record method from DecisionRecorder interface
func (m *MockRecorder) Record(ctx context.Context, index entity.EndpointIndex, decision entity.Decision) error {
	args := m.Called(ctx, index, decision)
	return args.Error(0)
}

// Stats mocks the Stats method from DecisionRecorder interface
func (m *MockRecorder) Stats(ctx context.Context, n int) ([]repository.EndpointStats, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.EndpointStats), args.Error(1)
}

// Close mocks the Close method from DecisionRecorder interface
func (m *MockRecorder) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRegistry is a mock implementation of the EndpointRegistry interface
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Resolve(index entity.EndpointIndex) (*entity.EndpointState, bool) {
	args := m.Called(index)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*entity.EndpointState), args.Bool(1)
}

func (m *MockRegistry) Len() int {
	args := m.Called()
	return args.Int(0)
}
