// Package mocks provides testify mocks for the domain package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kjsbundle.dev/pkg/kjsbundle/internal/domain"
)

// MockWorkflow is a mock implementation of domain.Workflow.
type MockWorkflow struct {
	mock.Mock
}

var _ domain.Workflow = (*MockWorkflow)(nil)

// NewMockWorkflow creates a MockWorkflow whose expectations are asserted on cleanup.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	wf := &MockWorkflow{}
	wf.Mock.Test(t)

	t.Cleanup(func() { wf.AssertExpectations(t) })

	return wf
}

func (w *MockWorkflow) Run(ctx context.Context, args domain.BundleArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *MockWorkflow) List(ctx context.Context, args domain.BundleArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *MockWorkflow) Verify(ctx context.Context, args domain.BundleArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *MockWorkflow) Watch(ctx context.Context, args domain.BundleArgs) error {
	return w.Called(ctx, args).Error(0)
}
