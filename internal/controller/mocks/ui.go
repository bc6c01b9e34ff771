// Package mocks provides testify mocks for the controller package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kjsbundle.dev/pkg/kjsbundle/internal/controller"
	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// MockUI is a mock implementation of controller.UI.
type MockUI struct {
	mock.Mock
}

var _ controller.UI = (*MockUI)(nil)

// NewMockUI creates a MockUI whose expectations are asserted on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	ui := &MockUI{}
	ui.Mock.Test(t)

	t.Cleanup(func() { ui.AssertExpectations(t) })

	return ui
}

func (u *MockUI) DisplayEntries(ctx context.Context, goal string, entries []m.Entry) error {
	args := u.Called(ctx, goal, entries)
	return args.Error(0)
}

func (u *MockUI) DisplayBundle(ctx context.Context, manifest m.Manifest) error {
	args := u.Called(ctx, manifest)
	return args.Error(0)
}

func (u *MockUI) DisplayVerify(ctx context.Context, result controller.VerifyResult) error {
	args := u.Called(ctx, result)
	return args.Error(0)
}

// StartWatch returns the context configured with Return, or ctx when none was.
func (u *MockUI) StartWatch(ctx context.Context, goal string, roots []m.Path) context.Context {
	args := u.Called(ctx, goal, roots)
	if watchCtx, ok := args.Get(0).(context.Context); ok {
		return watchCtx
	}

	return ctx
}

func (u *MockUI) StopWatch(ctx context.Context) {
	u.Called(ctx)
}

func (u *MockUI) DisplayWatchEvent(ctx context.Context, changed []m.Path) {
	u.Called(ctx, changed)
}

func (u *MockUI) DisplayError(ctx context.Context, err error) {
	u.Called(ctx, err)
}
