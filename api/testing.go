// Package api
// Author: momentics
//
// Mock/testing utilities for all core contracts; extendable for new interfaces.

package api

// MockExecutor is a test and mock-friendly implementation of Executor.
type MockExecutor struct {
	SubmitFunc     func(func()) error
	NumWorkersFunc func() int
	ResizeFunc     func(int)
}

func (m *MockExecutor) Submit(task func()) error { return m.SubmitFunc(task) }
func (m *MockExecutor) NumWorkers() int           { return m.NumWorkersFunc() }
func (m *MockExecutor) Resize(n int)              { m.ResizeFunc(n) }

var _ Executor = (*MockExecutor)(nil)

// Extend with mocks for all additional core contracts as architecture evolves.
