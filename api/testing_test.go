package api

import "testing"

func TestMockExecutorSatisfiesExecutor(t *testing.T) {
	var submitted []func()
	m := &MockExecutor{
		SubmitFunc: func(task func()) error {
			submitted = append(submitted, task)
			return nil
		},
		NumWorkersFunc: func() int { return 4 },
		ResizeFunc:     func(int) {},
	}

	var exec Executor = m
	if err := exec.Submit(func() {}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(submitted) != 1 {
		t.Fatalf("expected 1 submitted task, got %d", len(submitted))
	}
	if exec.NumWorkers() != 4 {
		t.Fatalf("NumWorkers() = %d, want 4", exec.NumWorkers())
	}
	exec.Resize(8)
}
