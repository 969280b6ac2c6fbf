package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestManagerRunsTasksAndCollectsErrors(t *testing.T) {
	m := NewManager(4)

	var ran atomic.Int32
	taskErr := errors.New("publish failed")

	for range 3 {
		m.Go(context.Background(), func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	m.Go(context.Background(), func(context.Context) error {
		ran.Add(1)
		return taskErr
	})

	err := m.Wait()
	if !errors.Is(err, taskErr) {
		t.Errorf("Wait() = %v, want wrapped taskErr", err)
	}

	if got := ran.Load(); got != 4 {
		t.Errorf("ran = %d, want 4", got)
	}
}

func TestManagerRecoversPanic(t *testing.T) {
	m := NewManager(1)

	m.Go(context.Background(), func(context.Context) error {
		panic("boom")
	})

	if err := m.Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil after recovered panic", err)
	}
}

func TestManagerSkipsAfterWait(t *testing.T) {
	m := NewManager(1)

	if err := m.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}

	var ran atomic.Bool
	m.Go(context.Background(), func(context.Context) error {
		ran.Store(true)
		return nil
	})

	if ran.Load() {
		t.Error("task ran after manager was closed")
	}
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager

	m.Go(context.Background(), func(context.Context) error { return nil })

	if err := m.Wait(); err != nil {
		t.Errorf("Wait() on nil = %v", err)
	}
}
