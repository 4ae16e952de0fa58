package lifecycle

import (
	"context"
	"errors"
	"slices"
	"syscall"
	"testing"
	"time"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	boom := errors.New("boom")

	m.Register("store", func(context.Context) error {
		order = append(order, "store")
		return nil
	})
	m.RegisterCloser("redis", closerFunc(func() error {
		order = append(order, "redis")
		return boom
	}))
	m.Register("refresher", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("hooks must get a deadline")
		}
		order = append(order, "refresher")
		return nil
	})
	m.Register("ignored", nil)
	m.RegisterCloser("ignored", nil)

	err := m.Shutdown(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Shutdown = %v, want the hook error", err)
	}
	if want := []string{"refresher", "redis", "store"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}

	order = nil
	if err := m.Shutdown(context.Background()); err != nil || len(order) != 0 {
		t.Errorf("second Shutdown ran %v, %v", order, err)
	}
}

func TestShutdownSurvivesCancelledParent(t *testing.T) {
	m := New(time.Second, nil)
	ran := false
	m.Register("store", func(ctx context.Context) error {
		ran = true
		return ctx.Err()
	})

	parent, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Shutdown(parent); err != nil {
		t.Errorf("Shutdown = %v, hooks should not inherit the cancellation", err)
	}
	if !ran {
		t.Error("hook did not run")
	}
}

func TestNotifyContextOnSignal(t *testing.T) {
	m := New(0, nil)
	ctx, cancel := m.NotifyContext(context.Background())
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Skipf("cannot signal self: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
}
