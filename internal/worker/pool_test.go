package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSequenceKeepsOrderAndContinuesAfterFailure(t *testing.T) {
	var order []int
	seq := NewSequence(0, func(_ context.Context, n int) (int, error) {
		order = append(order, n)
		if n == 2 {
			return 0, errors.New("boom")
		}
		return n * 10, nil
	})

	tasks := seq.Execute(context.Background(), []int{1, 2, 3})
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	if order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v", order)
	}
	if tasks[1].Err == nil || tasks[2].Result != 30 {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestSequenceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	seq := NewSequence(0, func(_ context.Context, n int) (int, error) {
		if n == 1 {
			cancel()
		}
		return n, nil
	})
	tasks := seq.Execute(ctx, []int{1, 2, 3})
	if len(tasks) != 1 {
		t.Errorf("got %d tasks after cancel, want 1", len(tasks))
	}
}

func TestBoundedTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	_, err := Bounded(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestBoundedReturnsResult(t *testing.T) {
	got, err := Bounded(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestBoundedRecoversPanic(t *testing.T) {
	for _, timeout := range []time.Duration{0, time.Second} {
		_, err := Bounded(context.Background(), timeout, func(ctx context.Context) (int, error) {
			panic("renderer crashed")
		})
		if err == nil {
			t.Errorf("timeout %s: expected error from panic", timeout)
		}
	}
}

func TestBoundedSettleUndoesLateResult(t *testing.T) {
	var settled []int
	_, err := BoundedSettle(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 7, nil
	}, func(n int) { settled = append(settled, n) })

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if len(settled) != 1 || settled[0] != 7 {
		t.Errorf("settled = %v, want [7]", settled)
	}
}

func TestBoundedSettleInTime(t *testing.T) {
	got, err := BoundedSettle(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 3, nil
	}, func(int) { t.Error("in-time result settled") })
	if err != nil || got != 3 {
		t.Errorf("got %d, %v", got, err)
	}
}
