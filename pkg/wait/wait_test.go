package wait

import (
	"context"
	"testing"
	"time"
)

func TestForImmediateSuccess(t *testing.T) {
	calls := 0
	ok := For(context.Background(), func() bool {
		calls++
		return true
	}, time.Second, 10*time.Millisecond)

	if !ok {
		t.Fatal("expected true for a passing condition")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 evaluation, got %d", calls)
	}
}

func TestForEventualSuccess(t *testing.T) {
	calls := 0
	ok := For(context.Background(), func() bool {
		calls++
		return calls >= 3
	}, time.Second, 5*time.Millisecond)

	if !ok {
		t.Fatal("expected true once the condition starts passing")
	}
	if calls != 3 {
		t.Errorf("expected 3 evaluations, got %d", calls)
	}
}

func TestForTimeout(t *testing.T) {
	const (
		timeout  = 100 * time.Millisecond
		interval = 20 * time.Millisecond
	)

	calls := 0
	start := time.Now()
	ok := For(context.Background(), func() bool {
		calls++
		return false
	}, timeout, interval)
	elapsed := time.Since(start)

	if ok {
		t.Fatal("expected false on timeout")
	}
	if elapsed < timeout {
		t.Errorf("returned after %v, before the %v deadline", elapsed, timeout)
	}
	// The deadline is only checked after a failed evaluation, so at least
	// floor(timeout/interval) probes must have run.
	if min := int(timeout / interval); calls < min {
		t.Errorf("expected at least %d evaluations, got %d", min, calls)
	}
}

func TestForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	ok := For(ctx, func() bool { return false }, time.Minute, 10*time.Millisecond)

	if ok {
		t.Fatal("expected false after cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v to unblock the poll", elapsed)
	}
}

func TestAlwaysHolds(t *testing.T) {
	const window = 100 * time.Millisecond

	start := time.Now()
	ok := Always(context.Background(), func() bool { return true }, window, 10*time.Millisecond)
	elapsed := time.Since(start)

	if !ok {
		t.Fatal("expected true for a condition that always holds")
	}
	if elapsed < window {
		t.Errorf("returned after %v, before the %v window completed", elapsed, window)
	}
}

func TestAlwaysFirstViolation(t *testing.T) {
	calls := 0
	start := time.Now()
	ok := Always(context.Background(), func() bool {
		calls++
		return calls < 3
	}, time.Minute, 5*time.Millisecond)

	if ok {
		t.Fatal("expected false once the condition stops holding")
	}
	if calls != 3 {
		t.Errorf("expected the poll to stop at the failing evaluation, got %d calls", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("violation took %v to report", elapsed)
	}
}

func TestAlwaysImmediateViolation(t *testing.T) {
	calls := 0
	ok := Always(context.Background(), func() bool {
		calls++
		return false
	}, time.Minute, 10*time.Millisecond)

	if ok {
		t.Fatal("expected false for a condition that never holds")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 evaluation, got %d", calls)
	}
}
