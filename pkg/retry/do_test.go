package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_Success(t *testing.T) {
	ctx := context.Background()
	err := Do(ctx, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestDo_RetrySuccess(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, WithMaxAttempts(3), WithBackoff(Fixed(time.Millisecond)))
	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoWithReport_MaxAttempts(t *testing.T) {
	ctx := context.Background()
	calls := 0
	attempts, err := DoWithReport(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("persistent error")
	}, WithMaxAttempts(4), WithBackoff(Fixed(time.Millisecond)))
	if err == nil {
		t.Error("expected error after max attempts")
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
	if attempts != 4 {
		t.Errorf("expected 4 reported attempts, got %d", attempts)
	}
}

func TestDoWithReport_FirstTrySuccess(t *testing.T) {
	attempts, err := DoWithReport(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_ExponentialBackoff(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	start := time.Now()
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, WithMaxAttempts(3), WithBackoff(Exponential(50*time.Millisecond)))
	duration := time.Since(start)

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	// Should sleep: 50ms (2^0 * 50) + 100ms (2^1 * 50) = 150ms
	if duration < 140*time.Millisecond || duration > 400*time.Millisecond {
		t.Errorf("expected duration around 150ms, got %v", duration)
	}
}

func TestDo_OnRetryObserver(t *testing.T) {
	var seen []int
	var waits []time.Duration
	_ = Do(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	},
		WithMaxAttempts(3),
		WithBackoff(Exponential(time.Millisecond)),
		WithOnRetry(func(attempt int, err error, wait time.Duration) {
			seen = append(seen, attempt)
			waits = append(waits, wait)
		}),
	)

	if len(seen) != 2 {
		t.Fatalf("expected 2 retry callbacks, got %d", len(seen))
	}
	if seen[0] != 1 || seen[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", seen)
	}
	if waits[0] != time.Millisecond || waits[1] != 2*time.Millisecond {
		t.Errorf("expected doubling waits, got %v", waits)
	}
}

func TestDo_RetryIf(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fatal
	}, WithMaxAttempts(5), WithRetryIf(func(err error) bool {
		return !errors.Is(err, fatal)
	}))
	if !errors.Is(err, fatal) {
		t.Errorf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(ctx context.Context) error {
		t.Error("function should not run with cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	}, WithMaxAttempts(3), WithBackoff(Fixed(time.Second)))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}
