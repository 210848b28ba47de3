package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), cfg, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("returns last error when attempts run out", func(t *testing.T) {
		wantErr := errors.New("still broken")
		attempts := 0
		err := Retry(context.Background(), cfg, func() error {
			attempts++
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected %v, got %v", wantErr, err)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("noRetry error returned immediately", func(t *testing.T) {
		fatal := errors.New("fatal")
		attempts := 0
		err := Retry(context.Background(), cfg, func() error {
			attempts++
			return fatal
		}, fatal)
		if !errors.Is(err, fatal) {
			t.Fatalf("expected %v, got %v", fatal, err)
		}
		if attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("context cancellation stops the backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Retry(ctx, RetryConfig{MaxAttempts: 5, InitialDelay: time.Minute}, func() error {
			return errors.New("transient")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
