package util

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, NewBackoff(time.Millisecond, 2*time.Millisecond), nil,
		func(context.Context) error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryStops(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		retryable func(error) bool
		wantCalls int
	}{
		{"exhausted", 2, nil, 2},
		{"zero attempts runs once", 0, nil, 1},
		{"not retryable", 5, func(err error) bool { return !errors.Is(err, errTransient) }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, NewBackoff(time.Millisecond, time.Millisecond), tt.retryable,
				func(context.Context) error {
					calls++
					return errTransient
				})
			if !errors.Is(err, errTransient) {
				t.Fatalf("err = %v", err)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, NewBackoff(time.Hour, time.Hour), nil, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestValidateStruct(t *testing.T) {
	type sample struct {
		ISIN     string `validate:"required"`
		Quantity int64  `validate:"gt=0"`
	}

	if err := ValidateStruct(sample{ISIN: "IRO1FOLD0001", Quantity: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidateStruct(sample{})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"ISIN failed required", "Quantity failed gt=0"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("%q missing %q", err.Error(), want)
		}
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tsewatch.log")
	logger, err := NewLoggerWithFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Sugar().Infow("feed_started", "interval", "2s")
	logger.Sugar().Debugw("ws_subscribe", "channel", "orderbook:IRO1FOLD0001")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"feed_started"`) || !strings.Contains(out, `"ts":`) {
		t.Errorf("unexpected log output %q", out)
	}
	if strings.Contains(out, "ws_subscribe") {
		t.Errorf("debug event logged without verbose: %q", out)
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2023, 9, 11, 9, 0, 0, 0, time.UTC)
	c := FixedClock{T: at}
	if !c.Now().Equal(at) {
		t.Fatalf("now = %v", c.Now())
	}
	if got := <-c.After(time.Minute); !got.Equal(at.Add(time.Minute)) {
		t.Fatalf("after = %v", got)
	}
}
