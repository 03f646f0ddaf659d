package utils

import (
	"context"
	"errors"
	"testing"
)

func TestRetry(t *testing.T) {
	transient := errors.New("connection reset")
	fatal := errors.New("bad input")
	isTransient := func(err error) bool { return errors.Is(err, transient) }

	tests := []struct {
		name      string
		results   []error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"first try succeeds", []error{nil}, 3, 1, nil},
		{"succeeds after transient failures", []error{transient, transient, nil}, 3, 3, nil},
		{"gives up after attempts", []error{transient, transient, transient, nil}, 3, 3, transient},
		{"stops on permanent error", []error{fatal, nil}, 3, 1, fatal},
		{"zero attempts still tries once", []error{transient}, 0, 1, transient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, 0, isTransient, func() error {
				err := tt.results[calls]
				calls++
				return err
			})
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, 5, 0, func(error) bool { return true }, func() error {
		calls++
		return errors.New("down")
	})
	if err == nil || calls != 1 {
		t.Fatalf("calls = %d, err = %v", calls, err)
	}
}
