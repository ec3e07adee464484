package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesSentinelAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrTransient, "upload video", cause)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected wrapped error to match ErrTransient, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to match cause, got %v", err)
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(ErrValidation, "parse", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", Wrap(ErrTransient, "publish", errors.New("503")), true},
		{"timeout", Wrap(ErrTimeout, "poll", errors.New("deadline")), true},
		{"deadline", context.DeadlineExceeded, true},
		{"validation", Wrap(ErrValidation, "parse srt", errors.New("empty")), false},
		{"configuration", Wrapf(ErrConfiguration, "missing token"), false},
		{"not found", Wrap(ErrNotFound, "row", errors.New("gone")), false},
		{"nil", nil, false},
		{"plain", errors.New("mystery"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("%s: IsRetryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{Wrap(ErrExternalTool, "ffmpeg", errors.New("exit 1")), "external_tool"},
		{Wrap(ErrValidation, "caption", errors.New("empty")), "validation"},
		{Wrapf(ErrConfiguration, "no account id"), "configuration"},
		{fmt.Errorf("outer: %w", ErrTimeout), "timeout"},
		{errors.New("unexplained"), "unknown"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := Classification(tc.err); got != tc.want {
			t.Errorf("Classification(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithItemID(context.Background(), 42)
	ctx = WithStage(ctx, "captioning")
	ctx = WithRequestID(ctx, "req-1")

	if id, ok := ItemIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("item id = %d, %v", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "captioning" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if id, ok := RequestIDFromContext(ctx); !ok || id != "req-1" {
		t.Fatalf("request id = %q, %v", id, ok)
	}

	if _, ok := ItemIDFromContext(context.Background()); ok {
		t.Fatal("expected missing item id on empty context")
	}
}
