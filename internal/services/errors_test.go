package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"streamfinder/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "ophim", "search", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ophim", "search", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), "timeout"},
		{"timeout marker", services.Wrap(services.ErrTimeout, "phimapi", "fetch", "", nil), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"schema", services.Wrap(services.ErrSchema, "ophim", "detail", "missing item", nil), "schema"},
		{"not found", services.Wrap(services.ErrNotFound, "tmdb", "details", "", nil), "not_found"},
		{"plain", errors.New("connection reset"), "transient"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.FailureKind(tc.err); got != tc.want {
				t.Fatalf("FailureKind() = %q, want %q", got, tc.want)
			}
		})
	}
}
