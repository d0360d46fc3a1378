package services_test

import (
	"context"
	"testing"

	"streamfinder/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithSource(ctx, "ophim")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if source, ok := services.SourceFromContext(ctx); !ok || source != "ophim" {
		t.Fatalf("unexpected source: %v %v", source, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSource(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.SourceFromContext(ctx); ok {
		t.Fatal("expected no source value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
}

func TestSourceKeepsRequestID(t *testing.T) {
	parent := services.WithRequestID(context.Background(), "req-1")
	a := services.WithSource(parent, "phimapi")
	b := services.WithSource(parent, "ophim")

	cases := []struct {
		ctx  context.Context
		want string
	}{{a, "phimapi"}, {b, "ophim"}}
	for _, tc := range cases {
		if rid, _ := services.RequestIDFromContext(tc.ctx); rid != "req-1" {
			t.Fatalf("expected request id carried into %s pipeline, got %q", tc.want, rid)
		}
		if source, _ := services.SourceFromContext(tc.ctx); source != tc.want {
			t.Fatalf("expected source %q, got %q", tc.want, source)
		}
	}
	if _, ok := services.SourceFromContext(parent); ok {
		t.Fatal("expected parent context untouched")
	}
}
