package services

import "context"

// trace is what a resolution carries through the catalog clients so their log
// lines can be correlated. It is copied on every change, never mutated.
type trace struct {
	requestID string
	source    string
}

type traceKey struct{}

func traceFrom(ctx context.Context) trace {
	t, _ := ctx.Value(traceKey{}).(trace)
	return t
}

// WithRequestID tags ctx with the resolution's correlation id. Blank ids leave
// ctx untouched.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	t := traceFrom(ctx)
	t.requestID = id
	return context.WithValue(ctx, traceKey{}, t)
}

// RequestIDFromContext returns the correlation id, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id := traceFrom(ctx).requestID
	return id, id != ""
}

// WithSource tags ctx with the catalog a pipeline runs against.
func WithSource(ctx context.Context, source string) context.Context {
	if source == "" {
		return ctx
	}
	t := traceFrom(ctx)
	t.source = source
	return context.WithValue(ctx, traceKey{}, t)
}

// SourceFromContext returns the catalog tag, if any.
func SourceFromContext(ctx context.Context) (string, bool) {
	source := traceFrom(ctx).source
	return source, source != ""
}
