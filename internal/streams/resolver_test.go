package streams_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"streamfinder/internal/streams"
)

type fakeIDCatalog struct {
	payload streams.Payload
	delay   time.Duration
	panics  bool
	calls   atomic.Int32
	gotType streams.MediaType
}

func (f *fakeIDCatalog) FetchByID(ctx context.Context, mediaType streams.MediaType, id string) streams.Payload {
	f.calls.Add(1)
	f.gotType = mediaType
	if f.panics {
		panic("catalog exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return streams.Payload{}
		}
	}
	return f.payload
}

type fakeSearchCatalog struct {
	payload streams.Payload
	delay   time.Duration
	calls   atomic.Int32
	got     streams.CanonicalRecord
}

func (f *fakeSearchCatalog) Episodes(ctx context.Context, canonical streams.CanonicalRecord) streams.Payload {
	f.calls.Add(1)
	f.got = canonical
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.payload
}

func onePayload(server, name, link string) streams.Payload {
	return streams.Payload{Servers: []streams.ServerGroup{{
		ServerName: server,
		Episodes:   []streams.EpisodeEntry{{Name: name, LinkM3U8: link}},
	}}}
}

func TestResolveStreamsWithoutIDIsEmpty(t *testing.T) {
	a := &fakeIDCatalog{payload: onePayload("s", "Full", "u")}
	b := &fakeSearchCatalog{payload: onePayload("s", "Full", "u")}
	resolver := streams.NewResolver(a, b)

	result := resolver.ResolveStreams(context.Background(), streams.Request{
		MediaType: streams.MediaMovie,
		Canonical: streams.CanonicalRecord{Title: "Drunken Master"},
	})
	if result.SourceA == nil || result.SourceB == nil || result.All == nil {
		t.Fatalf("expected non-nil empty slices, got %#v", result)
	}
	if result.Total() != 0 || len(result.SourceA) != 0 || len(result.SourceB) != 0 {
		t.Fatalf("expected empty aggregate, got %#v", result)
	}
	if a.calls.Load() != 0 || b.calls.Load() != 0 {
		t.Fatal("expected no catalog calls without an id")
	}
}

func TestResolveStreamsTagsAndMerges(t *testing.T) {
	a := &fakeIDCatalog{payload: onePayload("Vietsub #1", "Full", "https://a/1.m3u8")}
	b := &fakeSearchCatalog{payload: streams.Payload{Servers: []streams.ServerGroup{{
		ServerName: "Hà Nội",
		Episodes: []streams.EpisodeEntry{
			{Name: "Full", LinkM3U8: "https://b/1.m3u8"},
			{Name: "Trailer"},
		},
	}}}}
	resolver := streams.NewResolver(a, b)
	canonical := streams.CanonicalRecord{ID: "101", Title: "Drunken Master", ReleaseYear: 1978}

	result := resolver.ResolveStreams(context.Background(), streams.Request{MediaType: streams.MediaMovie, Canonical: canonical})
	if len(result.SourceA) != 1 || result.SourceA[0].Source() != streams.SourceA {
		t.Fatalf("unexpected source A %+v", result.SourceA)
	}
	if len(result.SourceB) != 1 || result.SourceB[0].Source() != streams.SourceB {
		t.Fatalf("expected trailer dropped and B tagged, got %+v", result.SourceB)
	}
	if len(result.All) != 2 || result.All[0].Source() != streams.SourceA || result.All[1].Source() != streams.SourceB {
		t.Fatalf("expected A then B, got %+v", result.All)
	}
	if b.got.MediaType != streams.MediaMovie || b.got.ID != "101" {
		t.Fatalf("unexpected canonical passed to search catalog %+v", b.got)
	}
}

func TestResolveStreamsRetainPolicy(t *testing.T) {
	b := &fakeSearchCatalog{payload: onePayload("s", "Trailer", "")}
	resolver := streams.NewResolver(nil, b, streams.WithPolicy(streams.PolicyRetain))
	if resolver.Policy() != streams.PolicyRetain {
		t.Fatalf("unexpected policy %q", resolver.Policy())
	}
	result := resolver.ResolveStreams(context.Background(), streams.Request{Canonical: streams.CanonicalRecord{ID: "1"}})
	if len(result.SourceB) != 1 || result.SourceB[0].StreamURL != "" {
		t.Fatalf("expected retained record without stream, got %+v", result.SourceB)
	}
	if len(result.SourceA) != 0 {
		t.Fatalf("expected nil id catalog to contribute nothing, got %+v", result.SourceA)
	}
}

func TestResolveStreamsDefaultsMediaTypeFromCanonical(t *testing.T) {
	a := &fakeIDCatalog{}
	resolver := streams.NewResolver(a, nil)
	resolver.ResolveStreams(context.Background(), streams.Request{Canonical: streams.CanonicalRecord{ID: "1399", MediaType: streams.MediaSeries}})
	if a.gotType != streams.MediaSeries {
		t.Fatalf("expected series media type, got %q", a.gotType)
	}
	resolver.ResolveStreams(context.Background(), streams.Request{Canonical: streams.CanonicalRecord{ID: "1"}})
	if a.gotType != streams.MediaMovie {
		t.Fatalf("expected movie default, got %q", a.gotType)
	}
}

func TestResolveStreamsRunsCatalogsConcurrently(t *testing.T) {
	a := &fakeIDCatalog{payload: onePayload("s", "Full", "a"), delay: 200 * time.Millisecond}
	b := &fakeSearchCatalog{payload: onePayload("s", "Full", "b"), delay: 200 * time.Millisecond}
	resolver := streams.NewResolver(a, b)

	start := time.Now()
	result := resolver.ResolveStreams(context.Background(), streams.Request{Canonical: streams.CanonicalRecord{ID: "1"}})
	elapsed := time.Since(start)
	if result.Total() != 2 {
		t.Fatalf("expected both sources, got %+v", result)
	}
	if elapsed >= 390*time.Millisecond {
		t.Fatalf("expected concurrent fetches, took %v", elapsed)
	}
}

func TestResolveStreamsPanicIsContained(t *testing.T) {
	a := &fakeIDCatalog{panics: true}
	b := &fakeSearchCatalog{payload: onePayload("s", "Full", "b")}
	resolver := streams.NewResolver(a, b)

	result := resolver.ResolveStreams(context.Background(), streams.Request{Canonical: streams.CanonicalRecord{ID: "1"}})
	if len(result.SourceA) != 0 || result.SourceA == nil {
		t.Fatalf("expected empty source A after panic, got %#v", result.SourceA)
	}
	if len(result.SourceB) != 1 {
		t.Fatalf("expected source B unaffected, got %+v", result.SourceB)
	}
}
