package ophim_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"streamfinder/internal/identification/overrides"
	"streamfinder/internal/services"
	"streamfinder/internal/sources/ophim"
	"streamfinder/internal/streams"
	"streamfinder/internal/testsupport"
)

func drunkenMaster() streams.CanonicalRecord {
	return streams.CanonicalRecord{
		ID:            "101",
		Title:         "Túy Quyền",
		OriginalTitle: "Drunken Master",
		ReleaseYear:   1978,
		MediaType:     streams.MediaMovie,
	}
}

func TestSearchDecodesFlexibleFields(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.SetSearch("matrix", `{"data":{"items":[
		{"slug":"a","name":"Ma Trận","origin_name":"The Matrix","year":"1999","tmdb":{"id":603}},
		{"slug":"b","name":"Ma Trận 2","year":2003,"tmdb":{"id":"604"},"alternative_names":["Matrix Reloaded"]},
		{"slug":"","name":"missing slug"},
		{"slug":"c","name":"Ma Trận 3","year":null,"tmdb":null}
	]}}`)

	client := ophim.New(catalogs.OphimURL())
	got, err := client.Search(context.Background(), "matrix")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	want := []streams.CatalogCandidate{
		{Slug: "a", Name: "Ma Trận", OriginName: "The Matrix", Year: 1999, ExternalRefID: "603"},
		{Slug: "b", Name: "Ma Trận 2", Year: 2003, ExternalRefID: "604", AlternativeNames: []string{"Matrix Reloaded"}},
		{Slug: "c", Name: "Ma Trận 3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected candidates:\n got %#v\nwant %#v", got, want)
	}
}

func TestSearchRejectsEmptyKeyword(t *testing.T) {
	client := ophim.New("http://127.0.0.1:1")
	if _, err := client.Search(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFetchDetailMissingEpisodes(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.SetDetail("empty", `{"data":{"item":{"slug":"empty"}}}`)
	catalogs.SetDetail("none", `{"status":"error","data":{}}`)

	client := ophim.New(catalogs.OphimURL())
	for _, slug := range []string{"empty", "none"} {
		if _, err := client.FetchDetail(context.Background(), slug); !errors.Is(err, services.ErrSchema) {
			t.Fatalf("slug %q: expected schema error, got %v", slug, err)
		}
	}
	if _, err := client.FetchDetail(context.Background(), "unknown"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found for unknown slug, got %v", err)
	}
}

func TestEpisodesMatchesByIdentifier(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.DrunkenMaster()

	client := ophim.New(catalogs.OphimURL())
	payload := client.Episodes(context.Background(), drunkenMaster())
	if payload.EpisodeCount() != 2 {
		t.Fatalf("expected detail episodes, got %+v", payload)
	}
	if !reflect.DeepEqual(catalogs.Keywords(), []string{"Drunken Master"}) {
		t.Fatalf("expected early exit after first keyword, got %v", catalogs.Keywords())
	}
	if !reflect.DeepEqual(catalogs.DetailSlugs(), []string{"x"}) {
		t.Fatalf("expected detail fetch for slug x, got %v", catalogs.DetailSlugs())
	}
}

func TestEpisodesIgnoresIdentifierOfOtherKind(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.SetSearch("Drunken Master", `{"data":{"items":[
		{"slug":"show-101","name":"Bếp Trưởng","year":2019,"tmdb":{"type":"tv","id":101}}
	]}}`)
	catalogs.SetSearch("Túy Quyền", `{"data":{"items":[]}}`)
	catalogs.SetDetail("show-101", `{"data":{"item":{"episodes":[{"server_name":"s","server_data":[{"name":"Tập 1","link_m3u8":"u"}]}]}}}`)

	client := ophim.New(catalogs.OphimURL())
	payload := client.Episodes(context.Background(), drunkenMaster())
	if !payload.IsEmpty() {
		t.Fatalf("expected a tv id not to match a movie, got %+v", payload)
	}
	if hits := catalogs.Hits(testsupport.RouteDetail); hits != 0 {
		t.Fatalf("expected no detail fetch, got %d", hits)
	}

	raw, err := client.Search(context.Background(), "Drunken Master")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(raw) != 1 || raw[0].ExternalRefID != "101" {
		t.Fatalf("expected raw search to keep the id, got %+v", raw)
	}
}

func TestEpisodesNoMatchSkipsDetail(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.SetSearch("Drunken Master", `{"data":{"items":[
		{"slug":"remake","name":"Drunken Master","year":2010,"tmdb":{"id":"555"}},
		{"slug":"other","name":"Police Story","year":1978}
	]}}`)
	catalogs.SetSearch("Túy Quyền", `{"data":{"items":[{"slug":"other","name":"Police Story","year":1978}]}}`)
	catalogs.SetDetail("remake", `{"data":{"item":{"episodes":[{"server_name":"s","server_data":[{"name":"Full","link_m3u8":"u"}]}]}}}`)

	client := ophim.New(catalogs.OphimURL())
	payload := client.Episodes(context.Background(), drunkenMaster())
	if !payload.IsEmpty() {
		t.Fatalf("expected empty payload, got %+v", payload)
	}
	if hits := catalogs.Hits(testsupport.RouteDetail); hits != 0 {
		t.Fatalf("expected no detail fetch, got %d", hits)
	}
	if hits := catalogs.Hits(testsupport.RouteSearch); hits != 2 {
		t.Fatalf("expected both keywords searched, got %d", hits)
	}
}

func TestEpisodesNameMatchAfterFailedSearch(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.SetSearch("Drunken Master", `oops`)
	catalogs.SetSearch("Túy Quyền", `{"data":{"items":[{"slug":"tuy-quyen","name":"Túy Quyền","year":1979}]}}`)
	catalogs.SetDetail("tuy-quyen", `{"data":{"item":{"episodes":[{"server_name":"s","server_data":[{"name":"Full","link_m3u8":"u"}]}]}}}`)

	client := ophim.New(catalogs.OphimURL())
	payload := client.Episodes(context.Background(), drunkenMaster())
	if payload.EpisodeCount() != 1 {
		t.Fatalf("expected name-matched detail, got %+v", payload)
	}
}

func TestEpisodesDetailFailureIsEmpty(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.SetSearch("Drunken Master", `{"data":{"items":[{"slug":"gone","tmdb":{"id":101}}]}}`)

	client := ophim.New(catalogs.OphimURL())
	if payload := client.Episodes(context.Background(), drunkenMaster()); !payload.IsEmpty() {
		t.Fatalf("expected empty payload when detail 404s, got %+v", payload)
	}
	if !reflect.DeepEqual(catalogs.DetailSlugs(), []string{"gone"}) {
		t.Fatalf("unexpected detail slugs %v", catalogs.DetailSlugs())
	}
}

func TestEpisodesMaxKeywords(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	client := ophim.New(catalogs.OphimURL(), ophim.WithMaxKeywords(1))
	client.Episodes(context.Background(), drunkenMaster())
	if !reflect.DeepEqual(catalogs.Keywords(), []string{"Drunken Master"}) {
		t.Fatalf("expected a single keyword, got %v", catalogs.Keywords())
	}
}

type pinned struct {
	slug string
	err  error
}

func (p pinned) Lookup(mediaType streams.MediaType, id string) (overrides.Override, bool, error) {
	if p.err != nil {
		return overrides.Override{}, false, p.err
	}
	if mediaType != streams.MediaMovie || id != "101" {
		return overrides.Override{}, false, nil
	}
	return overrides.Override{MediaType: mediaType, TMDBID: id, Slug: p.slug}, true, nil
}

func TestEpisodesUsesPinnedSlug(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.DrunkenMaster()

	client := ophim.New(catalogs.OphimURL(), ophim.WithOverrides(pinned{slug: "x"}))
	payload := client.Episodes(context.Background(), drunkenMaster())
	if payload.EpisodeCount() != 2 {
		t.Fatalf("expected pinned detail episodes, got %+v", payload)
	}
	if catalogs.Hits(testsupport.RouteSearch) != 0 {
		t.Fatalf("expected no searches with a pinned slug, got %d", catalogs.Hits(testsupport.RouteSearch))
	}
}

func TestEpisodesFallsBackWhenOverridesFail(t *testing.T) {
	catalogs := testsupport.NewCatalogs(t)
	catalogs.DrunkenMaster()

	client := ophim.New(catalogs.OphimURL(), ophim.WithOverrides(pinned{err: errors.New("bad json")}))
	payload := client.Episodes(context.Background(), drunkenMaster())
	if payload.EpisodeCount() != 2 {
		t.Fatalf("expected search fallback to find detail, got %+v", payload)
	}
	if catalogs.Hits(testsupport.RouteSearch) == 0 {
		t.Fatal("expected keyword search after override failure")
	}
}
