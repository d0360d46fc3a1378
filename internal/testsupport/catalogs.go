package testsupport

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// Catalogs is a single httptest server standing in for TMDB and both stream
// catalogs. Unknown entries answer 404, mirroring the real services.
//
//	/tmdb/{movie|tv}/{id}
//	/tmdb/search/multi
//	/phimapi/{movie|tv}/{id}
//	/ophim/tim-kiem?keyword=
//	/ophim/phim/{slug}
type Catalogs struct {
	Server *httptest.Server

	mu       sync.Mutex
	tmdb     map[string]string
	phimapi  map[string]string
	search   map[string]string
	detail   map[string]string
	delays   map[string]time.Duration
	keywords []string
	slugs    []string
	hits     map[string]int
}

// Route names accepted by SetDelay and Hits.
const (
	RouteTMDB    = "tmdb"
	RoutePhimAPI = "phimapi"
	RouteSearch  = "search"
	RouteDetail  = "detail"
)

// NewCatalogs starts the fake server and registers cleanup.
func NewCatalogs(t testing.TB) *Catalogs {
	t.Helper()

	c := &Catalogs{
		tmdb:    make(map[string]string),
		phimapi: make(map[string]string),
		search:  make(map[string]string),
		detail:  make(map[string]string),
		delays:  make(map[string]time.Duration),
		hits:    make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tmdb/{type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		c.serve(w, r, RouteTMDB, func() (string, bool) {
			body, ok := c.tmdb[r.PathValue("type")+"/"+r.PathValue("id")]
			return body, ok
		})
	})
	mux.HandleFunc("GET /phimapi/{type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		c.serve(w, r, RoutePhimAPI, func() (string, bool) {
			body, ok := c.phimapi[r.PathValue("type")+"/"+r.PathValue("id")]
			return body, ok
		})
	})
	mux.HandleFunc("GET /ophim/tim-kiem", func(w http.ResponseWriter, r *http.Request) {
		keyword := r.URL.Query().Get("keyword")
		c.serve(w, r, RouteSearch, func() (string, bool) {
			c.keywords = append(c.keywords, keyword)
			body, ok := c.search[keyword]
			if !ok {
				return `{"status":"success","data":{"items":[]}}`, true
			}
			return body, true
		})
	})
	mux.HandleFunc("GET /ophim/phim/{slug}", func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		c.serve(w, r, RouteDetail, func() (string, bool) {
			c.slugs = append(c.slugs, slug)
			body, ok := c.detail[slug]
			return body, ok
		})
	})
	c.Server = httptest.NewServer(mux)
	t.Cleanup(c.Server.Close)
	return c
}

func (c *Catalogs) serve(w http.ResponseWriter, r *http.Request, route string, lookup func() (string, bool)) {
	c.mu.Lock()
	c.hits[route]++
	delay := c.delays[route]
	body, ok := lookup()
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// TMDBURL is the base URL for the TMDB client.
func (c *Catalogs) TMDBURL() string { return c.Server.URL + "/tmdb" }

// PhimAPIURL is the base URL for the id-keyed catalog client.
func (c *Catalogs) PhimAPIURL() string { return c.Server.URL + "/phimapi" }

// OphimURL is the base URL for the search-based catalog client.
func (c *Catalogs) OphimURL() string { return c.Server.URL + "/ophim" }

// SetTMDB registers a TMDB detail body for pathType ("movie" or "tv") and id.
func (c *Catalogs) SetTMDB(pathType, id, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tmdb[pathType+"/"+id] = body
}

// SetTMDBSearch registers the body returned by TMDB's /search/multi.
func (c *Catalogs) SetTMDBSearch(body string) {
	c.SetTMDB("search", "multi", body)
}

// SetPhimAPI registers a PhimAPI body for pathType and id.
func (c *Catalogs) SetPhimAPI(pathType, id, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phimapi[pathType+"/"+id] = body
}

// SetSearch registers the search response for an exact keyword.
func (c *Catalogs) SetSearch(keyword, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search[keyword] = body
}

// SetDetail registers the detail response for slug.
func (c *Catalogs) SetDetail(slug, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detail[slug] = body
}

// SetDelay makes every request on route wait d before answering.
func (c *Catalogs) SetDelay(route string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays[route] = d
}

// Hits returns how many requests route has received.
func (c *Catalogs) Hits(route string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[route]
}

// Keywords returns the search keywords received, in order.
func (c *Catalogs) Keywords() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keywords...)
}

// DetailSlugs returns the detail slugs requested, in order.
func (c *Catalogs) DetailSlugs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.slugs...)
}

// DrunkenMaster seeds the fixture used across packages: TMDB movie 101, one
// PhimAPI server with one episode, and an Ophim search hit carrying the TMDB
// id with a two-episode detail.
func (c *Catalogs) DrunkenMaster() {
	c.SetTMDB("movie", "101", `{"id":101,"title":"Túy Quyền","original_title":"Drunken Master","release_date":"1978-10-05"}`)
	c.SetPhimAPI("movie", "101", `{"status":true,"movie":{"name":"Túy Quyền"},"episodes":[
		{"server_name":"Vietsub #1","server_data":[{"name":"Full","slug":"full","link_m3u8":"https://a.example/101.m3u8","link_embed":"https://a.example/embed/101"}]}
	]}`)
	c.SetSearch("Drunken Master", `{"status":"success","data":{"items":[
		{"slug":"x","name":"Túy Quyền","origin_name":"Drunken Master","year":1978,"tmdb":{"type":"movie","id":"101"}}
	]}}`)
	c.SetDetail("x", `{"status":"success","data":{"item":{"slug":"x","name":"Túy Quyền","origin_name":"Drunken Master","year":1978,"episodes":[
		{"server_name":"Hà Nội (Vietsub)","server_data":[
			{"name":"Full","link_m3u8":"https://b.example/x.m3u8","link_embed":"https://b.example/embed/x"},
			{"name":"Trailer","link_m3u8":"","link_embed":"https://b.example/embed/trailer"}
		]}
	]}}}`)
}
