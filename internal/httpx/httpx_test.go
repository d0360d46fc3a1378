package httpx_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"streamfinder/internal/httpx"
	"streamfinder/internal/services"
)

type payload struct {
	Status bool   `json:"status"`
	Name   string `json:"name"`
}

func TestGetJSONDecodesAndMergesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("keyword"); got != "túy quyền" {
			t.Errorf("unexpected keyword %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("expected base query preserved, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "streamfinder/test" {
			t.Errorf("unexpected user agent %q", got)
		}
		_, _ = w.Write([]byte(`{"status":true,"name":"ok"}`))
	}))
	t.Cleanup(server.Close)

	client := httpx.New(httpx.Options{Timeout: time.Second, UserAgent: "streamfinder/test"})
	var out payload
	err := client.GetJSON(context.Background(), server.URL+"/search?page=1", url.Values{"keyword": {"túy quyền"}}, &out)
	if err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if !out.Status || out.Name != "ok" {
		t.Fatalf("unexpected payload %+v", out)
	}
}

func TestGetJSONStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := httpx.New(httpx.Options{Timeout: time.Second})
	err := client.GetJSON(context.Background(), server.URL+"/x", url.Values{"api_key": {"secret"}}, &payload{})
	var statusErr *httpx.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected query redacted from error, got %q", err.Error())
	}
	if services.FailureKind(err) != "transient" {
		t.Fatalf("expected transient failure kind, got %q", services.FailureKind(err))
	}
}

func TestGetJSONSchemaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	t.Cleanup(server.Close)

	client := httpx.New(httpx.Options{Timeout: time.Second})
	err := client.GetJSON(context.Background(), server.URL, nil, &payload{})
	if !errors.Is(err, services.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestGetJSONTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := httpx.New(httpx.Options{Timeout: 50 * time.Millisecond})
	start := time.Now()
	err := client.GetJSON(context.Background(), server.URL, nil, &payload{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if services.FailureKind(err) != "timeout" {
		t.Fatalf("expected timeout failure kind, got %q (%v)", services.FailureKind(err), err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
}

func TestGetJSONDecompresses(t *testing.T) {
	body := []byte(`{"status":true,"name":"packed"}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(body)
	_ = gw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write(body)
	_ = bw.Close()

	encoded := map[string][]byte{"gzip": gz.Bytes(), "br": br.Bytes()}
	for encoding, data := range encoded {
		t.Run(encoding, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.Contains(r.Header.Get("Accept-Encoding"), encoding) {
					t.Errorf("expected %s in Accept-Encoding, got %q", encoding, r.Header.Get("Accept-Encoding"))
				}
				w.Header().Set("Content-Encoding", encoding)
				_, _ = w.Write(data)
			}))
			t.Cleanup(server.Close)

			client := httpx.New(httpx.Options{Timeout: time.Second})
			var out payload
			if err := client.GetJSON(context.Background(), server.URL, nil, &out); err != nil {
				t.Fatalf("GetJSON returned error: %v", err)
			}
			if out.Name != "packed" {
				t.Fatalf("unexpected payload %+v", out)
			}
		})
	}
}

func TestGetJSONPacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := httpx.New(httpx.Options{Timeout: 100 * time.Millisecond, RequestsPerSecond: 1})
	if err := client.GetJSON(context.Background(), server.URL, nil, &payload{}); err != nil {
		t.Fatalf("first GetJSON returned error: %v", err)
	}
	// The next token is a second away, beyond the per-call bound.
	err := client.GetJSON(context.Background(), server.URL, nil, &payload{})
	if services.FailureKind(err) != "timeout" {
		t.Fatalf("expected paced call to time out, got %v", err)
	}
}

func TestNewDefaultsTimeout(t *testing.T) {
	if got := httpx.New(httpx.Options{}).Timeout(); got != 8*time.Second {
		t.Fatalf("unexpected default timeout %v", got)
	}
}
