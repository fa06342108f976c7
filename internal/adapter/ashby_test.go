package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobwatch/internal/model"
)

func TestFetchSnapshot_ReturnsRawBody(t *testing.T) {
	const body = `{"jobs":[{"id":"1","title":"Engineer","isListed":true}]}`
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(body))
	}))
	defer srv.Close()

	a := NewAshbyAdapter(srv.URL, "acme-board", srv.Client())
	got, err := a.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if got != body {
		t.Errorf("snapshot = %q, want raw body unchanged", got)
	}
	if gotPath != "/acme-board" {
		t.Errorf("path = %q, want board id appended", gotPath)
	}
}

func TestFetchSnapshot_EmptyBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  \n"))
	}))
	defer srv.Close()

	a := NewAshbyAdapter(srv.URL, "acme-board", srv.Client())
	if _, err := a.FetchSnapshot(context.Background()); err == nil {
		t.Fatal("expected error on blank body")
	}
}

func TestFetchSnapshot_Non200ReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewAshbyAdapter(srv.URL, "acme-board", srv.Client())
	_, err := a.FetchSnapshot(context.Background())

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *model.HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 30*time.Second {
		t.Errorf("retry after = %v, want 30s", httpErr.RetryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"120", 120 * time.Second},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
