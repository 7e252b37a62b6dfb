package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/lineageview/pkg/cache"
)

const body = `{"key": "hive://gold.core/orders", "upstream_entities": [], "downstream_entities": []}`

func newFileCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFetch_Caches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(Options{Cache: newFileCache(t)})
	ctx := context.Background()

	data, cached, err := c.Fetch(ctx, srv.URL, false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if cached || string(data) != body {
		t.Errorf("first fetch: cached=%v body=%q", cached, data)
	}

	data, cached, err = c.Fetch(ctx, srv.URL, false)
	if err != nil || !cached || string(data) != body {
		t.Errorf("second fetch: cached=%v err=%v", cached, err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}

	if _, cached, _ = c.Fetch(ctx, srv.URL, true); cached {
		t.Error("refresh must bypass the cache")
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times after refresh, want 2", hits.Load())
	}
}

func TestFetch_Headers(t *testing.T) {
	var auth, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, accept = r.Header.Get("Authorization"), r.Header.Get("Accept")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(Options{Headers: map[string]string{"Authorization": "Bearer token"}})
	if _, _, err := c.Fetch(context.Background(), srv.URL, false); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer token" {
		t.Errorf("Authorization = %q", auth)
	}
	if accept != "application/json" {
		t.Errorf("Accept = %q", accept)
	}
}

func TestFetch_Status(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		wantErr  error
		wantHits int32
	}{
		{"not found is final", []int{404}, ErrNotFound, 1},
		{"client error is final", []int{403}, ErrNetwork, 1},
		{"server error is retried", []int{503, 200}, nil, 2},
		{"server error exhausts retries", []int{500, 500, 500}, ErrNetwork, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				i := int(hits.Add(1)) - 1
				status := tt.statuses[min(i, len(tt.statuses)-1)]
				w.WriteHeader(status)
				if status == http.StatusOK {
					w.Write([]byte(body))
				}
			}))
			defer srv.Close()

			_, _, err := NewClient(Options{}).Fetch(context.Background(), srv.URL, false)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Fetch() error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
			if hits.Load() != tt.wantHits {
				t.Errorf("server hit %d times, want %d", hits.Load(), tt.wantHits)
			}
		})
	}
}

func TestFetch_ScopedKeysAreCleared(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(Options{Cache: fc, Scope: "staging:"})
	ctx := context.Background()
	if _, _, err := c.Fetch(ctx, srv.URL, false); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := fc.Get(ctx, "staging:"+cache.RemoteKey(srv.URL)); !ok {
		t.Error("body should be stored under the scoped key")
	}
	if n, _ := fc.Clear(ctx); n != 1 {
		t.Errorf("Clear() removed %d entries, want 1", n)
	}
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://metadata.example.com/lineage": true,
		"http://localhost:5000/x":              true,
		"data/orders.json":                     false,
		"ftp://host/file":                      false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
