package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchText(t *testing.T) {
	const body = "1 GOLD 999 IMP AMD 72000 72100 72500 71800\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got == "" {
			t.Error("missing User-Agent header")
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	got, err := c.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got != body {
		t.Errorf("body: got %q, want %q", got, body)
	}
}

func TestFetchTextNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "feed offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	_, err := c.FetchText(context.Background(), srv.URL)

	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *ErrHTTP, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode: got %d", httpErr.StatusCode)
	}
}

func TestFetchTextContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(5 * time.Second)
	if _, err := c.FetchText(ctx, srv.URL); err == nil {
		t.Error("expected error on cancelled context")
	}
}
