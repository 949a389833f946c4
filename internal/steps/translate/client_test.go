package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pagemill/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		Endpoint: srv.URL + "/translate",
		Source:   "en",
		Target:   "ru",
		Timeout:  5 * time.Second,
	})
}

func TestClientTranslate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Source != "en" || req.Target != "ru" || req.Format != "text" {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(translateResponse{TranslatedText: "Привет, мир"})
	}))

	got, err := client.Translate(context.Background(), "Hello, world")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Привет, мир" {
		t.Fatalf("translation = %q", got)
	}
}

func TestClientClassifiesServerErrors(t *testing.T) {
	cases := []struct {
		status int
		want   services.Classification
	}{
		{http.StatusBadGateway, services.ClassRetryable},
		{http.StatusTooManyRequests, services.ClassRetryable},
		{http.StatusBadRequest, services.ClassFatal},
	}
	for _, tc := range cases {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := client.Translate(context.Background(), "text")
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := services.Classify(err); got != tc.want {
			t.Fatalf("status %d classified %v, want %v (%v)", tc.status, got, tc.want, err)
		}
	}
}

func TestClientEmptyTranslationRetryable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(translateResponse{})
	}))
	_, err := client.Translate(context.Background(), "text")
	if err == nil || services.Classify(err) != services.ClassRetryable {
		t.Fatalf("err = %v", err)
	}
}

func TestClientAPIErrorFatal(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(translateResponse{Error: "unsupported language pair"})
	}))
	_, err := client.Translate(context.Background(), "text")
	if err == nil || services.Classify(err) != services.ClassFatal {
		t.Fatalf("err = %v", err)
	}
}

func TestClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(ClientConfig{Endpoint: srv.URL, Source: "en", Target: "ru", Timeout: time.Second})
	_, err := client.Translate(context.Background(), "text")
	if err == nil || services.Classify(err) != services.ClassRetryable {
		t.Fatalf("err = %v", err)
	}
}
