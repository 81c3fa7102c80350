package vend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pearcestephens/stocklink-backend/pkg/config"
	pkgerrors "github.com/pearcestephens/stocklink-backend/pkg/errors"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
)

func newTestClient(t *testing.T, serverURL string, maxRetries int) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.VendConfig{
		BaseURL:       serverURL,
		Token:         "test-token",
		MaxRetries:    maxRetries,
		RetryBaseWait: time.Millisecond,
		PageSize:      2,
	}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.sleep = func(context.Context, time.Duration) error { return nil }
	return client
}

func TestRequestRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		n := atomic.AddInt32(&calls, 1)
		if n <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"data":{"id":"p1"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	raw, err := client.Request(context.Background(), http.MethodGet, "/api/2.0/products/p1", nil, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if atomic.LoadInt32(&calls) != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
	var resp ObjectResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestRequestExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	_, err := client.Request(context.Background(), http.MethodGet, "/api/2.0/products", nil, nil)
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if atomic.LoadInt32(&calls) != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRequestDoesNotRetryValidationErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"sku is required"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)
	_, err := client.Request(context.Background(), http.MethodPost, "/api/2.0/products", map[string]string{"name": "x"}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected single attempt for 400, got %d", calls)
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestRequestMapsRateLimitCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	client.maxRetries = 1
	_, err := client.Request(context.Background(), http.MethodGet, "/api/2.0/sales", nil, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit code, got %v", err)
	}
}

func TestFetchPaginatedStreamsPagesAndAdvancesCursor(t *testing.T) {
	var afters []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		switch after {
		case "":
			fmt.Fprint(w, `{"data":[{"id":"a"},{"id":"b"}],"version":{"max":100}}`)
		case "100":
			fmt.Fprint(w, `{"data":[{"id":"c"}],"version":{"max":150}}`)
		default:
			fmt.Fprint(w, `{"data":[],"version":{"max":150}}`)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1)

	var pages []Page
	err := client.FetchPaginated(context.Background(), "/api/2.0/products", url.Values{}, func(p Page) error {
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		t.Fatalf("FetchPaginated: %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("expected 2 non-empty pages, got %d", len(pages))
	}
	if pages[0].MaxVersion != 100 || pages[1].MaxVersion != 150 {
		t.Fatalf("unexpected page versions: %+v", pages)
	}
	if len(pages[0].Records) != 2 || len(pages[1].Records) != 1 {
		t.Fatalf("unexpected page sizes: %+v", pages)
	}
	if len(afters) != 3 || afters[1] != "100" || afters[2] != "150" {
		t.Fatalf("cursor did not advance as expected: %v", afters)
	}
}

func TestFetchPaginatedPropagatesCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"a"}],"version":{"max":10}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1)
	wantErr := fmt.Errorf("flush failed")
	err := client.FetchPaginated(context.Background(), "/api/2.0/products", nil, func(Page) error {
		return wantErr
	})
	if err == nil || err.Error() != wantErr.Error() {
		t.Fatalf("expected callback error, got %v", err)
	}
}
