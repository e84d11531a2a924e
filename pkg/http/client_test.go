package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWithTimeoutConfiguresClient(t *testing.T) {
	c := NewClient(WithTimeout(5 * time.Second))
	if c.client.Timeout != 5*time.Second {
		t.Fatalf("timeout: got %v, want 5s", c.client.Timeout)
	}
}

func TestNewClientDefaultTimeout(t *testing.T) {
	c := NewClient()
	if c.client.Timeout != 30*time.Second {
		t.Fatalf("default timeout: got %v, want 30s", c.client.Timeout)
	}
}

func TestSendAndParseDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "AAPL" {
			t.Errorf("query not forwarded: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": 190.5}`))
	}))
	defer srv.Close()

	var out struct {
		Price float64 `json:"price"`
	}
	c := NewClient(WithTimeout(time.Second))
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"symbol": {"AAPL"}},
	}, &out)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out.Price != 190.5 {
		t.Errorf("decoded price: got %v, want 190.5", out.Price)
	}
}

func TestSendAndParseNon2xxCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	c := NewClient()
	err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}
