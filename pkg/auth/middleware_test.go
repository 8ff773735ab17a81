package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowedOrigin(t *testing.T) {
	mw := GuardMiddleware(SecConfig{AllowedOrigins: []string{"https://ok.test"}})
	srv := httptest.NewServer(mw(okHandler()))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("Origin", "https://ok.test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://ok.test" {
		t.Fatalf("allow-origin = %q", got)
	}
}

func TestCORSRejectedOrigin(t *testing.T) {
	mw := GuardMiddleware(SecConfig{AllowedOrigins: []string{"https://ok.test"}})
	srv := httptest.NewServer(mw(okHandler()))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("Origin", "https://evil.test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d; want 403", resp.StatusCode)
	}
}

func TestPreflight(t *testing.T) {
	mw := GuardMiddleware(SecConfig{AllowedOrigins: []string{"*"}})
	srv := httptest.NewServer(mw(okHandler()))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL, nil)
	req.Header.Set("Origin", "https://any.test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d; want 204", resp.StatusCode)
	}
}

func TestRateLimit(t *testing.T) {
	mw := GuardMiddleware(SecConfig{RateLimitEnabled: true, RPS: 1, Burst: 2})
	srv := httptest.NewServer(mw(okHandler()))
	defer srv.Close()

	var limited bool
	for i := 0; i < 10; i++ {
		resp, err := http.Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("burst of requests never rate limited")
	}
}
