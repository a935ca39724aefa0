package wiki

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olgasafonova/wikisource-mcp-server/internal/infra"
)

// createTestClient creates a client for testing with minimal config
func createTestClient(t *testing.T) *Client {
	t.Helper()
	config := &Config{
		BaseURL:    "https://test.wiki.com/api.php",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		UserAgent:  "TestClient/1.0",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewClient(config, logger)
}

func TestNewClient(t *testing.T) {
	client := createTestClient(t)
	defer client.Close()

	if client == nil {
		t.Fatal("NewClient returned nil")
	}
	if client.semaphore == nil {
		t.Error("semaphore should be initialized")
	}
	if cap(client.semaphore) != MaxConcurrentRequests {
		t.Errorf("semaphore capacity = %d, want %d", cap(client.semaphore), MaxConcurrentRequests)
	}
	if client.cache == nil || client.breaker == nil {
		t.Error("cache and circuit breaker should be initialized")
	}
	if client.Config().BaseURL != "https://test.wiki.com/api.php" {
		t.Errorf("Config().BaseURL = %q", client.Config().BaseURL)
	}
}

func TestClientClose(t *testing.T) {
	client := createTestClient(t)

	// Multiple closes should be safe
	client.Close()
	client.Close()
}

func TestEnsureLoggedIn_AnonymousWithoutCredentials(t *testing.T) {
	client := createTestClient(t)
	defer client.Close()

	if err := client.EnsureLoggedIn(context.Background()); err != nil {
		t.Errorf("anonymous client should not need to log in: %v", err)
	}
}

func TestGetCSRFToken_RequiresCredentials(t *testing.T) {
	client := createTestClient(t)
	defer client.Close()

	_, err := client.getCSRFToken(context.Background())
	if err == nil {
		t.Fatal("expected an error without credentials")
	}
	if _, ok := err.(*AuthenticationError); !ok {
		t.Errorf("expected *AuthenticationError, got %T", err)
	}
}

func TestNormalizePageTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"main page", "Main page"},
		{"  spaced_out  title ", "Spaced out title"},
		{"page:book.pdf/3", "Page:Book.pdf/3"},
		{"ཀ་ཁ", "ཀ་ཁ"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizePageTitle(tt.input); got != tt.want {
			t.Errorf("normalizePageTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGetString(t *testing.T) {
	m := map[string]interface{}{"s": "v", "n": float64(3)}
	if getString(m, "s") != "v" {
		t.Error("expected string value")
	}
	if getString(m, "n") != "" {
		t.Error("non-string should give empty string")
	}
	if getInt(m, "n") != 3 {
		t.Error("expected int value")
	}
	if getMap(nil, "x") != nil || getSlice(nil, "x") != nil {
		t.Error("nil map lookups should return nil")
	}
}

// newBreakerTestClient returns an anonymous client without retries whose
// breaker opens on the first failure and admits one trial request after 5ms.
func newBreakerTestClient(serverURL string) *Client {
	config := &Config{
		BaseURL:    serverURL,
		Timeout:    5 * time.Second,
		MaxRetries: 0,
		UserAgent:  "TestClient/1.0",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := NewClient(config, logger)
	client.breaker = infra.NewBreaker(infra.BreakerConfig{Threshold: 1, Cooldown: 5 * time.Millisecond, Trials: 1})
	return client
}

func TestCircuitBreaker_ClientErrorTrialCloses(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			w.WriteHeader(http.StatusForbidden)
		default:
			writeJSON(w, pageResponse("Healthy", "text"))
		}
	}))
	defer server.Close()

	client := newBreakerTestClient(server.URL)
	defer client.Close()
	ctx := context.Background()

	if _, err := client.PageExists(ctx, "Broken"); err == nil {
		t.Fatal("expected error from 500")
	}
	if got := client.CircuitBreakerStats().State; got != "open" {
		t.Fatalf("State = %s, want open", got)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := client.PageExists(ctx, "Forbidden"); err == nil {
		t.Fatal("expected error from 403")
	}
	if got := client.CircuitBreakerStats().State; got != "closed" {
		t.Fatalf("a 4xx trial should close the circuit, state = %s", got)
	}

	exists, err := client.PageExists(ctx, "Healthy")
	if err != nil {
		t.Fatalf("PageExists after recovery: %v", err)
	}
	if !exists {
		t.Error("Healthy should exist")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server calls = %d, want 3", n)
	}
}

func TestCircuitBreaker_CanceledTrialReleasesSlot(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, pageResponse("Healthy", "text"))
	}))
	defer server.Close()

	client := newBreakerTestClient(server.URL)
	defer client.Close()

	if _, err := client.PageExists(context.Background(), "Broken"); err == nil {
		t.Fatal("expected error from 500")
	}
	time.Sleep(10 * time.Millisecond)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.PageExists(canceled, "Abandoned"); err == nil {
		t.Fatal("expected error from canceled context")
	}

	exists, err := client.PageExists(context.Background(), "Healthy")
	if err != nil {
		t.Fatalf("canceled trial must not hold the circuit: %v", err)
	}
	if !exists {
		t.Error("Healthy should exist")
	}
	if got := client.CircuitBreakerStats().State; got != "closed" {
		t.Errorf("State = %s, want closed", got)
	}
}
