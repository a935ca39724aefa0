// Package wiki is a MediaWiki action API client tuned for Wikisource bot work:
// bot-password login, page reads and writes, prefix listings and the
// size-limit errors that drive page splitting.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/olgasafonova/wikisource-mcp-server/internal/infra"
	"github.com/olgasafonova/wikisource-mcp-server/metrics"
	"github.com/olgasafonova/wikisource-mcp-server/tracing"
)

const (
	// MaxConcurrentRequests limits parallel API calls to prevent overwhelming the server
	MaxConcurrentRequests = 3

	// PageCacheTTL bounds how long a fetched page text is reused
	PageCacheTTL = 2 * time.Minute

	sessionLifetime = 60 * time.Minute
)

// Client handles communication with the MediaWiki API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger

	// Authentication state
	mu          sync.RWMutex
	loggedIn    bool
	csrfToken   string
	tokenExpiry time.Time

	// Rate limiting - semaphore to control concurrent requests
	semaphore chan struct{}

	cache   *infra.Cache[PageContent]
	reads   singleflight.Group
	breaker *infra.Breaker
}

// NewClient creates a new MediaWiki API client
func NewClient(config *Config, logger *slog.Logger) *Client {
	jar, _ := cookiejar.New(nil)

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Jar:       jar,
			Transport: transport,
		},
		logger:    logger,
		semaphore: make(chan struct{}, MaxConcurrentRequests),
		cache:     infra.NewCache[PageContent](infra.DefaultMaxEntries),
		breaker:   infra.NewBreaker(infra.DefaultBreakerConfig()),
	}
}

// Config returns the client's configuration
func (c *Client) Config() *Config {
	return c.config
}

// Close releases idle connections held by the client
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// CircuitBreakerStats returns the current circuit breaker state
func (c *Client) CircuitBreakerStats() infra.Stats {
	return c.breaker.Stats()
}

func (c *Client) checkCircuitBreaker() error {
	if err := c.breaker.Allow(); err != nil {
		metrics.SetCircuitOpen(true)
		return err
	}
	return nil
}

// apiRequest makes a request to the MediaWiki API with rate limiting
func (c *Client) apiRequest(ctx context.Context, params url.Values) (map[string]interface{}, error) {
	action := params.Get("action")

	ctx, span := tracing.StartSpan(ctx, "wiki.api."+action)
	defer span.End()
	tracing.AddWikiAttributes(span, action, params.Get("title")+params.Get("titles"))

	start := time.Now()
	result, code, err := c.doAPIRequest(ctx, action, params)
	metrics.RecordAPICall(action, time.Since(start).Seconds(), err == nil, code)
	tracing.RecordError(span, err)
	return result, err
}

func (c *Client) doAPIRequest(ctx context.Context, action string, params url.Values) (map[string]interface{}, string, error) {
	if err := c.checkCircuitBreaker(); err != nil {
		return nil, "circuit_open", err
	}
	// Every exit must report to the breaker, or a half-open trial slot leaks.
	settled := false
	defer func() {
		if !settled {
			c.breaker.Release()
		}
	}()

	// Acquire semaphore slot (rate limiting)
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return nil, "canceled", fmt.Errorf("context cancelled while waiting for rate limiter: %w", ctx.Err())
	}

	params.Set("format", "json")
	body := params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.WikiAPIRetries.WithLabelValues(action).Inc()
			backoff := time.Duration(attempt*attempt) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, "canceled", fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
			}
		}

		// Create fresh request for each attempt (body is consumed on read)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, strings.NewReader(body))
		if err != nil {
			return nil, "request", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "canceled", fmt.Errorf("request failed: %w", err)
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn("API request failed, retrying",
				"action", action,
				"attempt", attempt+1,
				"max_retries", c.config.MaxRetries,
				"error", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			// Don't retry client errors (4xx) except rate limiting (429)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				// The wiki answered; a rejected request says nothing about its health.
				c.breaker.Success()
				metrics.SetCircuitOpen(false)
				settled = true
				return nil, strconv.Itoa(resp.StatusCode), fmt.Errorf("client error %d: %s", resp.StatusCode, truncate(string(respBody), 200))
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				if seconds, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil {
					metrics.RateLimitWaits.Inc()
					c.logger.Warn("Rate limited, waiting",
						"retry_after", seconds,
						"attempt", attempt+1)
					select {
					case <-time.After(time.Duration(seconds) * time.Second):
					case <-ctx.Done():
						return nil, "canceled", fmt.Errorf("context cancelled during rate limit wait: %w", ctx.Err())
					}
				}
			}

			lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
			c.logger.Warn("API returned non-OK status",
				"status", resp.StatusCode,
				"attempt", attempt+1)
			continue
		}

		c.breaker.Success()
		metrics.SetCircuitOpen(false)
		settled = true

		var result map[string]interface{}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, "invalid_json", fmt.Errorf("failed to parse response: %w", err)
		}

		if errObj, ok := result["error"].(map[string]interface{}); ok {
			apiErr := &APIError{Code: getString(errObj, "code"), Info: getString(errObj, "info")}
			return nil, apiErr.Code, apiErr
		}

		return result, "", nil
	}

	c.breaker.Failure()
	settled = true
	return nil, "exhausted", lastErr
}

// checkExistingSession verifies if we're already logged in via existing cookies
func (c *Client) checkExistingSession(ctx context.Context) bool {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "userinfo")

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return false
	}

	userinfo := getMap(getMap(resp, "query"), "userinfo")
	if userinfo == nil || getInt(userinfo, "id") == 0 {
		return false
	}

	c.logger.Debug("Found existing session", "user", getString(userinfo, "name"))
	return true
}

// resetCookies clears all cookies to allow fresh login. Caller holds c.mu.
func (c *Client) resetCookies() {
	jar, _ := cookiejar.New(nil)
	c.httpClient.Jar = jar
	c.loggedIn = false
	c.csrfToken = ""
	c.tokenExpiry = time.Time{}
	c.logger.Debug("Cookies reset for fresh login")
}

// login authenticates with the wiki using bot password
func (c *Client) login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loggedIn && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	if !c.config.HasCredentials() {
		metrics.AuthFailures.WithLabelValues("no_credentials").Inc()
		return &AuthenticationError{
			Operation: "login",
			Reason:    "no credentials configured (set MEDIAWIKI_USERNAME and MEDIAWIKI_PASSWORD)",
		}
	}

	// Reusing a cookie session avoids the "Cannot log in when using
	// BotPasswordSessionProvider" error
	if c.checkExistingSession(ctx) {
		c.loggedIn = true
		c.tokenExpiry = time.Now().Add(sessionLifetime)
		c.logger.Info("Using existing session")
		return nil
	}

	err := c.doLogin(ctx)
	if err != nil && strings.Contains(err.Error(), "BotPasswordSessionProvider") {
		c.logger.Warn("BotPasswordSessionProvider conflict detected, resetting cookies")
		c.resetCookies()
		err = c.doLogin(ctx)
	}
	if err != nil {
		metrics.AuthFailures.WithLabelValues("login").Inc()
		return err
	}

	c.loggedIn = true
	c.tokenExpiry = time.Now().Add(sessionLifetime)
	c.logger.Info("Successfully logged in", "username", c.config.Username)
	return nil
}

// doLogin fetches a login token and posts the bot password. Caller holds c.mu.
func (c *Client) doLogin(ctx context.Context) error {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	params.Set("type", "login")

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to get login token: %w", err)
	}

	loginToken := getString(getMap(getMap(resp, "query"), "tokens"), "logintoken")
	if loginToken == "" {
		return fmt.Errorf("no login token in response")
	}

	params = url.Values{}
	params.Set("action", "login")
	params.Set("lgname", c.config.Username)
	params.Set("lgpassword", c.config.Password)
	params.Set("lgtoken", loginToken)

	resp, err = c.apiRequest(ctx, params)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	login := getMap(resp, "login")
	if login == nil {
		return fmt.Errorf("unexpected login response")
	}

	if result := getString(login, "result"); result != "Success" {
		return &AuthenticationError{
			Operation: "login",
			Reason:    fmt.Sprintf("%s: %v (check credentials)", result, login["reason"]),
		}
	}
	return nil
}

// getCSRFToken gets a CSRF token for editing
func (c *Client) getCSRFToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.csrfToken != "" && time.Now().Before(c.tokenExpiry) {
		token := c.csrfToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	if err := c.login(ctx); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	params.Set("type", "csrf")

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to get CSRF token: %w", err)
	}

	csrfToken := getString(getMap(getMap(resp, "query"), "tokens"), "csrftoken")
	if csrfToken == "" {
		return "", fmt.Errorf("no CSRF token in response")
	}

	c.mu.Lock()
	c.csrfToken = csrfToken
	c.tokenExpiry = time.Now().Add(sessionLifetime)
	c.mu.Unlock()

	return csrfToken, nil
}

// dropCSRFToken forgets the cached token after the wiki rejects it.
func (c *Client) dropCSRFToken() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}

// EnsureLoggedIn logs in when credentials are configured. Wikisource allows
// anonymous reads, so a client without credentials stays anonymous.
func (c *Client) EnsureLoggedIn(ctx context.Context) error {
	if !c.config.HasCredentials() {
		return nil
	}

	c.mu.RLock()
	loggedIn := c.loggedIn && time.Now().Before(c.tokenExpiry)
	c.mu.RUnlock()

	if loggedIn {
		return nil
	}
	return c.login(ctx)
}

func isBadToken(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeBadToken
}

// normalizePageTitle normalizes a page title to MediaWiki conventions:
// underscores become spaces, runs of spaces collapse and the first letter
// of the namespace and of the title is upper-cased.
func normalizePageTitle(title string) string {
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
	if title == "" {
		return title
	}
	for strings.Contains(title, "  ") {
		title = strings.ReplaceAll(title, "  ", " ")
	}

	if colonIdx := strings.Index(title, ":"); colonIdx > 0 {
		prefix := upperFirst(title[:colonIdx])
		rest := upperFirst(title[colonIdx+1:])
		return prefix + ":" + rest
	}
	return upperFirst(title)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Helper functions

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]interface{})
	return v
}

func getSlice(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]interface{})
	return v
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}
