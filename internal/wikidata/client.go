// Package wikidata resolves BDRC work IDs to Wikidata items and reads the
// labels and claims used when describing a published text.
package wikidata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/olgasafonova/wikisource-mcp-server/internal/infra"
	"github.com/olgasafonova/wikisource-mcp-server/metrics"
	"github.com/olgasafonova/wikisource-mcp-server/tracing"
)

const (
	DefaultSPARQLURL = "https://query.wikidata.org/sparql"
	DefaultEntityURL = "https://www.wikidata.org/wiki/Special:EntityData/"

	// PropertyBDRC is the Wikidata property holding a BDRC work ID.
	PropertyBDRC = "P2477"

	DefaultTimeout = 10 * time.Second

	// EntityCacheTTL bounds how long a resolved QID or entity is reused
	EntityCacheTTL = 10 * time.Minute
)

var (
	workIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	qidPattern      = regexp.MustCompile(`^Q[0-9]+$`)
	propertyPattern = regexp.MustCompile(`^P[0-9]+$`)
	languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)*$`)
)

// Config points the client at Wikidata.
type Config struct {
	SPARQLURL string
	EntityURL string
	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns the public Wikidata endpoints.
func DefaultConfig() Config {
	return Config{
		SPARQLURL: DefaultSPARQLURL,
		EntityURL: DefaultEntityURL,
		UserAgent: "WikisourceMCPServer/1.0",
		Timeout:   DefaultTimeout,
	}
}

// NotFoundError means Wikidata has no item for the requested ID.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no Wikidata %s found for %s", e.Kind, e.ID)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Client queries the Wikidata SPARQL endpoint and entity dumps.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	cache      *infra.Cache[[]byte]
	breaker    *infra.Breaker
}

// NewClient returns a Wikidata client.
func NewClient(config Config, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if config.SPARQLURL == "" {
		config.SPARQLURL = def.SPARQLURL
	}
	if config.EntityURL == "" {
		config.EntityURL = def.EntityURL
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
		cache:      infra.NewCache[[]byte](infra.DefaultMaxEntries),
		breaker:    infra.NewBreaker(infra.DefaultBreakerConfig()),
	}
}

// BuildQIDQuery returns the SPARQL query selecting items whose BDRC work ID
// property equals workID.
func BuildQIDQuery(workID string) string {
	return fmt.Sprintf("SELECT ?item WHERE {\n  ?item wdt:%s %q .\n}", PropertyBDRC, workID)
}

// LookupQID returns the QID of the item carrying the BDRC work ID.
func (c *Client) LookupQID(ctx context.Context, workID string) (string, error) {
	workID = strings.TrimSpace(workID)
	if !workIDPattern.MatchString(workID) {
		return "", fmt.Errorf("invalid BDRC work ID %q", workID)
	}
	key := "qid:" + workID
	if cached, ok := c.cache.Get(key); ok {
		metrics.RecordCacheAccess(true)
		return string(cached), nil
	}
	metrics.RecordCacheAccess(false)

	ctx, span := tracing.StartSpan(ctx, "wikidata.sparql")
	defer span.End()
	tracing.AddWikiAttributes(span, "sparql", workID)

	q := url.Values{}
	q.Set("query", BuildQIDQuery(workID))
	body, err := c.get(ctx, "wikidata.sparql", c.config.SPARQLURL+"?"+q.Encode(), "application/sparql-results+json")
	if err != nil {
		tracing.RecordError(span, err)
		return "", fmt.Errorf("looking up QID for %s: %w", workID, err)
	}

	item := gjson.GetBytes(body, "results.bindings.0.item.value").String()
	if item == "" {
		c.logger.Info("No Wikidata QID for BDRC work", "work_id", workID)
		return "", &NotFoundError{Kind: "QID", ID: workID}
	}
	qid := item[strings.LastIndex(item, "/")+1:]
	c.cache.Set(key, []byte(qid), EntityCacheTTL)
	return qid, nil
}

// Entity returns the raw entity JSON for qid.
func (c *Client) Entity(ctx context.Context, qid string) ([]byte, error) {
	if !qidPattern.MatchString(qid) {
		return nil, fmt.Errorf("invalid QID %q", qid)
	}
	key := "entity:" + qid
	if cached, ok := c.cache.Get(key); ok {
		metrics.RecordCacheAccess(true)
		return cached, nil
	}
	metrics.RecordCacheAccess(false)

	ctx, span := tracing.StartSpan(ctx, "wikidata.entity")
	defer span.End()
	tracing.AddWikiAttributes(span, "entity", qid)

	body, err := c.get(ctx, "wikidata.entity", c.config.EntityURL+qid+".json", "application/json")
	if err != nil {
		tracing.RecordError(span, err)
		var status *statusError
		if errors.As(err, &status) && status.code == http.StatusNotFound {
			return nil, &NotFoundError{Kind: "entity", ID: qid}
		}
		return nil, fmt.Errorf("fetching entity %s: %w", qid, err)
	}
	c.cache.Set(key, body, EntityCacheTTL)
	return body, nil
}

// Metadata resolves workID and extracts the fields of its item.
func (c *Client) Metadata(ctx context.Context, workID, language string, properties []string) (*Fields, error) {
	if language == "" {
		language = "en"
	}
	if !languagePattern.MatchString(language) {
		return nil, fmt.Errorf("invalid language code %q", language)
	}
	for _, p := range properties {
		if !propertyPattern.MatchString(p) {
			return nil, fmt.Errorf("invalid property %q: expected P followed by digits", p)
		}
	}

	qid, err := c.LookupQID(ctx, workID)
	if err != nil {
		return nil, err
	}
	body, err := c.Entity(ctx, qid)
	if err != nil {
		return nil, err
	}
	fields, err := ExtractFields(body, qid, language, properties)
	if err != nil {
		return nil, err
	}
	fields.WorkID = workID
	return fields, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// get issues one GET request through the breaker.
func (c *Client) get(ctx context.Context, action, rawURL, accept string) ([]byte, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}
	settled := false
	defer func() {
		if !settled {
			c.breaker.Release()
		}
	}()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			c.breaker.Failure()
			settled = true
		}
		metrics.RecordAPICall(action, time.Since(start).Seconds(), false, "request")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.Failure()
		settled = true
		metrics.RecordAPICall(action, time.Since(start).Seconds(), false, "read")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		c.breaker.Failure()
		settled = true
		metrics.RecordAPICall(action, time.Since(start).Seconds(), false, fmt.Sprint(resp.StatusCode))
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
	}
	c.breaker.Success()
	settled = true
	if resp.StatusCode != http.StatusOK {
		metrics.RecordAPICall(action, time.Since(start).Seconds(), false, fmt.Sprint(resp.StatusCode))
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
	}
	metrics.RecordAPICall(action, time.Since(start).Seconds(), true, "")
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
