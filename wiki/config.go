package wiki

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the multilingual Wikisource action API.
const DefaultBaseURL = "https://wikisource.org/w/api.php"

// DefaultWikipediaURL is the Tibetan Wikipedia action API, where articles
// about published texts are written.
const DefaultWikipediaURL = "https://bo.wikipedia.org/w/api.php"

// Config holds MediaWiki connection settings
type Config struct {
	// BaseURL is the wiki API endpoint (e.g., https://wikisource.org/w/api.php)
	BaseURL string

	// Username for bot password authentication ("User@BotName")
	Username string

	// Password for bot password authentication
	Password string

	// Timeout is the deadline for a single API request
	Timeout time.Duration

	// UserAgent identifies the client to the wiki
	UserAgent string

	// MaxRetries for failed requests
	MaxRetries int

	// SplitCeiling is the byte ceiling used when packing subpages.
	// Zero means the packer default.
	SplitCeiling int

	// BotUser is written into pagequality tags on proofread pages.
	// Falls back to the login name without the bot suffix.
	BotUser string

	// WikipediaURL is the API endpoint used for article edits
	WikipediaURL string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	baseURL := os.Getenv("MEDIAWIKI_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := 30 * time.Second
	if t := os.Getenv("MEDIAWIKI_TIMEOUT"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, &ValidationError{
				Field:      "MEDIAWIKI_TIMEOUT",
				Value:      t,
				Message:    "not a valid duration",
				Suggestion: `Use a Go duration such as "30s" or "2m".`,
			}
		}
		timeout = d
	}

	maxRetries := 3
	if r := os.Getenv("MEDIAWIKI_MAX_RETRIES"); r != "" {
		if n, err := strconv.Atoi(r); err == nil && n >= 0 {
			maxRetries = n
		}
	}

	userAgent := os.Getenv("MEDIAWIKI_USER_AGENT")
	if userAgent == "" {
		userAgent = "WikisourceMCPServer/1.0 (https://github.com/olgasafonova/wikisource-mcp-server)"
	}

	wikipediaURL := os.Getenv("WIKIPEDIA_URL")
	if wikipediaURL == "" {
		wikipediaURL = DefaultWikipediaURL
	}

	ceiling := 0
	if s := os.Getenv("WIKISOURCE_SPLIT_CEILING"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, &ValidationError{
				Field:      "WIKISOURCE_SPLIT_CEILING",
				Value:      s,
				Message:    "must be a positive number of bytes",
				Suggestion: "Leave it unset to use the default of 90% of the 2 MiB page limit.",
			}
		}
		ceiling = n
	}

	return &Config{
		BaseURL:      baseURL,
		Username:     os.Getenv("MEDIAWIKI_USERNAME"),
		Password:     os.Getenv("MEDIAWIKI_PASSWORD"),
		Timeout:      timeout,
		UserAgent:    userAgent,
		MaxRetries:   maxRetries,
		SplitCeiling: ceiling,
		BotUser:      os.Getenv("WIKISOURCE_BOT_USER"),
		WikipediaURL: wikipediaURL,
	}, nil
}

// HasCredentials returns true if authentication credentials are configured
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// QualityUser is the user name recorded in pagequality tags.
func (c *Config) QualityUser() string {
	if c.BotUser != "" {
		return c.BotUser
	}
	for i := 0; i < len(c.Username); i++ {
		if c.Username[i] == '@' {
			return c.Username[:i]
		}
	}
	return c.Username
}

// ForSite returns a copy of the configuration pointed at another wiki of the
// same family. Bot passwords are global (SUL), so credentials carry over.
func (c *Config) ForSite(baseURL string) *Config {
	cp := *c
	cp.BaseURL = baseURL
	return &cp
}
