// Wikisource MCP Server - A Model Context Protocol server for Wikisource
// Splits oversized main pages into transcluded subpages and automates the
// chores of publishing an Index.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/wikisource-mcp-server/internal/article"
	"github.com/olgasafonova/wikisource-mcp-server/internal/transclude"
	"github.com/olgasafonova/wikisource-mcp-server/internal/wikidata"
	"github.com/olgasafonova/wikisource-mcp-server/tools"
	"github.com/olgasafonova/wikisource-mcp-server/tracing"
	"github.com/olgasafonova/wikisource-mcp-server/wiki"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ServerName    = "wikisource-mcp-server"
	ServerVersion = "1.0.0"
)

const instructions = `Wikisource MCP Server automates publishing on Wikisource.

Available tools:
- wikisource_plan_split: Preview how an oversized main page would be split
- wikisource_split_page: Split a main page into subpages and transclude them
- wikisource_link_pages: Convert "Page no: N" markers into Page: links
- wikisource_add_ref_tags: Turn (variant,reading) notes into footnotes
- wikisource_list_index_pages: List the Page: pages of an Index
- wikisource_create_main_page: Create a <pages> main page for an Index
- wikisource_format_orientation: Add margin styling to an Index's pages
- wikisource_upload_etext: Upload OCR/e-text into Page: pages
- wikisource_create_extended_main_page: Create a main page from e-text
- wikipedia_create_article: Create a Wikipedia article (never overwrites)
- wikipedia_edit_article: Edit an existing Wikipedia article (never creates)
- wikipedia_publish_article: Create or edit a Wikipedia article
- wikidata_lookup_work: Find the Wikidata item and fields for a BDRC work ID

Configure via environment variables (or a .env file):
- MEDIAWIKI_URL: Wiki API URL (default https://wikisource.org/w/api.php)
- MEDIAWIKI_USERNAME: Bot username (for editing)
- MEDIAWIKI_PASSWORD: Bot password (for editing)
- WIKISOURCE_SPLIT_CEILING: Subpage size ceiling in bytes
- WIKIPEDIA_URL: Wikipedia API URL for article tools (default https://bo.wikipedia.org/w/api.php)`

func main() {
	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := wiki.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	config, err := wiki.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	traceConfig := tracing.DefaultConfig()
	traceConfig.ServiceVersion = ServerVersion
	shutdownTracing, err := tracing.Setup(ctx, traceConfig)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go serveMetrics(addr, logger)
	}

	client := wiki.NewClient(config, logger)
	defer client.Close()

	service := newService(client, config, logger)

	wpClient := wiki.NewClient(config.ForSite(config.WikipediaURL), logger)
	defer wpClient.Close()

	wdConfig := wikidata.DefaultConfig()
	wdConfig.UserAgent = config.UserAgent

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions,
	})

	tools.NewHandlerRegistry(service,
		article.NewService(wpClient, logger),
		wikidata.NewClient(wdConfig, logger),
		logger).RegisterAll(server)

	logger.Info("Starting Wikisource MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"wiki_url", config.BaseURL,
		"wikipedia_url", config.WikipediaURL,
		"authenticated", config.HasCredentials(),
	)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// newService wires the transclusion service to the wiki client.
func newService(client *wiki.Client, config *wiki.Config, logger *slog.Logger) *transclude.Service {
	return transclude.NewService(client,
		transclude.Config{Ceiling: config.SplitCeiling},
		config.QualityUser(),
		wiki.IsContentTooLarge,
		logger)
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server stopped", "error", err)
	}
}
