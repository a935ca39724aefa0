package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/wikisource-mcp-server/internal/article"
	"github.com/olgasafonova/wikisource-mcp-server/internal/transclude"
	"github.com/olgasafonova/wikisource-mcp-server/internal/wikidata"
	"github.com/olgasafonova/wikisource-mcp-server/metrics"
	"github.com/olgasafonova/wikisource-mcp-server/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their concrete handler implementations.
type HandlerRegistry struct {
	service  *transclude.Service
	articles *article.Service
	wikidata *wikidata.Client
	logger   *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(service *transclude.Service, articles *article.Service, wikidataClient *wikidata.Client, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		service:  service,
		articles: articles,
		wikidata: wikidataClient,
		logger:   logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	for _, spec := range AllTools {
		h.registerByName(server, spec)
	}
	h.logger.Info("Registered all tools", "count", len(AllTools))
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) {
	tool := h.buildTool(spec)
	s := h.service

	switch spec.Method {
	case "PlanSplit":
		register(h, server, tool, spec, s.PlanSplitMCP)
	case "SplitPage":
		register(h, server, tool, spec, s.SplitPageMCP)
	case "LinkPages":
		register(h, server, tool, spec, s.LinkPagesMCP)
	case "AddRefTags":
		register(h, server, tool, spec, s.AddRefTagsMCP)
	case "ListIndexPages":
		register(h, server, tool, spec, s.ListIndexPagesMCP)
	case "CreateMainPage":
		register(h, server, tool, spec, s.CreateMainPageMCP)
	case "FormatOrientation":
		register(h, server, tool, spec, s.FormatOrientationMCP)
	case "UploadEText":
		register(h, server, tool, spec, s.UploadETextMCP)
	case "CreateExtended":
		register(h, server, tool, spec, s.CreateExtendedMCP)
	case "CreateArticle":
		register(h, server, tool, spec, h.articles.CreateArticleMCP)
	case "EditArticle":
		register(h, server, tool, spec, h.articles.EditArticleMCP)
	case "PublishArticle":
		register(h, server, tool, spec, h.articles.PublishArticleMCP)
	case "LookupWork":
		register(h, server, tool, spec, h.wikidata.LookupWorkMCP)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
	}
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	} else if !spec.ReadOnly {
		annotations.DestructiveHint = ptr(false)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the service method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (_ *mcp.CallToolResult, _ Result, err error) {
		defer h.recoverPanic(spec.Name, &err)

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, err := method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordRequest(spec.Name, duration, false)
			h.logger.Warn("Tool failed", "tool", spec.Name, "error", err)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logExecution(spec, args, result)
		return nil, result, nil
	})
}

// recoverPanic recovers from panics in tool handlers and reports them
// through errp so the client sees a failed call.
func (h *HandlerRegistry) recoverPanic(toolName string, errp *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		*errp = fmt.Errorf("%s failed: internal error: %v", toolName, rec)
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	switch a := args.(type) {
	case transclude.PlanSplitArgs:
		attrs = append(attrs, "title", a.Title)
	case transclude.SplitPageArgs:
		attrs = append(attrs, "title", a.Title, "dry_run", a.DryRun)
	case transclude.LinkPagesArgs:
		attrs = append(attrs, "index", a.IndexTitle, "dry_run", a.DryRun)
	case transclude.AddRefTagsArgs:
		attrs = append(attrs, "main_title", a.MainTitle, "dry_run", a.DryRun)
	case transclude.ListIndexPagesArgs:
		attrs = append(attrs, "index", a.IndexTitle)
	case transclude.CreateMainPageArgs:
		attrs = append(attrs, "index", a.IndexTitle, "dry_run", a.DryRun)
	case transclude.FormatOrientationArgs:
		attrs = append(attrs, "index", a.IndexTitle, "dry_run", a.DryRun)
	case transclude.UploadETextArgs:
		attrs = append(attrs, "index", a.IndexTitle, "dry_run", a.DryRun)
	case transclude.CreateExtendedArgs:
		attrs = append(attrs, "index", a.IndexTitle, "overwrite", a.Overwrite)
	case article.ArticleArgs:
		attrs = append(attrs, "title", a.Title, "dry_run", a.DryRun)
	case wikidata.LookupWorkArgs:
		attrs = append(attrs, "work_id", a.WorkID)
	}

	switch r := result.(type) {
	case transclude.SplitPageResult:
		if r.Split != nil {
			attrs = append(attrs, "stage", r.Split.Stage.String(), "subpages", len(r.Split.Subpages), "warnings", len(r.Split.Warnings))
		}
	case transclude.LinkPagesResult:
		if r.Link != nil {
			attrs = append(attrs, "outcome", string(r.Link.Outcome), "markers", r.Link.Markers)
		}
	case transclude.AddRefTagsResult:
		if r.RefTags != nil {
			attrs = append(attrs, "outcome", string(r.RefTags.Outcome), "notes", r.RefTags.Notes)
		}
	case transclude.ListIndexPagesResult:
		attrs = append(attrs, "pages", r.Count)
	case transclude.CreateMainPageResult:
		if r.MainPage != nil {
			attrs = append(attrs, "main_title", r.MainPage.MainTitle, "saved", r.MainPage.Saved)
		}
	case transclude.CreateExtendedResult:
		if r.MainPage != nil {
			attrs = append(attrs, "main_title", r.MainPage.MainTitle, "saved", r.MainPage.Saved)
		}
	case transclude.FormatOrientationResult:
		if r.Orientation != nil {
			attrs = append(attrs, "pages", len(r.Orientation.Pages), "skipped", r.Orientation.Skipped)
		}
	case transclude.UploadETextResult:
		if r.Upload != nil {
			attrs = append(attrs, "saved", r.Upload.Saved, "failed", r.Upload.Failed)
		}
	case article.ArticleResult:
		if r.Article != nil {
			attrs = append(attrs, "action", string(r.Article.Action), "bytes", r.Article.Bytes)
		}
	case wikidata.LookupWorkResult:
		attrs = append(attrs, "found", r.Found)
		if r.Fields != nil {
			attrs = append(attrs, "qid", r.Fields.QID)
		}
	}

	h.logger.Info("Tool executed", attrs...)
}
