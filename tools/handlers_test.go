package tools

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/olgasafonova/wikisource-mcp-server/internal/article"
	"github.com/olgasafonova/wikisource-mcp-server/internal/transclude"
	"github.com/olgasafonova/wikisource-mcp-server/internal/wikidata"
)

// memWiki is a minimal in-memory wiki for registry tests.
type memWiki map[string]string

func (m memWiki) FetchPageText(_ context.Context, title string) (string, bool, error) {
	text, ok := m[title]
	return text, ok, nil
}

func (m memWiki) PageExists(_ context.Context, title string) (bool, error) {
	_, ok := m[title]
	return ok, nil
}

func (m memWiki) SavePage(_ context.Context, title, text, _ string) error {
	m[title] = text
	return nil
}

func (m memWiki) SaveArticle(_ context.Context, title, text, _ string, _, _ bool) error {
	m[title] = text
	return nil
}

func (m memWiki) ListPageTitles(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func newTestRegistry(t *testing.T) *HandlerRegistry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return newRegistryFor(memWiki{}, logger)
}

func newRegistryFor(wiki memWiki, logger *slog.Logger) *HandlerRegistry {
	service := transclude.NewService(wiki, transclude.Config{}, "Bot", nil, logger)
	return NewHandlerRegistry(service, article.NewService(wiki, logger), wikidata.NewClient(wikidata.DefaultConfig(), logger), logger)
}

func TestNewHandlerRegistry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := transclude.NewService(memWiki{}, transclude.Config{}, "Bot", nil, logger)
	articles := article.NewService(memWiki{}, logger)
	wd := wikidata.NewClient(wikidata.DefaultConfig(), logger)

	registry := NewHandlerRegistry(service, articles, wd, logger)

	if registry == nil {
		t.Fatal("Expected non-nil registry")
	}
	if registry.service != service {
		t.Error("Registry should hold the service reference")
	}
	if registry.articles != articles || registry.wikidata != wd {
		t.Error("Registry should hold the article and Wikidata clients")
	}
	if registry.logger != logger {
		t.Error("Registry should hold the logger reference")
	}
}

func TestBuildTool(t *testing.T) {
	registry := newTestRegistry(t)

	tests := []struct {
		name      string
		spec      ToolSpec
		wantName  string
		wantDesc  string
		wantRO    bool
		wantIdem  bool
		wantDestr bool
		wantOpen  bool
	}{
		{
			name: "read-only tool",
			spec: ToolSpec{
				Name:        "wikisource_plan_split",
				Title:       "Plan Page Split",
				Description: "Preview a split",
				Method:      "PlanSplit",
				ReadOnly:    true,
				Idempotent:  true,
			},
			wantName: "wikisource_plan_split",
			wantDesc: "Preview a split",
			wantRO:   true,
			wantIdem: true,
		},
		{
			name: "destructive open world tool",
			spec: ToolSpec{
				Name:        "wikisource_split_page",
				Title:       "Split Page",
				Description: "Split a page",
				Method:      "SplitPage",
				Destructive: true,
				OpenWorld:   true,
			},
			wantName:  "wikisource_split_page",
			wantDesc:  "Split a page",
			wantDestr: true,
			wantOpen:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := registry.buildTool(tt.spec)

			if tool.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", tool.Name, tt.wantName)
			}
			if tool.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", tool.Description, tt.wantDesc)
			}
			if tool.Annotations == nil {
				t.Fatal("Expected annotations")
			}
			if tool.Annotations.ReadOnlyHint != tt.wantRO {
				t.Errorf("ReadOnlyHint = %v, want %v", tool.Annotations.ReadOnlyHint, tt.wantRO)
			}
			if tool.Annotations.IdempotentHint != tt.wantIdem {
				t.Errorf("IdempotentHint = %v, want %v", tool.Annotations.IdempotentHint, tt.wantIdem)
			}
			if tt.wantDestr && (tool.Annotations.DestructiveHint == nil || !*tool.Annotations.DestructiveHint) {
				t.Error("Expected DestructiveHint to be true")
			}
			if tt.wantOpen && (tool.Annotations.OpenWorldHint == nil || !*tool.Annotations.OpenWorldHint) {
				t.Error("Expected OpenWorldHint to be true")
			}
		})
	}
}

func TestBuildTool_NonDestructiveWrite(t *testing.T) {
	registry := newTestRegistry(t)
	tool := registry.buildTool(ToolSpec{Name: "wikisource_create_main_page", Method: "CreateMainPage"})
	if tool.Annotations.DestructiveHint == nil || *tool.Annotations.DestructiveHint {
		t.Error("Expected DestructiveHint to be explicitly false for a non-destructive write")
	}
}

func TestRecoverPanic(t *testing.T) {
	registry := newTestRegistry(t)

	run := func() (err error) {
		defer registry.recoverPanic("test_tool", &err)
		panic("test panic")
	}
	err := run()
	if err == nil {
		t.Fatal("recovered panic should surface as an error")
	}
	if !strings.Contains(err.Error(), "test_tool") || !strings.Contains(err.Error(), "test panic") {
		t.Errorf("error = %q, want tool name and panic value", err)
	}
}

func TestRecoverPanic_NoPanicKeepsError(t *testing.T) {
	registry := newTestRegistry(t)

	run := func() (err error) {
		defer registry.recoverPanic("test_tool", &err)
		return nil
	}
	if err := run(); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestLogExecution(t *testing.T) {
	registry := newTestRegistry(t)
	spec := ToolSpec{Name: "test_tool", Category: "split"}

	registry.logExecution(spec,
		transclude.SplitPageArgs{Title: "Book"},
		transclude.SplitPageResult{Split: &transclude.SplitResult{Parent: "Book", Stage: transclude.StageDone}})

	registry.logExecution(spec,
		transclude.LinkPagesArgs{IndexTitle: "Index:Book.pdf"},
		transclude.LinkPagesResult{Link: &transclude.LinkResult{Outcome: transclude.LinkSkipped}})

	// Nil results must not panic
	registry.logExecution(spec, transclude.UploadETextArgs{}, transclude.UploadETextResult{})
}

func TestAllToolsNotEmpty(t *testing.T) {
	if len(AllTools) == 0 {
		t.Error("AllTools should not be empty")
	}

	for i, spec := range AllTools {
		if spec.Name == "" {
			t.Errorf("Tool %d has empty Name", i)
		}
		if spec.Method == "" {
			t.Errorf("Tool %s has empty Method", spec.Name)
		}
		if spec.Description == "" {
			t.Errorf("Tool %s has empty Description", spec.Name)
		}
		if spec.Category == "" {
			t.Errorf("Tool %s has empty Category", spec.Name)
		}
		if spec.ReadOnly && spec.Destructive {
			t.Errorf("Tool %s cannot be both read-only and destructive", spec.Name)
		}
	}
}

func TestToolNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, spec := range AllTools {
		if seen[spec.Name] {
			t.Errorf("duplicate tool name %s", spec.Name)
		}
		seen[spec.Name] = true
	}
}

func TestToolSpecMethods(t *testing.T) {
	knownMethods := map[string]bool{
		"PlanSplit":         true,
		"SplitPage":         true,
		"LinkPages":         true,
		"AddRefTags":        true,
		"ListIndexPages":    true,
		"CreateMainPage":    true,
		"FormatOrientation": true,
		"UploadEText":       true,
		"CreateExtended":    true,
		"CreateArticle":     true,
		"EditArticle":       true,
		"PublishArticle":    true,
		"LookupWork":        true,
	}

	for _, spec := range AllTools {
		if !knownMethods[spec.Method] {
			t.Errorf("Tool %s has unknown method: %s", spec.Name, spec.Method)
		}
	}
}

func TestToolsByCategory(t *testing.T) {
	for _, category := range []string{"split", "links", "index", "etext", "wikipedia", "wikidata"} {
		got := ToolsByCategory(category)
		if len(got) == 0 {
			t.Errorf("Expected tools in category %s", category)
		}
		for _, tool := range got {
			if tool.Category != category {
				t.Errorf("Tool %s has category %s, expected %s", tool.Name, tool.Category, category)
			}
		}
	}

	if n := len(ToolsByCategory("unknown")); n != 0 {
		t.Errorf("Expected 0 tools for unknown category, got %d", n)
	}
}
