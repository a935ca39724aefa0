// Package article creates and edits Wikipedia articles about published
// texts. Creation never overwrites an existing article and editing never
// creates a missing one.
package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Default edit summaries.
const (
	CreateSummary = "Created via script"
	EditSummary   = "Edit via script"
)

// Store is the wiki as seen by article edits.
type Store interface {
	FetchPageText(ctx context.Context, title string) (text string, exists bool, err error)
	// SaveArticle writes text. create requests creation only; otherwise the
	// page must already exist.
	SaveArticle(ctx context.Context, title, text, summary string, minor, create bool) error
}

// Action is what an article operation did or would do.
type Action string

const (
	ActionCreated Action = "created"
	ActionEdited  Action = "edited"
	ActionPlanned Action = "planned"
	ActionSkipped Action = "skipped"
)

// Request describes one article write.
type Request struct {
	Title   string
	Content string
	Summary string
	Minor   bool
	DryRun  bool
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

// Result reports an article write.
type Result struct {
	Title  string `json:"title"`
	Action Action `json:"action"`
	Create bool   `json:"create"`
	Bytes  int    `json:"bytes"`
	Reason string `json:"reason,omitempty"`

	// Previous is the text an edit replaced.
	Previous      string `json:"-"`
	PreviousBytes int    `json:"previous_bytes,omitempty"`
}

// Service writes articles through a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService returns a Service that writes through store.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create writes a new article. An existing article is left alone and
// reported as skipped.
func (s *Service) Create(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	_, exists, err := s.store.FetchPageText(ctx, req.Title)
	if err != nil {
		return nil, fmt.Errorf("checking %q: %w", req.Title, err)
	}
	res := &Result{Title: req.Title, Create: true, Bytes: len(req.Content)}
	if exists {
		s.logger.Warn("Article already exists, use edit to modify it", "title", req.Title)
		res.Action, res.Reason = ActionSkipped, "article already exists"
		return res, nil
	}
	return s.save(ctx, req, res, CreateSummary)
}

// Edit replaces the text of an existing article. A missing article is
// reported as skipped.
func (s *Service) Edit(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	current, exists, err := s.store.FetchPageText(ctx, req.Title)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", req.Title, err)
	}
	res := &Result{Title: req.Title, Bytes: len(req.Content)}
	if !exists {
		s.logger.Warn("Article does not exist, use create to make it", "title", req.Title)
		res.Action, res.Reason = ActionSkipped, "article does not exist"
		return res, nil
	}
	res.Previous, res.PreviousBytes = current, len(current)
	if current == req.Content {
		res.Action, res.Reason = ActionSkipped, "content unchanged"
		return res, nil
	}
	return s.save(ctx, req, res, EditSummary)
}

// Publish creates the article when it is missing and edits it otherwise.
func (s *Service) Publish(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	_, exists, err := s.store.FetchPageText(ctx, req.Title)
	if err != nil {
		return nil, fmt.Errorf("checking %q: %w", req.Title, err)
	}
	if exists {
		return s.Edit(ctx, req)
	}
	return s.Create(ctx, req)
}

func (s *Service) save(ctx context.Context, req Request, res *Result, defaultSummary string) (*Result, error) {
	summary := req.Summary
	if summary == "" {
		summary = defaultSummary
	}
	if req.DryRun {
		res.Action = ActionPlanned
		return res, nil
	}
	if err := s.store.SaveArticle(ctx, req.Title, req.Content, summary, req.Minor, res.Create); err != nil {
		return res, fmt.Errorf("saving %q: %w", req.Title, err)
	}
	if res.Create {
		res.Action = ActionCreated
	} else {
		res.Action = ActionEdited
	}
	s.logger.Info("Article saved", "title", req.Title, "action", res.Action, "bytes", res.Bytes)
	return res, nil
}
