// Command wikisource-batch runs one publishing step over every ready entry
// of a YAML work list and writes a JSON report of the outcomes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/olgasafonova/wikisource-mcp-server/internal/transclude"
	"github.com/olgasafonova/wikisource-mcp-server/internal/worklist"
	"github.com/olgasafonova/wikisource-mcp-server/wiki"
)

// Modes
const (
	modePublish  = "publish"
	modeLink     = "link"
	modeRefTags  = "reftags"
	modeUpload   = "upload"
	modeExtended = "extended"
	modeSplit    = "split"
)

var modes = []string{modePublish, modeLink, modeRefTags, modeUpload, modeExtended, modeSplit}

type options struct {
	workList    string
	mode        string
	dryRun      bool
	overwrite   bool
	report      string
	status      string
	ceiling     int
	concurrency int
	envFile     string
	verbose     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	opts, code := parseFlags(errOut, args)
	if code >= 0 {
		return code
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	if err := wiki.LoadDotEnv(opts.envFile); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	config, err := wiki.LoadConfig()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if !opts.dryRun && !config.HasCredentials() {
		fmt.Fprintln(errOut, "error: MEDIAWIKI_USERNAME and MEDIAWIKI_PASSWORD are required unless --dry-run is set")
		return 1
	}

	wl, err := worklist.Load(opts.workList)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if opts.status != "" {
		wl.ReadyStatus = opts.status
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := wiki.NewClient(config, logger)
	defer client.Close()

	ceiling := config.SplitCeiling
	if opts.ceiling > 0 {
		ceiling = opts.ceiling
	}
	service := transclude.NewService(client, transclude.Config{Ceiling: ceiling}, config.QualityUser(), wiki.IsContentTooLarge, logger)
	service.MainPages().SetConcurrency(opts.concurrency)

	rep := runBatch(ctx, service, wl, opts, logger)
	if err := writeReport(opts.report, rep); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	fmt.Fprintf(out, "%s: %d entries, %d ok, %d skipped, %d failed\n",
		opts.mode, len(rep.Entries), rep.OK, rep.Skipped, rep.Failed)
	if opts.report != "" {
		fmt.Fprintln(out, "report written to", opts.report)
	}
	if rep.Failed > 0 {
		return 1
	}
	return 0
}

// parseFlags returns code -1 when the run should continue.
func parseFlags(errOut io.Writer, args []string) (options, int) {
	var opts options
	fs := flag.NewFlagSet("wikisource-batch", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVarP(&opts.workList, "worklist", "w", "data/work_list.yaml", "YAML work list")
	fs.StringVarP(&opts.mode, "mode", "m", "", "step to run: "+strings.Join(modes, ", "))
	fs.BoolVarP(&opts.dryRun, "dry-run", "n", false, "plan every edit without saving")
	fs.BoolVar(&opts.overwrite, "overwrite", false, "replace existing main pages in extended mode")
	fs.StringVarP(&opts.report, "report", "r", "", "write a JSON report to this file")
	fs.StringVar(&opts.status, "status", "", "status that marks an entry ready (default: proofread)")
	fs.IntVar(&opts.ceiling, "ceiling", 0, "subpage size ceiling in bytes")
	fs.IntVar(&opts.concurrency, "concurrency", transclude.DefaultUploadConcurrency, "parallel page saves during upload")
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with wiki credentials")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, 0
		}
		return opts, 2
	}
	if !validMode(opts.mode) {
		fmt.Fprintf(errOut, "error: --mode must be one of %s\n", strings.Join(modes, ", "))
		return opts, 2
	}
	return opts, -1
}

func validMode(mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

type entryReport struct {
	Index     string `json:"index,omitempty"`
	MainTitle string `json:"main_title"`
	Status    string `json:"status"` // ok, skipped, failed
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
	Result    any    `json:"result,omitempty"`
}

type report struct {
	WorkList   string        `json:"work_list"`
	Mode       string        `json:"mode"`
	DryRun     bool          `json:"dry_run"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	OK         int           `json:"ok"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Entries    []entryReport `json:"entries"`
}

func runBatch(ctx context.Context, service *transclude.Service, wl *worklist.WorkList, opts options, logger *slog.Logger) *report {
	rep := &report{WorkList: opts.workList, Mode: opts.mode, DryRun: opts.dryRun, StartedAt: time.Now().UTC()}

	for _, e := range wl.Ready() {
		if ctx.Err() != nil {
			break
		}
		er := entryReport{Index: e.IndexTitle(), MainTitle: e.MainTitle()}
		logger.Info("Processing entry", "index", er.Index, "main_page", er.MainTitle, "mode", opts.mode)

		if e.SameTitle() {
			er.Status, er.Reason = "skipped", "index and main page share a title"
		} else {
			result, err := runEntry(ctx, service, wl, e, opts)
			er.Result = result
			if err != nil {
				er.Status, er.Error = "failed", err.Error()
				logger.Error("Entry failed", "main_page", er.MainTitle, "error", err)
			} else {
				er.Status = "ok"
			}
		}

		switch er.Status {
		case "ok":
			rep.OK++
		case "skipped":
			rep.Skipped++
		default:
			rep.Failed++
		}
		rep.Entries = append(rep.Entries, er)
	}
	rep.FinishedAt = time.Now().UTC()
	return rep
}

func runEntry(ctx context.Context, service *transclude.Service, wl *worklist.WorkList, e worklist.Entry, opts options) (any, error) {
	switch opts.mode {
	case modePublish:
		orientation, err := service.FormatOrientationMCP(ctx, transclude.FormatOrientationArgs{IndexTitle: e.IndexTitle(), DryRun: opts.dryRun})
		if err != nil {
			return nil, err
		}
		mainPage, err := service.CreateMainPageMCP(ctx, transclude.CreateMainPageArgs{
			IndexTitle: e.IndexTitle(),
			MainTitle:  e.MainTitle(),
			DryRun:     opts.dryRun,
		})
		return map[string]any{"orientation": orientation.Orientation, "main_page": mainPage.MainPage}, err
	case modeLink:
		res, err := service.LinkPagesMCP(ctx, transclude.LinkPagesArgs{
			IndexTitle: e.IndexTitle(),
			MainTitle:  e.MainTitle(),
			DryRun:     opts.dryRun,
		})
		return res.Link, err
	case modeRefTags:
		res, err := service.AddRefTagsMCP(ctx, transclude.AddRefTagsArgs{MainTitle: e.MainTitle(), DryRun: opts.dryRun})
		return res.RefTags, err
	case modeUpload:
		path := wl.TextPath(e)
		if path == "" {
			return nil, errors.New("entry has no text_file")
		}
		res, err := service.UploadETextMCP(ctx, transclude.UploadETextArgs{IndexTitle: e.IndexTitle(), TextFile: path, DryRun: opts.dryRun})
		if err == nil && res.Upload.Failed > 0 {
			err = fmt.Errorf("%d of %d pages not uploaded", res.Upload.Failed, len(res.Upload.Pages))
		}
		return res.Upload, err
	case modeExtended:
		path := wl.TextPath(e)
		if path == "" {
			return nil, errors.New("entry has no text_file")
		}
		res, err := service.CreateExtendedMCP(ctx, transclude.CreateExtendedArgs{
			IndexTitle: e.IndexTitle(),
			MainTitle:  e.MainTitle(),
			TextFile:   path,
			Overwrite:  opts.overwrite,
			DryRun:     opts.dryRun,
		})
		return res.MainPage, err
	case modeSplit:
		res, err := service.SplitPageMCP(ctx, transclude.SplitPageArgs{Title: e.MainTitle(), Ceiling: opts.ceiling, DryRun: opts.dryRun})
		return res.Split, err
	}
	return nil, fmt.Errorf("unknown mode %q", opts.mode)
}

func writeReport(path string, rep *report) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
