// Package cli is the plain line-oriented frontend: one command per line,
// results printed as they arrive. It drives the same workflow controller
// as the TUI.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"quizforge/internal/content"
	"quizforge/internal/guide"
	"quizforge/internal/studyfile"
	"quizforge/internal/workflow"
)

// Config wires the command loop to its controller and streams.
type Config struct {
	Controller  *workflow.Controller
	DownloadDir string
	In          io.Reader
	Out         io.Writer
	Log         *zap.Logger
}

// App reads commands from In and writes results to Out until quit or EOF.
type App struct {
	ctrl *workflow.Controller
	cfg  Config
	out  io.Writer
	log  *zap.Logger

	mu       sync.Mutex
	watching bool
}

func New(cfg Config) *App {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &App{
		ctrl: cfg.Controller,
		cfg:  cfg,
		out:  cfg.Out,
		log:  cfg.Log,
	}
}

// Run executes the command loop. It returns when the input is exhausted,
// quit is entered, or the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.printf("quizforge — turn study material into quizzes and notes")
	a.printf("Type help for commands.")

	scanner := bufio.NewScanner(a.cfg.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	a.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			a.prompt()
			continue
		}
		cmd, arg := splitCommand(line)
		if cmd == "quit" || cmd == "exit" {
			a.printf("Bye.")
			return nil
		}
		a.dispatch(ctx, cmd, arg)
		a.prompt()
	}
	return scanner.Err()
}

func (a *App) dispatch(ctx context.Context, cmd, arg string) {
	switch cmd {
	case "help":
		a.printHelp()
	case "guide":
		a.printGuide()
	case "file":
		a.cmdFile(ctx, arg)
	case "text":
		a.cmdText(arg)
	case "remove":
		a.cmdRemove()
	case "analyze":
		a.cmdAnalyze(ctx)
	case "preview":
		a.cmdPreview()
	case "pdf":
		a.cmdLocalPDF(arg)
	case "generate":
		a.cmdGenerate(ctx)
	case "status":
		a.cmdStatus(ctx)
	case "base":
		a.ctrl.SetDownloadBase(arg)
		if arg == "" {
			a.printf("Download base cleared; links use the API host.")
		} else {
			a.printf("Download links now start with %s", arg)
		}
	case "link":
		if url := a.ctrl.DownloadURL(); url != "" {
			a.printf("%s", url)
		} else {
			a.printf("No generated file yet.")
		}
	case "download":
		a.cmdDownload(ctx, arg)
	case "reset":
		a.ctrl.Reset()
		a.printf("Session reset.")
	default:
		a.printf("Unknown command %q. Type help for the list.", cmd)
	}
}

func (a *App) cmdFile(ctx context.Context, path string) {
	if path == "" {
		a.printf("Usage: file <path to .doc/.docx/.pdf>")
		return
	}
	if err := a.ctrl.UploadFile(ctx, path); err != nil {
		a.printf("Upload failed: %v", err)
		return
	}
	snap := a.ctrl.Snapshot()
	a.printf("Uploaded %s as a %s document.", snap.File.Name, snap.File.Type)
	if err := a.ctrl.ParseUpload(ctx); err != nil {
		a.printf("Parse failed: %v", err)
		return
	}
	snap = a.ctrl.Snapshot()
	a.printf("Extracted %d characters. Run analyze when ready.", len([]rune(snap.SourceText)))
}

func (a *App) cmdText(material string) {
	if material == "" {
		a.printf("Usage: text <study material>")
		return
	}
	a.ctrl.SetSourceText(material)
	a.printf("Material stored. Run analyze when ready.")
}

func (a *App) cmdRemove() {
	if a.ctrl.Snapshot().File == nil {
		a.printf("No uploaded file to remove.")
		return
	}
	a.ctrl.RemoveUpload()
	a.printf("Uploaded file removed.")
}

func (a *App) cmdAnalyze(ctx context.Context) {
	if err := a.ctrl.Analyze(ctx); err != nil {
		a.printf("Analyze failed: %v", err)
		return
	}
	snap := a.ctrl.Snapshot()
	if snap.Analysis == nil {
		return
	}
	a.printf("Recognized %s: %s (%d item(s)). Run preview or generate.",
		content.KindLabel(snap.Analysis.Kind), snap.Analysis.DisplayTitle(), snap.Analysis.Len())
}

func (a *App) cmdPreview() {
	snap := a.ctrl.Snapshot()
	if snap.Preview == "" {
		a.printf("Nothing rendered yet. Run analyze first.")
		return
	}
	a.printf("%s", snap.Preview)
}

func (a *App) cmdLocalPDF(path string) {
	if path == "" {
		snap := a.ctrl.Snapshot()
		if snap.File == nil {
			a.printf("Usage: pdf <path to local .pdf>")
			return
		}
		path = snap.File.Name
	}
	text, err := studyfile.PreviewText(path, 1200)
	if err != nil {
		a.printf("Preview failed: %v", err)
		return
	}
	a.printf("%s", text)
}

func (a *App) cmdGenerate(ctx context.Context) {
	if err := a.ctrl.Generate(ctx); err != nil {
		a.printf("Generate failed: %v", err)
		return
	}
	snap := a.ctrl.Snapshot()
	a.printf("Generation started (job %s). Polling for completion…", snap.JobID)
	a.watch(ctx)
}

// watch polls in the background and prints the download link once the job
// completes. Only one watcher runs at a time.
func (a *App) watch(ctx context.Context) {
	a.mu.Lock()
	if a.watching {
		a.mu.Unlock()
		return
	}
	a.watching = true
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			a.watching = false
			a.mu.Unlock()
		}()
		a.ctrl.RunPolling(ctx, func(snap workflow.Session) {
			if snap.Step == workflow.StepCompleted {
				a.printf("Generation complete. Download: %s", a.ctrl.DownloadURL())
			}
		})
	}()
}

func (a *App) cmdStatus(ctx context.Context) {
	step, _ := a.ctrl.PollOnce(ctx)
	snap := a.ctrl.Snapshot()
	a.printf("Step: %s", step)
	if snap.File != nil {
		a.printf("File: %s (%s)", snap.File.Name, snap.File.Type)
	}
	if snap.Analysis != nil {
		a.printf("Analysis: %s, %d item(s)", content.KindLabel(snap.Analysis.Kind), snap.Analysis.Len())
	}
	if snap.JobID != "" {
		a.printf("Job: %s", snap.JobID)
	}
	if snap.LastError != nil {
		a.printf("Last error: %v", snap.LastError)
	}
}

func (a *App) cmdDownload(ctx context.Context, dir string) {
	if dir == "" {
		dir = a.cfg.DownloadDir
	}
	path, err := a.ctrl.DownloadResult(ctx, dir)
	if err != nil {
		a.printf("Download failed: %v", err)
		return
	}
	a.printf("Saved to %s", path)
}

func (a *App) printGuide() {
	snap := a.ctrl.Snapshot()
	name := ""
	if snap.File != nil {
		name = snap.File.Name
	}
	for _, step := range guide.Build(guide.Metadata{SourceName: name, HasUpload: snap.File != nil}) {
		a.printf("%s", step.Title)
		a.printf("  %s", step.Description)
	}
}

func (a *App) printHelp() {
	lines := []string{
		"file <path>      upload and parse a .doc/.docx/.pdf document",
		"text <material>  use pasted study material directly",
		"remove           drop the uploaded file",
		"analyze          detect questions or notes and render a preview",
		"preview          print the rendered preview",
		"pdf [path]       print a local PDF text preview",
		"generate         start server-side HTML generation",
		"status           show the current session state",
		"link             print the download link",
		"base <url>       point download links at a mirror",
		"download [dir]   save the generated HTML file",
		"guide            explain the workflow",
		"reset            abandon the session",
		"quit             exit",
	}
	for _, line := range lines {
		a.printf("  %s", line)
	}
}

func (a *App) prompt() {
	fmt.Fprint(a.out, "> ")
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	cmd := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return cmd, ""
	}
	return cmd, strings.TrimSpace(parts[1])
}
