// Package workflow owns the upload→parse→analyze→render→generate→download
// pipeline. The terminal frontends are thin views over a Controller; all
// ordering rules and staleness handling live here.
package workflow

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizforge/internal/content"
	"quizforge/internal/gateway"
	"quizforge/internal/render"
	"quizforge/internal/studyfile"
)

// Gateway is the server surface the controller drives. *gateway.Client
// satisfies it; tests substitute fakes.
type Gateway interface {
	Upload(ctx context.Context, filename string, file io.Reader, declaredType string) (string, error)
	Parse(ctx context.Context, fileType, filePath string) (string, error)
	Analyze(ctx context.Context, text string) (*content.Analysis, error)
	FetchTemplate(ctx context.Context, name string) (string, error)
	Generate(ctx context.Context, analysis *content.Analysis) (string, error)
	PollStatus(ctx context.Context, jobID string) (gateway.JobStatus, error)
	DownloadURL(fileID, basePath string) string
	Download(ctx context.Context, fileID, basePath, destDir string) (string, error)
}

const defaultPollInterval = 2 * time.Second

var templateNames = map[content.Kind]string{
	content.KindQuestion: "questions",
	content.KindNote:     "notes",
}

// Controller runs one session at a time. All methods are safe for
// concurrent use; long network calls run outside the lock and their
// results are discarded if Reset intervened.
type Controller struct {
	gw           Gateway
	log          *zap.Logger
	pollInterval time.Duration

	mu         sync.Mutex
	session    Session
	epoch      uint64
	pollCancel context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithPollInterval overrides the delay between status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.pollInterval = d }
}

func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gw:           gw,
		log:          zap.NewNop(),
		pollInterval: defaultPollInterval,
		session:      newSession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newSession() Session {
	return Session{ID: uuid.NewString(), Step: StepInput}
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// begin captures the current epoch so a later commit can tell whether the
// session was reset while a network call was in flight.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// commit applies fn to the session unless the epoch moved on, in which
// case the result belongs to an abandoned session and is dropped.
func (c *Controller) commit(epoch uint64, fn func(*Session)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.log.Debug("dropping stale result", zap.String("session", c.session.ID))
		return false
	}
	fn(&c.session)
	return true
}

// UploadFile validates the local document and uploads it, moving the
// session to StepUploaded. Validation failures never reach the network.
func (c *Controller) UploadFile(ctx context.Context, path string) error {
	epoch := c.begin()
	name := filepath.Base(path)
	fileType, err := studyfile.Inspect(name, studyfile.MIMEForName(name))
	if err != nil {
		c.recordError(epoch, err)
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		err = gateway.WrapError(gateway.CodeUploadRejected, "cannot open file", err)
		c.recordError(epoch, err)
		return err
	}
	defer file.Close()

	serverPath, err := c.gw.Upload(ctx, name, file, string(fileType))
	if err != nil {
		c.recordError(epoch, err)
		return err
	}
	c.commit(epoch, func(s *Session) {
		s.File = &FileRef{Name: name, Type: string(fileType), ServerPath: serverPath}
		s.Step = StepUploaded
		s.LastError = nil
	})
	c.log.Info("file uploaded", zap.String("name", name), zap.String("type", string(fileType)))
	return nil
}

// RemoveUpload discards the uploaded file reference and returns the
// session to text input. Analysis results are kept only if parsing
// already produced source text.
func (c *Controller) RemoveUpload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.File = nil
	if c.session.SourceText == "" {
		c.session.Step = StepInput
	}
}

// ParseUpload asks the server to extract text from the uploaded document.
func (c *Controller) ParseUpload(ctx context.Context) error {
	c.mu.Lock()
	file := c.session.File
	epoch := c.epoch
	c.mu.Unlock()
	if file == nil {
		err := gateway.NewError(gateway.CodeParseFailed, "no uploaded file to parse")
		c.recordError(epoch, err)
		return err
	}

	text, err := c.gw.Parse(ctx, file.Type, file.ServerPath)
	if err != nil {
		c.recordError(epoch, err)
		return err
	}
	c.commit(epoch, func(s *Session) {
		s.SourceText = text
		s.Step = StepParsed
		s.LastError = nil
	})
	return nil
}

// SetSourceText supplies study material directly, skipping upload and
// parse.
func (c *Controller) SetSourceText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.SourceText = text
	if c.session.Step < StepParsed {
		c.session.Step = StepParsed
	}
}

// SetDownloadBase overrides the server's download URL prefix, e.g. to
// point at a mirror.
func (c *Controller) SetDownloadBase(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.DownloadBase = base
}

// Analyze submits the source text and, on success, immediately fetches the
// matching template and renders a preview. A template or render failure
// leaves the session at StepAnalyzed with the analysis intact.
func (c *Controller) Analyze(ctx context.Context) error {
	c.mu.Lock()
	text := c.session.SourceText
	epoch := c.epoch
	c.mu.Unlock()

	analysis, err := c.gw.Analyze(ctx, text)
	if err != nil {
		c.recordError(epoch, err)
		return err
	}
	if !c.commit(epoch, func(s *Session) {
		s.Analysis = analysis
		s.Step = StepAnalyzed
		s.LastError = nil
	}) {
		return nil
	}
	c.log.Info("analysis complete",
		zap.String("kind", string(analysis.Kind)),
		zap.Int("items", analysis.Len()))

	template, err := c.gw.FetchTemplate(ctx, templateNames[analysis.Kind])
	if err != nil {
		c.recordError(epoch, err)
		return err
	}
	preview := render.Render(template, analysis)
	c.commit(epoch, func(s *Session) {
		s.Preview = preview
		s.Step = StepRendered
		s.LastError = nil
	})
	return nil
}

// Generate submits the rendered analysis for server-side HTML generation
// and moves the session to StepGenerating.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	analysis := c.session.Analysis
	step := c.session.Step
	epoch := c.epoch
	c.mu.Unlock()
	if analysis == nil || step < StepRendered {
		err := gateway.NewError(gateway.CodeGenerateFailed, "nothing to generate: analyze the material first")
		c.recordError(epoch, err)
		return err
	}

	jobID, err := c.gw.Generate(ctx, analysis)
	if err != nil {
		c.recordError(epoch, err)
		return err
	}
	c.commit(epoch, func(s *Session) {
		s.JobID = jobID
		s.Step = StepGenerating
		s.LastError = nil
	})
	return nil
}

// PollOnce checks the generation job status a single time. Transient poll
// failures are logged and leave the session untouched, matching the keep
// going semantics of the status endpoint. The returned step reflects the
// session after the poll.
func (c *Controller) PollOnce(ctx context.Context) (Step, error) {
	c.mu.Lock()
	jobID := c.session.JobID
	step := c.session.Step
	epoch := c.epoch
	c.mu.Unlock()
	if jobID == "" || step != StepGenerating {
		return step, nil
	}

	status, err := c.gw.PollStatus(ctx, jobID)
	if err != nil {
		c.log.Warn("status poll failed", zap.String("job", jobID), zap.Error(err))
		return step, nil
	}
	if status == gateway.JobCompleted {
		c.commit(epoch, func(s *Session) {
			if s.Step == StepGenerating {
				s.Step = StepCompleted
			}
		})
	}
	return c.Snapshot().Step, nil
}

// RunPolling polls the job status every poll interval until the job
// completes, the context is cancelled, or Reset is called. onUpdate is
// invoked with a session snapshot after every poll.
func (c *Controller) RunPolling(ctx context.Context, onUpdate func(Session)) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.pollCancel != nil {
		c.pollCancel()
	}
	c.pollCancel = cancel
	c.mu.Unlock()
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			step, _ := c.PollOnce(ctx)
			if onUpdate != nil {
				onUpdate(c.Snapshot())
			}
			if step != StepGenerating {
				return
			}
		}
	}
}

// DownloadURL returns the link to the generated file, or "" when no job
// has been started.
func (c *Controller) DownloadURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.JobID == "" {
		return ""
	}
	return c.gw.DownloadURL(c.session.JobID, c.session.DownloadBase)
}

// DownloadResult fetches the generated HTML into destDir and records the
// local path on the session.
func (c *Controller) DownloadResult(ctx context.Context, destDir string) (string, error) {
	c.mu.Lock()
	jobID := c.session.JobID
	base := c.session.DownloadBase
	epoch := c.epoch
	c.mu.Unlock()
	if jobID == "" {
		err := gateway.NewError(gateway.CodeNoActiveJob, "no generated file to download")
		c.recordError(epoch, err)
		return "", err
	}

	path, err := c.gw.Download(ctx, jobID, base, destDir)
	if err != nil {
		c.recordError(epoch, err)
		return "", err
	}
	c.commit(epoch, func(s *Session) {
		s.DownloadPath = path
		s.LastError = nil
	})
	return path, nil
}

// Reset abandons the current session, cancels any polling loop, and starts
// a fresh one. In-flight network results from the old session are
// discarded when they land. Reset is idempotent.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	old := c.session.ID
	c.session = newSession()
	c.log.Info("session reset", zap.String("old", old), zap.String("new", c.session.ID))
}

// recordError stores err on the session unless the epoch moved on, in
// which case the failure belongs to an abandoned session and is dropped.
func (c *Controller) recordError(epoch uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.log.Debug("dropping stale error", zap.String("session", c.session.ID), zap.Error(err))
		return
	}
	c.session.LastError = err
	c.log.Warn("operation failed",
		zap.String("session", c.session.ID),
		zap.String("code", string(gateway.CodeOf(err))),
		zap.Error(err))
}
