package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"quizforge/internal/guide"
	"quizforge/internal/studyfile"
	"quizforge/internal/workflow"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Controller   *workflow.Controller
	DownloadDir  string
	PollInterval time.Duration
	Log          *zap.Logger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.Log == nil {
		config.Log = zap.NewNop()
	}

	sourceInput := textinput.New()
	sourceInput.Placeholder = "Paste study material, or the path to a .docx/.pdf file…"
	sourceInput.Focus()
	sourceInput.CharLimit = 0
	sourceInput.Width = 70

	baseInput := textinput.New()
	baseInput.Placeholder = "https://mirror.example.com/files"
	baseInput.CharLimit = 200
	baseInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:      config,
		ctrl:        config.Controller,
		stage:       stageInput,
		sourceInput: sourceInput,
		baseInput:   baseInput,
		spinner:     spin,
		viewport:    vp,
		jobs:        newJobBus(config.Log),
		infoMessage: "Paste study material or a document path to begin.",
	}
}

type stage int

const (
	stageInput stage = iota
	stageBusy
	stageReview
	stageGenerating
	stageCompleted
	stageDownloadBase
)

const heroTagline = "Turn study material into quizzes and notes."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
)

type model struct {
	config Config
	ctrl   *workflow.Controller
	stage  stage

	sourceInput textinput.Model
	baseInput   textinput.Model
	spinner     spinner.Model
	viewport    viewport.Model
	jobs        *jobBus

	snap          workflow.Session
	busyLabel     string
	localPreview  string
	localPath     string
	infoMessage   string
	errorMessage  string
	helpVisible   bool
	viewportDirty bool
}

type sourceReadyMsg struct {
	sessionID string
	err       error
}

type analysisReadyMsg struct {
	sessionID string
	err       error
}

type generateStartedMsg struct {
	sessionID string
	err       error
}

type pollTickMsg struct {
	sessionID string
}

type pollResultMsg struct {
	sessionID string
	step      workflow.Step
}

type downloadResultMsg struct {
	sessionID string
	path      string
	err       error
}

type localPreviewMsg struct {
	sessionID string
	text      string
	err       error
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == stageBusy || m.stage == stageGenerating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			switch m.stage {
			case stageDownloadBase:
				m.stage = m.stageForSnapshot()
				m.baseInput.Blur()
				return m, nil
			case stageReview, stageCompleted:
				if m.helpVisible {
					m.helpVisible = false
					m.markViewportDirty()
					return m, nil
				}
				return m, tea.Quit
			default:
				return m, tea.Quit
			}
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.stage == stageReview || m.stage == stageCompleted {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		newWidth := msg.Width - viewportHorizontalPadding
		if newWidth < minViewportWidth {
			newWidth = minViewportWidth
		}
		m.viewport.Width = newWidth
		height := msg.Height - 8
		if height < 5 {
			height = 5
		}
		m.viewport.Height = height
		m.markViewportDirty()
		return m, nil
	case jobSignalMsg:
		return m, nil
	case sourceReadyMsg:
		if m.stale(msg.sessionID) {
			return m, nil
		}
		if msg.err != nil {
			m.stage = stageInput
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Fix the input and try again."
			m.sourceInput.Focus()
			return m, nil
		}
		m.refresh()
		m.stage = stageReview
		m.errorMessage = ""
		m.infoMessage = "Material ready. Press a to analyze it."
		m.markViewportDirty()
		return m, nil
	case analysisReadyMsg:
		if m.stale(msg.sessionID) {
			return m, nil
		}
		m.refresh()
		if msg.err != nil {
			m.stage = m.stageForSnapshot()
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Analysis failed. Press a to retry."
			m.markViewportDirty()
			return m, nil
		}
		m.stage = stageReview
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Recognized %s with %d item(s). Press g to generate the HTML file.",
			kindLabelFor(m.snap), m.itemCount())
		m.markViewportDirty()
		return m, nil
	case generateStartedMsg:
		if m.stale(msg.sessionID) {
			return m, nil
		}
		m.refresh()
		if msg.err != nil {
			m.stage = stageReview
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Generation did not start. Press g to retry."
			return m, nil
		}
		m.stage = stageGenerating
		m.errorMessage = ""
		m.infoMessage = "Generating on the server…"
		return m, tea.Batch(m.spinner.Tick, m.schedulePoll())
	case pollTickMsg:
		if m.stale(msg.sessionID) || m.stage != stageGenerating {
			return m, nil
		}
		return m, m.jobs.Start(jobKindPoll, pollCmd(m.ctrl, msg.sessionID))
	case pollResultMsg:
		if m.stale(msg.sessionID) {
			return m, nil
		}
		m.refresh()
		if msg.step == workflow.StepCompleted {
			m.stage = stageCompleted
			m.infoMessage = fmt.Sprintf("File ready: %s  (press d to download, y to show the link)", m.ctrl.DownloadURL())
			m.markViewportDirty()
			return m, nil
		}
		return m, m.schedulePoll()
	case downloadResultMsg:
		if m.stale(msg.sessionID) {
			return m, nil
		}
		m.refresh()
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Download failed. Press d to retry or b to use a mirror."
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Saved to %s", msg.path)
		return m, nil
	case localPreviewMsg:
		if m.stale(msg.sessionID) {
			return m, nil
		}
		if msg.err != nil {
			m.infoMessage = msg.err.Error()
			return m, nil
		}
		m.localPreview = msg.text
		m.infoMessage = "Local PDF preview loaded."
		m.markViewportDirty()
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageInput:
		var cmd tea.Cmd
		m.sourceInput, cmd = m.sourceInput.Update(key)
		if key.Type == tea.KeyEnter {
			value := strings.TrimSpace(m.sourceInput.Value())
			if value == "" {
				m.errorMessage = "Enter study material or a document path."
				return m, cmd
			}
			m.errorMessage = ""
			if isLocalDocument(value) {
				m.localPath = value
				m.stage = stageBusy
				m.busyLabel = "Uploading and parsing document…"
				return m, tea.Batch(cmd, m.spinner.Tick,
					m.jobs.Start(jobKindIngest, ingestFileCmd(m.ctrl, m.sessionID(), value)))
			}
			m.localPath = ""
			m.ctrl.SetSourceText(value)
			m.refresh()
			m.stage = stageReview
			m.infoMessage = "Material ready. Press a to analyze it."
			m.markViewportDirty()
			return m, cmd
		}
		return m, cmd
	case stageBusy, stageGenerating:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(key)
		if key.String() == "r" {
			return m.resetSession()
		}
		return m, cmd
	case stageReview, stageCompleted:
		return m.handleDisplayKey(key)
	case stageDownloadBase:
		var cmd tea.Cmd
		m.baseInput, cmd = m.baseInput.Update(key)
		if key.Type == tea.KeyEnter {
			base := strings.TrimSpace(m.baseInput.Value())
			m.ctrl.SetDownloadBase(base)
			m.refresh()
			m.baseInput.Blur()
			m.stage = m.stageForSnapshot()
			if base == "" {
				m.infoMessage = "Download base cleared; using the API host."
			} else {
				m.infoMessage = fmt.Sprintf("Downloads now use %s", base)
			}
			m.markViewportDirty()
			return m, cmd
		}
		return m, cmd
	default:
		return m, nil
	}
}

func (m *model) handleDisplayKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "a":
		if m.snap.SourceText == "" {
			m.infoMessage = "Nothing to analyze yet."
			return m, nil
		}
		m.stage = stageBusy
		m.busyLabel = "Analyzing material…"
		return m, tea.Batch(m.spinner.Tick,
			m.jobs.Start(jobKindAnalyze, analyzeCmd(m.ctrl, m.sessionID())))
	case "g":
		if m.snap.Step < workflow.StepRendered {
			m.infoMessage = "Analyze the material before generating."
			return m, nil
		}
		m.stage = stageBusy
		m.busyLabel = "Starting generation…"
		return m, tea.Batch(m.spinner.Tick,
			m.jobs.Start(jobKindGenerate, generateCmd(m.ctrl, m.sessionID())))
	case "d":
		if m.stage != stageCompleted {
			m.infoMessage = "Generate a file before downloading."
			return m, nil
		}
		m.infoMessage = "Downloading…"
		return m, m.jobs.Start(jobKindDownload, downloadCmd(m.ctrl, m.sessionID(), m.config.DownloadDir))
	case "y":
		if url := m.ctrl.DownloadURL(); url != "" {
			m.infoMessage = url
		} else {
			m.infoMessage = "No file generated yet."
		}
		return m, nil
	case "b":
		m.stage = stageDownloadBase
		m.baseInput.SetValue(m.snap.DownloadBase)
		m.baseInput.Focus()
		return m, nil
	case "p":
		if m.localPath == "" || studyfile.MIMEForName(m.localPath) != "application/pdf" {
			m.infoMessage = "Local preview works for uploaded PDF files only."
			return m, nil
		}
		m.infoMessage = "Extracting local PDF preview…"
		return m, m.jobs.Start(jobKindPreview, localPreviewCmd(m.sessionID(), m.localPath))
	case "u":
		if m.snap.File == nil {
			m.infoMessage = "No uploaded file to remove."
			return m, nil
		}
		m.ctrl.RemoveUpload()
		m.refresh()
		m.localPath = ""
		m.localPreview = ""
		m.stage = m.stageForSnapshot()
		m.infoMessage = "Uploaded file removed."
		m.markViewportDirty()
		if m.stage == stageInput {
			m.sourceInput.Focus()
		}
		return m, nil
	case "r":
		return m.resetSession()
	case "?":
		m.helpVisible = !m.helpVisible
		m.markViewportDirty()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) resetSession() (tea.Model, tea.Cmd) {
	m.ctrl.Reset()
	m.refresh()
	m.stage = stageInput
	m.localPath = ""
	m.localPreview = ""
	m.errorMessage = ""
	m.infoMessage = "Ready for new material."
	m.sourceInput.SetValue("")
	m.sourceInput.Focus()
	m.viewport.SetContent("")
	m.markViewportDirty()
	return m, nil
}

// stale reports whether a message belongs to a session that was reset
// while its work was in flight.
func (m *model) stale(sessionID string) bool {
	return sessionID != m.sessionID()
}

func (m *model) sessionID() string {
	return m.ctrl.Snapshot().ID
}

func (m *model) refresh() {
	m.snap = m.ctrl.Snapshot()
}

func (m *model) stageForSnapshot() stage {
	switch {
	case m.snap.Step == workflow.StepCompleted:
		return stageCompleted
	case m.snap.Step == workflow.StepGenerating:
		return stageGenerating
	case m.snap.Step >= workflow.StepUploaded:
		return stageReview
	default:
		return stageInput
	}
}

func (m *model) schedulePoll() tea.Cmd {
	id := m.sessionID()
	return tea.Tick(m.config.PollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{sessionID: id}
	})
}

func (m *model) itemCount() int {
	if m.snap.Analysis == nil {
		return 0
	}
	return m.snap.Analysis.Len()
}

func (m *model) guideSteps() []guide.Step {
	name := ""
	if m.snap.File != nil {
		name = m.snap.File.Name
	}
	return guide.Build(guide.Metadata{SourceName: name, HasUpload: m.snap.File != nil})
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

// isLocalDocument decides whether the composer value names an uploadable
// file on disk rather than pasted material.
func isLocalDocument(value string) bool {
	if strings.ContainsAny(value, "\n") {
		return false
	}
	if studyfile.MIMEForName(value) == "" {
		return false
	}
	info, err := os.Stat(value)
	return err == nil && !info.IsDir()
}
