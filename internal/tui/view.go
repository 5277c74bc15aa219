package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"quizforge/internal/content"
	"quizforge/internal/workflow"
)

func (m *model) View() string {
	switch m.stage {
	case stageInput:
		return m.viewInput()
	case stageBusy:
		return m.viewBusy()
	case stageReview, stageCompleted, stageGenerating:
		return m.viewDisplay()
	case stageDownloadBase:
		return m.viewDownloadBase()
	default:
		return ""
	}
}

func (m *model) viewInput() string {
	form := strings.Builder{}
	form.WriteString(sectionHeaderStyle.Render("Paste study material or a document path"))
	form.WriteRune('\n')
	form.WriteString(m.sourceInput.View())
	form.WriteRune('\n')
	form.WriteString(helperStyle.Render("A .doc/.docx/.pdf path is uploaded and parsed; anything else is treated as pasted text."))
	form.WriteRune('\n')
	form.WriteString(helperStyle.Render(m.infoMessage))
	if m.errorMessage != "" {
		form.WriteRune('\n')
		form.WriteString(errorStyle.Render(m.errorMessage))
	}
	return joinNonEmpty([]string{m.heroView(), form.String()})
}

func (m *model) viewBusy() string {
	body := fmt.Sprintf("%s %s", m.spinner.View(), m.busyLabel)
	return joinNonEmpty([]string{m.heroView(), body, helperStyle.Render("Press r to abandon and start over.")})
}

func (m *model) viewDisplay() string {
	m.refreshViewportIfDirty()
	parts := []string{m.heroView(), m.sessionMeterView(), m.viewport.View()}
	if m.stage == stageGenerating {
		parts = append(parts, fmt.Sprintf("%s Waiting for the server to finish…", m.spinner.View()))
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	parts = append(parts, m.keyLegendView())
	if m.helpVisible {
		parts = append(parts, m.helpView())
	}
	return joinNonEmpty(parts)
}

func (m *model) viewDownloadBase() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Download Base URL"))
	b.WriteRune('\n')
	b.WriteString(m.baseInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Replaces the API host in download links. Leave empty to use the server. Enter to apply, Esc to cancel."))
	return joinNonEmpty([]string{m.heroView(), b.String()})
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) sessionMeterView() string {
	stats := []string{
		fmt.Sprintf("Step %s", m.snap.Step),
	}
	if m.snap.File != nil {
		stats = append(stats, fmt.Sprintf("File %s (%s)", m.snap.File.Name, m.snap.File.Type))
	}
	if m.snap.Analysis != nil {
		stats = append(stats,
			fmt.Sprintf("Kind %s", kindLabelFor(m.snap)),
			fmt.Sprintf("Items %d", m.snap.Analysis.Len()))
	}
	if m.snap.JobID != "" {
		stats = append(stats, fmt.Sprintf("Job %s", m.snap.JobID))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"a", "Analyze material"},
		{"g", "Generate HTML"},
		{"d", "Download result"},
		{"y", "Show download link"},
		{"b", "Set download base"},
		{"p", "Local PDF preview"},
		{"u", "Remove upload"},
		{"r", "New session"},
		{"?", "Toggle help"},
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description)
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	lines := []string{sectionHeaderStyle.Render("Workflow Guide")}
	for i, step := range m.guideSteps() {
		lines = append(lines,
			fmt.Sprintf("%d. %s", i+1, step.Title),
			helperStyle.Render(indentMultiline(wordwrap.String(step.Description, m.wrapWidth(4)), "   ")))
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewportDirty = false
	m.viewport.SetContent(m.buildDisplayContent())
}

func (m *model) buildDisplayContent() string {
	var b strings.Builder
	baseWrap := m.wrapWidth(0)
	indentWrap := m.wrapWidth(4)

	if m.snap.SourceText != "" {
		b.WriteString(sectionHeaderStyle.Render("Source Material"))
		b.WriteRune('\n')
		b.WriteString(wordwrap.String(clipText(m.snap.SourceText, 800), baseWrap))
		b.WriteString("\n\n")
	}

	if m.localPreview != "" {
		b.WriteString(sectionHeaderStyle.Render("Local PDF Preview"))
		b.WriteRune('\n')
		b.WriteString(wordwrap.String(m.localPreview, baseWrap))
		b.WriteString("\n\n")
	}

	if a := m.snap.Analysis; a != nil {
		b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Analysis — %s · %s", a.DisplayTitle(), kindLabelFor(m.snap))))
		b.WriteRune('\n')
		if a.Kind == content.KindQuestion {
			for i, q := range a.Questions {
				b.WriteString(fmt.Sprintf(" %d. [%s] %s\n", i+1, content.QuestionTypeLabel(q.QuestionType), wordwrap.String(q.Prompt, indentWrap)))
			}
		} else {
			for i, n := range a.Notes {
				b.WriteString(fmt.Sprintf(" %d. %s\n", i+1, wordwrap.String(n.Title, indentWrap)))
			}
		}
		b.WriteRune('\n')
	}

	if m.snap.Preview != "" {
		b.WriteString(sectionHeaderStyle.Render("Rendered Preview"))
		b.WriteRune('\n')
		b.WriteString(wordwrap.String(m.snap.Preview, baseWrap))
		b.WriteRune('\n')
	}

	if m.snap.Step == workflow.StepCompleted {
		b.WriteRune('\n')
		b.WriteString(sectionHeaderStyle.Render("Result"))
		b.WriteRune('\n')
		b.WriteString(fmt.Sprintf(" Link: %s\n", m.ctrl.DownloadURL()))
		if m.snap.DownloadPath != "" {
			b.WriteString(fmt.Sprintf(" Saved: %s\n", m.snap.DownloadPath))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func kindLabelFor(snap workflow.Session) string {
	if snap.Analysis == nil {
		return ""
	}
	return content.KindLabel(snap.Analysis.Kind)
}

func clipText(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	lines := make([]string, len(logoArtLines))
	for i, line := range logoArtLines {
		lines[i] = logoFaceStyle.Render(line)
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	heroAccentColor = lipgloss.Color("#ff8c00")
	heroTextColor   = lipgloss.Color("#fff4d0")

	taglineStyle       = lipgloss.NewStyle().Foreground(heroAccentColor).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	helpBoxStyle       = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor)
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		"██████╗  ██╗   ██╗ ██╗ ███████╗ ███████╗  ██████╗  ██████╗   ██████╗  ███████╗",
		"██╔═══██╗██║   ██║ ██║ ╚══███╔╝ ██╔════╝ ██╔═══██╗ ██╔══██╗ ██╔════╝  ██╔════╝",
		"██║   ██║██║   ██║ ██║   ███╔╝  █████╗   ██║   ██║ ██████╔╝ ██║  ███╗ █████╗  ",
		"██║▄▄ ██║██║   ██║ ██║  ███╔╝   ██╔══╝   ██║   ██║ ██╔══██╗ ██║   ██║ ██╔══╝  ",
		"╚██████╔╝╚██████╔╝ ██║ ███████╗ ██║      ╚██████╔╝ ██║  ██║ ╚██████╔╝ ███████╗",
		" ╚══▀▀═╝  ╚═════╝  ╚═╝ ╚══════╝ ╚═╝       ╚═════╝  ╚═╝  ╚═╝  ╚═════╝  ╚══════╝",
	}
)
