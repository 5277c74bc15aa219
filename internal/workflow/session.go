package workflow

import (
	"quizforge/internal/content"
)

// Step is the position of a session in the upload→generate pipeline. Steps
// only move forward through the controller's operations; Reset returns to
// StepInput.
type Step int

const (
	StepInput Step = iota
	StepUploaded
	StepParsed
	StepAnalyzed
	StepRendered
	StepGenerating
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepInput:
		return "input"
	case StepUploaded:
		return "uploaded"
	case StepParsed:
		return "parsed"
	case StepAnalyzed:
		return "analyzed"
	case StepRendered:
		return "rendered"
	case StepGenerating:
		return "generating"
	case StepCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// FileRef describes the uploaded source document.
type FileRef struct {
	Name       string
	Type       string
	ServerPath string
}

// Session is an immutable snapshot of one run through the pipeline.
// Controller hands copies out; mutating a snapshot has no effect.
type Session struct {
	ID           string
	Step         Step
	File         *FileRef
	SourceText   string
	Analysis     *content.Analysis
	Preview      string
	JobID        string
	DownloadBase string
	DownloadPath string
	LastError    error
}

// Active reports whether a generation job is in flight or finished, i.e.
// whether there is anything to poll or download.
func (s Session) Active() bool {
	return s.JobID != ""
}

func (s Session) clone() Session {
	out := s
	if s.File != nil {
		f := *s.File
		out.File = &f
	}
	return out
}
