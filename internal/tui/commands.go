package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"quizforge/internal/studyfile"
	"quizforge/internal/workflow"
)

const (
	networkTimeout = 60 * time.Second
	pollTimeout    = 10 * time.Second
)

// ingestFileCmd uploads the document and immediately parses it so the
// review screen can show the extracted text.
func ingestFileCmd(ctrl *workflow.Controller, sessionID, path string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(ctx, networkTimeout)
		defer cancel()
		if err := ctrl.UploadFile(ctx, path); err != nil {
			return sourceReadyMsg{sessionID: sessionID, err: err}, err
		}
		if err := ctrl.ParseUpload(ctx); err != nil {
			return sourceReadyMsg{sessionID: sessionID, err: err}, err
		}
		return sourceReadyMsg{sessionID: sessionID}, nil
	}
}

func analyzeCmd(ctrl *workflow.Controller, sessionID string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(ctx, networkTimeout)
		defer cancel()
		err := ctrl.Analyze(ctx)
		return analysisReadyMsg{sessionID: sessionID, err: err}, err
	}
}

func generateCmd(ctrl *workflow.Controller, sessionID string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(ctx, networkTimeout)
		defer cancel()
		err := ctrl.Generate(ctx)
		return generateStartedMsg{sessionID: sessionID, err: err}, err
	}
}

func pollCmd(ctrl *workflow.Controller, sessionID string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(ctx, pollTimeout)
		defer cancel()
		step, err := ctrl.PollOnce(ctx)
		return pollResultMsg{sessionID: sessionID, step: step}, err
	}
}

func downloadCmd(ctrl *workflow.Controller, sessionID, destDir string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(ctx, networkTimeout)
		defer cancel()
		path, err := ctrl.DownloadResult(ctx, destDir)
		return downloadResultMsg{sessionID: sessionID, path: path, err: err}, err
	}
}

func localPreviewCmd(sessionID, path string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		text, err := studyfile.PreviewText(path, 1200)
		return localPreviewMsg{sessionID: sessionID, text: text, err: err}, err
	}
}
