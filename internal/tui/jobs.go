package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type jobKind string

type jobStatus string

const (
	jobKindIngest   jobKind = "ingest"
	jobKindAnalyze  jobKind = "analyze"
	jobKindGenerate jobKind = "generate"
	jobKindPoll     jobKind = "poll"
	jobKindDownload jobKind = "download"
	jobKindPreview  jobKind = "preview"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

type jobSnapshot struct {
	ID        string
	Kind      jobKind
	Status    jobStatus
	StartedAt time.Time
	Duration  time.Duration
	Err       string
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobRunner func(context.Context) (tea.Msg, error)

// jobBus stamps every async command with an ID and logs how it went. The
// result message is delivered to Update unchanged.
type jobBus struct {
	counter int64
	log     *zap.Logger
}

func newJobBus(log *zap.Logger) *jobBus {
	return &jobBus{log: log}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	id := b.nextID(kind)
	started := time.Now()
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}}
	}

	runCmd := func() tea.Msg {
		payload, err := runner(context.Background())
		duration := time.Since(started)
		if err != nil {
			b.log.Warn("job failed",
				zap.String("job", id),
				zap.Duration("duration", duration),
				zap.Error(err))
		} else {
			b.log.Info("job done",
				zap.String("job", id),
				zap.Duration("duration", duration))
		}
		return payload
	}

	return tea.Sequence(startCmd, runCmd)
}
