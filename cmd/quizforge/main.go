package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quizforge/internal/config"
	"quizforge/internal/gateway"
	"quizforge/internal/logging"
	"quizforge/internal/tui"
	"quizforge/internal/workflow"
)

func main() {
	serverURL := flag.String("server", "", "override the API server URL")
	downloadDir := flag.String("downloads", "", "override the download directory")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("failed to load configuration:", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *downloadDir != "" {
		cfg.DownloadDir = *downloadDir
	}

	log := logging.New(cfg.LogFile)
	defer func() { _ = log.Sync() }()

	gw := gateway.New(cfg.ServerURL,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		gateway.WithLogger(log))
	ctrl := workflow.New(gw,
		workflow.WithLogger(log),
		workflow.WithPollInterval(cfg.PollInterval))
	if cfg.DownloadBase != "" {
		ctrl.SetDownloadBase(cfg.DownloadBase)
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Controller:   ctrl,
			DownloadDir:  cfg.DownloadDir,
			PollInterval: cfg.PollInterval,
			Log:          log,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
