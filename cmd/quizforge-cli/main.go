package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"quizforge/internal/cli"
	"quizforge/internal/config"
	"quizforge/internal/gateway"
	"quizforge/internal/logging"
	"quizforge/internal/workflow"
)

func main() {
	serverURL := flag.String("server", "", "override the API server URL")
	downloadDir := flag.String("downloads", "", "override the download directory")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli.New(cli.Config{
		Controller:  ctrl,
		DownloadDir: cfg.DownloadDir,
		In:          os.Stdin,
		Out:         os.Stdout,
		Log:         log,
	})
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
