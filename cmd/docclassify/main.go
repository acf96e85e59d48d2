package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/document-classifier/internal/adapters/cli"
	"github.com/kirillkom/document-classifier/internal/bootstrap"
	"github.com/kirillkom/document-classifier/internal/config"
	"github.com/kirillkom/document-classifier/internal/observability/logging"
)

const serviceName = "docclassify"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(loadServices)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// loadServices wires the pipeline without Postgres or NATS; the CLI works on
// local files only.
func loadServices(ctx context.Context) (*cli.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	cfg.PostgresDSN = ""
	cfg.NATSURL = ""

	// stdout carries results and MCP JSON-RPC, so logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)
	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{
		Service:     serviceName,
		SkipStaging: true,
	})
	if err != nil {
		return nil, nil, err
	}
	return &cli.Services{
		Classifiers:     app.Classifiers,
		DefaultStrategy: cfg.ClassifierStrategy(),
		Resolver:        app.Extractor,
		Report:          app.Report,
		Logger:          logger,
	}, app.Close, nil
}
