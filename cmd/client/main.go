package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gokigennote/gokigen/internal/client/cli"
	"github.com/gokigennote/gokigen/internal/client/config"
	"github.com/gokigennote/gokigen/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
