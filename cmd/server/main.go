package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gokigennote/gokigen/internal/server/config"
	"github.com/gokigennote/gokigen/internal/server/di"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app, cleanup, err := di.InitApp(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer cleanup()

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
		cleanup()
		os.Exit(1)
	}
}
