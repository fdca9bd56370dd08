package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcode-github/imovel_listing_system/client/cli"
	"github.com/dcode-github/imovel_listing_system/client/notify"
	"github.com/dcode-github/imovel_listing_system/client/remote"
	"github.com/dcode-github/imovel_listing_system/client/repository"
	"github.com/dcode-github/imovel_listing_system/client/view"
	"github.com/dcode-github/imovel_listing_system/config"
	"github.com/dcode-github/imovel_listing_system/logging"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	// stderr keeps log lines out of the REPL output
	log := logging.New(logging.Options{Writer: os.Stderr, Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := remote.NewClient(cfg.APIURL, remote.WithTimeout(cfg.Timeout), remote.WithLogger(log))
	repo := repository.New(client, log)
	notes := notify.NewQueue()
	defer notes.Clear()
	machine := view.NewMachine(repo, notes, log)

	app := cli.New(os.Stdin, os.Stdout, machine, notes, log)
	if err := app.Run(ctx); err != nil {
		log.Error("CLI stopped with error", "error", err)
		os.Exit(1)
	}
}
