package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophtasks/internal/buildinfo"
	"github.com/dmitrijs2005/gophtasks/internal/client/cli"
	"github.com/dmitrijs2005/gophtasks/internal/client/client"
	"github.com/dmitrijs2005/gophtasks/internal/client/config"
	"github.com/dmitrijs2005/gophtasks/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophtasks/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger := logging.NewText(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	ctx := context.Background()

	db, err := client.InitDatabase(ctx, cfg.SessionDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	backend, err := client.NewGRPCClient(cfg.ServerEndpointAddr, metadata.NewSQLiteRepository(db), cfg.RequestTimeout, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	app := cli.NewApp(cfg, backend, logger, os.Stdin, os.Stdout)
	return app.Run(ctx)
}
