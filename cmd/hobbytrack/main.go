package main

import (
	"context"
	"log/slog"
	"os"

	"hobbytrack/internal/cli"
)

func main() {
	// Keep stdout clean for command output; logs go to stderr and only
	// when something is wrong.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitStore(logger, cfg.SQLiteDBPath)

	code := cli.Run(context.Background(), repo, os.Args[1:], os.Stdout, os.Stderr)
	repo.Close()
	os.Exit(code)
}
