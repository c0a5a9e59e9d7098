package main

import (
	"errors"
	"fmt"
	"os"

	"findash/internal/cli"
	"findash/internal/log"
)

func main() {
	// Load .env file for local development
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.GracefulShutdown(logger)

	sess, closeSession, err := cli.OpenSession(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open session store", log.FieldError, err, "path", cfg.SessionDBPath)
		stop()
		os.Exit(1)
	}

	app := &cli.App{
		Config: cfg,
		Client: cli.NewClient(cfg, sess, cli.LoginNavigator(os.Stderr), logger),
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Logger: logger,
	}
	runErr := app.Run(ctx, os.Args[1:])

	closeSession()
	stop()

	switch {
	case runErr == nil:
	case errors.Is(runErr, cli.ErrUsage):
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
}
