// Package cli provides the findash command implementations and the
// initialization helpers they share.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"findash/internal/api"
	"findash/internal/config"
	"findash/internal/log"
	"findash/internal/session"
)

// SetupLogger initializes structured logging on stderr at level and sets it
// as the default logger.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenSession opens the token store selected by the configuration. The
// returned close function releases the store.
func OpenSession(ctx context.Context, cfg *config.Config, logger *log.Logger) (*session.Session, func(), error) {
	var (
		store   session.Store
		closeFn = func() {}
	)
	switch cfg.SessionBackend {
	case "memory":
		store = session.NewMemoryStore()
	default:
		sqliteStore, err := session.NewSQLiteStore(cfg.SessionDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store %s: %w", cfg.SessionDBPath, err)
		}
		store = sqliteStore
		closeFn = func() {
			if err := sqliteStore.Close(); err != nil {
				logger.Warn("Failed to close session store", log.FieldError, err)
			}
		}
	}

	sess, err := session.Open(ctx, store, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sess, closeFn, nil
}

// NewClient builds the API client from the configuration.
func NewClient(cfg *config.Config, sess *session.Session, nav api.Navigator, logger *log.Logger) *api.Client {
	return api.NewClient(api.Options{
		BaseURL:        cfg.APIURL,
		Timeout:        cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Navigator:      nav,
		Logger:         logger,
	}, sess)
}

// LoginNavigator is the terminal's login entry point: it tells the user to
// sign in again.
func LoginNavigator(w io.Writer) api.Navigator {
	return api.NavigatorFunc(func() {
		fmt.Fprintln(w, "Session expired or not authorized. Run `findash login` to sign in.")
	})
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM, and a
// stop function releasing the signal handler.
func GracefulShutdown(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
