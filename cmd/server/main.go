package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorilla "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/loclate/loclate/internal/server/config"
	"github.com/loclate/loclate/internal/server/handlers"
	"github.com/loclate/loclate/internal/server/jwt"
	"github.com/loclate/loclate/internal/server/middleware"
	"github.com/loclate/loclate/internal/server/storage/sqlite"
	"github.com/loclate/loclate/internal/server/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.NewConfig()
	cfg.LoadFromEnv()

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cfg.RegisterFlags(fs)
	showVersion := fs.Bool("version", false, "show version information")
	genToken := fs.String("gen-token", "", "print an access token for the given actor and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if *showVersion {
		printVersion()
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	tokens := jwt.NewService(cfg.JWTSecret, jwt.DefaultTTL)

	// Выпуск токена для оператора, без запуска сервера
	if *genToken != "" {
		token, err := tokens.Generate(*genToken)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, logger, tokens); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, tokens *jwt.Service) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	service := sync.NewService(store, logger, cfg.DefaultLanguage)
	syncHandler := handlers.NewSyncHandler(logger, service)
	healthHandler := handlers.NewHealthHandler(logger, store.DB().Ping, Version)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthHandler.Health).Methods(http.MethodGet)

	projects := router.PathPrefix("/api/v1/projects/{project}").Subrouter()
	projects.Use(middleware.Auth(logger, tokens))
	projects.HandleFunc("/push", syncHandler.Push).Methods(http.MethodPost)
	projects.HandleFunc("/pull", syncHandler.Pull).Methods(http.MethodGet)
	projects.HandleFunc("/resolve", syncHandler.Resolve).Methods(http.MethodPost)
	projects.HandleFunc("/history", syncHandler.ListHistory).Methods(http.MethodGet)
	projects.HandleFunc("/history/{id}", syncHandler.GetHistory).Methods(http.MethodGet)
	projects.HandleFunc("/history/{id}/revert", syncHandler.Revert).Methods(http.MethodPost)

	var handler http.Handler = router
	handler = gorilla.CompressHandler(handler)
	handler = middleware.LoggingWithSkip(logger, []string{"/healthz"})(handler)
	handler = middleware.Recovery(logger)(handler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", cfg.Addr,
			"db", cfg.DBPath,
			"version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func printVersion() {
	fmt.Printf("loclate server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
