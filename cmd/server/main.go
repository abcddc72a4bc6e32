package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Brownie44l1/knee-api/internal/config"
	"github.com/Brownie44l1/knee-api/internal/handlers"
	"github.com/Brownie44l1/knee-api/internal/logger"
	"github.com/Brownie44l1/knee-api/internal/model"
	"github.com/Brownie44l1/knee-api/internal/server"
)

// version of the code, set at build time
var version string

func info() string {
	return fmt.Sprintf("knee-api git=%s go=%s", version, runtime.Version())
}

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "", "configuration file")
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information about the server")
	flag.Parse()
	if showVersion {
		fmt.Println(info())
		os.Exit(0)
	}

	if err := run(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	if err := logger.InitLogger(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log, err := logger.GetLogger()
	if err != nil {
		return fmt.Errorf("failed to get logger: %w", err)
	}
	log.Info(info())

	classifier, err := model.Load(cfg.Model, log)
	switch {
	case errors.Is(err, model.ErrWeightsNotFound):
		log.Error("Error: Model file not found. Make sure '", cfg.Model.Path, "' exists. Predictions are disabled.")
	case err != nil:
		return fmt.Errorf("failed to load model: %w", err)
	default:
		defer classifier.Close()
	}

	handler := handlers.NewHandler(classifier, cfg.Server.MaxUploadSize, log)
	srv, err := server.New(cfg, handler, log)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	log.Info("Endpoints:")
	log.Info("  GET  /        - Status message")
	log.Info("  GET  /health  - Health check")
	log.Info("  GET  /docs    - Usage")
	log.Info("  POST /predict - Grade an uploaded knee X-ray (field 'file')")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
