package commands

import (
	"fmt"
	"os"

	"github.com/Brownie44l1/knee-api/internal/config"
	"github.com/Brownie44l1/knee-api/internal/logger"

	"github.com/spf13/cobra"
)

// setupLogger builds a console logger from the --log-level flag. Each command
// gets its own instance so the level is validated on every run.
func setupLogger(cmd *cobra.Command) (logger.Logger, error) {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("invalid log-level flag: %w", err)
	}
	log, err := logger.New(&config.LoggerSettings{
		LogLevel: level,
		LogType:  config.LogTypeConsole,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// addModelFlags registers the flags every command uses to locate the model.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", config.DefaultModelPath, "ONNX weight file")
	cmd.Flags().String("metadata", config.DefaultMetadataPath, "model provenance record")
	cmd.Flags().String("runtime-lib", os.Getenv("ONNXRUNTIME_LIB"), "onnxruntime shared library")
	cmd.Flags().String("log-level", config.LogLevelWarning, "log level (debug, info, warning, error)")
}

// modelSettings reads the model flags on top of the defaults.
func modelSettings(cmd *cobra.Command) (config.ModelSettings, error) {
	s := config.Default().Model
	var err error
	if s.Path, err = cmd.Flags().GetString("model"); err != nil {
		return s, fmt.Errorf("invalid model flag: %w", err)
	}
	if s.MetadataPath, err = cmd.Flags().GetString("metadata"); err != nil {
		return s, fmt.Errorf("invalid metadata flag: %w", err)
	}
	if s.RuntimeLib, err = cmd.Flags().GetString("runtime-lib"); err != nil {
		return s, fmt.Errorf("invalid runtime-lib flag: %w", err)
	}
	return s, nil
}
