// Package main is the entry point for knee-cli, which runs the knee X-ray
// grading model on local files without starting the HTTP server.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Brownie44l1/knee-api/cmd/knee-cli/internal/commands"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "knee-cli",
		Short: "Knee X-ray grading from the command line",
		Long: `knee-cli loads the knee osteoarthritis grading model and runs it on local images.
Use it to check a weight file before deploying it behind the API.

The onnxruntime shared library is taken from --runtime-lib or ONNXRUNTIME_LIB.`,
		SilenceUsage: true,
	}

	commands.InitPredictCommands(rootCmd)
	commands.InitInspectCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}
	return nil
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}
