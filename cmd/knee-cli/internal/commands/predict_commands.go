package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/knee-api/internal/model"

	"github.com/spf13/cobra"
)

// PredictResult is one output line of the predict command.
type PredictResult struct {
	File          string             `json:"file"`
	Success       bool               `json:"success"`
	Prediction    *model.Prediction  `json:"prediction,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// InitPredictCommands registers the predict command.
func InitPredictCommands(rootCmd *cobra.Command) {
	predictCmd := &cobra.Command{
		Use:   "predict <image> [image...]",
		Short: "Grade one or more knee X-ray images",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPredict,
	}
	addModelFlags(predictCmd)
	predictCmd.Flags().Bool("all", false, "include the probability of every grade")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	log, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	settings, err := modelSettings(cmd)
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("invalid all flag: %w", err)
	}

	classifier, err := model.Load(settings, log)
	if err != nil {
		return err
	}
	defer classifier.Close()

	failed := writePredictions(cmd.Context(), cmd.OutOrStdout(), classifier, args, all)
	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be graded", failed, len(args))
	}
	return nil
}

// writePredictions grades each file and writes one JSON line per file.
// It returns the number of failures.
func writePredictions(ctx context.Context, out io.Writer, classifier *model.Classifier, files []string, all bool) int {
	if ctx == nil {
		ctx = context.Background()
	}
	enc := json.NewEncoder(out)
	failed := 0
	for _, fname := range files {
		rec := predictFile(ctx, classifier, fname)
		if !rec.Success {
			failed++
		} else if all {
			rec.Probabilities = rec.Prediction.Probabilities
		}
		enc.Encode(rec)
	}
	return failed
}

func predictFile(ctx context.Context, classifier *model.Classifier, fname string) PredictResult {
	rec := PredictResult{File: fname}
	file, err := os.Open(filepath.Clean(fname))
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	defer file.Close()

	prediction, err := classifier.ClassifyReader(ctx, file)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	rec.Success = true
	rec.Prediction = prediction
	return rec
}
