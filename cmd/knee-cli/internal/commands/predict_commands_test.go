package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Brownie44l1/knee-api/internal/model"
	"github.com/Brownie44l1/knee-api/internal/preprocess"
	"github.com/Brownie44l1/knee-api/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedNetwork struct{}

func (fixedNetwork) Forward(context.Context, []float32) ([]float32, error) {
	return []float32{0, 4, 0, 0, 0}, nil
}

func (fixedNetwork) Close() error { return nil }

func TestWritePredictions(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "knee.png")
	bad := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(good, testutil.PNGBytes(t, testutil.GradientImage(100, 80)), 0600))
	require.NoError(t, os.WriteFile(bad, []byte("plain text"), 0600))

	classifier := model.NewClassifier(fixedNetwork{}, preprocess.DefaultOptions(), nil, &testutil.RecordingLogger{})

	var out bytes.Buffer
	failed := writePredictions(context.Background(), &out, classifier,
		[]string{good, bad, filepath.Join(dir, "missing.png")}, true)
	assert.Equal(t, 2, failed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var first PredictResult
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.True(t, first.Success)
	assert.Equal(t, "1_Doubtful", first.Prediction.Label)
	assert.Len(t, first.Probabilities, model.NumGrades)

	var second PredictResult
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, "cannot identify image file")
}

func TestPredictCommand_MissingWeights(t *testing.T) {
	root := &cobra.Command{Use: "knee-cli", SilenceUsage: true, SilenceErrors: true}
	InitPredictCommands(root)

	dir := t.TempDir()
	root.SetArgs([]string{"predict", "--model", filepath.Join(dir, "absent.onnx"), filepath.Join(dir, "knee.png")})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	assert.ErrorIs(t, err, model.ErrWeightsNotFound)
}

func TestPredictCommand_RequiresImage(t *testing.T) {
	root := &cobra.Command{Use: "knee-cli", SilenceUsage: true, SilenceErrors: true}
	InitPredictCommands(root)
	root.SetArgs([]string{"predict"})
	root.SetOut(&bytes.Buffer{})

	assert.Error(t, root.Execute())
}

func TestInspectCommand_LogLevel(t *testing.T) {
	dir := t.TempDir()
	metadata := filepath.Join(dir, "model_metadata.json")
	require.NoError(t, os.WriteFile(metadata, []byte(`{"version": `), 0600))

	tests := []struct {
		name    string
		level   string
		wantErr string
	}{
		{"unknown level", "verbose", "failed to initialize logger"},
		{"valid level reaches the metadata", "debug", "failed to parse metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &cobra.Command{Use: "knee-cli", SilenceUsage: true, SilenceErrors: true}
			InitInspectCommands(root)
			root.SetArgs([]string{"inspect", "--log-level", tt.level, "--metadata", metadata})
			root.SetOut(&bytes.Buffer{})

			assert.ErrorContains(t, root.Execute(), tt.wantErr)
		})
	}
}
