package commands

import (
	"encoding/json"
	"fmt"

	"github.com/Brownie44l1/knee-api/internal/model"

	"github.com/spf13/cobra"
)

// InspectResult describes a weight file.
type InspectResult struct {
	Model    string          `json:"model"`
	IO       *model.IOInfo   `json:"io"`
	Metadata *model.Metadata `json:"metadata,omitempty"`
	Labels   []string        `json:"labels"`
}

// InitInspectCommands registers the inspect command.
func InitInspectCommands(rootCmd *cobra.Command) {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the model's input/output layout and provenance",
		Args:  cobra.NoArgs,
		RunE:  runInspect,
	}
	addModelFlags(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	log, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	settings, err := modelSettings(cmd)
	if err != nil {
		return err
	}

	meta, err := model.LoadMetadata(settings.MetadataPath)
	if err != nil {
		return err
	}
	if meta == nil {
		log.Warn("No model metadata at ", settings.MetadataPath)
	}

	if err := model.InitRuntime(settings.RuntimeLib); err != nil {
		return err
	}
	defer model.DestroyRuntime()

	log.Debug("Reading graph metadata from ", settings.Path)
	info, err := model.InspectONNX(settings.Path)
	if err != nil {
		return fmt.Errorf("unable to inspect %s: %w", settings.Path, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(InspectResult{
		Model:    settings.Path,
		IO:       info,
		Metadata: meta,
		Labels:   model.Labels[:],
	})
}
