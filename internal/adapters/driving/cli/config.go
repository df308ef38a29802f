package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Writes the default configuration to the config directory. Edit the
file to point at your encoder backend; the similarity threshold is
model-dependent and should be recalibrated when the model changes.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if err := configStore.Save(domain.DefaultSettings()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	cmd.Printf("Wrote default configuration to %s\n", configStore.Path())
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	shown := settings
	if shown.Encoder.APIKey != "" {
		shown.Encoder.APIKey = "********"
	}

	data, err := toml.Marshal(shown)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	cmd.Printf("# %s\n%s", configStore.Path(), string(data))
	return nil
}
