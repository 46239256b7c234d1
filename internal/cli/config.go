package cli

import (
	"fmt"

	"github.com/buker/brdesk/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View brdesk configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Get().YAML()
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		fmt.Println("Current configuration:")
		fmt.Println("----------------------")
		fmt.Print(out)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetConfigPath()
		if path == "" {
			fmt.Println("No config file found. Create one at:")
			fmt.Printf("  %s (global)\n", config.GetDefaultConfigPath())
			fmt.Println("  ./.brdesk.yaml (project)")
		} else {
			fmt.Printf("Config file: %s\n", path)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
