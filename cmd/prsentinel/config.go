package main

import (
	"fmt"

	"github.com/agusespa/prsentinel/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and environment overrides are
merged and validated. Secrets are redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(resolveConfigFile())
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
