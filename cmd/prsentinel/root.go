package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "prsentinel.yaml"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "prsentinel",
	Short: "Pull request review bot",
	Long: `prsentinel reviews GitHub pull requests. It runs static analyzers, a security scanner
and an optional LLM reviewer over the changed files, merges their findings into one scored
review and publishes it as a check run, a summary comment and inline review comments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./"+defaultConfigFile+" when present)")
}

// resolveConfigFile returns the config path to load, or "" to run on defaults and environment.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	if _, err := os.Stat(defaultConfigFile); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return defaultConfigFile
}
