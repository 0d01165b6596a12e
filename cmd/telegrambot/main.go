// Package main is the entry point for the telegrambot CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"telegrambot/pkg/config"
	"telegrambot/pkg/version"
)

var (
	configPath   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "telegrambot",
	Short: "telegrambot - Telegram bot command dispatcher",
	Long: `telegrambot runs one or more Telegram bots and dispatches the slash
commands they receive to registered handlers.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path := strings.TrimSpace(configPath); path != "" {
			return os.Setenv(config.ConfigPathEnv, path)
		}
		return nil
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat == "yaml" {
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(version.GetInfo())
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	versionCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text or yaml)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
