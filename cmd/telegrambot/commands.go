package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"telegrambot/pkg/commands"
	"telegrambot/pkg/telegram"
)

var (
	commandsBots   []string
	commandsOutput string
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Inspect and publish bot commands",
}

var commandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the commands each bot resolves from configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *telegram.Manager) error {
			bots, err := selectBots(m, commandsBots)
			if err != nil {
				return err
			}
			return writeCommandList(cmd.OutOrStdout(), commandsOutput, listCommands(bots))
		})
	},
}

var commandsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Publish the command menu with setMyCommands",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(m *telegram.Manager) error {
			bots, err := selectBots(m, commandsBots)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			for _, bot := range bots {
				if err := bot.SyncCommands(ctx); err != nil {
					return fmt.Errorf("bot %s: %w", bot.Name(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d commands published\n", bot.Name(), len(bot.BotCommands()))
			}
			return nil
		})
	},
}

func init() {
	commandsCmd.PersistentFlags().StringSliceVarP(&commandsBots, "bot", "b", nil, "bot to use (repeatable, default all)")
	commandsListCmd.Flags().StringVarP(&commandsOutput, "output", "o", "text", "output format (text, yaml or json)")

	commandsCmd.AddCommand(commandsListCmd)
	commandsCmd.AddCommand(commandsSyncCmd)
	rootCmd.AddCommand(commandsCmd)
}

// withManager builds the dependency graph without starting it and hands
// the bot manager to fn.
func withManager(fn func(*telegram.Manager) error) error {
	var m *telegram.Manager
	app := fx.New(coreModules(), fx.Populate(&m))
	if err := app.Err(); err != nil {
		return err
	}
	return fn(m)
}

type botCommands struct {
	Bot      string        `json:"bot" yaml:"bot"`
	Commands []commandInfo `json:"commands" yaml:"commands"`
}

type commandInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Usage       string   `json:"usage" yaml:"usage"`
	Description string   `json:"description" yaml:"description"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

func listCommands(bots []*telegram.Bot) []botCommands {
	out := make([]botCommands, 0, len(bots))
	for _, bot := range bots {
		entry := botCommands{Bot: bot.Name(), Commands: []commandInfo{}}
		for _, cmd := range bot.Registry().Commands() {
			info := commandInfo{
				Name:        cmd.Name(),
				Usage:       commands.Usage(cmd),
				Description: cmd.Description(),
			}
			if a, ok := cmd.(commands.Aliased); ok {
				info.Aliases = a.Aliases()
			}
			entry.Commands = append(entry.Commands, info)
		}
		out = append(out, entry)
	}
	return out
}

func writeCommandList(w io.Writer, format string, list []botCommands) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "text", "":
		for _, b := range list {
			fmt.Fprintf(w, "%s:\n", b.Bot)
			if len(b.Commands) == 0 {
				fmt.Fprintln(w, "  (no commands)")
			}
			for _, c := range b.Commands {
				fmt.Fprintf(w, "  %-30s %s\n", c.Usage, c.Description)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
