package config

import (
	"fmt"
	"strings"
)

// ExpandCommands flattens the global and per-bot command lists of bot into
// a command name to handler type name table.
//
// Each list item is tried, in order, as a command group (expanded
// recursively, each group at most once), as a shared command name, and
// finally as a literal type name that maps to itself. Later items override
// earlier ones with the same name.
func ExpandCommands(cfg *Config, bot string) (map[string]string, error) {
	botCfg, _, err := cfg.Bot(bot)
	if err != nil {
		return nil, err
	}

	items := make([]string, 0, len(cfg.Commands)+len(botCfg.Commands))
	items = append(items, cfg.Commands...)
	items = append(items, botCfg.Commands...)

	out := make(map[string]string)
	cfg.expandInto(out, items, map[string]bool{})
	return out, nil
}

// ExpandGroup returns the commands of a single group.
func ExpandGroup(cfg *Config, group string) (map[string]string, error) {
	key := strings.ToLower(group)
	if _, ok := cfg.CommandGroups[key]; !ok {
		return nil, fmt.Errorf("command group %q is not configured", group)
	}
	out := make(map[string]string)
	cfg.expandInto(out, []string{group}, map[string]bool{})
	return out, nil
}

func (c *Config) expandInto(out map[string]string, items []string, seen map[string]bool) {
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)

		if group, ok := c.CommandGroups[key]; ok {
			if seen[key] {
				continue
			}
			seen[key] = true
			c.expandInto(out, group, seen)
			continue
		}

		if typeName, ok := c.SharedCommands[key]; ok {
			out[key] = typeName
			continue
		}

		out[key] = item
	}
}
