package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"soundvault/internal/config"
)

func newConfigCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.soundvault.toml",
	}
	cmd.AddCommand(newConfigGetCmd(state), newConfigSetCmd())
	return cmd
}

// newConfigGetCmd prints one key, or every key with its effective value when
// called without arguments. Effective values include env overrides.
func newConfigGetCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print effective config values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := config.AllowedKeys()
			if len(args) == 1 {
				if !config.IsAllowedKey(args[0]) {
					return fmt.Errorf("unknown key: %s (allowed: %s)", args[0], strings.Join(keys, ", "))
				}
				keys = args[:1]
			}

			values := make(map[string]string, len(keys))
			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				value, err := state.cfg.Get(key)
				if err != nil {
					return err
				}
				values[key] = value
				rows = append(rows, []string{key, value})
			}

			switch {
			case state.structured():
				return writeJSON(values)
			case len(args) == 1:
				return writePlain("%s\n", values[args[0]])
			default:
				return writeRows([]string{"KEY", "VALUE"}, rows, nil)
			}
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a config value",
		Long: "Write a config value to ~/.soundvault.toml (or $SOUNDVAULT_CONFIG_DIR).\n" +
			"assets.max_file_size_mb takes one of 5, 10, 15, 25, 50; a running watch picks it up.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			if err := config.SetKey(path, args[0], args[1]); err != nil {
				return err
			}
			return writePlain("%s = %s (%s)\n", args[0], strings.TrimSpace(args[1]), path)
		},
	}
}
