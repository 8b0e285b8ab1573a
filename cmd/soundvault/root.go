package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"soundvault/internal/config"
	"soundvault/internal/format"
	"soundvault/internal/vault"
)

// cliState carries the loaded config and global flags to subcommands.
type cliState struct {
	cfg        *config.Config
	jsonOutput bool
	formatName string
	logLevel   string
}

// structured reports whether output should go through the formatter.
func (s *cliState) structured() bool {
	return s.jsonOutput || s.formatName != ""
}

func (s *cliState) openVault(ctx context.Context) (*vault.Vault, error) {
	return vault.Open(ctx, s.cfg, slog.Default())
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	state := &cliState{cfg: cfg}

	cmd := &cobra.Command{
		Use:           "soundvault",
		Short:         "Soundvault stores custom notification sounds and resolves per-event overrides",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := setupLogging(state.logLevel, cfg)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			formatter, err := format.ForName(state.formatName)
			if err != nil {
				return err
			}
			outputFormatter = formatter
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&state.jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&state.formatName, "format", "", "structured output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(
		newAssetsCmd(state),
		newMigrateCmd(state),
		newOverrideCmd(state),
		newPreloadCmd(state),
		newWatchCmd(state),
		newConfigCmd(state),
	)

	return cmd
}
