package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"soundvault/internal/config"
)

func newWatchCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Hold the vault open and apply config changes as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := state.cfg.Path
			if path == "" {
				var err error
				if path, err = config.Path(); err != nil {
					return err
				}
			}

			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			if report, err := v.Preload(ctx); err != nil {
				slog.Warn("preload failed", "err", err)
			} else {
				slog.Info("preloaded custom sounds", "loaded", report.Loaded, "missing", len(report.Missing))
			}

			watcher, err := config.NewWatcher(path, slog.Default())
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "watching %s (Ctrl+C to stop)\n", path)
			return watcher.Run(ctx, v.ApplyConfig)
		},
	}
}
