package main

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newPreloadCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "preload",
		Short: "Load the audio of enabled custom overrides into the playback cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			report, err := v.Preload(ctx)
			if err != nil {
				return err
			}
			if state.structured() {
				return writeJSON(report)
			}
			lines := []string{
				"requested: " + humanize.Comma(int64(report.Requested)),
				"loaded: " + humanize.Comma(int64(report.Loaded)),
				"failed: " + humanize.Comma(int64(report.Failed)),
				"cache: " + humanize.IBytes(uint64(report.Cache.SizeBytes)) + " of " + humanize.IBytes(uint64(report.Cache.CapacityBytes)),
			}
			if len(report.Missing) > 0 {
				lines = append(lines, "missing: "+strings.Join(report.Missing, ", "))
			}
			return writePlain("%s\n", strings.Join(lines, "\n"))
		},
	}
}
