package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soundvault/internal/assets"
	"soundvault/internal/kv"
)

type migrateResult struct {
	Schema *kv.MigrationStatus     `json:"schema"`
	Assets *assets.MigrationReport `json:"assets,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

func newMigrateCmd(state *cliState) *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade stored assets to the current layout or inspect schema status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspect {
				plan, err := kv.MigrationPlan(state.cfg.DBPath)
				if err != nil {
					return fmt.Errorf("inspect migrations: %w", err)
				}
				if state.structured() {
					return writeJSON(migrateResult{Schema: plan})
				}
				writeSchemaPlan(plan)
				return nil
			}

			// Opening the vault applies schema migrations and runs the asset
			// migration, the same as every other command.
			v, err := state.openVault(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			report, migErr := v.Migration()
			v.Close()

			plan, err := kv.MigrationPlan(state.cfg.DBPath)
			if err != nil {
				return err
			}

			if state.structured() {
				result := migrateResult{Schema: plan, Assets: &report}
				if migErr != nil {
					result.Error = migErr.Error()
				}
				if err := writeJSON(result); err != nil {
					return err
				}
				return migErr
			}

			writeSchemaPlan(plan)
			if migErr != nil {
				return fmt.Errorf("asset migration: %w", migErr)
			}
			if !report.Performed {
				fmt.Fprintf(stdout, "Assets already at layout version %d.\n", report.ToVersion)
				return nil
			}
			fmt.Fprintf(stdout, "Assets migrated from layout version %d to %d.\n", report.FromVersion, report.ToVersion)
			fmt.Fprintf(stdout, "  rewritten: %d\n", report.Rewritten)
			fmt.Fprintf(stdout, "  dropped: %d\n", report.Dropped)
			fmt.Fprintf(stdout, "  normalized: %d\n", report.Normalized)
			fmt.Fprintf(stdout, "  metadata rebuilt: %t\n", report.MetadataRebuilt)
			return nil
		},
	}

	cmd.Flags().BoolVar(&inspect, "inspect", false, "show schema status without changing anything")
	return cmd
}

func writeSchemaPlan(plan *kv.MigrationStatus) {
	fmt.Fprintf(stdout, "Current version: %d\n", plan.CurrentVersion)
	fmt.Fprintf(stdout, "Available version: %d\n", plan.AvailableVersion)
	if len(plan.Pending) == 0 {
		fmt.Fprintln(stdout, "No pending migrations.")
		return
	}
	fmt.Fprintf(stdout, "Pending migrations: %d\n", len(plan.Pending))
	for _, m := range plan.Pending {
		fmt.Fprintf(stdout, "  %d: %s\n", m.Version, m.Description)
	}
}
