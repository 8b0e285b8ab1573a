package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"soundvault/internal/models"
	"soundvault/internal/overrides"
)

func newOverrideCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Configure per-event sound overrides",
	}
	cmd.AddCommand(
		newOverrideSetCmd(state),
		newOverrideShowCmd(state),
		newOverrideResolveCmd(state),
		newOverrideExportCmd(state),
		newOverrideImportCmd(state),
		newOverrideResetSeasonalCmd(state),
	)
	return cmd
}

func newOverrideSetCmd(state *cliState) *cobra.Command {
	var (
		sound   string
		fileID  string
		volume  int
		disable bool
		enable  bool
	)

	cmd := &cobra.Command{
		Use:   "set <event>",
		Short: "Create or update the override for an event",
		Args:  argsNaming(1, 1, "an event id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if disable && enable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}
			ctx := cmd.Context()
			eventID := strings.TrimSpace(args[0])

			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			set, err := v.Overrides(ctx)
			if err != nil {
				return err
			}
			o, ok := set[eventID]
			if !ok {
				o = models.SoundOverride{Enabled: true, SelectedSound: models.SoundDefault}
			}

			flags := cmd.Flags()
			if flags.Changed("file") {
				o.SelectedFileID = strings.ToLower(strings.TrimSpace(fileID))
				if !flags.Changed("sound") {
					o.SelectedSound = models.SoundCustom
				}
			}
			if flags.Changed("sound") {
				o.SelectedSound = models.SelectedSound(strings.TrimSpace(sound))
			}
			if o.SelectedSound != models.SoundCustom {
				o.SelectedFileID = ""
			}
			if flags.Changed("volume") {
				o.Volume = models.IntPtr(volume)
			}
			if disable {
				o.Enabled = false
			}
			if enable {
				o.Enabled = true
			}

			if err := v.SetOverride(ctx, eventID, o); err != nil {
				return err
			}
			if o.SelectedSound == models.SoundCustom {
				if _, found, err := v.Store().Get(ctx, o.SelectedFileID); err == nil && !found {
					fmt.Fprintf(os.Stderr, "warning: asset %s is not stored; %s will play its default sound\n", o.SelectedFileID, eventID)
				}
			}

			if state.structured() {
				return writeJSON(map[string]any{"id": eventID, "override": o})
			}
			return writePlain("%s\n", formatOverrideLine(eventID, o))
		},
	}

	cmd.Flags().StringVar(&sound, "sound", "", "default, custom, a seasonal key or a seasonal id")
	cmd.Flags().StringVar(&fileID, "file", "", "asset id for custom sounds (implies --sound custom)")
	cmd.Flags().IntVar(&volume, "volume", models.DefaultVolume, "volume 0-100")
	cmd.Flags().BoolVar(&disable, "disable", false, "disable the override")
	cmd.Flags().BoolVar(&enable, "enable", false, "enable the override")
	return cmd
}

func newOverrideShowCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show [event]",
		Short: "Show stored overrides",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			set, err := v.Overrides(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				o, ok := set[args[0]]
				if !ok {
					return fmt.Errorf("no override for event %q", args[0])
				}
				set = map[string]models.SoundOverride{args[0]: o}
			}

			if state.structured() {
				return writeJSON(overrides.Export(set).Overrides)
			}

			ids := make([]string, 0, len(set))
			for id := range set {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				o := set[id]
				st := overrides.StateOf(o)
				rows = append(rows, []string{id, string(st.Kind), st.Ref, strconv.Itoa(overrides.EffectiveVolume(o))})
			}
			return writeRows([]string{"EVENT", "STATE", "SOUND", "VOLUME"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
		},
	}
}

func newOverrideResolveCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <event>",
		Short: "Show which sound an event would play",
		Args:  argsNaming(1, 1, "an event id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			res, err := v.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if state.structured() {
				return writeJSON(res)
			}
			if !res.Override {
				return writePlain("%s: default sound (volume %d)\n", res.EventID, res.Volume)
			}
			return writePlain("%s: %s (volume %d)\n%s\n", res.EventID, res.State.Kind, res.Volume, truncateURI(res.URI))
		},
	}
}

func newOverrideExportCmd(state *cliState) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export overrides as JSON (audio is not included)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			if outPath == "" {
				return v.ExportOverrides(ctx, stdout)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := v.ExportOverrides(ctx, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "exported overrides to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newOverrideImportCmd(state *cliState) *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import overrides from an export file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPath == "" {
				return fmt.Errorf("--input is required")
			}
			f, err := os.Open(inPath)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			report, err := v.ImportOverrides(ctx, f)
			if err != nil {
				return err
			}
			if state.structured() {
				return writeJSON(report)
			}
			if err := writePlain("imported %d override(s)\n", report.Imported); err != nil {
				return err
			}
			for _, id := range report.MissingAssets {
				if err := writePlain("missing asset: %s (re-upload it to restore the custom sound)\n", id); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "input", "i", "", "export file to read")
	return cmd
}

func newOverrideResetSeasonalCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-seasonal",
		Short: "Switch seasonal overrides back to the default sound",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			n, err := v.ResetSeasonal(ctx)
			if err != nil {
				return err
			}
			if state.structured() {
				return writeJSON(map[string]int{"reset": n})
			}
			return writePlain("reset %d seasonal override(s)\n", n)
		},
	}
}

func formatOverrideLine(eventID string, o models.SoundOverride) string {
	st := overrides.StateOf(o)
	line := fmt.Sprintf("%s: %s", eventID, st.Kind)
	if st.Ref != "" {
		line += " " + st.Ref
	}
	return fmt.Sprintf("%s (volume %d)", line, overrides.EffectiveVolume(o))
}

func truncateURI(uri string) string {
	const max = 96
	if len(uri) <= max {
		return uri
	}
	return uri[:max] + "..."
}
