package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"soundvault/internal/archive"
	"soundvault/internal/assets"
	"soundvault/internal/models"
)

func newAssetsCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage stored audio assets",
	}
	cmd.AddCommand(
		newAssetsAddCmd(state),
		newAssetsListCmd(state),
		newAssetsGetCmd(state),
		newAssetsRmCmd(state),
		newAssetsClearCmd(state),
		newAssetsInfoCmd(state),
		newAssetsBackupCmd(state),
		newAssetsRestoreCmd(state),
	)
	return cmd
}

type uploadLine struct {
	Name      string `json:"name"`
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newAssetsAddCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Upload audio files",
		Args:  argsNaming(1, -1, "one or more audio files"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			files := make([]assets.BatchFile, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				info, err := f.Stat()
				if err != nil {
					return err
				}
				files = append(files, assets.BatchFile{
					Name:    filepath.Base(path),
					Size:    info.Size(),
					Content: f,
				})
			}

			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			results, err := v.Upload(ctx, files)
			if err != nil {
				return err
			}

			return writeUploadResults(state, results)
		},
	}
}

func writeUploadResults(state *cliState, results []assets.BatchResult) error {
	lines := make([]uploadLine, len(results))
	failed := 0
	for i, r := range results {
		lines[i] = uploadLine{Name: r.Name, ID: r.ID, Duplicate: r.Duplicate}
		if r.Err != nil {
			lines[i].Error = r.Err.Error()
			failed++
		}
	}

	if state.structured() {
		if err := writeJSON(lines); err != nil {
			return err
		}
	} else {
		rows := make([][]string, len(lines))
		for i, l := range lines {
			status := "stored"
			switch {
			case l.Error != "":
				status = l.Error
			case l.Duplicate:
				status = "already stored"
			}
			rows[i] = []string{l.Name, shortID(l.ID), status}
		}
		if err := writeRows([]string{"FILE", "ID", "STATUS"}, rows, nil); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files were not stored", failed, len(lines))
	}
	return nil
}

func newAssetsListCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			metas, err := v.Store().ListMetadata(ctx)
			if err != nil {
				return err
			}
			list := make([]models.AssetMetadata, 0, len(metas))
			for _, meta := range metas {
				list = append(list, meta)
			}
			sort.Slice(list, func(i, j int) bool {
				if list[i].Name != list[j].Name {
					return list[i].Name < list[j].Name
				}
				return list[i].ID < list[j].ID
			})

			if state.structured() {
				return writeJSON(list)
			}
			rows := make([][]string, len(list))
			for i, meta := range list {
				rows[i] = []string{shortID(meta.ID), meta.Name, meta.MimeType, humanize.IBytes(uint64(meta.SizeBytes))}
			}
			return writeRows([]string{"ID", "NAME", "TYPE", "SIZE"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
		},
	}
}

func newAssetsGetCmd(state *cliState) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print an asset's playback URI or write its audio to a file",
		Args:  argsNaming(1, 1, "an asset id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			blob, err := v.Store().GetBlob(ctx, args[0])
			if err != nil {
				return err
			}
			if blob == nil {
				return fmt.Errorf("asset %s: %w", args[0], assets.ErrNotFound)
			}

			if outPath != "" {
				_, raw, err := assets.DecodeDataURI(blob.DataURI)
				if err != nil {
					return &assets.DecodeError{Name: blob.Name, Err: err}
				}
				if err := os.WriteFile(outPath, raw, 0o644); err != nil {
					return err
				}
				if state.structured() {
					return writeJSON(map[string]any{"id": blob.ID, "path": outPath, "bytes": len(raw)})
				}
				return writePlain("wrote %s (%s) to %s\n", blob.Name, humanize.IBytes(uint64(len(raw))), outPath)
			}

			if state.structured() {
				return writeJSON(blob)
			}
			return writePlain("%s\n", blob.DataURI)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write decoded audio to this file")
	return cmd
}

func newAssetsRmCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete assets",
		Args:  argsNaming(1, -1, "one or more asset ids"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			for _, id := range args {
				if err := v.Delete(ctx, id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
			}
			if state.structured() {
				return writeJSON(map[string]any{"deleted": args})
			}
			return writePlain("deleted %d asset(s)\n", len(args))
		},
	}
}

func newAssetsClearCmd(state *cliState) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored asset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all assets without --yes")
			}
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			if err := v.Clear(ctx); err != nil {
				return err
			}
			if state.structured() {
				return writeJSON(map[string]any{"cleared": true})
			}
			return writePlain("all assets deleted\n")
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

type storageSummary struct {
	models.StorageInfo
	MaxFileBytes  int64 `json:"max_file_bytes"`
	CacheCapacity int64 `json:"cache_capacity_bytes"`
}

func newAssetsInfoCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			info, err := v.Store().StorageInfo(ctx)
			if err != nil {
				return err
			}
			summary := storageSummary{
				StorageInfo:   info,
				MaxFileBytes:  v.Store().MaxFileBytes(),
				CacheCapacity: v.Cache().Stats().CapacityBytes,
			}
			if state.structured() {
				return writeJSON(summary)
			}
			lines := []string{
				"files: " + strconv.Itoa(info.FileCount),
				"total_size: " + humanize.IBytes(uint64(info.TotalSizeBytes)),
				"max_file_size: " + humanize.IBytes(uint64(summary.MaxFileBytes)),
				"cache_capacity: " + humanize.IBytes(uint64(summary.CacheCapacity)),
			}
			for _, line := range lines {
				if err := writePlain("%s\n", line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newAssetsBackupCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <dir>",
		Short: "Copy the audio of every stored asset into an archive directory",
		Args:  argsNaming(1, 1, "an archive directory"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := archive.Open(args[0])
			if err != nil {
				return err
			}
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			report, err := v.Backup(ctx, a)
			if err != nil {
				return err
			}
			if state.structured() {
				return writeJSON(report)
			}
			return writePlain("archived %d new, %d already present, %d failed in %s\n", report.Written, report.Skipped, report.Failed, a.Root())
		},
	}
}

func newAssetsRestoreCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <dir>",
		Short: "Upload every asset held in an archive directory",
		Args:  argsNaming(1, 1, "an archive directory"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := archive.Open(args[0])
			if err != nil {
				return err
			}
			v, err := state.openVault(ctx)
			if err != nil {
				return err
			}
			defer v.Close()

			results, err := v.Restore(ctx, a)
			if err != nil {
				return err
			}
			return writeUploadResults(state, results)
		},
	}
}
