package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"soundvault/internal/archive"
	"soundvault/internal/assets"
	"soundvault/internal/models"
)

// BackupReport summarizes a Backup run.
type BackupReport struct {
	Written int `json:"written"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Backup copies the decoded bytes of every stored asset into a. Assets the
// archive already holds are skipped. The manifest keeps entries from earlier
// backups.
func (v *Vault) Backup(ctx context.Context, a *archive.Archive) (BackupReport, error) {
	manifest, err := a.ReadManifest()
	if err != nil {
		return BackupReport{}, err
	}
	entries := make(map[string]models.AssetMetadata, len(manifest))
	for _, entry := range manifest {
		entries[entry.ID] = entry
	}

	var report BackupReport
	err = v.store.Each(ctx, func(blob models.AssetBlob) error {
		entries[blob.ID] = models.MetadataFor(blob)
		if a.Has(blob.ID) {
			report.Skipped++
			return nil
		}
		_, raw, err := assets.DecodeDataURI(blob.DataURI)
		if err != nil {
			report.Failed++
			v.logger.Warn("backup skipped undecodable asset", "id", blob.ID, "err", err)
			delete(entries, blob.ID)
			return nil
		}
		digest, _, err := a.Put(ctx, bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("archive %s: %w", blob.ID, err)
		}
		if digest != blob.ID {
			v.logger.Warn("archived bytes do not match asset id", "id", blob.ID, "digest", digest)
		}
		report.Written++
		return nil
	})
	if err != nil {
		return report, err
	}

	list := make([]models.AssetMetadata, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	if err := a.WriteManifest(list); err != nil {
		return report, fmt.Errorf("write archive manifest: %w", err)
	}
	return report, nil
}

// Restore uploads every archived asset through the normal upload path.
// Assets already stored come back as duplicates.
func (v *Vault) Restore(ctx context.Context, a *archive.Archive) ([]assets.BatchResult, error) {
	manifest, err := a.ReadManifest()
	if err != nil {
		return nil, err
	}

	files := make([]assets.BatchFile, 0, len(manifest))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	for _, entry := range manifest {
		rc, err := a.Open(ctx, entry.ID)
		if err != nil {
			files = append(files, assets.BatchFile{Name: entry.Name, MimeType: entry.MimeType, Content: errReader{err}})
			continue
		}
		closers = append(closers, rc)
		files = append(files, assets.BatchFile{Name: entry.Name, MimeType: entry.MimeType, Content: rc})
	}
	return v.Upload(ctx, files)
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
