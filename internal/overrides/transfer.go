package overrides

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"soundvault/internal/models"
)

// ExportNote is written into every export file.
const ExportNote = "Audio files are not included. Re-upload custom sounds after importing."

// ExportFile is the import/export document. Payloads are never embedded.
type ExportFile struct {
	Overrides []Record `json:"overrides"`
	Note      string   `json:"__note,omitempty"`
}

// Record is one override in an ExportFile.
type Record struct {
	ID             string               `json:"id"`
	Enabled        bool                 `json:"enabled"`
	SelectedSound  models.SelectedSound `json:"selectedSound"`
	SelectedFileID string               `json:"selectedFileId,omitempty"`
	Volume         int                  `json:"volume"`
}

// Export builds an ExportFile ordered by event id.
func Export(set map[string]models.SoundOverride) ExportFile {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	file := ExportFile{Overrides: make([]Record, 0, len(ids)), Note: ExportNote}
	for _, id := range ids {
		o := set[id]
		file.Overrides = append(file.Overrides, Record{
			ID:             id,
			Enabled:        o.Enabled,
			SelectedSound:  o.SelectedSound,
			SelectedFileID: o.SelectedFileID,
			Volume:         EffectiveVolume(o),
		})
	}
	return file
}

// WriteExport encodes file as indented JSON.
func WriteExport(w io.Writer, file ExportFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file)
}

// ReadImport decodes and validates an export document.
func ReadImport(r io.Reader) (map[string]models.SoundOverride, error) {
	var file ExportFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	if file.Overrides == nil {
		return nil, fmt.Errorf("import file has no overrides list")
	}

	set := make(map[string]models.SoundOverride, len(file.Overrides))
	for i, rec := range file.Overrides {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			return nil, fmt.Errorf("override %d: id is required", i)
		}
		o := models.SoundOverride{
			Enabled:        rec.Enabled,
			SelectedSound:  rec.SelectedSound,
			SelectedFileID: models.NormalizeFileID(rec.SelectedFileID),
			Volume:         models.IntPtr(rec.Volume),
		}
		if !models.IsValidVolume(rec.Volume) {
			o.Volume = nil
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("override %s: %w", id, err)
		}
		set[id] = o
	}
	return set, nil
}
