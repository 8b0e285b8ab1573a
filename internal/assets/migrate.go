package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"soundvault/internal/kv"
	"soundvault/internal/models"
)

// SchemaVersion is the current on-disk layout: content-addressed ids and
// data URI payloads. Stores written before versioning carry no version key.
const SchemaVersion = 2

// MigrationReport describes the work done by one Migrate run.
type MigrationReport struct {
	Performed       bool `json:"performed"`
	FromVersion     int  `json:"from_version"`
	ToVersion       int  `json:"to_version"`
	Rewritten       int  `json:"rewritten"`
	Dropped         int  `json:"dropped"`
	Normalized      int  `json:"normalized"`
	MetadataRebuilt bool `json:"metadata_rebuilt"`
}

// legacyRow accepts both the legacy shape (random id, raw buffer) and the
// current one.
type legacyRow struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	MimeType string       `json:"mimeType"`
	Buffer   legacyBuffer `json:"buffer"`
	DataURI  string       `json:"dataUri"`
}

// legacyBuffer decodes raw bytes stored either as a base64 string or as a
// JSON array of byte values.
type legacyBuffer struct {
	present bool
	data    []byte
}

func (b *legacyBuffer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	b.present = true
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decode buffer: %w", err)
		}
		b.data = raw
		return nil
	}
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode buffer: %w", err)
	}
	b.data = make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("decode buffer: byte %d out of range", i)
		}
		b.data[i] = byte(v)
	}
	return nil
}

// Migrate upgrades a legacy blob table to the content-addressed layout and
// repairs the metadata table. It is idempotent; a second run reports no work.
func (s *Store) Migrate(ctx context.Context) (MigrationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := MigrationReport{ToVersion: SchemaVersion}
	var version int
	if _, err := s.backend.Get(ctx, kv.KeySchemaVersion, &version); err != nil {
		return report, fmt.Errorf("read schema version: %w", err)
	}
	report.FromVersion = version
	if version > SchemaVersion {
		s.logger.Warn("asset store written by a newer version; skipping migration",
			"stored_version", version, "supported_version", SchemaVersion)
		report.ToVersion = version
		return report, nil
	}

	var blobs map[string]models.AssetBlob
	if version < SchemaVersion {
		var err error
		blobs, err = s.rewriteLegacyBlobs(ctx, &report)
		if err != nil {
			return report, err
		}
	} else {
		var err error
		blobs, err = s.loadBlobs(ctx)
		if err != nil {
			return report, err
		}
	}

	metas, metaFound, err := s.loadMetadata(ctx)
	if err != nil {
		// An unreadable index is rebuilt from the blob table.
		s.logger.Warn("metadata table unreadable; rebuilding", "err", err)
		metas, metaFound = nil, false
	}
	needRebuild := report.Rewritten > 0 || report.Dropped > 0 || report.Normalized > 0 ||
		(len(blobs) > 0 && !metaFound) ||
		!metadataMatches(blobs, metas)
	if needRebuild {
		if err := s.backend.Set(ctx, kv.KeyMetadata, RebuildMetadata(blobs)); err != nil {
			return report, fmt.Errorf("write metadata table: %w", err)
		}
		report.MetadataRebuilt = true
		report.Performed = true
	}

	if version != SchemaVersion {
		if err := s.backend.Set(ctx, kv.KeySchemaVersion, SchemaVersion); err != nil {
			return report, fmt.Errorf("write schema version: %w", err)
		}
	}

	if report.Performed {
		s.logger.Info("asset migration complete",
			"from_version", report.FromVersion,
			"rewritten", report.Rewritten,
			"dropped", report.Dropped,
			"metadata_rebuilt", report.MetadataRebuilt)
	}
	return report, nil
}

// rewriteLegacyBlobs sniffs every row of an unversioned blob table and
// rewrites legacy rows under their content digest.
func (s *Store) rewriteLegacyBlobs(ctx context.Context, report *MigrationReport) (map[string]models.AssetBlob, error) {
	rows := map[string]json.RawMessage{}
	if _, err := s.backend.Get(ctx, kv.KeyBlobs, &rows); err != nil {
		return nil, fmt.Errorf("read blob table: %w", err)
	}

	blobs := make(map[string]models.AssetBlob, len(rows))
	for key, data := range rows {
		var row legacyRow
		if err := json.Unmarshal(data, &row); err != nil {
			s.dropLegacyRow(report, key, err)
			continue
		}
		if !row.Buffer.present && IsDigest(key) && row.DataURI != "" {
			blob := currentRow(key, row)
			if blob.ID != row.ID || blob.MimeType != row.MimeType || row.Type != "" {
				report.Normalized++
			}
			blobs[key] = blob
			continue
		}

		blob, err := convertLegacyRow(row)
		if err != nil {
			s.dropLegacyRow(report, key, err)
			continue
		}
		if _, exists := blobs[blob.ID]; !exists {
			blobs[blob.ID] = blob
		}
		report.Rewritten++
		s.logger.Debug("rewrote legacy asset", "legacy_id", key, "id_kind", legacyIDKind(key), "id", blob.ID)
	}

	if report.Rewritten == 0 && report.Dropped == 0 && report.Normalized == 0 {
		return blobs, nil
	}
	if err := s.backend.Set(ctx, kv.KeyBlobs, blobs); err != nil {
		return nil, fmt.Errorf("write blob table: %w", err)
	}
	report.Performed = true
	return blobs, nil
}

func (s *Store) dropLegacyRow(report *MigrationReport, key string, err error) {
	report.Dropped++
	s.logger.Warn("dropping unreadable legacy asset", "err", &MigrationError{LegacyID: key, Err: err})
}

// currentRow fills in the fields a content-addressed row written before
// versioning may lack. The payload is kept as stored.
func currentRow(key string, row legacyRow) models.AssetBlob {
	declared := row.MimeType
	if declared == "" {
		declared = row.Type
	}
	if declared == "" {
		declared = dataURIMediaType(row.DataURI)
	}
	return models.AssetBlob{
		ID:       key,
		Name:     row.Name,
		MimeType: ResolveMediaType(declared, row.Name),
		DataURI:  row.DataURI,
	}
}

func convertLegacyRow(row legacyRow) (models.AssetBlob, error) {
	raw := row.Buffer.data
	declared := row.MimeType
	if declared == "" {
		declared = row.Type
	}
	if !row.Buffer.present {
		if row.DataURI == "" {
			return models.AssetBlob{}, errors.New("row has neither buffer nor payload")
		}
		mediaType, decoded, err := DecodeDataURI(row.DataURI)
		if err != nil {
			return models.AssetBlob{}, err
		}
		raw = decoded
		if declared == "" {
			declared = mediaType
		}
	}
	if len(raw) == 0 {
		return models.AssetBlob{}, errEmptyPayload
	}
	return newBlob(Digest(raw), raw, row.Name, declared), nil
}

func legacyIDKind(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return "uuid"
	}
	if IsDigest(id) {
		return "digest"
	}
	return "other"
}

// RebuildMetadata derives the metadata table from the blob table.
func RebuildMetadata(blobs map[string]models.AssetBlob) map[string]models.AssetMetadata {
	metas := make(map[string]models.AssetMetadata, len(blobs))
	for id, blob := range blobs {
		blob.ID = id
		metas[id] = models.MetadataFor(blob)
	}
	return metas
}

func metadataMatches(blobs map[string]models.AssetBlob, metas map[string]models.AssetMetadata) bool {
	if len(blobs) != len(metas) {
		return false
	}
	for id, blob := range blobs {
		blob.ID = id
		meta, ok := metas[id]
		if !ok || meta != models.MetadataFor(blob) {
			return false
		}
	}
	return true
}
