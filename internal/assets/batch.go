package assets

import (
	"context"
	"fmt"
	"io"

	"soundvault/internal/kv"
	"soundvault/internal/models"
)

// BatchFile is one input of SaveBatch. Size is optional; when known it lets
// oversized files be rejected before reading.
type BatchFile struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

// BatchResult is the outcome for the file at the same position in the input.
type BatchResult struct {
	Name      string `json:"name"`
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Err       error  `json:"-"`
}

// OK reports whether the file was stored (or already present).
func (r BatchResult) OK() bool {
	return r.Err == nil
}

// SaveBatch stores files sequentially inside a single read-modify-write pass:
// each table is read once and written once. Per-file failures are reported in
// place and never abort the batch.
func (s *Store) SaveBatch(ctx context.Context, files []BatchFile) ([]BatchResult, error) {
	results := make([]BatchResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, err := s.loadBlobs(ctx)
	if err != nil {
		return nil, err
	}
	metas, _, err := s.loadMetadata(ctx)
	if err != nil {
		return nil, err
	}

	added, repaired := 0, 0
	for i, file := range files {
		results[i].Name = file.Name
		raw, err := s.readBatchFile(file)
		if err != nil {
			results[i].Err = err
			s.logger.Warn("batch item rejected", "name", file.Name, "err", err)
			continue
		}

		id := Digest(raw)
		results[i].ID = id
		if _, ok := blobs[id]; ok {
			results[i].Duplicate = true
			if _, hasMeta := metas[id]; !hasMeta {
				metas[id] = models.MetadataFor(blobs[id])
				repaired++
			}
			continue
		}

		blob := newBlob(id, raw, file.Name, file.MimeType)
		blobs[id] = blob
		metas[id] = models.MetadataFor(blob)
		added++
	}

	if added == 0 && repaired == 0 {
		return results, nil
	}

	if added > 0 {
		if err := s.backend.Set(ctx, kv.KeyBlobs, blobs); err != nil {
			return nil, fmt.Errorf("write blob table: %w", err)
		}
	}
	if err := s.backend.Set(ctx, kv.KeyMetadata, metas); err != nil {
		s.logger.Warn("metadata write failed after batch", "added", added, "repaired", repaired, "err", err)
	}

	s.logger.Info("saved asset batch", "files", len(files), "added", added)
	return results, nil
}

func (s *Store) readBatchFile(file BatchFile) ([]byte, error) {
	if err := s.checkSize(file.Name, file.Size); err != nil {
		return nil, err
	}
	if file.Content == nil {
		return nil, &DecodeError{Name: file.Name, Err: fmt.Errorf("content is required")}
	}

	limit := s.MaxFileBytes()
	raw, err := io.ReadAll(io.LimitReader(file.Content, limit+1))
	if err != nil {
		return nil, &DecodeError{Name: file.Name, Err: err}
	}
	if int64(len(raw)) > limit {
		actual := file.Size
		if actual < int64(len(raw)) {
			actual = int64(len(raw))
		}
		return nil, &SizeLimitError{Name: file.Name, LimitBytes: limit, ActualBytes: actual}
	}
	if len(raw) == 0 {
		return nil, &DecodeError{Name: file.Name, Err: errEmptyPayload}
	}
	return raw, nil
}
