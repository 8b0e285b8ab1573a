package assets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"soundvault/internal/kv"
	"soundvault/internal/models"
)

// DefaultMaxFileBytes is the default per-file ceiling on raw upload size.
const DefaultMaxFileBytes int64 = 15 * 1024 * 1024

// Store owns the blob table and the metadata table. The blob table is the
// source of truth; the metadata table is a derived index that Migrate repairs.
type Store struct {
	backend      kv.Backend
	logger       *slog.Logger
	maxFileBytes atomic.Int64

	// mu serializes read-modify-write cycles issued by this process.
	mu sync.Mutex
}

// NewStore constructs a Store over backend.
func NewStore(backend kv.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{backend: backend, logger: logger.With("component", "assets")}
	s.maxFileBytes.Store(DefaultMaxFileBytes)
	return s
}

// SetMaxFileBytes adjusts the per-file ceiling. Non-positive values restore the default.
func (s *Store) SetMaxFileBytes(limit int64) {
	if limit <= 0 {
		limit = DefaultMaxFileBytes
	}
	s.maxFileBytes.Store(limit)
}

// MaxFileBytes returns the current per-file ceiling.
func (s *Store) MaxFileBytes() int64 {
	return s.maxFileBytes.Load()
}

// Save stores raw under its content digest and returns that id. Saving bytes
// that are already stored is a no-op.
func (s *Store) Save(ctx context.Context, raw []byte, fileName, mimeType string) (string, error) {
	if err := s.checkSize(fileName, int64(len(raw))); err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", &DecodeError{Name: fileName, Err: errEmptyPayload}
	}
	id := Digest(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, err := s.loadBlobs(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := blobs[id]; ok {
		return id, nil
	}

	blob := newBlob(id, raw, fileName, mimeType)
	blobs[id] = blob
	if err := s.backend.Set(ctx, kv.KeyBlobs, blobs); err != nil {
		return "", fmt.Errorf("write blob table: %w", err)
	}

	// The blob is durable from here on; a failed index write is repaired by
	// Migrate on the next startup.
	metas, _, err := s.loadMetadata(ctx)
	if err != nil {
		s.logger.Warn("metadata read failed after blob write", "id", id, "err", err)
		return id, nil
	}
	metas[id] = models.MetadataFor(blob)
	if err := s.backend.Set(ctx, kv.KeyMetadata, metas); err != nil {
		s.logger.Warn("metadata write failed after blob write", "id", id, "err", err)
		return id, nil
	}

	s.logger.Debug("saved asset", "id", id, "name", blob.Name, "mime_type", blob.MimeType)
	return id, nil
}

// Get returns the encoded payload for id.
func (s *Store) Get(ctx context.Context, id string) (string, bool, error) {
	blob, err := s.GetBlob(ctx, id)
	if err != nil || blob == nil {
		return "", false, err
	}
	return blob.DataURI, true, nil
}

// GetBlob returns the full blob row for id, or nil when absent.
func (s *Store) GetBlob(ctx context.Context, id string) (*models.AssetBlob, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, nil
	}
	blobs, err := s.loadBlobs(ctx)
	if err != nil {
		return nil, err
	}
	blob, ok := blobs[id]
	if !ok {
		return nil, nil
	}
	return &blob, nil
}

// Each calls fn for every stored blob, reading the blob table once. Iteration
// stops at the first error fn returns.
func (s *Store) Each(ctx context.Context, fn func(models.AssetBlob) error) error {
	blobs, err := s.loadBlobs(ctx)
	if err != nil {
		return err
	}
	for _, blob := range blobs {
		if err := fn(blob); err != nil {
			return err
		}
	}
	return nil
}

// ListMetadata returns the metadata table keyed by asset id.
func (s *Store) ListMetadata(ctx context.Context) (map[string]models.AssetMetadata, error) {
	metas, _, err := s.loadMetadata(ctx)
	return metas, err
}

// Delete removes id from both tables. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, err := s.loadBlobs(ctx)
	if err != nil {
		return err
	}
	if _, ok := blobs[id]; ok {
		delete(blobs, id)
		if err := s.backend.Set(ctx, kv.KeyBlobs, blobs); err != nil {
			return fmt.Errorf("write blob table: %w", err)
		}
	}

	metas, _, err := s.loadMetadata(ctx)
	if err != nil {
		return err
	}
	if _, ok := metas[id]; ok {
		delete(metas, id)
		if err := s.backend.Set(ctx, kv.KeyMetadata, metas); err != nil {
			return fmt.Errorf("write metadata table: %w", err)
		}
	}
	return nil
}

// Clear empties both tables.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Set(ctx, kv.KeyBlobs, map[string]models.AssetBlob{}); err != nil {
		return fmt.Errorf("clear blob table: %w", err)
	}
	if err := s.backend.Set(ctx, kv.KeyMetadata, map[string]models.AssetMetadata{}); err != nil {
		return fmt.Errorf("clear metadata table: %w", err)
	}
	s.logger.Info("cleared asset store")
	return nil
}

// StorageInfo summarizes the metadata table without reading payloads.
func (s *Store) StorageInfo(ctx context.Context) (models.StorageInfo, error) {
	metas, _, err := s.loadMetadata(ctx)
	if err != nil {
		return models.StorageInfo{}, err
	}
	info := models.StorageInfo{FileCount: len(metas)}
	for _, meta := range metas {
		info.TotalSizeBytes += meta.SizeBytes
	}
	return info, nil
}

func (s *Store) checkSize(fileName string, size int64) error {
	if limit := s.MaxFileBytes(); size > limit {
		return &SizeLimitError{Name: fileName, LimitBytes: limit, ActualBytes: size}
	}
	return nil
}

func (s *Store) loadBlobs(ctx context.Context) (map[string]models.AssetBlob, error) {
	blobs := map[string]models.AssetBlob{}
	if _, err := s.backend.Get(ctx, kv.KeyBlobs, &blobs); err != nil {
		return nil, fmt.Errorf("read blob table: %w", err)
	}
	if blobs == nil {
		blobs = map[string]models.AssetBlob{}
	}
	return blobs, nil
}

func (s *Store) loadMetadata(ctx context.Context) (map[string]models.AssetMetadata, bool, error) {
	metas := map[string]models.AssetMetadata{}
	found, err := s.backend.Get(ctx, kv.KeyMetadata, &metas)
	if err != nil {
		return nil, false, fmt.Errorf("read metadata table: %w", err)
	}
	if metas == nil {
		metas = map[string]models.AssetMetadata{}
	}
	return metas, found, nil
}

func newBlob(id string, raw []byte, fileName, mimeType string) models.AssetBlob {
	mediaType := ResolveMediaType(mimeType, fileName)
	return models.AssetBlob{
		ID:       id,
		Name:     strings.TrimSpace(fileName),
		MimeType: mediaType,
		DataURI:  EncodeDataURI(mediaType, raw),
	}
}
