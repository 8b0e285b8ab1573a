// Package archive keeps raw audio bytes in a local content-addressed tree so
// custom sounds can travel alongside an override export.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"soundvault/internal/assets"
	"soundvault/internal/models"
)

const (
	algorithmDir = "sha256"
	manifestName = "manifest.json"
)

// Archive stores blob bytes under root/sha256/ab/cd/<digest>.
type Archive struct {
	root string
}

// Open creates the archive tree at root if needed.
func Open(root string) (*Archive, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, err
	}
	return &Archive{root: abs}, nil
}

// Root returns the absolute archive directory.
func (a *Archive) Root() string {
	return a.root
}

// Put streams r into the archive and returns its digest, which matches the
// asset id of the same bytes.
func (a *Archive) Put(ctx context.Context, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(filepath.Join(a.root, "tmp"), "put-*")
	if err != nil {
		return "", 0, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		cleanup()
		return "", 0, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", 0, err
	}

	digest := hex.EncodeToString(h.Sum(nil))
	dst := a.pathFor(digest)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()
		return "", 0, err
	}
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(tmpPath)
		return digest, n, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		cleanup()
		return "", 0, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)
			return digest, n, nil
		}
		cleanup()
		return "", 0, err
	}
	return digest, n, nil
}

// Open returns a reader over the bytes stored for id.
func (a *Archive) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !assets.IsDigest(id) {
		return nil, fmt.Errorf("invalid archive id %q", id)
	}
	f, err := os.Open(a.pathFor(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("archive %s: %w", id, assets.ErrNotFound)
	}
	return f, err
}

// Has reports whether bytes for id are present.
func (a *Archive) Has(id string) bool {
	if !assets.IsDigest(id) {
		return false
	}
	_, err := os.Stat(a.pathFor(id))
	return err == nil
}

// ReadManifest returns the archived asset descriptions. A missing manifest is
// an empty archive.
func (a *Archive) ReadManifest() ([]models.AssetMetadata, error) {
	data, err := os.ReadFile(filepath.Join(a.root, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []models.AssetMetadata
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse archive manifest: %w", err)
	}
	return entries, nil
}

// WriteManifest replaces the manifest with entries, ordered by id.
func (a *Archive) WriteManifest(entries []models.AssetMetadata) error {
	sorted := append([]models.AssetMetadata(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Join(a.root, "tmp"), "manifest-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, filepath.Join(a.root, manifestName))
}

func (a *Archive) pathFor(digest string) string {
	return filepath.Join(a.root, algorithmDir, digest[0:2], digest[2:4], digest)
}
