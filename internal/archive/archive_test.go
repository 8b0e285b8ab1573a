package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"soundvault/internal/assets"
	"soundvault/internal/models"
)

func TestArchivePutOpen(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	ctx := context.Background()

	first, n, err := a.Put(ctx, bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("put first: %v", err)
	}
	if first != assets.Digest([]byte("hello")) || n != 5 {
		t.Fatalf("unexpected put result: %s %d", first, n)
	}

	second, _, err := a.Put(ctx, bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("put second: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical digests: %s vs %s", first, second)
	}
	if !a.Has(first) {
		t.Fatal("expected Has to report stored digest")
	}

	rc, err := a.Open(ctx, first)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", string(data))
	}
}

func TestArchiveOpenRejectsBadIDs(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if _, err := a.Open(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatal("expected invalid id error")
	}
	missing := assets.Digest([]byte("absent"))
	if _, err := a.Open(context.Background(), missing); !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if a.Has("nope") {
		t.Fatal("expected Has false for malformed id")
	}
}

func TestArchiveManifest(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	entries, err := a.ReadManifest()
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty manifest, got %v err=%v", entries, err)
	}

	in := []models.AssetMetadata{
		{ID: "bb", Name: "b.mp3", MimeType: "audio/mpeg", SizeBytes: 10},
		{ID: "aa", Name: "a.wav", MimeType: "audio/wav", SizeBytes: 20},
	}
	if err := a.WriteManifest(in); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	out, err := a.ReadManifest()
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(out) != 2 || out[0].ID != "aa" || out[1].Name != "b.mp3" {
		t.Fatalf("unexpected manifest: %+v", out)
	}
}
