package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test backend: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, path
}

func TestSQLiteGetSetRoundTrip(t *testing.T) {
	st, _ := testSQLite(t)
	ctx := context.Background()

	var missing map[string]string
	found, err := st.Get(ctx, "absent", &missing)
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if found {
		t.Fatal("expected absent key")
	}

	if err := st.Set(ctx, KeyBlobs, map[string]string{"a": "1"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Set(ctx, KeyBlobs, map[string]string{"b": "2"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got := map[string]string{}
	found, err = st.Get(ctx, KeyBlobs, &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected key to be present")
	}
	if len(got) != 1 || got["b"] != "2" {
		t.Fatalf("expected overwritten value, got %v", got)
	}

	keys, err := st.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != KeyBlobs {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := st.Delete(ctx, KeyBlobs); err != nil {
		t.Fatalf("delete: %v", err)
	}
	found, err = st.Get(ctx, KeyBlobs, &got)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if found {
		t.Fatal("expected key to be gone")
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, KeySchemaVersion, 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	var version int
	found, err := second.Get(ctx, KeySchemaVersion, &version)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || version != 2 {
		t.Fatalf("expected version 2, got found=%v version=%d", found, version)
	}
}

func TestOpenRejectsSecondWriter(t *testing.T) {
	_, path := testSQLite(t)

	_, err := Open(path)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []int{1, 2}); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got []int
	found, err := m.Get(ctx, "k", &got)
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if len(got) != 2 || got[1] != 2 {
		t.Fatalf("unexpected value %v", got)
	}
	if !m.Has("k") || m.Has("other") {
		t.Fatal("unexpected Has result")
	}
}
