package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"soundvault/internal/assets"
	"soundvault/internal/config"
)

// runCLI executes the root command against an isolated database and returns
// what it wrote to stdout.
func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	cmd := newRootCmd(cfg)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func testCLIConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SOUNDVAULT_CONFIG_DIR", dir)
	t.Setenv("SOUNDVAULT_LOG_LEVEL", "")
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "cli.db")
	return &cfg
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCLIAssetsAddListAndOverride(t *testing.T) {
	cfg := testCLIConfig(t)
	audio := writeTempFile(t, "ding.mp3", "ding-bytes")
	id := assets.Digest([]byte("ding-bytes"))

	out, err := runCLI(t, cfg, "assets", "add", audio, "--json")
	if err != nil {
		t.Fatalf("assets add: %v", err)
	}
	var added []uploadLine
	if err := json.Unmarshal([]byte(out), &added); err != nil {
		t.Fatalf("decode add output %q: %v", out, err)
	}
	if len(added) != 1 || added[0].ID != id {
		t.Fatalf("unexpected add output: %+v", added)
	}

	out, err = runCLI(t, cfg, "assets", "list")
	if err != nil {
		t.Fatalf("assets list: %v", err)
	}
	if !strings.Contains(out, "ding.mp3") || !strings.Contains(out, "audio/mpeg") {
		t.Fatalf("unexpected list output: %q", out)
	}

	if _, err := runCLI(t, cfg, "override", "set", "user_join", "--file", id, "--volume", "40"); err != nil {
		t.Fatalf("override set: %v", err)
	}
	out, err = runCLI(t, cfg, "override", "resolve", "user_join", "--json")
	if err != nil {
		t.Fatalf("override resolve: %v", err)
	}
	var res struct {
		Override bool   `json:"override"`
		URI      string `json:"uri"`
		Volume   int    `json:"volume"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode resolve output %q: %v", out, err)
	}
	if !res.Override || !strings.HasPrefix(res.URI, "data:audio/mpeg;base64,") || res.Volume != 40 {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	if _, err := runCLI(t, cfg, "assets", "rm", id); err != nil {
		t.Fatalf("assets rm: %v", err)
	}
	out, err = runCLI(t, cfg, "override", "resolve", "user_join")
	if err != nil {
		t.Fatalf("override resolve after rm: %v", err)
	}
	if !strings.Contains(out, "default sound") {
		t.Fatalf("expected default after delete, got %q", out)
	}
}

func TestCLIAssetsAddRejectsUnsupportedExtension(t *testing.T) {
	cfg := testCLIConfig(t)
	path := writeTempFile(t, "notes.txt", "hello")
	if _, err := runCLI(t, cfg, "assets", "add", path); err == nil {
		t.Fatal("expected failure for unsupported extension")
	}
}

func TestCLIAssetsGetWritesRawBytes(t *testing.T) {
	cfg := testCLIConfig(t)
	audio := writeTempFile(t, "ring.wav", "ring-bytes")
	if _, err := runCLI(t, cfg, "assets", "add", audio); err != nil {
		t.Fatalf("assets add: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "ring-copy.wav")
	if _, err := runCLI(t, cfg, "assets", "get", assets.Digest([]byte("ring-bytes")), "--out", outPath); err != nil {
		t.Fatalf("assets get: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "ring-bytes" {
		t.Fatalf("unexpected bytes %q", got)
	}
}

func TestCLIMigrateInspectYAML(t *testing.T) {
	cfg := testCLIConfig(t)
	if _, err := runCLI(t, cfg, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	out, err := runCLI(t, cfg, "migrate", "--inspect", "--format", "yaml")
	if err != nil {
		t.Fatalf("migrate --inspect: %v", err)
	}
	if !strings.Contains(out, "current_version: 1") {
		t.Fatalf("unexpected inspect output: %q", out)
	}
}

func TestCLIOverrideExportImport(t *testing.T) {
	cfg := testCLIConfig(t)
	if _, err := runCLI(t, cfg, "override", "set", "message", "--sound", "winter", "--volume", "70"); err != nil {
		t.Fatalf("override set: %v", err)
	}
	exportPath := filepath.Join(t.TempDir(), "overrides.json")
	if _, err := runCLI(t, cfg, "override", "export", "-o", exportPath); err != nil {
		t.Fatalf("export: %v", err)
	}

	other := testCLIConfig(t)
	out, err := runCLI(t, other, "override", "import", "-i", exportPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported 1 override") {
		t.Fatalf("unexpected import output: %q", out)
	}

	if _, err := runCLI(t, other, "override", "reset-seasonal"); err != nil {
		t.Fatalf("reset-seasonal: %v", err)
	}
	out, err = runCLI(t, other, "override", "show", "message")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "message\tdefault") {
		t.Fatalf("expected default after reset, got %q", out)
	}
}

func TestCLIConfigGetAndSet(t *testing.T) {
	cfg := testCLIConfig(t)

	out, err := runCLI(t, cfg, "config", "get")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	for _, key := range config.AllowedKeys() {
		if !strings.Contains(out, key) {
			t.Fatalf("expected %s in listing, got %q", key, out)
		}
	}

	out, err = runCLI(t, cfg, "config", "get", "assets.max_file_size_mb")
	if err != nil {
		t.Fatalf("config get key: %v", err)
	}
	if strings.TrimSpace(out) != "15" {
		t.Fatalf("expected default 15, got %q", out)
	}

	if _, err := runCLI(t, cfg, "config", "get", "nope"); err == nil {
		t.Fatal("expected unknown key error")
	}
	if _, err := runCLI(t, cfg, "config", "set", "assets.max_file_size_mb", "12"); err == nil {
		t.Fatal("expected invalid size error")
	}
	if _, err := runCLI(t, cfg, "config", "set", "assets.max_file_size_mb", "25"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	path, err := config.Path()
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	loaded, err := config.LoadPath(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if loaded.Assets.MaxFileSizeMB != 25 {
		t.Fatalf("expected 25 written, got %d", loaded.Assets.MaxFileSizeMB)
	}
}

func TestCLIMissingArgumentNamesIt(t *testing.T) {
	cfg := testCLIConfig(t)
	_, err := runCLI(t, cfg, "override", "resolve")
	if err == nil || !strings.Contains(err.Error(), "an event id required") {
		t.Fatalf("expected missing event id error, got %v", err)
	}
}
