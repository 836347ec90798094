package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempTOML(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	dir := t.TempDir()
	defaultPath := writeTempTOML(t, dir, "default.toml", `
[server]
port = 9090

[rpc]
base_url = "http://node.example:10332"
`)

	cfg, err := Load(defaultPath, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.RPC.BaseURL != "http://node.example:10332" {
		t.Errorf("RPC.BaseURL = %q", cfg.RPC.BaseURL)
	}
	if cfg.Indexer.BatchSize != 25 {
		t.Errorf("Indexer.BatchSize = %d, want default 25", cfg.Indexer.BatchSize)
	}
}

func TestLoad_LocalOverride(t *testing.T) {
	dir := t.TempDir()
	defaultPath := writeTempTOML(t, dir, "default.toml", `
[server]
port = 9090

[rpc]
base_url = "http://node.example:10332"
`)
	localPath := writeTempTOML(t, dir, "local.toml", `
[server]
port = 9191
`)

	cfg, err := Load(defaultPath, localPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want overridden 9191", cfg.Server.Port)
	}
	if cfg.RPC.BaseURL != "http://node.example:10332" {
		t.Errorf("RPC.BaseURL should survive unmentioned in local override, got %q", cfg.RPC.BaseURL)
	}
}

func TestLoad_MissingLocalIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	defaultPath := writeTempTOML(t, dir, "default.toml", `
[rpc]
base_url = "http://node.example:10332"
`)

	if _, err := Load(defaultPath, filepath.Join(dir, "does-not-exist.toml")); err != nil {
		t.Fatalf("Load should tolerate missing local override, got: %v", err)
	}
}
