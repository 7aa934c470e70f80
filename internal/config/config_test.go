package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RoomsSortOrder != SortAlphabet {
		t.Errorf("expected sort order %q, got %q", SortAlphabet, cfg.RoomsSortOrder)
	}
	if cfg.Rooms == nil {
		t.Error("expected rooms map to be initialized")
	}
	if cfg.Ephemeral || cfg.Offline {
		t.Error("expected ephemeral and offline to default to false")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.RoomsSortOrder != SortAlphabet {
		t.Errorf("expected default config, got sort order %q", cfg.RoomsSortOrder)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
data_dir: ~/chat/grove
ephemeral: true
offline: true
rooms_sort_order: importance

rooms:
  welcome:
    autojoin: true
    username: treebeard
    force_username: true
  private:
    password: hunter2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Ephemeral || !cfg.Offline {
		t.Error("expected ephemeral and offline to be set")
	}
	if cfg.RoomsSortOrder != SortImportance {
		t.Errorf("expected sort order %q, got %q", SortImportance, cfg.RoomsSortOrder)
	}

	home, _ := os.UserHomeDir()
	wantDir := filepath.Join(home, "chat/grove")
	if cfg.DataDir != wantDir {
		t.Errorf("expected expanded data_dir %q, got %q", wantDir, cfg.DataDir)
	}

	welcome := cfg.Room("welcome")
	if !welcome.AutoJoin || welcome.Username != "treebeard" || !welcome.ForceUsername {
		t.Errorf("unexpected welcome room settings: %+v", welcome)
	}
	if cfg.Room("private").Password != "hunter2" {
		t.Error("expected private room password to load")
	}
	if cfg.Room("missing") != (Room{}) {
		t.Error("expected zero value for unknown room")
	}
}

func TestLoadFrom_UnknownSortOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("rooms_sort_order: chaos\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RoomsSortOrder != SortAlphabet {
		t.Errorf("expected fallback to %q, got %q", SortAlphabet, cfg.RoomsSortOrder)
	}
}

func TestLoadFrom_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("rooms: [not, a, map\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Offline = true
	cfg.Rooms["welcome"] = Room{AutoJoin: true, Username: "ent"}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if !loaded.Offline {
		t.Error("expected offline flag to survive round trip")
	}
	if loaded.Room("welcome").Username != "ent" {
		t.Error("expected room settings to survive round trip")
	}
}

func TestAutoJoinRooms(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rooms["a"] = Room{AutoJoin: true}
	cfg.Rooms["b"] = Room{}
	cfg.Rooms["c"] = Room{AutoJoin: true}

	names := cfg.AutoJoinRooms()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Errorf("expected [a c], got %v", names)
	}
}

func TestVaultPath_UsesDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/grove-test"
	if got := cfg.VaultPath(); got != "/tmp/grove-test/vault.db" {
		t.Errorf("unexpected vault path %q", got)
	}
}
