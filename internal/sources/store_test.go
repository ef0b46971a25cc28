package sources

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/audionode/internal/source"
)

// setupTestStore creates a store backed by a temporary file.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test_sources.toml")

	return NewStore(testFile), testFile
}

func TestNewStore(t *testing.T) {
	st := NewStore("")
	if st.configPath != "sources.toml" {
		t.Errorf("expected default path 'sources.toml', got %s", st.configPath)
	}

	st = NewStore("/custom/path.toml")
	if st.configPath != "/custom/path.toml" {
		t.Errorf("expected custom path '/custom/path.toml', got %s", st.configPath)
	}

	if st.config == nil {
		t.Error("config should be initialized")
	}
	if st.config.Version != 1 {
		t.Errorf("expected version 1, got %d", st.config.Version)
	}
	if st.config.Sources == nil {
		t.Error("sources map should be initialized")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	st, _ := setupTestStore(t)

	err := st.Load()
	if err != nil {
		t.Errorf("Load should not error on non-existent file, got: %v", err)
	}

	if len(st.All()) != 0 {
		t.Errorf("expected empty sources map, got %d sources", len(st.All()))
	}
}

func TestSaveAndLoad(t *testing.T) {
	st, testFile := setupTestStore(t)

	cfg := SourceConfig{
		Name:        "studio-mic",
		Driver:      "alsa_capture",
		Settings:    source.Settings{Device: "hw:1,0", ForceMono: true},
		Destination: "239.1.1.5:5004",
		Autostart:   true,
	}
	if err := st.Add(cfg); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, statErr := os.Stat(testFile); os.IsNotExist(statErr) {
		t.Error("Config file was not created")
	}

	st2 := NewStore(testFile)
	if err := st2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(st2.All()) != 1 {
		t.Errorf("expected 1 source, got %d", len(st2.All()))
	}

	loaded, exists := st2.Get("studio-mic")
	if !exists {
		t.Fatal("studio-mic not found after load")
	}

	if loaded.Driver != cfg.Driver {
		t.Errorf("expected driver %s, got %s", cfg.Driver, loaded.Driver)
	}
	if loaded.Settings.Device != cfg.Settings.Device {
		t.Errorf("expected device %s, got %s", cfg.Settings.Device, loaded.Settings.Device)
	}
	if !loaded.Settings.ForceMono {
		t.Error("force_mono was not persisted")
	}
	if loaded.Destination != cfg.Destination {
		t.Errorf("expected destination %s, got %s", cfg.Destination, loaded.Destination)
	}
	if !loaded.Autostart {
		t.Error("autostart was not persisted")
	}
	if loaded.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on Add")
	}
}

func TestAddValidation(t *testing.T) {
	st, _ := setupTestStore(t)

	tests := []struct {
		name string
		cfg  SourceConfig
	}{
		{"empty name", SourceConfig{Driver: "alsa_capture"}},
		{"empty driver", SourceConfig{Name: "mic"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := st.Add(tt.cfg); err == nil {
				t.Error("Add should reject invalid config")
			}
		})
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	st, _ := setupTestStore(t)

	original := SourceConfig{
		Name:     "update-test",
		Driver:   "alsa_capture",
		Settings: source.Settings{Device: "hw:0,0"},
	}
	if err := st.Add(original); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	stored, _ := st.Get("update-test")

	updated := stored
	updated.Name = "renamed"
	updated.Settings.Device = "hw:2,0"
	if err := st.Update("update-test", updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	after, exists := st.Get("update-test")
	if !exists {
		t.Fatal("source disappeared after update")
	}
	if after.Name != "update-test" {
		t.Errorf("Update must not rename, got %s", after.Name)
	}
	if after.Settings.Device != "hw:2,0" {
		t.Errorf("expected device hw:2,0, got %s", after.Settings.Device)
	}
	if !after.CreatedAt.Equal(stored.CreatedAt) {
		t.Error("Update must preserve CreatedAt")
	}

	if err := st.Update("missing", updated); err == nil {
		t.Error("Update should fail for unknown source")
	}
}

func TestRemove(t *testing.T) {
	st, _ := setupTestStore(t)

	cfg := SourceConfig{Name: "remove-test", Driver: "alsa_capture"}
	if err := st.Add(cfg); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := st.Remove("remove-test"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, exists := st.Get("remove-test"); exists {
		t.Error("source still exists after removal")
	}

	st2 := NewStore(st.Path())
	if err := st2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, exists := st2.Get("remove-test"); exists {
		t.Error("removal was not persisted")
	}

	if err := st.Remove("missing"); err == nil {
		t.Error("Remove should fail for unknown source")
	}
}

func TestReplace(t *testing.T) {
	st, _ := setupTestStore(t)

	if err := st.Add(SourceConfig{Name: "old", Driver: "alsa_capture"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	st.Replace(map[string]SourceConfig{
		"new": {Name: "new", Driver: "alsa_capture"},
	})

	if _, exists := st.Get("old"); exists {
		t.Error("Replace should drop previous entries")
	}
	if _, exists := st.Get("new"); !exists {
		t.Error("Replace should install new entries")
	}

	st.Replace(nil)
	if len(st.All()) != 0 {
		t.Error("Replace(nil) should leave an empty map")
	}
}

func TestLoadFile(t *testing.T) {
	st, testFile := setupTestStore(t)

	if err := st.Add(SourceConfig{Name: "mic", Driver: "alsa_capture"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	cfgs, err := LoadFile(testFile)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if _, exists := cfgs["mic"]; !exists {
		t.Error("mic not found in loaded file")
	}

	cfgs, err = LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFile should not error on missing file, got: %v", err)
	}
	if len(cfgs) != 0 {
		t.Errorf("expected empty map for missing file, got %d entries", len(cfgs))
	}
}

func TestLoadHandlesPartialFile(t *testing.T) {
	st, testFile := setupTestStore(t)

	content := `version = 1
`
	if err := os.WriteFile(testFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if err := st.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if st.All() == nil {
		t.Error("Load should initialize a nil sources map")
	}

	content = `[sources]
`
	if err := os.WriteFile(testFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	st2 := NewStore(testFile)
	if err := st2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if st2.config.Version != 1 {
		t.Errorf("Load should set default version 1, got %d", st2.config.Version)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	st, testFile := setupTestStore(t)

	if err := os.WriteFile(testFile, []byte(`this is not valid toml [[[`), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	err := st.Load()
	if err == nil {
		t.Error("Load should fail with invalid TOML")
	}
	if err != nil && !strings.Contains(err.Error(), "parse") {
		t.Errorf("expected parse error, got: %v", err)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	nestedPath := filepath.Join(tmpDir, "subdir", "nested", "sources.toml")

	st := NewStore(nestedPath)
	if err := st.Add(SourceConfig{Name: "mic", Driver: "alsa_capture"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, statErr := os.Stat(nestedPath); os.IsNotExist(statErr) {
		t.Error("Save should create nested directories")
	}
}

func TestTimestampsSurviveReload(t *testing.T) {
	st, testFile := setupTestStore(t)

	now := time.Now()
	cfg := SourceConfig{
		Name:      "timestamp-test",
		Driver:    "alsa_capture",
		CreatedAt: now,
	}
	if err := st.Add(cfg); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	st2 := NewStore(testFile)
	if err := st2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	loaded, exists := st2.Get("timestamp-test")
	if !exists {
		t.Fatal("source not found")
	}
	if loaded.CreatedAt.Sub(now).Abs() > time.Second {
		t.Error("CreatedAt not preserved correctly")
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set on Add")
	}
}
