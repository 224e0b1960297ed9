package defaults

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataDirOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TWOTRUTHS_DATA_DIR", tmpDir)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir failed: %v", err)
	}
	if dir != tmpDir {
		t.Errorf("Expected %s, got %s", tmpDir, dir)
	}
}

func TestEnsureConfigSeedsFirstRun(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TWOTRUTHS_DATA_DIR", filepath.Join(tmpDir, "nested"))

	content := []byte("server:\n  port: 3002\n")
	path, err := EnsureConfig(content)
	if err != nil {
		t.Fatalf("EnsureConfig failed: %v", err)
	}

	if filepath.Base(path) != ConfigFile {
		t.Errorf("Expected config file named %s, got %s", ConfigFile, path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file was not written: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Seeded content mismatch: %q", got)
	}
}

func TestEnsureConfigPreservesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TWOTRUTHS_DATA_DIR", tmpDir)

	edited := []byte("server:\n  port: 9999\n")
	path := filepath.Join(tmpDir, ConfigFile)
	if err := os.WriteFile(path, edited, 0644); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	got, err := EnsureConfig([]byte("server:\n  port: 3002\n"))
	if err != nil {
		t.Fatalf("EnsureConfig failed: %v", err)
	}
	if got != path {
		t.Errorf("Expected path %s, got %s", path, got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(data) != string(edited) {
		t.Error("EnsureConfig overwrote an existing config file")
	}
}
