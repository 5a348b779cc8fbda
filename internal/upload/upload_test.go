package upload

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"reconciled/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.UploadsDir = t.TempDir()
	return cfg
}

func TestStoreWritesFileWithRandomPrefix(t *testing.T) {
	cfg := testConfig(t)
	content := base64.StdEncoding.EncodeToString([]byte("tx_id,amount\nA1,100\n"))

	path, storedName, err := Store(cfg, "orders.csv", content, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != cfg.UploadsDir {
		t.Errorf("got dir %q, want %q", filepath.Dir(path), cfg.UploadsDir)
	}
	if storedName == "orders.csv" {
		t.Error("stored name should carry a random prefix, not equal the original name")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if string(data) != "tx_id,amount\nA1,100\n" {
		t.Errorf("got %q", data)
	}
}

func TestStoreDatePartitioned(t *testing.T) {
	cfg := testConfig(t)
	content := base64.StdEncoding.EncodeToString([]byte("data"))

	path, _, err := Store(cfg, "ledger.csv", content, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rel, err := filepath.Rel(cfg.UploadsDir, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(filepath.Dir(filepath.Dir(filepath.Dir(rel)))) != "." {
		t.Errorf("expected a year/month/day partition, got %q", rel)
	}
}

func TestStoreRejectsDisallowedExtension(t *testing.T) {
	cfg := testConfig(t)
	content := base64.StdEncoding.EncodeToString([]byte("data"))
	if _, _, err := Store(cfg, "script.exe", content, false); err == nil {
		t.Error("expected an error for a disallowed extension")
	}
}

func TestStoreRejectsInvalidBase64(t *testing.T) {
	cfg := testConfig(t)
	if _, _, err := Store(cfg, "orders.csv", "not base64!!", false); err == nil {
		t.Error("expected an error for invalid base64 content")
	}
}

func TestStoreRejectsOversizedContent(t *testing.T) {
	cfg := testConfig(t)
	cfg.UploadMaxBytes = 4
	content := base64.StdEncoding.EncodeToString([]byte("too large"))
	if _, _, err := Store(cfg, "orders.csv", content, false); err == nil {
		t.Error("expected an error for content exceeding the byte limit")
	}
}

func TestSanitizeBasenameStripsUnsafeCharacters(t *testing.T) {
	got := sanitizeBasename("../../etc/passwd")
	if got == "../../etc/passwd" {
		t.Error("path separators should have been stripped")
	}
}
