package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenReadsArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model.json"), []byte(`{"k":1}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rc, err := store.Open(context.Background(), "model.json")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != `{"k":1}` {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestOpenRejectsEscapingKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "../secret", "/etc/passwd", ".."} {
		if _, err := store.Open(context.Background(), key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestNewRequiresExistingDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
