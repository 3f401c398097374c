package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, "emergency_qr.png")

	if err := s.Write([]byte("first")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, []byte("first")) {
		t.Errorf("got %q, want %q", got, "first")
	}
}

func TestStore_Overwrites(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, "emergency_qr.png")

	if err := s.Write([]byte("old artifact with extra length")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write([]byte("new")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("expected full overwrite, got %q", got)
	}
}

func TestStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	s := NewStore(dir, "emergency_qr.png")

	if err := s.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, "emergency_qr.png")

	if err := s.Write([]byte("payload")); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly the artifact file, found %d entries", len(entries))
	}
}
