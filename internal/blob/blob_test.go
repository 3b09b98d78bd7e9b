package blob

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.Save(strings.NewReader("poster bytes"), "Flyer.PNG")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("expected lowercased extension preserved, got %q", path)
	}
	if strings.ContainsAny(path, "/\\") {
		t.Errorf("stored path must be a bare filename, got %q", path)
	}

	rc, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "poster bytes" {
		t.Errorf("read back %q", data)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Open(path); err == nil {
		t.Error("expected Open to fail after Remove")
	}
}

func TestDiskStoreUniqueNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, err := store.Save(strings.NewReader("a"), "logo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Save(strings.NewReader("b"), "logo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two saves of the same filename must not collide")
	}
}

func TestDiskStoreTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	secret := filepath.Join(dir, "..", "secret.txt")
	if err := os.WriteFile(secret, []byte("hidden"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Open("../secret.txt"); err == nil {
		t.Error("traversal path must not escape the store directory")
	}
}

func TestDiskStoreRemoveMissing(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Remove("never-saved.png"); err != nil {
		t.Errorf("removing a missing blob should be a no-op, got %v", err)
	}
}
