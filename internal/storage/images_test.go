package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T, maxSize int64) *ImageStore {
	t.Helper()
	store, err := NewImageStore(t.TempDir(), maxSize, zap.NewNop())
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}
	return store
}

func TestStoreAndRead(t *testing.T) {
	store := newTestStore(t, 1024)
	content := []byte("fake jpeg content")

	name, err := store.Store("receipt.jpg", "image/jpeg", int64(len(content)), bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("stored name = %q, want .jpg suffix", name)
	}

	data, mimeType, err := store.Read(name)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("read content differs from stored content")
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mime type = %q, want image/jpeg", mimeType)
	}
}

func TestStoreRejectsUnsupportedType(t *testing.T) {
	store := newTestStore(t, 1024)

	_, err := store.Store("doc.pdf", "application/pdf", 10, bytes.NewReader([]byte("0123456789")))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestStoreRejectsOversizedFile(t *testing.T) {
	store := newTestStore(t, 16)

	_, err := store.Store("big.png", "image/png", 100, bytes.NewReader(make([]byte, 100)))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestStoreRejectsUnderdeclaredSize(t *testing.T) {
	// Declared size fits but the actual stream does not.
	store := newTestStore(t, 16)

	_, err := store.Store("sneaky.png", "image/png", 10, bytes.NewReader(make([]byte, 100)))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestStoreCollisionAppendsSuffix(t *testing.T) {
	store := newTestStore(t, 1024)

	first, err := store.Store("receipt.jpg", "image/jpeg", 4, bytes.NewReader([]byte("aaaa")))
	if err != nil {
		t.Fatalf("first Store: %v", err)
	}
	second, err := store.Store("receipt.jpg", "image/jpeg", 4, bytes.NewReader([]byte("bbbb")))
	if err != nil {
		t.Fatalf("second Store: %v", err)
	}

	if first == second {
		t.Fatalf("second upload reused name %q", first)
	}
	if second != "receipt-1.jpg" {
		t.Errorf("second name = %q, want receipt-1.jpg", second)
	}
}

func TestStoreSanitizesFilename(t *testing.T) {
	store := newTestStore(t, 1024)

	name, err := store.Store("../../etc/passwd weird$name.jpg", "image/jpeg", 4, bytes.NewReader([]byte("aaaa")))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if strings.ContainsAny(name, "/\\$ ") {
		t.Errorf("stored name %q contains unsafe characters", name)
	}
}

func TestReadRejectsPathTraversal(t *testing.T) {
	store := newTestStore(t, 1024)

	// A file outside the root that the store must never hand out.
	outside := filepath.Join(filepath.Dir(store.root), "secret.jpg")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	for _, name := range []string{
		"../secret.jpg",
		"../../etc/passwd",
		"/etc/passwd",
		"sub/dir.jpg",
	} {
		_, _, err := store.Read(name)
		if !errors.Is(err, ErrPathOutsideRoot) {
			t.Errorf("Read(%q) = %v, want ErrPathOutsideRoot", name, err)
		}
	}
}
