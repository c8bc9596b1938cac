package filesystemStore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"article-board/storage"
)

func TestFilesystemStore(t *testing.T) {
	t.Parallel()

	t.Run("stage materializes the upload under the root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		store, err := New(root, "/uploads", 1<<20)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		content := []byte("media bytes")
		staged, err := store.Stage(context.Background(), "cat.png", bytes.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to stage media: %v", err)
		}

		if got := staged.Path(); got != "/uploads/article_cat.png" {
			t.Errorf("Expected public path /uploads/article_cat.png, got %q", got)
		}

		onDisk, err := os.ReadFile(filepath.Join(root, "article_cat.png"))
		if err != nil {
			t.Fatalf("Staged file missing on disk: %v", err)
		}
		if !bytes.Equal(onDisk, content) {
			t.Errorf("Content mismatch. Expected: %q, Got: %q", content, onDisk)
		}

		if err := staged.Commit(); err != nil {
			t.Fatalf("Failed to commit staged media: %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "article_cat.png")); err != nil {
			t.Errorf("Committed file should survive: %v", err)
		}
	})

	t.Run("discard removes the staged file", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		store, err := New(root, "/uploads", 1<<20)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		staged, err := store.Stage(context.Background(), "doomed.jpg", bytes.NewReader([]byte("x")))
		if err != nil {
			t.Fatalf("Failed to stage media: %v", err)
		}

		if err := staged.Discard(); err != nil {
			t.Fatalf("Failed to discard staged media: %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "article_doomed.jpg")); !os.IsNotExist(err) {
			t.Errorf("Discarded file should be gone, stat returned: %v", err)
		}

		// Discarding twice must not fail.
		if err := staged.Discard(); err != nil {
			t.Errorf("Second discard should be a no-op, got: %v", err)
		}
	})

	t.Run("name collisions get a numbered suffix", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		store, err := New(root, "/uploads", 1<<20)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		first, err := store.Stage(context.Background(), "same.gif", bytes.NewReader([]byte("one")))
		if err != nil {
			t.Fatalf("Failed to stage first media: %v", err)
		}
		second, err := store.Stage(context.Background(), "same.gif", bytes.NewReader([]byte("two")))
		if err != nil {
			t.Fatalf("Failed to stage second media: %v", err)
		}
		third, err := store.Stage(context.Background(), "same.gif", bytes.NewReader([]byte("three")))
		if err != nil {
			t.Fatalf("Failed to stage third media: %v", err)
		}

		if got := first.Path(); got != "/uploads/article_same.gif" {
			t.Errorf("Expected /uploads/article_same.gif, got %q", got)
		}
		if got := second.Path(); got != "/uploads/article_same_1.gif" {
			t.Errorf("Expected /uploads/article_same_1.gif, got %q", got)
		}
		if got := third.Path(); got != "/uploads/article_same_2.gif" {
			t.Errorf("Expected /uploads/article_same_2.gif, got %q", got)
		}

		onDisk, err := os.ReadFile(filepath.Join(root, "article_same.gif"))
		if err != nil {
			t.Fatalf("First file missing: %v", err)
		}
		if string(onDisk) != "one" {
			t.Errorf("Earlier upload was overwritten, got %q", onDisk)
		}
	})

	t.Run("hostile filename stays confined to the root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		store, err := New(root, "/uploads", 1<<20)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		staged, err := store.Stage(
			context.Background(),
			"../../escape.png",
			bytes.NewReader([]byte("payload")),
		)
		if err != nil {
			t.Fatalf("Failed to stage media: %v", err)
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatalf("Failed to list root: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected exactly one file in root, got %d", len(entries))
		}
		if entries[0].Name() != "article_....escape.png" {
			t.Errorf("Unexpected stored name %q", entries[0].Name())
		}
		if _, err := os.Stat(filepath.Join(root, "..", "escape.png")); !os.IsNotExist(err) {
			t.Errorf("File escaped the upload root: %v", err)
		}

		_ = staged.Discard()
	})

	t.Run("oversized upload fails and leaves nothing behind", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		store, err := New(root, "/uploads", 16)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		big := bytes.Repeat([]byte("z"), 64)
		_, err = store.Stage(context.Background(), "huge.mp4", bytes.NewReader(big))
		if !errors.Is(err, storage.ErrTooLarge) {
			t.Fatalf("Expected ErrTooLarge, got: %v", err)
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatalf("Failed to list root: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected no files after failed stage, got %d", len(entries))
		}
	})
}
