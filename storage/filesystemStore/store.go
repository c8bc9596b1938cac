package filesystemStore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"article-board/storage"

	"github.com/rs/zerolog/log"
)

// Store implements media storage on a local upload root.
type Store struct {
	root         string
	publicPrefix string
	maxBytes     int64
}

// New creates a filesystem-backed media store rooted at root. Public paths
// are built by joining publicPrefix with the stored name.
func New(root, publicPrefix string, maxBytes int64) (*Store, error) {
	//nolint:gosec,mnd // Directory permissions 0755 are intentional
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}

	return &Store{
		root:         root,
		publicPrefix: publicPrefix,
		maxBytes:     maxBytes,
	}, nil
}

// Root returns the upload root directory.
func (s *Store) Root() string {
	return s.root
}

// Stage streams the upload into a freshly reserved file under the upload
// root. The destination is opened with O_EXCL, so a name collision never
// overwrites an earlier upload; later writers get a numbered suffix. On any
// write failure the partial file is removed before the error is returned.
func (s *Store) Stage(
	_ context.Context,
	filename string,
	r io.Reader,
) (storage.Staged, error) {
	f, name, err := s.createExclusive(storage.MediaPrefix + storage.SafeName(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create media file: %w", err)
	}
	abs := filepath.Join(s.root, name)

	_, err = io.Copy(f, storage.Capped(r, s.maxBytes))
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rmErr := os.Remove(abs); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", abs).Msg("failed to remove partial media file")
		}
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to write media file: %w", err)
	}

	return &stagedFile{store: s, name: name, abs: abs}, nil
}

// createExclusive reserves a destination name, disambiguating collisions
// with a numbered suffix before the extension.
func (s *Store) createExclusive(base string) (*os.File, string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := base
	for i := 1; ; i++ {
		//nolint:gosec // name is sanitized and contains no path separators
		f, err := os.OpenFile(
			filepath.Join(s.root, name),
			os.O_WRONLY|os.O_CREATE|os.O_EXCL,
			0o644,
		)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}

type stagedFile struct {
	store *Store
	name  string
	abs   string
}

func (m *stagedFile) Path() string {
	return path.Join(m.store.publicPrefix, m.name)
}

// Commit is a no-op: the file was synced to its final path during Stage.
func (m *stagedFile) Commit() error {
	return nil
}

func (m *stagedFile) Discard() error {
	if err := os.Remove(m.abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to discard staged media: %w", err)
	}

	return nil
}
