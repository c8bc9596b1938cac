package memoryStore

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"article-board/storage"
)

// Store implements media storage in memory. Used only for testing.
type Store struct {
	mu           sync.RWMutex
	media        map[string][]byte
	publicPrefix string
	maxBytes     int64
}

// New creates a new memory-based media store
func New(publicPrefix string, maxBytes int64) *Store {
	return &Store{
		media:        make(map[string][]byte),
		publicPrefix: publicPrefix,
		maxBytes:     maxBytes,
	}
}

// Stage buffers the upload in memory under a sanitized name, suffixing on
// collision like the filesystem backend.
func (s *Store) Stage(
	_ context.Context,
	filename string,
	r io.Reader,
) (storage.Staged, error) {
	content, err := io.ReadAll(storage.Capped(r, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read media stream: %w", err)
	}

	base := storage.MediaPrefix + storage.SafeName(filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	s.mu.Lock()
	defer s.mu.Unlock()

	name := base
	for i := 1; ; i++ {
		if _, exists := s.media[name]; !exists {
			break
		}
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	s.media[name] = content

	return &stagedEntry{store: s, name: name}, nil
}

// Get returns the stored content for a public path (useful for testing)
func (s *Store) Get(publicPath string) ([]byte, bool) {
	name := strings.TrimPrefix(strings.TrimPrefix(publicPath, s.publicPrefix), "/")

	s.mu.RLock()
	content, exists := s.media[name]
	s.mu.RUnlock()
	if !exists {
		return nil, false
	}

	// Return a copy to prevent external modifications
	result := make([]byte, len(content))
	copy(result, content)

	return result, true
}

// Count returns the number of stored media files (useful for testing)
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.media)
}

// Clear removes all media from memory (useful for testing)
func (s *Store) Clear() {
	s.mu.Lock()
	s.media = make(map[string][]byte)
	s.mu.Unlock()
}

type stagedEntry struct {
	store *Store
	name  string
}

func (m *stagedEntry) Path() string {
	return path.Join(m.store.publicPrefix, m.name)
}

func (m *stagedEntry) Commit() error {
	return nil
}

func (m *stagedEntry) Discard() error {
	m.store.mu.Lock()
	delete(m.store.media, m.name)
	m.store.mu.Unlock()

	return nil
}
