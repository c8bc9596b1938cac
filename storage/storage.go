// Package storage materializes uploaded media to durable storage. A Store
// stages one media stream under a sanitized, namespaced name; the staged
// file becomes permanent on Commit and is removed again on Discard, so a
// request that fails halfway never leaves files behind.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// MediaPrefix namespaces every stored upload and keeps sanitized names away
// from reserved filenames.
const MediaPrefix = "article_"

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("upload exceeds configured size limit")

// Store interface defines the methods that any media storage implementation
// must provide
type Store interface {
	// Stage writes the stream to storage under a name derived from the
	// untrusted client filename. Memory use is bounded by one copy chunk,
	// not by file size.
	Stage(ctx context.Context, filename string, r io.Reader) (Staged, error)
}

// Staged is one materialized media file awaiting the outcome of its request.
type Staged interface {
	// Path is the public, storage-relative retrieval path.
	Path() string
	// Commit makes the file permanent.
	Commit() error
	// Discard removes the file again.
	Discard() error
}

// SafeName collapses an untrusted client filename into a single
// filesystem-safe path element. Path separators, control characters and
// characters reserved on common filesystems are dropped; trailing dots and
// spaces are trimmed. The result may be empty.
func SafeName(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		switch {
		case r < 0x20 || r == 0x7f:
		case strings.ContainsRune(`/\?<>:*|"`, r):
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimRight(b.String(), ". ")
}

// Capped returns a reader that fails with ErrTooLarge once more than max
// bytes have been read from r.
func Capped(r io.Reader, max int64) io.Reader {
	return &cappedReader{r: r, remaining: max}
}

type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, ErrTooLarge
	}

	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, ErrTooLarge
	}

	return n, err
}
