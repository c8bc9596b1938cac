package board

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"unicode/utf8"

	"article-board/storage"
)

// partSink consumes one file part's chunk stream together with the client
// filename it was declared with.
type partSink func(filename string, r io.Reader) error

// walkForm consumes a multipart body part by part. Parts whose field name
// has an entry in text are accumulated into that entry; parts named
// fileField are handed to sink; anything else is drained and ignored. The
// walk is strictly sequential: each part is fully consumed before the next
// one is opened, and nothing is ever buffered beyond one text field.
//
// A structural error in the outer stream aborts the walk with
// ErrMalformedStream.
func walkForm(
	mr *multipart.Reader,
	text map[string]*string,
	fileField string,
	maxTextBytes int64,
	sink partSink,
) error {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedStream, err)
		}

		name := part.FormName()
		switch {
		case text[name] != nil:
			value, err := readTextField(part, maxTextBytes)
			if err != nil {
				return err
			}
			*text[name] = value
		case name == fileField:
			// A file input left empty submits a part with no filename.
			filename := part.FileName()
			if filename == "" {
				if err := drain(part); err != nil {
					return err
				}

				continue
			}
			if err := sink(filename, part); err != nil {
				return err
			}
		default:
			if err := drain(part); err != nil {
				return err
			}
		}
	}
}

// readTextField accumulates one text part. Invalid UTF-8 degrades to the
// empty string rather than failing the request.
func readTextField(r io.Reader, maxBytes int64) (string, error) {
	raw, err := io.ReadAll(storage.Capped(r, maxBytes))
	if errors.Is(err, storage.ErrTooLarge) {
		return "", errValidation("Field is too large", err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedStream, err)
	}

	if !utf8.Valid(raw) {
		return "", nil
	}

	return string(raw), nil
}

func drain(r io.Reader) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedStream, err)
	}

	return nil
}
