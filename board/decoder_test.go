//nolint
package board

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, build func(w *multipart.Writer)) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	build(w)
	require.NoError(t, w.Close())

	return &buf, w.Boundary()
}

func TestWalkForm(t *testing.T) {
	t.Parallel()

	t.Run("routes text and file parts", func(t *testing.T) {
		t.Parallel()

		buf, boundary := multipartBody(t, func(w *multipart.Writer) {
			fw, err := w.CreateFormField("title")
			require.NoError(t, err)
			_, err = fw.Write([]byte("Hello"))
			require.NoError(t, err)

			fw, err = w.CreateFormFile("media", "cat.png")
			require.NoError(t, err)
			_, err = fw.Write([]byte("png bytes"))
			require.NoError(t, err)

			fw, err = w.CreateFormField("body")
			require.NoError(t, err)
			_, err = fw.Write([]byte("World"))
			require.NoError(t, err)
		})

		var title, body string
		var files []string
		sink := func(filename string, r io.Reader) error {
			content, err := io.ReadAll(r)
			require.NoError(t, err)
			files = append(files, filename+":"+string(content))

			return nil
		}

		err := walkForm(
			multipart.NewReader(buf, boundary),
			map[string]*string{"title": &title, "body": &body},
			"media",
			1<<10,
			sink,
		)
		require.NoError(t, err)

		assert.Equal(t, "Hello", title)
		assert.Equal(t, "World", body)
		assert.Equal(t, []string{"cat.png:png bytes"}, files)
	})

	t.Run("unknown fields are drained and ignored", func(t *testing.T) {
		t.Parallel()

		buf, boundary := multipartBody(t, func(w *multipart.Writer) {
			fw, err := w.CreateFormField("surprise")
			require.NoError(t, err)
			_, err = fw.Write([]byte("junk"))
			require.NoError(t, err)

			fw, err = w.CreateFormField("title")
			require.NoError(t, err)
			_, err = fw.Write([]byte("after junk"))
			require.NoError(t, err)
		})

		var title string
		err := walkForm(
			multipart.NewReader(buf, boundary),
			map[string]*string{"title": &title},
			"media",
			1<<10,
			func(string, io.Reader) error { return nil },
		)
		require.NoError(t, err)
		assert.Equal(t, "after junk", title)
	})

	t.Run("file part without filename is skipped", func(t *testing.T) {
		t.Parallel()

		buf, boundary := multipartBody(t, func(w *multipart.Writer) {
			// An empty file input submits a media part with no filename.
			fw, err := w.CreateFormField("media")
			require.NoError(t, err)
			_, err = fw.Write([]byte(""))
			require.NoError(t, err)
		})

		sinkCalled := false
		err := walkForm(
			multipart.NewReader(buf, boundary),
			map[string]*string{},
			"media",
			1<<10,
			func(string, io.Reader) error { sinkCalled = true; return nil },
		)
		require.NoError(t, err)
		assert.False(t, sinkCalled)
	})

	t.Run("invalid utf8 text degrades to empty", func(t *testing.T) {
		t.Parallel()

		buf, boundary := multipartBody(t, func(w *multipart.Writer) {
			fw, err := w.CreateFormField("title")
			require.NoError(t, err)
			_, err = fw.Write([]byte{0xff, 0xfe, 0xfd})
			require.NoError(t, err)
		})

		title := "sentinel"
		err := walkForm(
			multipart.NewReader(buf, boundary),
			map[string]*string{"title": &title},
			"media",
			1<<10,
			func(string, io.Reader) error { return nil },
		)
		require.NoError(t, err)
		assert.Empty(t, title)
	})

	t.Run("oversized text field is rejected", func(t *testing.T) {
		t.Parallel()

		buf, boundary := multipartBody(t, func(w *multipart.Writer) {
			fw, err := w.CreateFormField("body")
			require.NoError(t, err)
			_, err = fw.Write(bytes.Repeat([]byte("a"), 100))
			require.NoError(t, err)
		})

		var body string
		err := walkForm(
			multipart.NewReader(buf, boundary),
			map[string]*string{"body": &body},
			"media",
			10,
			func(string, io.Reader) error { return nil },
		)

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, 400, reqErr.Status)
	})

	t.Run("truncated stream aborts as malformed", func(t *testing.T) {
		t.Parallel()

		buf, boundary := multipartBody(t, func(w *multipart.Writer) {
			fw, err := w.CreateFormField("title")
			require.NoError(t, err)
			_, err = fw.Write([]byte("cut off"))
			require.NoError(t, err)
		})
		truncated := strings.NewReader(buf.String()[:buf.Len()/2])

		var title string
		err := walkForm(
			multipart.NewReader(truncated, boundary),
			map[string]*string{"title": &title},
			"media",
			1<<10,
			func(string, io.Reader) error { return nil },
		)
		assert.ErrorIs(t, err, ErrMalformedStream)
	})

	t.Run("sink errors propagate unchanged", func(t *testing.T) {
		t.Parallel()

		buf, boundary := multipartBody(t, func(w *multipart.Writer) {
			fw, err := w.CreateFormFile("media", "cat.png")
			require.NoError(t, err)
			_, err = fw.Write([]byte("bytes"))
			require.NoError(t, err)
		})

		sinkErr := errors.New("sink failure")
		err := walkForm(
			multipart.NewReader(buf, boundary),
			map[string]*string{},
			"media",
			1<<10,
			func(string, io.Reader) error { return sinkErr },
		)
		assert.ErrorIs(t, err, sinkErr)
	})
}
