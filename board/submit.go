package board

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"article-board/storage"
)

// handleSubmit accepts a multipart article submission. Media parts are
// staged to the configured store while the body is still streaming in;
// the article row is only written once the whole form has been consumed,
// and staged media is discarded again if anything fails before then.
func (s *Server) handleSubmit(c *gin.Context) {
	logger := loggerFrom(c)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		s.fail(c, errMalformed(err))

		return
	}

	var (
		title, body string
		staged      []storage.Staged
		committed   bool
	)
	defer func() {
		if committed {
			return
		}
		for _, m := range staged {
			if err := m.Discard(); err != nil {
				logger.Warn().Err(err).Str("path", m.Path()).Msg("failed to discard staged media")
			}
		}
	}()

	sink := func(filename string, r io.Reader) error {
		m, err := s.media.Stage(c.Request.Context(), filename, r)
		if err != nil {
			return classifyStageError(err)
		}
		staged = append(staged, m)

		return nil
	}

	text := map[string]*string{"title": &title, "body": &body}
	if err := walkForm(mr, text, "media", s.cfg.Limits.MaxTextBytes, sink); err != nil {
		s.fail(c, err)

		return
	}

	if len(staged) == 0 {
		s.fail(c, errValidation("Media file is required", ErrMediaRequired))

		return
	}

	mediaPaths := make([]string, 0, len(staged))
	for _, m := range staged {
		mediaPaths = append(mediaPaths, m.Path())
	}

	bumpTime := s.clock().Unix()
	articleID, err := s.db.CreateArticle(c.Request.Context(), title, body, bumpTime, mediaPaths)
	if err != nil {
		s.fail(c, wrapPersistenceError(err, "storing article"))

		return
	}

	for _, m := range staged {
		if err := m.Commit(); err != nil {
			logger.Error().Err(err).Str("path", m.Path()).Msg("failed to commit staged media")
		}
	}
	committed = true

	logger.Info().
		Uint("article_id", articleID).
		Int("media_count", len(staged)).
		Msg("article created")

	c.Redirect(http.StatusFound, "/articles")
}

// classifyStageError maps a storage failure during media staging onto the
// right client-facing outcome. A capped stream is the client's fault, a
// short read means the upload broke off, everything else is ours.
func classifyStageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return errValidation("Media file is too large", err)
	case errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF):
		return errMalformed(err)
	default:
		return errStorage(err)
	}
}
