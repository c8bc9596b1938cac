package board

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"article-board/orm"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const mainPageTitle = "All Articles"

func pageTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFiles, "templates/*.tmpl"))
}

func staticAssets() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

// mediaView is one media attachment prepared for rendering.
type mediaView struct {
	Path  string
	IsMP4 bool
}

func (s *Server) showSubmitForm(c *gin.Context) {
	c.HTML(http.StatusOK, "submit.tmpl", nil)
}

func (s *Server) handleListArticles(c *gin.Context) {
	summaries, err := s.db.ListArticles(c.Request.Context())
	if err != nil {
		s.fail(c, wrapPersistenceError(err, "listing articles"))

		return
	}

	c.HTML(http.StatusOK, "articles.tmpl", gin.H{
		"PageTitle": mainPageTitle,
		"Articles":  summaries,
	})
}

func (s *Server) handleViewArticle(c *gin.Context) {
	logger := loggerFrom(c)

	id, err := parseArticleID(c.Param("id"))
	if err != nil {
		s.fail(c, wrapPersistenceError(&orm.NotFoundError{Search: c.Param("id")}, "loading article"))

		return
	}

	article, err := s.db.GetArticle(c.Request.Context(), id)
	if err != nil {
		s.fail(c, wrapPersistenceError(err, "loading article"))

		return
	}

	// Attachments and comments degrade to empty rather than failing the
	// whole page.
	paths, err := s.db.GetMedia(c.Request.Context(), id)
	if err != nil {
		logger.Error().Err(err).Uint("article_id", id).Msg("failed to load article media")
		paths = nil
	}
	comments, err := s.db.GetComments(c.Request.Context(), id)
	if err != nil {
		logger.Error().Err(err).Uint("article_id", id).Msg("failed to load article comments")
		comments = nil
	}

	media := make([]mediaView, 0, len(paths))
	for _, p := range paths {
		media = append(media, mediaView{Path: p, IsMP4: strings.HasSuffix(p, ".mp4")})
	}

	c.HTML(http.StatusOK, "article.tmpl", gin.H{
		"Article":  article,
		"Media":    media,
		"Comments": comments,
	})
}

func (s *Server) handleSubmitComment(c *gin.Context) {
	id, err := parseArticleID(c.Param("id"))
	if err != nil {
		s.fail(c, wrapPersistenceError(&orm.NotFoundError{Search: c.Param("id")}, "storing comment"))

		return
	}

	text := c.PostForm("comment")
	if strings.TrimSpace(text) == "" {
		s.fail(c, errValidation("Comment text is required", ErrCommentRequired))

		return
	}

	if err := s.db.AddComment(c.Request.Context(), id, text, s.clock().Unix()); err != nil {
		s.fail(c, wrapPersistenceError(err, "storing comment"))

		return
	}

	loggerFrom(c).Info().Uint("article_id", id).Msg("comment added")

	c.Redirect(http.StatusFound, "/articles/"+strconv.FormatUint(uint64(id), 10))
}

func parseArticleID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}

	return uint(id), nil
}
