package board

import (
	"context"
	"errors"
	"time"

	"article-board/config"
	"article-board/orm"
	"article-board/storage"

	"github.com/gin-gonic/gin"
)

// Store is the persistence surface the board consumes.
type Store interface {
	CreateArticle(
		ctx context.Context,
		title, body string,
		bumpTime int64,
		mediaPaths []string,
	) (uint, error)
	AddComment(ctx context.Context, articleID uint, text string, bumpTime int64) error
	ListArticles(ctx context.Context) ([]orm.ArticleSummary, error)
	GetArticle(ctx context.Context, id uint) (*orm.Article, error)
	GetMedia(ctx context.Context, articleID uint) ([]string, error)
	GetComments(ctx context.Context, articleID uint) ([]string, error)
}

var _ Store = orm.DB{}

type Server struct {
	db    Store
	media storage.Store
	cfg   *config.AppConfig
	clock func() time.Time
}

// NewServer creates a new server over the given store and media storage
func NewServer(db Store, media storage.Store, cfg *config.AppConfig) *Server {
	return &Server{
		db:    db,
		media: media,
		cfg:   cfg,
		clock: time.Now,
	}
}

// Router builds the gin engine with all board routes mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())
	router.SetHTMLTemplate(pageTemplates())

	router.GET("/", s.showSubmitForm)
	router.POST("/submit", s.handleSubmit)
	router.GET("/articles", s.handleListArticles)
	router.GET("/articles/:id", s.handleViewArticle)
	router.POST("/articles/:id/comment", s.handleSubmitComment)

	router.StaticFS("/static", staticAssets())
	// Uploads are only directly servable from the filesystem backend; the
	// s3 backend is fronted by the bucket itself.
	if s.cfg.Persistence.Type != "s3" {
		router.Static(s.cfg.PublicPrefix, s.cfg.UploadDir)
	}

	return router
}

// fail converts any error into a response, logging the cause to the
// diagnostic sink while keeping the body non-leaky.
func (s *Server) fail(c *gin.Context, err error) {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
	case errors.Is(err, ErrMalformedStream):
		reqErr = &RequestError{Status: 400, Message: "Malformed upload", Inner: err}
	default:
		reqErr = &RequestError{Status: 500, Message: "Internal server error", Inner: err}
	}

	event := loggerFrom(c).Warn()
	if reqErr.Status >= 500 {
		event = loggerFrom(c).Error()
	}
	event.Err(err).Int("status", reqErr.Status).Msg("request failed")

	c.String(reqErr.Status, reqErr.Message)
	c.Abort()
}
