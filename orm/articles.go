package orm

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// CreateArticle inserts one article together with its media rows. Everything
// commits in a single transaction: a failed media insert rolls the article
// back, so an article without media can never become visible.
func (db DB) CreateArticle(
	ctx context.Context,
	title, body string,
	bumpTime int64,
	mediaPaths []string,
) (uint, error) {
	if len(mediaPaths) == 0 {
		return 0, &BadInputError{
			Reason: "an article requires at least one media path",
		}
	}

	detailString := fmt.Sprintf(
		"title=%q, bumpTime=%d, media=%s",
		title,
		bumpTime,
		strings.Join(mediaPaths, ","),
	)

	article := Article{
		Title:    title,
		Body:     body,
		BumpTime: bumpTime,
	}

	err := db.dbGorm.Transaction(func(tx *gorm.DB) error {
		err := gorm.G[Article](tx).Create(ctx, &article)
		if err != nil {
			return wrapErrorWithDetails(err, "create article", detailString)
		}

		// Insert order is submission order; ids preserve it.
		for _, path := range mediaPaths {
			err := gorm.G[Media](tx).Create(ctx, &Media{
				ArticleID: article.ID,
				Path:      path,
			})
			if err != nil {
				return wrapErrorWithDetails(err, "create media row", detailString)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return article.ID, nil
}

// AddComment inserts one comment and raises the owning article's bump time,
// in a single transaction. GREATEST keeps the bump time monotonically
// non-decreasing even when concurrent commenters disagree about the clock.
func (db DB) AddComment(
	ctx context.Context,
	articleID uint,
	text string,
	bumpTime int64,
) error {
	// Guard before the struct-condition query: gorm drops zero-valued
	// fields from struct conditions, so id 0 would match everything.
	if articleID == 0 {
		return &NotFoundError{Search: "articleID=0"}
	}

	detailString := fmt.Sprintf("articleID=%d, bumpTime=%d", articleID, bumpTime)

	return db.dbGorm.Transaction(func(tx *gorm.DB) error {
		// Check that the article exists
		count, err := gorm.G[Article](tx).Where(&Article{
			ID: articleID,
		}).Count(ctx, "*")
		if err != nil {
			return wrapErrorWithDetails(err, "check article exists", detailString)
		}

		if count == 0 {
			return &NotFoundError{
				Search: fmt.Sprintf("Article id=%d does not exist", articleID),
			}
		}

		err = gorm.G[Comment](tx).Create(ctx, &Comment{
			ArticleID: articleID,
			Text:      text,
		})
		if err != nil {
			return wrapErrorWithDetails(err, "create comment", detailString)
		}

		result := tx.WithContext(ctx).
			Model(&Article{}).
			Where("id = ?", articleID).
			Update("bump_time", gorm.Expr("GREATEST(bump_time, ?)", bumpTime))
		if result.Error != nil {
			return wrapErrorWithDetails(result.Error, "bump article", detailString)
		}

		return nil
	})
}

// ListArticles returns id and title of every article, ordered by the
// configured ranking policy.
func (db DB) ListArticles(ctx context.Context) ([]ArticleSummary, error) {
	var summaries []ArticleSummary

	err := db.dbGorm.WithContext(ctx).
		Model(&Article{}).
		Select("id", "title").
		Scopes(db.rank).
		Find(&summaries).Error
	if err != nil {
		return nil, wrapErrorWithDetails(err, "list articles", "")
	}

	return summaries, nil
}

func (db DB) GetArticle(ctx context.Context, id uint) (*Article, error) {
	// Same zero-value guard as AddComment: id 0 in a struct condition
	// would match an arbitrary row instead of nothing.
	if id == 0 {
		return nil, &NotFoundError{Search: "id=0"}
	}

	article, err := gorm.G[Article](db.dbGorm).Where(&Article{
		ID: id,
	}).First(ctx)
	if err != nil {
		return nil, wrapErrorWithDetails(
			err,
			"get article",
			fmt.Sprintf("id=%d", id),
		)
	}

	return &article, nil
}

// GetMedia returns the stored media paths of an article in submission order.
func (db DB) GetMedia(ctx context.Context, articleID uint) ([]string, error) {
	var paths []string

	err := db.dbGorm.WithContext(ctx).
		Model(&Media{}).
		Where("article_id = ?", articleID).
		Order("id").
		Pluck("media_path", &paths).Error
	if err != nil {
		return nil, wrapErrorWithDetails(
			err,
			"get media",
			fmt.Sprintf("articleID=%d", articleID),
		)
	}

	return paths, nil
}

// GetComments returns the comment texts of an article, oldest first.
func (db DB) GetComments(ctx context.Context, articleID uint) ([]string, error) {
	var texts []string

	err := db.dbGorm.WithContext(ctx).
		Model(&Comment{}).
		Where("article_id = ?", articleID).
		Order("id").
		Pluck("comment", &texts).Error
	if err != nil {
		return nil, wrapErrorWithDetails(
			err,
			"get comments",
			fmt.Sprintf("articleID=%d", articleID),
		)
	}

	return texts, nil
}
