package orm

// Article is a submitted post. BumpTime is epoch seconds and carries the
// recency ranking: it is set at creation and raised by every comment.
type Article struct {
	ID       uint   `gorm:"primaryKey"          json:"id"`
	Title    string `gorm:"size:255;not null"   json:"title"`
	Body     string `gorm:"type:text;not null"  json:"body"`
	BumpTime int64  `gorm:"not null;index"      json:"bumpTime"`

	// Reverse relationships with cascading deletion
	Media    []Media   `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
	Comments []Comment `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// Media is one stored attachment of an article. The rows of an article are
// exactly the files accepted during its submission request, in order.
type Media struct {
	ID        uint   `gorm:"primaryKey"                          json:"id"`
	ArticleID uint   `gorm:"index;not null"                      json:"articleId"`
	Path      string `gorm:"column:media_path;size:512;not null" json:"path"`
}

type Comment struct {
	ID        uint   `gorm:"primaryKey"                       json:"id"`
	ArticleID uint   `gorm:"index;not null"                   json:"articleId"`
	Text      string `gorm:"column:comment;type:text;not null" json:"text"`
}

// ArticleSummary is the listing projection: id and title only, detail is
// fetched lazily per article.
type ArticleSummary struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func (Article) TableName() string {
	return "articles"
}

func (Media) TableName() string {
	return "article_media"
}

func (Comment) TableName() string {
	return "comments"
}
