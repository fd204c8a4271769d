package core

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Article struct {
	ID               string
	Title            string
	Slug             string
	Excerpt          string
	Content          string // markdown
	FeaturedImageURL string
	AuthorID         string // user id of the author
	CategoryID       string
	Status           Status
	IsFeatured       bool
	IsBreakingNews   bool
	ViewCount        int
	LikeCount        int
	CommentCount     int
	PublishedAt      time.Time // zero until the article is published for the first time
	ScheduledAt      time.Time // zero if not scheduled
	MetaTitle        string
	MetaDescription  string
	MetaKeywords     string
	ReadingTime      int // minutes
	ReviewedBy       string
	ReviewComment    string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// joined, read only
	AuthorName    string
	CategoryName  string
	CategorySlug  string
	CategoryColor string
}

// ArticleFilter selects articles. The zero value selects all articles.
type ArticleFilter struct {
	Status   Status // only articles with this status, or any status if empty
	Category string // only articles in the category with this slug, or any category if empty
	Author   string // only articles by the user with this id, or any author if empty
	Featured bool   // only featured articles
	Breaking bool   // only breaking news
	Limit    int    // at most this many articles, no limit if zero (but see Offset)
	Offset   int    // skip this many articles; if Limit is zero, DefaultLimit applies
}

const DefaultLimit = 10

type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	ColorCode   string // like "#3B82F6"
	Icon        string
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PageView struct {
	ArticleID string
	UserID    string // empty for anonymous visitors
	PageURL   string
	UserAgent string
	Timestamp time.Time
}

// ArticleDB methods return ErrNotFound if a single article does not exist.
type ArticleDB interface {
	CountArticles(ctx context.Context, filter ArticleFilter) (int, error) // ignores Limit and Offset
	CountByStatus(ctx context.Context) (map[Status]int, error)
	GetArticle(ctx context.Context, id string) (*Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*Article, error)
	GetArticles(ctx context.Context, filter ArticleFilter) ([]*Article, error) // latest publication first
	InsertArticle(ctx context.Context, a *Article) error                       // sets a.ID if empty
	UpdateArticle(ctx context.Context, a *Article) error                       // never clears PublishedAt
	UpdateContent(ctx context.Context, a *Article) error                       // leaves status, review and PublishedAt alone
}

type CategoryDB interface {
	GetActiveCategories(ctx context.Context) ([]*Category, error) // ordered by SortOrder
	GetAllCategories(ctx context.Context) ([]*Category, error)    // including inactive ones, ordered by SortOrder
	GetCategory(ctx context.Context, id string) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	InsertCategory(ctx context.Context, c *Category) error // sets c.ID if empty
	SetCategoryActive(ctx context.Context, id string, active bool) error
}

// ArticleStats are the page views of an article.
type ArticleStats struct {
	ArticleID string
	Title     string
	Status    Status
	ViewCount int // all time
	Recent    int // page views in the requested period
}

type AnalyticsDB interface {
	// GetArticleStats returns the most viewed articles first. If author is not empty, only their articles are included.
	// Recent counts the page views since the given time.
	GetArticleStats(ctx context.Context, author string, since time.Time, limit int) ([]ArticleStats, error)
	TrackPageView(ctx context.Context, v PageView) error
}
