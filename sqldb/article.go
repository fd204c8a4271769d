package sqldb

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/wansing/newsroom/core"
)

var articleColumns = []string{
	"a.id", "a.title", "a.slug", "a.excerpt", "a.content", "a.featured_image_url", "a.author_id", "a.category_id", "a.status",
	"a.is_featured", "a.is_breaking_news", "a.view_count", "a.like_count", "a.comment_count", "a.published_at", "a.scheduled_at",
	"a.meta_title", "a.meta_description", "a.meta_keywords", "a.reading_time", "a.reviewed_by", "a.review_comment", "a.created_at", "a.updated_at",
	"COALESCE(p.full_name, '')", "COALESCE(c.name, '')", "COALESCE(c.slug, '')", "COALESCE(c.color_code, '')",
}

type ArticleDB struct {
	db            *sql.DB
	countByStatus *sql.Stmt
	insert        *sql.Stmt
	update        *sql.Stmt
	updateContent *sql.Stmt
}

func NewArticleDB(db *sql.DB) *ArticleDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS articles (
			id VARCHAR(36) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL,
			excerpt TEXT NOT NULL,
			content TEXT NOT NULL,
			featured_image_url VARCHAR(1024) NOT NULL,
			author_id VARCHAR(36) NOT NULL,
			category_id VARCHAR(36) NOT NULL,
			status VARCHAR(16) NOT NULL,
			is_featured BOOLEAN NOT NULL,
			is_breaking_news BOOLEAN NOT NULL,
			view_count INTEGER NOT NULL,
			like_count INTEGER NOT NULL,
			comment_count INTEGER NOT NULL,
			published_at BIGINT NOT NULL,
			scheduled_at BIGINT NOT NULL,
			meta_title VARCHAR(255) NOT NULL,
			meta_description TEXT NOT NULL,
			meta_keywords TEXT NOT NULL,
			reading_time INTEGER NOT NULL,
			reviewed_by VARCHAR(36) NOT NULL,
			review_comment TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			UNIQUE(slug)
		);`)

	var articleDB = &ArticleDB{}
	articleDB.db = db
	articleDB.countByStatus = mustPrepare(db, "SELECT status, COUNT(*) FROM articles GROUP BY status")
	articleDB.insert = mustPrepare(db, `INSERT INTO articles (id, title, slug, excerpt, content, featured_image_url, author_id, category_id, status,
		is_featured, is_breaking_news, view_count, like_count, comment_count, published_at, scheduled_at,
		meta_title, meta_description, meta_keywords, reading_time, reviewed_by, review_comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	articleDB.update = mustPrepare(db, `UPDATE articles SET title = ?, slug = ?, excerpt = ?, content = ?, featured_image_url = ?, category_id = ?, status = ?,
		is_featured = ?, is_breaking_news = ?, published_at = CASE WHEN published_at = 0 THEN ? ELSE published_at END, scheduled_at = ?,
		meta_title = ?, meta_description = ?, meta_keywords = ?, reading_time = ?, reviewed_by = ?, review_comment = ?, updated_at = ?
		WHERE id = ?`)
	articleDB.updateContent = mustPrepare(db, `UPDATE articles SET title = ?, slug = ?, excerpt = ?, content = ?, featured_image_url = ?, category_id = ?,
		is_featured = ?, is_breaking_news = ?, scheduled_at = ?,
		meta_title = ?, meta_description = ?, meta_keywords = ?, reading_time = ?, updated_at = ?
		WHERE id = ?`)
	return articleDB
}

func scanArticle(row scanner) (*core.Article, error) {
	var a = &core.Article{}
	var status string
	var publishedAt, scheduledAt, createdAt, updatedAt int64
	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Content, &a.FeaturedImageURL, &a.AuthorID, &a.CategoryID, &status,
		&a.IsFeatured, &a.IsBreakingNews, &a.ViewCount, &a.LikeCount, &a.CommentCount, &publishedAt, &scheduledAt,
		&a.MetaTitle, &a.MetaDescription, &a.MetaKeywords, &a.ReadingTime, &a.ReviewedBy, &a.ReviewComment, &createdAt, &updatedAt,
		&a.AuthorName, &a.CategoryName, &a.CategorySlug, &a.CategoryColor,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	a.Status = core.Status(status)
	a.PublishedAt = fromUnix(publishedAt)
	a.ScheduledAt = fromUnix(scheduledAt)
	a.CreatedAt = fromUnix(createdAt)
	a.UpdatedAt = fromUnix(updatedAt)
	return a, nil
}

func selectArticles(columns ...string) sq.SelectBuilder {
	return sq.Select(columns...).
		From("articles a").
		LeftJoin("profiles p ON p.user_id = a.author_id").
		LeftJoin("categories c ON c.id = a.category_id")
}

func where(query sq.SelectBuilder, filter core.ArticleFilter) sq.SelectBuilder {
	if filter.Status != "" {
		query = query.Where(sq.Eq{"a.status": string(filter.Status)})
	}
	if filter.Category != "" {
		query = query.Where(sq.Eq{"c.slug": filter.Category})
	}
	if filter.Author != "" {
		query = query.Where(sq.Eq{"a.author_id": filter.Author})
	}
	if filter.Featured {
		query = query.Where(sq.Eq{"a.is_featured": true})
	}
	if filter.Breaking {
		query = query.Where(sq.Eq{"a.is_breaking_news": true})
	}
	return query
}

func (db *ArticleDB) getOne(ctx context.Context, query sq.SelectBuilder) (*core.Article, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return scanArticle(db.db.QueryRowContext(ctx, stmt, args...))
}

func (db *ArticleDB) GetArticle(ctx context.Context, id string) (*core.Article, error) {
	return db.getOne(ctx, selectArticles(articleColumns...).Where(sq.Eq{"a.id": id}))
}

func (db *ArticleDB) GetArticleBySlug(ctx context.Context, slug string) (*core.Article, error) {
	return db.getOne(ctx, selectArticles(articleColumns...).Where(sq.Eq{"a.slug": slug}))
}

func (db *ArticleDB) GetArticles(ctx context.Context, filter core.ArticleFilter) ([]*core.Article, error) {

	var query = where(selectArticles(articleColumns...), filter).OrderBy("a.published_at DESC", "a.created_at DESC", "a.id")

	switch {
	case filter.Limit > 0:
		query = query.Limit(uint64(filter.Limit))
	case filter.Offset > 0:
		query = query.Limit(core.DefaultLimit)
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []*core.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, a)
	}

	return all, rows.Err()
}

func (db *ArticleDB) CountArticles(ctx context.Context, filter core.ArticleFilter) (int, error) {
	stmt, args, err := where(selectArticles("COUNT(*)"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	return count, db.db.QueryRowContext(ctx, stmt, args...).Scan(&count)
}

// CountByStatus returns the number of articles per status. Statuses without articles are zero.
func (db *ArticleDB) CountByStatus(ctx context.Context) (map[core.Status]int, error) {

	var counts = make(map[core.Status]int)
	for _, s := range core.Statuses() {
		counts[s] = 0
	}

	rows, err := db.countByStatus.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[core.Status(status)] = count
	}

	return counts, rows.Err()
}

// InsertArticle sets a.ID if it is empty.
func (db *ArticleDB) InsertArticle(ctx context.Context, a *core.Article) error {
	if a.ID == "" {
		a.ID = newID()
	}
	_, err := db.insert.ExecContext(ctx,
		a.ID, a.Title, a.Slug, a.Excerpt, a.Content, a.FeaturedImageURL, a.AuthorID, a.CategoryID, string(a.Status),
		a.IsFeatured, a.IsBreakingNews, a.ViewCount, a.LikeCount, a.CommentCount, unix(a.PublishedAt), unix(a.ScheduledAt),
		a.MetaTitle, a.MetaDescription, a.MetaKeywords, a.ReadingTime, a.ReviewedBy, a.ReviewComment, unix(a.CreatedAt), unix(a.UpdatedAt),
	)
	return err
}

// UpdateArticle stores everything except the author, the counters and the creation time.
// An existing publication time is kept.
func (db *ArticleDB) UpdateArticle(ctx context.Context, a *core.Article) error {
	_, err := db.update.ExecContext(ctx,
		a.Title, a.Slug, a.Excerpt, a.Content, a.FeaturedImageURL, a.CategoryID, string(a.Status),
		a.IsFeatured, a.IsBreakingNews, unix(a.PublishedAt), unix(a.ScheduledAt),
		a.MetaTitle, a.MetaDescription, a.MetaKeywords, a.ReadingTime, a.ReviewedBy, a.ReviewComment, unix(a.UpdatedAt),
		a.ID,
	)
	return err
}

// UpdateContent stores the content fields. Status, review and publication time are left alone.
func (db *ArticleDB) UpdateContent(ctx context.Context, a *core.Article) error {
	_, err := db.updateContent.ExecContext(ctx,
		a.Title, a.Slug, a.Excerpt, a.Content, a.FeaturedImageURL, a.CategoryID,
		a.IsFeatured, a.IsBreakingNews, unix(a.ScheduledAt),
		a.MetaTitle, a.MetaDescription, a.MetaKeywords, a.ReadingTime, unix(a.UpdatedAt),
		a.ID,
	)
	return err
}
