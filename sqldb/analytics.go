package sqldb

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/wansing/newsroom/core"
)

// AnalyticsDB records page views and increments the view counter of the article.
type AnalyticsDB struct {
	db        *sql.DB
	insert    *sql.Stmt
	increment *sql.Stmt
}

// NewAnalyticsDB must be called after NewArticleDB.
func NewAnalyticsDB(db *sql.DB) *AnalyticsDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS page_views (
			id VARCHAR(36) PRIMARY KEY,
			article_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			page_url VARCHAR(1024) NOT NULL,
			user_agent VARCHAR(1024) NOT NULL,
			created_at BIGINT NOT NULL
		);`)

	var analyticsDB = &AnalyticsDB{}
	analyticsDB.db = db
	analyticsDB.insert = mustPrepare(db, "INSERT INTO page_views (id, article_id, user_id, page_url, user_agent, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	analyticsDB.increment = mustPrepare(db, "UPDATE articles SET view_count = view_count + 1 WHERE id = ?")
	return analyticsDB
}

func (db *AnalyticsDB) TrackPageView(ctx context.Context, v core.PageView) error {

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no effect after commit

	if _, err := tx.StmtContext(ctx, db.insert).ExecContext(ctx, newID(), v.ArticleID, v.UserID, v.PageURL, v.UserAgent, unix(v.Timestamp)); err != nil {
		return err
	}
	if v.ArticleID != "" {
		if _, err := tx.StmtContext(ctx, db.increment).ExecContext(ctx, v.ArticleID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (db *AnalyticsDB) GetArticleStats(ctx context.Context, author string, since time.Time, limit int) ([]core.ArticleStats, error) {

	var query = sq.Select("a.id", "a.title", "a.status", "a.view_count", "COUNT(v.id)").
		From("articles a").
		LeftJoin("page_views v ON v.article_id = a.id AND v.created_at >= ?", unix(since)).
		GroupBy("a.id", "a.title", "a.status", "a.view_count").
		OrderBy("a.view_count DESC", "a.id")
	if author != "" {
		query = query.Where(sq.Eq{"a.author_id": author})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
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

	var all = []core.ArticleStats{}
	for rows.Next() {
		var s core.ArticleStats
		var status string
		if err := rows.Scan(&s.ArticleID, &s.Title, &status, &s.ViewCount, &s.Recent); err != nil {
			return nil, err
		}
		s.Status = core.Status(status)
		all = append(all, s)
	}

	return all, rows.Err()
}
