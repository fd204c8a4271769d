package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wansing/newsroom/core"
)

const categoryColumns = "id, name, slug, description, color_code, icon, sort_order, is_active, created_at, updated_at"

type CategoryDB struct {
	db        *sql.DB
	get       *sql.Stmt
	getActive *sql.Stmt
	getAll    *sql.Stmt
	getBySlug *sql.Stmt
	insert    *sql.Stmt
	setActive *sql.Stmt
}

func NewCategoryDB(db *sql.DB) *CategoryDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS categories (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			color_code VARCHAR(16) NOT NULL,
			icon VARCHAR(64) NOT NULL,
			sort_order INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			UNIQUE(slug)
		);`)

	var categoryDB = &CategoryDB{}
	categoryDB.db = db
	categoryDB.get = mustPrepare(db, "SELECT "+categoryColumns+" FROM categories WHERE id = ?")
	categoryDB.getActive = mustPrepare(db, "SELECT "+categoryColumns+" FROM categories WHERE is_active = ? ORDER BY sort_order, name")
	categoryDB.getAll = mustPrepare(db, "SELECT "+categoryColumns+" FROM categories ORDER BY sort_order, name")
	categoryDB.getBySlug = mustPrepare(db, "SELECT "+categoryColumns+" FROM categories WHERE slug = ?")
	categoryDB.insert = mustPrepare(db, "INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	categoryDB.setActive = mustPrepare(db, "UPDATE categories SET is_active = ?, updated_at = ? WHERE id = ?")
	return categoryDB
}

func scanCategory(row scanner) (*core.Category, error) {
	var c = &core.Category{}
	var createdAt, updatedAt int64
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ColorCode, &c.Icon, &c.SortOrder, &c.IsActive, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	return c, nil
}

func scanCategories(rows *sql.Rows, err error) ([]*core.Category, error) {

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []*core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, c)
	}

	return all, rows.Err()
}

func (db *CategoryDB) GetActiveCategories(ctx context.Context) ([]*core.Category, error) {
	return scanCategories(db.getActive.QueryContext(ctx, true))
}

func (db *CategoryDB) GetAllCategories(ctx context.Context) ([]*core.Category, error) {
	return scanCategories(db.getAll.QueryContext(ctx))
}

func (db *CategoryDB) GetCategory(ctx context.Context, id string) (*core.Category, error) {
	return scanCategory(db.get.QueryRowContext(ctx, id))
}

func (db *CategoryDB) GetCategoryBySlug(ctx context.Context, slug string) (*core.Category, error) {
	return scanCategory(db.getBySlug.QueryRowContext(ctx, slug))
}

func (db *CategoryDB) InsertCategory(ctx context.Context, c *core.Category) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().Truncate(time.Second)
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	_, err := db.insert.ExecContext(ctx, c.ID, c.Name, c.Slug, c.Description, c.ColorCode, c.Icon, c.SortOrder, c.IsActive, unix(c.CreatedAt), unix(c.UpdatedAt))
	return err
}

// SetCategoryActive returns core.ErrNotFound if the category does not exist.
func (db *CategoryDB) SetCategoryActive(ctx context.Context, id string, active bool) error {
	result, err := db.setActive.ExecContext(ctx, active, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL does not count rows whose values are unchanged
		_, err = db.GetCategory(ctx, id)
		return err
	}
	return nil
}
