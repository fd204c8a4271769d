package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
	"golang.org/x/crypto/bcrypt"
)

func clean(email string) string {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)
	return email
}

type UserDB struct {
	*sql.DB
	Cost             int // bcrypt cost
	getAll           *sql.Stmt
	get              *sql.Stmt
	getByEmail       *sql.Stmt
	getHash          *sql.Stmt
	insert           *sql.Stmt
	login            *sql.Stmt
	setEmailVerified *sql.Stmt
	setPassword      *sql.Stmt
}

func NewUserDB(db *sql.DB) *UserDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			password VARCHAR(72) NOT NULL,
			email_verified BOOLEAN NOT NULL,
			created_at BIGINT NOT NULL,
			UNIQUE(email)
		);`)

	var userDB = &UserDB{}
	userDB.DB = db
	userDB.Cost = bcrypt.DefaultCost
	userDB.get = mustPrepare(db, "SELECT id, email, email_verified, created_at FROM users WHERE id = ?")
	userDB.getAll = mustPrepare(db, "SELECT id, email, email_verified, created_at FROM users ORDER BY email LIMIT ? OFFSET ?")
	userDB.getByEmail = mustPrepare(db, "SELECT id, email, email_verified, created_at FROM users WHERE email = ?")
	userDB.getHash = mustPrepare(db, "SELECT password FROM users WHERE id = ?")
	userDB.insert = mustPrepare(db, "INSERT INTO users (id, email, password, email_verified, created_at) VALUES (?, ?, ?, ?, ?)")
	userDB.login = mustPrepare(db, "SELECT id, email, email_verified, created_at, password FROM users WHERE email = ?")
	userDB.setEmailVerified = mustPrepare(db, "UPDATE users SET email_verified = ? WHERE id = ?")
	userDB.setPassword = mustPrepare(db, "UPDATE users SET password = ? WHERE id = ?")
	return userDB
}

func scanUser(row scanner, extra ...interface{}) (*core.User, error) {
	var u = &core.User{}
	var createdAt int64
	var dest = append([]interface{}{&u.ID, &u.Email, &u.EmailVerified, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = fromUnix(createdAt)
	return u, nil
}

func (db *UserDB) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), db.Cost)
	return string(h), err
}

func (db *UserDB) ChangePassword(ctx context.Context, id, old, new string) error {
	var hash string
	if err := db.getHash.QueryRowContext(ctx, id).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(old)) != nil {
		return auth.ErrAuth
	}
	return db.SetPassword(ctx, id, new)
}

func (db *UserDB) GetUser(ctx context.Context, id string) (*core.User, error) {
	return scanUser(db.get.QueryRowContext(ctx, id))
}

func (db *UserDB) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return scanUser(db.getByEmail.QueryRowContext(ctx, clean(email)))
}

func (db *UserDB) GetAllUsers(ctx context.Context, limit, offset int) ([]*core.User, error) {

	var all = []*core.User{}

	rows, err := db.getAll.QueryContext(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, u)
	}

	return all, rows.Err()
}

func (db *UserDB) InsertUser(ctx context.Context, email, password string) (*core.User, error) {

	if password == "" {
		return nil, core.ErrEmptyPassword
	}

	email = clean(email)

	if _, err := db.GetUserByEmail(ctx, email); err == nil {
		return nil, core.ErrEmailTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	hash, err := db.hash(password)
	if err != nil {
		return nil, err
	}

	var u = &core.User{
		ID:        newID(),
		Email:     email,
		CreatedAt: time.Now().Truncate(time.Second),
	}

	if _, err := db.insert.ExecContext(ctx, u.ID, u.Email, hash, u.EmailVerified, unix(u.CreatedAt)); err != nil {
		return nil, err
	}
	return u, nil
}

func (db *UserDB) LoginUser(ctx context.Context, email, password string) (*core.User, error) {

	var hash string
	u, err := scanUser(db.login.QueryRowContext(ctx, clean(email)), &hash)
	if errors.Is(err, core.ErrNotFound) {
		return nil, auth.ErrAuth // user not found
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, auth.ErrAuth // wrong password
	}

	return u, nil
}

func (db *UserDB) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	_, err := db.setEmailVerified.ExecContext(ctx, verified, id)
	return err
}

func (db *UserDB) SetPassword(ctx context.Context, id, password string) error {

	if password == "" {
		return core.ErrEmptyPassword
	}

	hash, err := db.hash(password)
	if err != nil {
		return err
	}

	res, err := db.setPassword.ExecContext(ctx, hash, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}
