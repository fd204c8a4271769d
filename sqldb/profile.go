package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/wansing/newsroom/auth"
)

const profileColumns = "id, user_id, full_name, role, bio, avatar_url, phone, address, is_active, last_login_at, email_verified, created_at, updated_at"

type ProfileDB struct {
	db         *sql.DB
	get        *sql.Stmt
	getAll     *sql.Stmt
	insert     *sql.Stmt
	setRole    *sql.Stmt
	touchLogin *sql.Stmt
}

func NewProfileDB(db *sql.DB) *ProfileDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS profiles (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			full_name VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			bio TEXT NOT NULL,
			avatar_url VARCHAR(1024) NOT NULL,
			phone VARCHAR(64) NOT NULL,
			address TEXT NOT NULL,
			is_active BOOLEAN NOT NULL,
			last_login_at BIGINT NOT NULL,
			email_verified BOOLEAN NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			UNIQUE(user_id)
		);`)

	var profileDB = &ProfileDB{}
	profileDB.db = db
	profileDB.get = mustPrepare(db, "SELECT "+profileColumns+" FROM profiles WHERE user_id = ?")
	profileDB.getAll = mustPrepare(db, "SELECT "+profileColumns+" FROM profiles ORDER BY full_name LIMIT ? OFFSET ?")
	profileDB.insert = mustPrepare(db, "INSERT INTO profiles ("+profileColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	profileDB.setRole = mustPrepare(db, "UPDATE profiles SET role = ?, updated_at = ? WHERE user_id = ?")
	profileDB.touchLogin = mustPrepare(db, "UPDATE profiles SET last_login_at = ? WHERE user_id = ?")
	return profileDB
}

func scanProfile(row scanner) (*auth.Profile, error) {
	var p = &auth.Profile{}
	var role string
	var lastLogin, createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &role, &p.Bio, &p.AvatarURL, &p.Phone, &p.Address, &p.IsActive, &lastLogin, &p.EmailVerified, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrProfileNotFound
		}
		return nil, err
	}
	p.Role = auth.Role(role) // unknown roles have level zero
	p.LastLoginAt = fromUnix(lastLogin)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return p, nil
}

func (db *ProfileDB) GetProfile(ctx context.Context, userID string) (*auth.Profile, error) {
	return scanProfile(db.get.QueryRowContext(ctx, userID))
}

func (db *ProfileDB) GetAllProfiles(ctx context.Context, limit, offset int) ([]*auth.Profile, error) {

	var all = []*auth.Profile{}

	rows, err := db.getAll.QueryContext(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}

	return all, rows.Err()
}

// InsertProfile sets p.ID if it is empty.
func (db *ProfileDB) InsertProfile(ctx context.Context, p *auth.Profile) error {
	if p.ID == "" {
		p.ID = newID()
	}
	_, err := db.insert.ExecContext(ctx, p.ID, p.UserID, p.FullName, string(p.Role), p.Bio, p.AvatarURL, p.Phone, p.Address, p.IsActive, unix(p.LastLoginAt), p.EmailVerified, unix(p.CreatedAt), unix(p.UpdatedAt))
	return err
}

func (db *ProfileDB) SetRole(ctx context.Context, userID string, role auth.Role) error {
	if _, err := db.GetProfile(ctx, userID); err != nil {
		return err
	}
	_, err := db.setRole.ExecContext(ctx, string(role), time.Now().Unix(), userID)
	return err
}

func (db *ProfileDB) TouchLastLogin(ctx context.Context, userID string, ts time.Time) error {
	_, err := db.touchLogin.ExecContext(ctx, unix(ts), userID)
	return err
}

// UpdateProfile sets the non-nil fields and returns the stored profile.
func (db *ProfileDB) UpdateProfile(ctx context.Context, userID string, update auth.ProfileUpdate) (*auth.Profile, error) {

	if _, err := db.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	if !update.Empty() {

		var query = sq.Update("profiles").Set("updated_at", time.Now().Unix()).Where(sq.Eq{"user_id": userID})
		if update.FullName != nil {
			query = query.Set("full_name", *update.FullName)
		}
		if update.Bio != nil {
			query = query.Set("bio", *update.Bio)
		}
		if update.AvatarURL != nil {
			query = query.Set("avatar_url", *update.AvatarURL)
		}
		if update.Phone != nil {
			query = query.Set("phone", *update.Phone)
		}
		if update.Address != nil {
			query = query.Set("address", *update.Address)
		}

		stmt, args, err := query.ToSql()
		if err != nil {
			return nil, err
		}
		if _, err := db.db.ExecContext(ctx, stmt, args...); err != nil {
			return nil, err
		}
	}

	return db.GetProfile(ctx, userID)
}
