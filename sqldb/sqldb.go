// Package sqldb implements the storage interfaces of the core and auth packages on top of database/sql.
//
// The schema is created on startup. It works with SQLite and MySQL: ids are uuid strings, timestamps are unix seconds
// where zero means null.
package sqldb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func mustPrepare(db *sql.DB, query string) *sql.Stmt {
	stmt, err := db.Prepare(query)
	if err != nil {
		panic(fmt.Sprintf("error preparing %q: %v", query, err))
	}
	return stmt
}

// mustExec is used for schema statements.
func mustExec(db *sql.DB, query string) {
	if _, err := db.Exec(query); err != nil {
		panic(fmt.Sprintf("error executing %q: %v", query, err))
	}
}

func newID() string {
	return uuid.NewString()
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
