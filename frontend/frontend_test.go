package frontend

import (
	stdcontext "context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2/memstore"
	qt "github.com/frankban/quicktest"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
	"github.com/wansing/newsroom/sqldb"
)

func newTestSite(c *qt.C) (*core.CoreDB, http.Handler) {

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	c.Assert(err, qt.IsNil)
	sqlDB.SetMaxOpenConns(1)
	c.Cleanup(func() { sqlDB.Close() })

	var db = &core.CoreDB{
		FallbackPolicy: auth.DefaultFallbackPolicy(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.Assert(db.Init(memstore.New(), ""), qt.IsNil)

	db.UserDB = sqldb.NewUserDB(sqlDB)
	db.ProfileDB = sqldb.NewProfileDB(sqlDB)
	db.CategoryDB = sqldb.NewCategoryDB(sqlDB)
	db.ArticleDB = sqldb.NewArticleDB(sqlDB)
	db.AnalyticsDB = sqldb.NewAnalyticsDB(sqlDB)

	var ctx = stdcontext.Background()
	c.Assert(db.InsertCategory(ctx, &core.Category{ID: "c1", Name: "Politics", Slug: "politics", ColorCode: "#EF4444", IsActive: true}), qt.IsNil)
	c.Assert(db.InsertCategory(ctx, &core.Category{ID: "c2", Name: "Hidden", Slug: "hidden"}), qt.IsNil)

	var now = time.Now()
	for _, a := range []*core.Article{
		{Title: "Budget Passed", Slug: "budget-passed", Content: "The **budget** passed.", CategoryID: "c1", Status: core.Published, PublishedAt: now, IsBreakingNews: true},
		{Title: "Secret Draft", Slug: "secret-draft", Content: "Not yet.", CategoryID: "c1", Status: core.Draft},
		{Title: "Hidden Story", Slug: "hidden-story", Content: "Text", CategoryID: "c2", Status: core.Published, PublishedAt: now},
	} {
		a.CreatedAt, a.UpdatedAt = now, now
		c.Assert(db.InsertArticle(ctx, a), qt.IsNil)
	}

	return db, db.SessionManager.LoadAndSave(NewRouter(db, ""))
}

func get(c *qt.C, h http.Handler, path string) *httptest.ResponseRecorder {
	var rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHome(t *testing.T) {
	c := qt.New(t)
	_, h := newTestSite(c)

	rec := get(c, h, "/")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(strings.Contains(rec.Body.String(), "Budget Passed"), qt.IsTrue)
	c.Assert(strings.Contains(rec.Body.String(), "Secret Draft"), qt.IsFalse)
}

func TestArticle(t *testing.T) {
	c := qt.New(t)
	db, h := newTestSite(c)

	rec := get(c, h, "/article/budget-passed")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(strings.Contains(rec.Body.String(), "<strong>budget</strong>"), qt.IsTrue)

	get(c, h, "/article/budget-passed")

	a, err := db.GetArticleBySlug(stdcontext.Background(), "budget-passed")
	c.Assert(err, qt.IsNil)
	c.Assert(a.ViewCount, qt.Equals, 2)
}

func TestNotFound(t *testing.T) {
	c := qt.New(t)
	db, h := newTestSite(c)

	for _, path := range []string{"/article/secret-draft", "/article/missing", "/category/hidden", "/category/missing", "/nothing/here"} {
		c.Assert(get(c, h, path).Code, qt.Equals, http.StatusNotFound, qt.Commentf("%s", path))
	}

	// unpublished articles are not tracked
	a, err := db.GetArticleBySlug(stdcontext.Background(), "secret-draft")
	c.Assert(err, qt.IsNil)
	c.Assert(a.ViewCount, qt.Equals, 0)
}

func TestCategory(t *testing.T) {
	c := qt.New(t)
	_, h := newTestSite(c)

	rec := get(c, h, "/category/politics")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(strings.Contains(rec.Body.String(), "Budget Passed"), qt.IsTrue)
	c.Assert(strings.Contains(rec.Body.String(), "Hidden Story"), qt.IsFalse)
}
