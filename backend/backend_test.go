package backend

import (
	stdcontext "context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2/memstore"
	qt "github.com/frankban/quicktest"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
	"github.com/wansing/newsroom/sqldb"
	"github.com/wansing/newsroom/util"
)

type testServer struct {
	*httptest.Server
	db *core.CoreDB
}

func newTestServer(c *qt.C) *testServer {

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	c.Assert(err, qt.IsNil)
	sqlDB.SetMaxOpenConns(1)
	c.Cleanup(func() { sqlDB.Close() })

	var db = &core.CoreDB{
		FallbackPolicy: auth.DefaultFallbackPolicy(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.Assert(db.Init(memstore.New(), ""), qt.IsNil)

	var users = sqldb.NewUserDB(sqlDB)
	users.Cost = bcrypt.MinCost
	db.UserDB = users
	db.ProfileDB = sqldb.NewProfileDB(sqlDB)
	db.CategoryDB = sqldb.NewCategoryDB(sqlDB)
	db.ArticleDB = sqldb.NewArticleDB(sqlDB)
	db.AnalyticsDB = sqldb.NewAnalyticsDB(sqlDB)

	c.Assert(db.InsertCategory(stdcontext.Background(), &core.Category{ID: "politics", Name: "Politics", Slug: "politics", IsActive: true}), qt.IsNil)

	var mux = http.NewServeMux()
	util.HandlePrefix(mux, "/admin", NewBackendRouter(db, ""))

	var srv = httptest.NewServer(db.SessionManager.LoadAndSave(mux))
	c.Cleanup(srv.Close)

	return &testServer{Server: srv, db: db}
}

// addUser creates an account with a stored profile.
func (s *testServer) addUser(c *qt.C, email string, role auth.Role) string {
	u, err := s.db.InsertUser(stdcontext.Background(), email, "Secret1!")
	c.Assert(err, qt.IsNil)
	c.Assert(s.db.InsertProfile(stdcontext.Background(), &auth.Profile{UserID: u.ID, FullName: email, Role: role, IsActive: true}), qt.IsNil)
	return u.ID
}

// client does not follow redirects
func (s *testServer) client(c *qt.C) *http.Client {
	jar, err := cookiejar.New(nil)
	c.Assert(err, qt.IsNil)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *testServer) get(c *qt.C, client *http.Client, path string) *http.Response {
	resp, err := client.Get(s.URL + path)
	c.Assert(err, qt.IsNil)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func (s *testServer) post(c *qt.C, client *http.Client, path string, form url.Values) *http.Response {
	resp, err := client.PostForm(s.URL+path, form)
	c.Assert(err, qt.IsNil)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func (s *testServer) login(c *qt.C, email string) *http.Client {
	var client = s.client(c)
	resp := s.post(c, client, "/admin/login", url.Values{"email": {email}, "password": {"Secret1!"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
	return client
}

func TestAnonymous(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)
	var client = s.client(c)

	resp := s.get(c, client, "/admin/articles")
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
	c.Assert(resp.Header.Get("Location"), qt.Equals, "/admin/login")

	resp = s.get(c, client, "/admin/login")
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
}

func TestWrongPassword(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)
	s.addUser(c, "anna@example.com", auth.Editor)

	var client = s.client(c)
	resp, err := client.PostForm(s.URL+"/admin/login", url.Values{"email": {"anna@example.com"}, "password": {"wrong"}})
	c.Assert(err, qt.IsNil)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK) // login form again
	c.Assert(string(body), qt.Contains, auth.ErrAuth.Error())

	resp = s.get(c, client, "/admin/")
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
}

// brokenUsers fails to check passwords
type brokenUsers struct {
	core.UserDB
}

func (brokenUsers) LoginUser(ctx stdcontext.Context, email, password string) (*core.User, error) {
	return nil, errors.New("database is locked")
}

func TestLoginError(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)
	s.addUser(c, "anna@example.com", auth.Editor)
	s.db.UserDB = brokenUsers{s.db.UserDB}

	var client = s.client(c)
	resp, err := client.PostForm(s.URL+"/admin/login", url.Values{"email": {"anna@example.com"}, "password": {"Secret1!"}})
	c.Assert(err, qt.IsNil)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.Assert(err, qt.IsNil)

	c.Assert(string(body), qt.Contains, "database is locked")
	c.Assert(string(body), qt.Not(qt.Contains), auth.ErrAuth.Error())
	c.Assert(s.get(c, client, "/admin/").StatusCode, qt.Equals, http.StatusSeeOther)
}

func TestSubscriberIsDenied(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)
	s.addUser(c, "reader@example.com", auth.Subscriber)

	var client = s.client(c)
	resp := s.post(c, client, "/admin/login", url.Values{"email": {"reader@example.com"}, "password": {"Secret1!"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
	c.Assert(resp.Header.Get("Location"), qt.Equals, "/admin/profile")

	c.Assert(s.get(c, client, "/admin/profile").StatusCode, qt.Equals, http.StatusOK)
	c.Assert(s.get(c, client, "/admin/articles").StatusCode, qt.Equals, http.StatusForbidden)
	c.Assert(s.get(c, client, "/admin/").StatusCode, qt.Equals, http.StatusForbidden)
}

func TestSectionRoles(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)
	s.addUser(c, "contributor@example.com", auth.Contributor)
	s.addUser(c, "editor@example.com", auth.Editor)

	var contributor = s.login(c, "contributor@example.com")
	c.Assert(s.get(c, contributor, "/admin/").StatusCode, qt.Equals, http.StatusOK)
	c.Assert(s.get(c, contributor, "/admin/create").StatusCode, qt.Equals, http.StatusOK)
	c.Assert(s.get(c, contributor, "/admin/analytics").StatusCode, qt.Equals, http.StatusOK)
	c.Assert(s.get(c, contributor, "/admin/approvals").StatusCode, qt.Equals, http.StatusForbidden)
	c.Assert(s.get(c, contributor, "/admin/users").StatusCode, qt.Equals, http.StatusForbidden)
	c.Assert(s.get(c, contributor, "/admin/settings").StatusCode, qt.Equals, http.StatusForbidden)
	c.Assert(s.post(c, contributor, "/admin/category/politics", url.Values{"active": {"0"}}).StatusCode, qt.Equals, http.StatusForbidden)

	var editor = s.login(c, "editor@example.com")
	c.Assert(s.get(c, editor, "/admin/analytics?days=7").StatusCode, qt.Equals, http.StatusOK)
	c.Assert(s.get(c, editor, "/admin/approvals").StatusCode, qt.Equals, http.StatusOK)
	c.Assert(s.get(c, editor, "/admin/users").StatusCode, qt.Equals, http.StatusOK)
	c.Assert(s.get(c, editor, "/admin/settings").StatusCode, qt.Equals, http.StatusOK)
}

func TestSettings(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)
	var ctx = stdcontext.Background()
	s.addUser(c, "editor@example.com", auth.Editor)

	var editor = s.login(c, "editor@example.com")

	resp := s.post(c, editor, "/admin/settings", url.Values{"name": {"Sports"}, "color": {"#10B981"}, "sort_order": {"2"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
	c.Assert(resp.Header.Get("Location"), qt.Equals, "/admin/settings")

	sports, err := s.db.GetCategoryBySlug(ctx, "sports")
	c.Assert(err, qt.IsNil)
	c.Assert(sports.IsActive, qt.IsFalse) // checkbox not sent
	c.Assert(sports.SortOrder, qt.Equals, 2)

	resp = s.post(c, editor, "/admin/category/"+sports.ID, url.Values{"active": {"1"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)

	active, err := s.db.GetActiveCategories(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(active, qt.HasLen, 2)

	resp = s.post(c, editor, "/admin/category/politics", url.Values{"active": {"0"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)

	active, err = s.db.GetActiveCategories(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(active, qt.HasLen, 1)
	c.Assert(active[0].Slug, qt.Equals, "sports")
}

func TestFallbackProfile(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)

	// an account without a stored profile
	_, err := s.db.InsertUser(stdcontext.Background(), "journalist@opiniku.id", "Secret1!")
	c.Assert(err, qt.IsNil)

	var client = s.login(c, "journalist@opiniku.id")
	c.Assert(s.get(c, client, "/admin/articles").StatusCode, qt.Equals, http.StatusOK)
	c.Assert(s.get(c, client, "/admin/approvals").StatusCode, qt.Equals, http.StatusForbidden)
}

func TestLogout(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)
	s.addUser(c, "editor@example.com", auth.Editor)

	var client = s.login(c, "editor@example.com")
	c.Assert(s.get(c, client, "/admin/").StatusCode, qt.Equals, http.StatusOK)

	resp := s.get(c, client, "/admin/logout")
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)

	c.Assert(s.get(c, client, "/admin/").StatusCode, qt.Equals, http.StatusSeeOther)
}

func TestReviewWorkflow(t *testing.T) {
	c := qt.New(t)
	var s = newTestServer(c)
	var authorID = s.addUser(c, "contributor@example.com", auth.Contributor)
	s.addUser(c, "editor@example.com", auth.Editor)

	var contributor = s.login(c, "contributor@example.com")
	resp := s.post(c, contributor, "/admin/create", url.Values{
		"title":    {"City Council Votes"},
		"content":  {"The council voted on the budget."},
		"category": {"politics"},
		"submit":   {"1"},
	})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
	c.Assert(strings.HasPrefix(resp.Header.Get("Location"), "/admin/edit/"), qt.IsTrue)

	var id = strings.TrimPrefix(resp.Header.Get("Location"), "/admin/edit/")
	a, err := s.db.GetArticle(stdcontext.Background(), id)
	c.Assert(err, qt.IsNil)
	c.Assert(a.Status, qt.Equals, core.Pending)
	c.Assert(a.AuthorID, qt.Equals, authorID)

	// the author can't approve their own article
	resp = s.post(c, contributor, "/admin/transition/"+id, url.Values{"to": {"approved"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
	a, err = s.db.GetArticle(stdcontext.Background(), id)
	c.Assert(err, qt.IsNil)
	c.Assert(a.Status, qt.Equals, core.Pending)

	var editor = s.login(c, "editor@example.com")
	resp = s.post(c, editor, "/admin/transition/"+id, url.Values{"to": {"rejected"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
	a, err = s.db.GetArticle(stdcontext.Background(), id)
	c.Assert(err, qt.IsNil)
	c.Assert(a.Status, qt.Equals, core.Pending) // comment required

	resp = s.post(c, editor, "/admin/transition/"+id, url.Values{"to": {"approved"}, "next": {"approvals"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)
	c.Assert(resp.Header.Get("Location"), qt.Equals, "/admin/approvals")

	resp = s.post(c, editor, "/admin/transition/"+id, url.Values{"to": {"published"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusSeeOther)

	a, err = s.db.GetArticle(stdcontext.Background(), id)
	c.Assert(err, qt.IsNil)
	c.Assert(a.Status, qt.Equals, core.Published)
	c.Assert(a.PublishedAt.IsZero(), qt.IsFalse)
	c.Assert(a.ReviewedBy, qt.Not(qt.Equals), "")

	// published articles are locked for their author
	c.Assert(s.get(c, contributor, "/admin/edit/"+id).StatusCode, qt.Equals, http.StatusOK)
	resp = s.post(c, contributor, "/admin/edit/"+id, url.Values{"title": {"Changed"}, "content": {"x"}, "category": {"politics"}})
	c.Assert(resp.StatusCode, qt.Equals, http.StatusForbidden)
}
