package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2/memstore"
	qt "github.com/frankban/quicktest"

	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/upload"
)

type memProfiles struct {
	roles map[string]auth.Role
}

func (db *memProfiles) GetAllProfiles(ctx context.Context, limit, offset int) ([]*auth.Profile, error) {
	return nil, nil
}

func (db *memProfiles) GetProfile(ctx context.Context, userID string) (*auth.Profile, error) {
	role, ok := db.roles[userID]
	if !ok {
		return nil, auth.ErrProfileNotFound
	}
	return profile(userID, role), nil
}

func (db *memProfiles) InsertProfile(ctx context.Context, p *auth.Profile) error {
	db.roles[p.UserID] = p.Role
	return nil
}

func (db *memProfiles) TouchLastLogin(ctx context.Context, userID string, ts time.Time) error {
	return nil
}

func (db *memProfiles) UpdateProfile(ctx context.Context, userID string, update auth.ProfileUpdate) (*auth.Profile, error) {
	return db.GetProfile(ctx, userID)
}

func (db *memProfiles) SetRole(ctx context.Context, userID string, role auth.Role) error {
	if _, ok := db.roles[userID]; !ok {
		return auth.ErrProfileNotFound
	}
	db.roles[userID] = role
	return nil
}

// memUploads records uploads. It implements upload.Store and upload.Folder.
type memUploads struct {
	articleID string
	files     map[string][]byte
}

func (s *memUploads) Folder(articleID string) upload.Folder {
	s.articleID = articleID
	return s
}

func (s *memUploads) ServeHTTP(w http.ResponseWriter, req *http.Request) {}

func (s *memUploads) ArticleID() string             { return s.articleID }
func (s *memUploads) Delete(filename string) error  { return nil }
func (s *memUploads) Files() ([]fs.FileInfo, error) { return nil, nil }

func (s *memUploads) HasFile(filename string) (bool, error) {
	_, ok := s.files[s.articleID+"/"+filename]
	return ok, nil
}

func (s *memUploads) Upload(filename string, src io.Reader) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	s.files[s.articleID+"/"+filename] = data
	return nil
}

func newTestCoreDB(c *qt.C) (*CoreDB, *memArticles, *memProfiles) {

	var articles = newMemArticles()
	c.Assert(articles.InsertCategory(context.Background(), &Category{ID: "politics", Name: "Politics", Slug: "politics", IsActive: true}), qt.IsNil)

	var profiles = &memProfiles{roles: map[string]auth.Role{
		author.UserID:     auth.Contributor,
		editor.UserID:     auth.Editor,
		superAdmin.UserID: auth.SuperAdmin,
	}}

	var db = &CoreDB{
		ArticleDB:  articles,
		CategoryDB: articles,
		ProfileDB:  profiles,
		Uploads:    &memUploads{files: make(map[string][]byte)},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.Assert(db.Init(memstore.New(), "/news"), qt.IsNil)
	return db, articles, profiles
}

func TestCreateArticle(t *testing.T) {
	c := qt.New(t)
	var db, _, _ = newTestCoreDB(c)
	var ctx = context.Background()

	var a = &Article{
		Title:          "  Election Results  ",
		Content:        "The **votes** have been counted.",
		CategoryID:     "politics",
		Status:         Published,
		IsBreakingNews: true,
		ViewCount:      99,
	}
	c.Assert(db.CreateArticle(ctx, author, a, false), qt.IsNil)
	c.Assert(a.ID, qt.Not(qt.Equals), "")
	c.Assert(a.Title, qt.Equals, "Election Results")
	c.Assert(a.Slug, qt.Equals, "election-results")
	c.Assert(a.Excerpt, qt.Equals, "The votes have been counted.")
	c.Assert(a.ReadingTime, qt.Equals, 1)
	c.Assert(a.Status, qt.Equals, Draft)
	c.Assert(a.AuthorID, qt.Equals, author.UserID)
	c.Assert(a.IsBreakingNews, qt.IsFalse) // contributors can't set it
	c.Assert(a.ViewCount, qt.Equals, 0)
	c.Assert(a.PublishedAt.IsZero(), qt.IsTrue)

	var b = &Article{Title: "Election Results", Content: "More.", CategoryID: "politics", IsFeatured: true}
	c.Assert(db.CreateArticle(ctx, editor, b, true), qt.IsNil)
	c.Assert(b.Slug, qt.Equals, "election-results-2")
	c.Assert(b.Status, qt.Equals, Pending)
	c.Assert(b.IsFeatured, qt.IsTrue)
}

func TestCreateArticleInvalid(t *testing.T) {
	c := qt.New(t)
	var db, _, _ = newTestCoreDB(c)
	var ctx = context.Background()

	c.Assert(db.CreateArticle(ctx, profile("reader", auth.Subscriber), &Article{Title: "x", Content: "y", CategoryID: "politics"}, false), qt.ErrorIs, ErrForbidden)
	c.Assert(db.CreateArticle(ctx, nil, &Article{Title: "x", Content: "y", CategoryID: "politics"}, false), qt.ErrorIs, ErrForbidden)
	c.Assert(db.CreateArticle(ctx, author, &Article{Title: " ", Content: "y", CategoryID: "politics"}, false), qt.ErrorMatches, "title can't be empty")
	c.Assert(db.CreateArticle(ctx, author, &Article{Title: "x", Content: "", CategoryID: "politics"}, false), qt.ErrorMatches, "content can't be empty")
	c.Assert(db.CreateArticle(ctx, author, &Article{Title: "x", Content: "y", CategoryID: "sports"}, false), qt.ErrorIs, ErrNotFound)
}

func TestEditArticle(t *testing.T) {
	c := qt.New(t)
	var db, articles, _ = newTestCoreDB(c)
	var ctx = context.Background()

	var a = &Article{Title: "First", Content: "Text", CategoryID: "politics"}
	c.Assert(db.CreateArticle(ctx, author, a, true), qt.IsNil)

	// pending articles are locked for their author
	var edited = *a
	edited.Title = "Second"
	c.Assert(db.EditArticle(ctx, author, &edited), qt.ErrorIs, ErrForbidden)

	edited.Status = Published // ignored
	edited.IsFeatured = true
	c.Assert(db.EditArticle(ctx, editor, &edited), qt.IsNil)

	stored, err := articles.GetArticle(ctx, a.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Title, qt.Equals, "Second")
	c.Assert(stored.Slug, qt.Equals, "second")
	c.Assert(stored.Status, qt.Equals, Pending)
	c.Assert(stored.IsFeatured, qt.IsTrue)
	c.Assert(stored.AuthorID, qt.Equals, author.UserID)
}

func TestEditDuringScheduledPublish(t *testing.T) {
	c := qt.New(t)
	var db, articles, _ = newTestCoreDB(c)
	var ctx = context.Background()

	var a = &Article{Title: "Story", Content: "Text", CategoryID: "politics", ScheduledAt: time.Now().Add(-time.Minute)}
	c.Assert(db.CreateArticle(ctx, author, a, true), qt.IsNil)
	_, err := db.TransitionArticle(ctx, editor, a.ID, Approved, "")
	c.Assert(err, qt.IsNil)

	// the scheduler runs after the edit has read the article
	var done = make(chan struct{})
	var once sync.Once
	articles.onGet = func(id string) {
		once.Do(func() {
			go func() {
				db.PublishScheduled(ctx)
				close(done)
			}()
		})
	}

	var edited = *a
	edited.Title = "Story, updated"
	c.Assert(db.EditArticle(ctx, editor, &edited), qt.IsNil)
	<-done

	stored, err := articles.GetArticle(ctx, a.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Status, qt.Equals, Published)
	c.Assert(stored.PublishedAt.IsZero(), qt.IsFalse)
	c.Assert(stored.Title, qt.Equals, "Story, updated")
	c.Assert(stored.ReviewedBy, qt.Equals, editor.UserID)
}

func TestContentWritesKeepStatus(t *testing.T) {
	c := qt.New(t)
	var db, articles, _ = newTestCoreDB(c)
	var ctx = context.Background()

	var a = &Article{Title: "Story", Content: "Text", CategoryID: "politics"}
	c.Assert(db.CreateArticle(ctx, author, a, true), qt.IsNil)
	_, err := db.TransitionArticle(ctx, editor, a.ID, Approved, "")
	c.Assert(err, qt.IsNil)

	// another process publishes the article between read and write
	var publishedAt = time.Now().Add(-time.Hour)
	var publish = func(id string) {
		articles.mu.Lock()
		articles.articles[id].Status = Published
		articles.articles[id].PublishedAt = publishedAt
		articles.mu.Unlock()
	}

	c.Run("edit", func(c *qt.C) {
		var once sync.Once
		articles.onGet = func(id string) { once.Do(func() { publish(id) }) }
		defer func() { articles.onGet = nil }()

		var edited = *a
		edited.Title = "Edited"
		c.Assert(db.EditArticle(ctx, editor, &edited), qt.IsNil)

		stored, err := articles.GetArticle(ctx, a.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(stored.Title, qt.Equals, "Edited")
		c.Assert(stored.Status, qt.Equals, Published)
		c.Assert(stored.PublishedAt.Equal(publishedAt), qt.IsTrue)
	})

	c.Run("upload", func(c *qt.C) {
		articles.mu.Lock()
		articles.articles[a.ID].Status = Approved
		articles.mu.Unlock()

		var once sync.Once
		articles.onGet = func(id string) { once.Do(func() { publish(id) }) }
		defer func() { articles.onGet = nil }()

		_, err := db.UploadImage(ctx, editor, a.ID, "photo.png", bytes.NewReader([]byte("png")))
		c.Assert(err, qt.IsNil)

		stored, err := articles.GetArticle(ctx, a.ID)
		c.Assert(err, qt.IsNil)
		c.Assert(strings.HasSuffix(stored.FeaturedImageURL, "-photo.png"), qt.IsTrue)
		c.Assert(stored.Status, qt.Equals, Published)
		c.Assert(stored.PublishedAt.Equal(publishedAt), qt.IsTrue)
	})
}

func TestTransitionArticle(t *testing.T) {
	c := qt.New(t)
	var db, _, _ = newTestCoreDB(c)
	var ctx = context.Background()

	var a = &Article{Title: "Story", Content: "Text", CategoryID: "politics"}
	c.Assert(db.CreateArticle(ctx, author, a, true), qt.IsNil)

	_, err := db.TransitionArticle(ctx, author, a.ID, Approved, "")
	var terr *TransitionError
	c.Assert(errors.As(err, &terr), qt.IsTrue)
	c.Assert(terr.Err, qt.Equals, ErrForbidden)

	approved, err := db.TransitionArticle(ctx, editor, a.ID, Approved, "")
	c.Assert(err, qt.IsNil)
	c.Assert(approved.ReviewedBy, qt.Equals, editor.UserID)

	published, err := db.TransitionArticle(ctx, editor, a.ID, Published, "")
	c.Assert(err, qt.IsNil)
	c.Assert(published.PublishedAt.IsZero(), qt.IsFalse)
}

func TestChangeRole(t *testing.T) {
	c := qt.New(t)
	var db, _, profiles = newTestCoreDB(c)
	var ctx = context.Background()

	c.Assert(db.ChangeRole(ctx, editor, author.UserID, auth.Journalist), qt.ErrorIs, ErrForbidden)
	c.Assert(db.ChangeRole(ctx, superAdmin, superAdmin.UserID, auth.Subscriber), qt.ErrorMatches, "you can't change your own role")
	c.Assert(db.ChangeRole(ctx, superAdmin, author.UserID, "chief"), qt.ErrorMatches, "unknown role: chief")
	c.Assert(db.ChangeRole(ctx, superAdmin, "nobody", auth.Editor), qt.ErrorIs, auth.ErrProfileNotFound)

	c.Assert(db.ChangeRole(ctx, superAdmin, author.UserID, auth.Journalist), qt.IsNil)
	c.Assert(profiles.roles[author.UserID], qt.Equals, auth.Journalist)
}

func TestUploadImage(t *testing.T) {
	c := qt.New(t)
	var db, _, _ = newTestCoreDB(c)
	var ctx = context.Background()

	var a = &Article{Title: "Story", Content: "Text", CategoryID: "politics"}
	c.Assert(db.CreateArticle(ctx, author, a, false), qt.IsNil)

	_, err := db.UploadImage(ctx, colleague, a.ID, "photo.png", bytes.NewReader([]byte("png")))
	c.Assert(err, qt.ErrorIs, ErrForbidden)

	_, err = db.UploadImage(ctx, author, a.ID, "..", bytes.NewReader([]byte("png")))
	c.Assert(err, qt.ErrorIs, upload.ErrInvalidName)

	updated, err := db.UploadImage(ctx, author, a.ID, "../Photo.PNG", bytes.NewReader([]byte("png")))
	c.Assert(err, qt.IsNil)
	c.Assert(strings.HasPrefix(updated.FeaturedImageURL, "/news/uploads/"+a.ID+"/"), qt.IsTrue)
	c.Assert(strings.HasSuffix(updated.FeaturedImageURL, "-photo.png"), qt.IsTrue)
}

func TestCategories(t *testing.T) {
	c := qt.New(t)
	var db, articles, _ = newTestCoreDB(c)
	var ctx = context.Background()

	c.Assert(db.AddCategory(ctx, colleague, &Category{Name: "Sports"}), qt.ErrorIs, ErrForbidden)
	c.Assert(db.AddCategory(ctx, editor, &Category{Name: "  "}), qt.ErrorMatches, "name can't be empty")
	c.Assert(db.AddCategory(ctx, editor, &Category{Name: "Politics"}), qt.ErrorMatches, "category politics exists")

	var sports = &Category{ID: "ignored", Name: " Sports & Games ", ColorCode: "#10B981"}
	c.Assert(db.AddCategory(ctx, editor, sports), qt.IsNil)
	c.Assert(sports.ID, qt.Not(qt.Equals), "ignored")
	c.Assert(sports.Name, qt.Equals, "Sports & Games")
	c.Assert(sports.Slug, qt.Equals, "sports-games")

	c.Assert(db.SetCategoryActive(ctx, colleague, sports.ID, true), qt.ErrorIs, ErrForbidden)
	c.Assert(db.SetCategoryActive(ctx, editor, "missing", true), qt.ErrorIs, ErrNotFound)

	active, err := articles.GetActiveCategories(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(active, qt.HasLen, 1)

	c.Assert(db.SetCategoryActive(ctx, editor, sports.ID, true), qt.IsNil)
	active, err = articles.GetActiveCategories(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(active, qt.HasLen, 2)
}
