package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/upload"
	"github.com/wansing/newsroom/util"
)

const ExcerptLength = 160 // runes

type CoreDB struct {
	AnalyticsDB
	ArticleDB
	CategoryDB
	UserDB
	auth.ProfileDB
	Lifecycle      *Lifecycle
	FallbackPolicy auth.FallbackPolicy
	ProfileTimeout time.Duration
	SessionManager *scs.SessionManager
	Uploads        upload.Store
	Logger         *slog.Logger

	base string // url prefix
}

func (c *CoreDB) Init(sessionStore scs.Store, cookiePath string) error {

	if sessionStore == nil {
		return errors.New("no session store")
	}

	if c.Lifecycle == nil {
		c.Lifecycle = NewLifecycle()
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if c.ProfileTimeout <= 0 {
		c.ProfileTimeout = auth.DefaultProfileTimeout
	}

	c.base = cookiePath

	c.SessionManager = scs.New()
	c.SessionManager.Store = sessionStore
	c.SessionManager.Cookie.Path = cookiePath + "/"         // 'The default value is "/". Passing the empty string "" will result in it being set to the path that the cookie was issued from.'
	c.SessionManager.Cookie.Persist = false                 // Don't store cookie across browser sessions.
	c.SessionManager.Cookie.SameSite = http.SameSiteLaxMode // good CSRF protection if HTTP GET doesn't modify anything
	c.SessionManager.Cookie.Secure = false                  // else running on localhost or behind a http proxy fails
	c.SessionManager.IdleTimeout = 12 * time.Hour
	c.SessionManager.Lifetime = 720 * time.Hour

	return nil
}

// NewSession creates a SessionManager for the cookie session which is stored in ctx. The caller must call Start and Dispose.
func (c *CoreDB) NewSession() *auth.SessionManager {
	return auth.NewSessionManager(
		newAuthClient(c.UserDB, c.SessionManager),
		c.ProfileDB,
		c.FallbackPolicy,
	).WithLogger(c.Logger).WithTimeout(c.ProfileTimeout)
}

// uniqueSlug appends a number to the slug until no other article has it.
func (c *CoreDB) uniqueSlug(ctx context.Context, title string, articleID string) (string, error) {

	var base = util.Slugify(title)
	if base == "" {
		base = "article"
	}

	for i := 1; i <= 100; i++ {
		var slug = base
		if i > 1 {
			slug = fmt.Sprintf("%s-%d", base, i)
		}
		existing, err := c.GetArticleBySlug(ctx, slug)
		if errors.Is(err, ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == articleID {
			return slug, nil
		}
	}

	return "", fmt.Errorf("no free slug for %s", base)
}

// prepare validates the content of an article and derives slug, excerpt and reading time.
func (c *CoreDB) prepare(ctx context.Context, a *Article) error {

	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return errors.New("title can't be empty")
	}
	if strings.TrimSpace(a.Content) == "" {
		return errors.New("content can't be empty")
	}

	if _, err := c.GetCategory(ctx, a.CategoryID); err != nil {
		return fmt.Errorf("category %s: %w", a.CategoryID, err)
	}

	slug, err := c.uniqueSlug(ctx, a.Title, a.ID)
	if err != nil {
		return err
	}
	a.Slug = slug

	a.Excerpt = strings.TrimSpace(a.Excerpt)
	if a.Excerpt == "" {
		a.Excerpt = util.Excerpt(a.Content, ExcerptLength)
	}

	a.ReadingTime = util.ReadingTime(a.Content)
	return nil
}

// CreateArticle stores a new article by the author. If submit is true, it is created as pending, else as draft.
func (c *CoreDB) CreateArticle(ctx context.Context, author *auth.Profile, a *Article, submit bool) error {

	if !CanAccess(author, auth.Contributor) {
		return ErrForbidden
	}

	a.ID = ""
	a.AuthorID = author.UserID
	a.Status = Draft
	if submit {
		a.Status = Pending
	}
	a.PublishedAt = time.Time{}
	a.ReviewedBy = ""
	a.ReviewComment = ""
	a.ViewCount, a.LikeCount, a.CommentCount = 0, 0, 0

	// only editors decide about the front page
	if !CanAccess(author, auth.Editor) {
		a.IsFeatured = false
		a.IsBreakingNews = false
	}

	if err := c.prepare(ctx, a); err != nil {
		return err
	}

	var now = time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := c.InsertArticle(ctx, a); err != nil {
		return err
	}

	c.Logger.Info("article created", "article", a.ID, "author", a.AuthorID, "status", a.Status.String())
	return nil
}

// EditArticle stores the content of an article. Status, author and counters are taken from the stored article.
func (c *CoreDB) EditArticle(ctx context.Context, actor *auth.Profile, edited *Article) error {
	return c.Lifecycle.Do(edited.ID, func() error {

		stored, err := c.GetArticle(ctx, edited.ID)
		if err != nil {
			return err
		}

		if !CanEdit(actor, stored) {
			return ErrForbidden
		}

		stored.Title = edited.Title
		stored.Content = edited.Content
		stored.Excerpt = edited.Excerpt
		stored.FeaturedImageURL = edited.FeaturedImageURL
		stored.CategoryID = edited.CategoryID
		stored.ScheduledAt = edited.ScheduledAt
		if CanAccess(actor, auth.Editor) {
			stored.IsFeatured = edited.IsFeatured
			stored.IsBreakingNews = edited.IsBreakingNews
		}

		if err := c.prepare(ctx, stored); err != nil {
			return err
		}

		stored.UpdatedAt = time.Now()
		return c.UpdateContent(ctx, stored)
	})
}

// TransitionArticle changes the status of an article, see Lifecycle.
func (c *CoreDB) TransitionArticle(ctx context.Context, actor *auth.Profile, id string, to Status, comment string) (*Article, error) {

	a, err := c.Lifecycle.Transition(ctx, c.ArticleDB, actor, id, to, comment)
	if err != nil {
		return nil, err
	}

	c.Logger.Info("article status changed", "article", a.ID, "status", a.Status.String(), "by", actor.UserID)
	return a, nil
}

// PublishScheduled publishes all approved articles which are due.
func (c *CoreDB) PublishScheduled(ctx context.Context) {
	published, err := c.Lifecycle.PublishDue(ctx, c.ArticleDB)
	for _, a := range published {
		c.Logger.Info("scheduled article published", "article", a.ID)
	}
	if err != nil {
		c.Logger.Error("error publishing scheduled articles", "err", err)
	}
}

// TrackPageView shadows AnalyticsDB.TrackPageView. Errors are logged only.
func (c *CoreDB) TrackPageView(ctx context.Context, v PageView) {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	if err := c.AnalyticsDB.TrackPageView(ctx, v); err != nil {
		c.Logger.Warn("error tracking page view", "article", v.ArticleID, "err", err)
	}
}

// ChangeRole sets the role of another user. Only super admins can do that.
func (c *CoreDB) ChangeRole(ctx context.Context, actor *auth.Profile, userID string, role auth.Role) error {

	if !CanAccess(actor, auth.SuperAdmin) {
		return ErrForbidden
	}
	if actor.UserID == userID {
		return errors.New("you can't change your own role")
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role: %s", role)
	}

	if err := c.ProfileDB.SetRole(ctx, userID, role); err != nil {
		return err
	}

	c.Logger.Info("role changed", "user", userID, "role", role.String(), "by", actor.UserID)
	return nil
}

// UploadImage stores an image in the folder of the article and makes it the featured image.
func (c *CoreDB) UploadImage(ctx context.Context, actor *auth.Profile, articleID string, filename string, src io.Reader) (*Article, error) {

	if c.Uploads == nil {
		return nil, errors.New("uploads are not configured")
	}

	filename, err := upload.CleanFilename(filename)
	if err != nil {
		return nil, err
	}
	filename = fmt.Sprintf("%d-%s", time.Now().Unix(), strings.ToLower(filename))

	var a *Article
	err = c.Lifecycle.Do(articleID, func() error {

		var err error
		a, err = c.GetArticle(ctx, articleID)
		if err != nil {
			return err
		}

		if !CanEdit(actor, a) {
			return ErrForbidden
		}

		if err := c.Uploads.Folder(a.ID).Upload(filename, src); err != nil {
			return err
		}

		a.FeaturedImageURL = c.base + "/uploads/" + a.ID + "/" + filename
		a.UpdatedAt = time.Now()
		return c.UpdateContent(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	c.Logger.Info("image uploaded", "article", a.ID, "file", filename)
	return a, nil
}

// AddCategory stores a new category. The slug is derived from the name.
func (c *CoreDB) AddCategory(ctx context.Context, actor *auth.Profile, cat *Category) error {

	if !CanAccess(actor, auth.Editor) {
		return ErrForbidden
	}

	cat.ID = ""
	cat.Name = strings.TrimSpace(cat.Name)
	if cat.Name == "" {
		return errors.New("name can't be empty")
	}

	cat.Slug = util.Slugify(cat.Name)
	if cat.Slug == "" {
		return fmt.Errorf("no slug for %s", cat.Name)
	}
	if _, err := c.GetCategoryBySlug(ctx, cat.Slug); err == nil {
		return fmt.Errorf("category %s exists", cat.Slug)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	var now = time.Now()
	cat.CreatedAt = now
	cat.UpdatedAt = now

	if err := c.InsertCategory(ctx, cat); err != nil {
		return err
	}

	c.Logger.Info("category added", "category", cat.Slug, "by", actor.UserID)
	return nil
}

// SetCategoryActive shows or hides a category on the public site and in the article form.
func (c *CoreDB) SetCategoryActive(ctx context.Context, actor *auth.Profile, id string, active bool) error {

	if !CanAccess(actor, auth.Editor) {
		return ErrForbidden
	}

	if err := c.CategoryDB.SetCategoryActive(ctx, id, active); err != nil {
		return err
	}

	c.Logger.Info("category changed", "category", id, "active", active, "by", actor.UserID)
	return nil
}
