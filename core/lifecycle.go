package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wansing/newsroom/auth"
)

var (
	ErrIllegalTransition = errors.New("illegal transition")
	ErrForbidden         = errors.New("forbidden")
	ErrCommentRequired   = errors.New("a review comment is required")
)

// A TransitionError is returned if a transition is rejected. The article is unchanged then.
type TransitionError struct {
	ArticleID string
	From      Status
	To        Status
	Reason    string
	Err       error // ErrIllegalTransition, ErrForbidden or ErrCommentRequired
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("can't change article %s from %s to %s: %s", e.ArticleID, e.From, e.To, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// who may trigger a transition
type requirement int

const (
	byAuthor         requirement = iota + 1 // the author, if they may create articles
	byEditor                                // anyone dominating the editor role
	byAuthorOrEditor                        // either of them
)

type edge struct {
	from Status
	to   Status
}

var transitions = map[edge]requirement{
	{Draft, Pending}:      byAuthor,
	{Pending, Approved}:   byEditor,
	{Pending, Rejected}:   byEditor,
	{Approved, Published}: byEditor,
	{Published, Archived}: byEditor,
	{Pending, Draft}:      byAuthorOrEditor,
	{Approved, Draft}:     byAuthorOrEditor,
	{Rejected, Draft}:     byAuthorOrEditor,
}

// Legal returns whether the transition is in the transition table, regardless of the actor.
func Legal(from, to Status) bool {
	_, ok := transitions[edge{from, to}]
	return ok
}

// Targets returns the statuses which can be reached from a status, in lifecycle order.
func Targets(from Status) []Status {
	var targets = []Status{}
	for _, to := range Statuses() {
		if Legal(from, to) {
			targets = append(targets, to)
		}
	}
	return targets
}

func isAuthor(actor *auth.Profile, a *Article) bool {
	return actor != nil && a.AuthorID != "" && actor.UserID == a.AuthorID && CanAccess(actor, auth.Contributor)
}

// allows returns an empty string if the actor satisfies the requirement, else the reason why not.
func (req requirement) allows(actor *auth.Profile, a *Article) string {
	if actor == nil {
		return "not signed in"
	}
	switch req {
	case byAuthor:
		if isAuthor(actor, a) {
			return ""
		}
		return "only the author can do this"
	case byEditor:
		if CanAccess(actor, auth.Editor) {
			return ""
		}
		return "requires role " + auth.Editor.String()
	case byAuthorOrEditor:
		if isAuthor(actor, a) || CanAccess(actor, auth.Editor) {
			return ""
		}
		return "only the author or an editor can do this"
	}
	return "unknown requirement"
}

// Lifecycle applies status transitions to articles. Transitions of the same article are serialized.
type Lifecycle struct {
	mu    sync.Mutex
	locks map[string]*articleLock
	now   func() time.Time
}

type articleLock struct {
	sync.Mutex
	refs int
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		locks: make(map[string]*articleLock),
		now:   time.Now,
	}
}

// lock locks the article id and returns the unlock func.
func (l *Lifecycle) lock(id string) func() {

	l.mu.Lock()
	al, ok := l.locks[id]
	if !ok {
		al = &articleLock{}
		l.locks[id] = al
	}
	al.refs++
	l.mu.Unlock()

	al.Lock()

	return func() {
		al.Unlock()
		l.mu.Lock()
		al.refs--
		if al.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// Do runs f while the article id is locked, like transitions of the same article.
func (l *Lifecycle) Do(id string, f func() error) error {
	unlock := l.lock(id)
	defer unlock()
	return f()
}

// Apply changes the status of the article if the transition is legal and the actor is allowed to trigger it.
// Rejections require a comment.
func (l *Lifecycle) Apply(actor *auth.Profile, a *Article, to Status, comment string) error {
	unlock := l.lock(a.ID)
	defer unlock()
	return l.apply(actor, a, to, comment, false)
}

func (l *Lifecycle) apply(actor *auth.Profile, a *Article, to Status, comment string, automatic bool) error {

	var from = a.Status

	var reject = func(err error, reason string) error {
		return &TransitionError{
			ArticleID: a.ID,
			From:      from,
			To:        to,
			Reason:    reason,
			Err:       err,
		}
	}

	req, ok := transitions[edge{from, to}]
	if !ok {
		return reject(ErrIllegalTransition, "not a legal transition")
	}

	if automatic {
		if from != Approved || to != Published {
			return reject(ErrForbidden, "only publication can happen automatically")
		}
	} else if reason := req.allows(actor, a); reason != "" {
		return reject(ErrForbidden, reason)
	}

	comment = strings.TrimSpace(comment)
	if to == Rejected && comment == "" {
		return reject(ErrCommentRequired, ErrCommentRequired.Error())
	}

	var now = l.now()

	a.Status = to
	a.UpdatedAt = now

	switch to {
	case Approved, Rejected:
		a.ReviewedBy = actor.UserID
		a.ReviewComment = comment
	case Published:
		if a.PublishedAt.IsZero() {
			a.PublishedAt = now
		}
	}

	return nil
}

// Transition loads an article, applies the transition and stores the article.
func (l *Lifecycle) Transition(ctx context.Context, db ArticleDB, actor *auth.Profile, id string, to Status, comment string) (*Article, error) {

	unlock := l.lock(id)
	defer unlock()

	a, err := db.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.apply(actor, a, to, comment, false); err != nil {
		return nil, err
	}

	if err := db.UpdateArticle(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// PublishDue publishes approved articles whose scheduled time has been reached. It returns the published articles.
// Approved articles without a scheduled time are left alone.
func (l *Lifecycle) PublishDue(ctx context.Context, db ArticleDB) ([]*Article, error) {

	approved, err := db.GetArticles(ctx, ArticleFilter{Status: Approved})
	if err != nil {
		return nil, err
	}

	var now = l.now()
	var published = []*Article{}

	for _, candidate := range approved {

		if candidate.ScheduledAt.IsZero() || candidate.ScheduledAt.After(now) {
			continue
		}

		a, err := l.publishDue(ctx, db, candidate.ID, now)
		if err != nil {
			return published, err
		}
		if a != nil {
			published = append(published, a)
		}
	}

	return published, nil
}

// publishDue reloads the article under lock, because it might have changed since it was listed.
func (l *Lifecycle) publishDue(ctx context.Context, db ArticleDB, id string, now time.Time) (*Article, error) {

	unlock := l.lock(id)
	defer unlock()

	a, err := db.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.Status != Approved || a.ScheduledAt.IsZero() || a.ScheduledAt.After(now) {
		return nil, nil
	}

	if err := l.apply(nil, a, Published, "", true); err != nil {
		return nil, err
	}

	return a, db.UpdateArticle(ctx, a)
}
