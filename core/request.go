package core

import (
	"encoding/gob"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/wansing/newsroom/auth"
	"golang.org/x/text/language"
)

type Notification struct {
	Message string
	Style   string
}

func init() {
	gob.Register([]Notification{}) // required for storing Notifications in a session
}

var langMatcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish, // default
	language.Indonesian,
})

var monthNamesID = strings.NewReplacer(
	"January", "Januari",
	"February", "Februari",
	"March", "Maret",
	"May", "Mei",
	"June", "Juni",
	"July", "Juli",
	"August", "Agustus",
	"October", "Oktober",
	"December", "Desember",
)

// A Request is created by CoreDB.NewRequest.
type Request struct {
	db      *CoreDB // unexported, so it can't be accessed in templates
	Session *auth.SessionManager

	// http
	writer  http.ResponseWriter
	request *http.Request

	// robustness
	statusWritten bool

	// caching
	language language.Tag
}

// NewRequest creates a Request with the given http.ResponseWriter and http.Request.
// It restores the signed-in user and resolves their profile. The caller must call Cleanup.
func (c *CoreDB) NewRequest(w http.ResponseWriter, httpreq *http.Request) *Request {

	var req = &Request{
		db:      c,
		Session: c.NewSession(),
		writer:  w,
		request: httpreq,
	}

	req.language, _ = language.MatchStrings(langMatcher, httpreq.Header.Get("Accept-Language"))

	if err := req.Session.Start(httpreq.Context()); err != nil {
		c.Logger.Warn("error restoring session", "err", err) // continue anonymously
	}

	return req
}

// Profile returns the profile of the signed-in user, or nil.
func (req *Request) Profile() *auth.Profile {
	return req.Session.Profile()
}

// Can returns whether the signed-in user can access the required role.
func (req *Request) Can(required auth.Role) bool {
	return CanAccess(req.Session.Profile(), required)
}

// Sections returns the admin panel sections the signed-in user can access.
func (req *Request) Sections() []Section {
	return VisibleSections(req.Session.Profile())
}

// Danger adds a "danger" notification to the session.
func (req *Request) Danger(err error) {
	req.addNotification(err.Error(), "danger")
}

// Success adds a "success" notification to the session.
func (req *Request) Success(format string, args ...interface{}) {
	req.addNotification(fmt.Sprintf(format, args...), "success")
}

// style should be a bootstrap alert style without the leading "alert-"
func (req *Request) addNotification(message, style string) {
	notifications, _ := req.db.SessionManager.Get(req.request.Context(), "notifications").([]Notification)
	notifications = append(notifications, Notification{message, style})
	req.db.SessionManager.Put(req.request.Context(), "notifications", notifications)
}

// RenderNotification removes all notifications from the session
// and renders them into an HTML string.
// If the HTTP status had already been written, it does nothing.
func (req *Request) RenderNotifications() template.HTML {
	var r string
	if !req.statusWritten {
		notifications, _ := req.db.SessionManager.Pop(req.request.Context(), "notifications").([]Notification)
		for _, n := range notifications {
			r += `<div class="alert alert-` + n.Style + ` mt-3" role="alert">` + template.HTMLEscapeString(n.Message) + `</div>`
		}
	}
	return template.HTML(r)
}

// Cleanup disposes the SessionManager. It destroys the session (which means re-setting the cookie with zero lifetime) if the session has been modified and is empty now.
func (req *Request) Cleanup() {
	req.Session.Dispose()
	sessMan := req.db.SessionManager
	if sessMan.Status(req.request.Context()) == scs.Modified && len(sessMan.Keys(req.request.Context())) == 0 {
		_ = sessMan.Destroy(req.request.Context())
	}
}

// SeeOther sets the HTTP header to redirect to an URL.
func (req *Request) SeeOther(format string, args ...interface{}) {
	if req.statusWritten {
		return
	}
	var url = fmt.Sprintf(format, args...)
	http.Redirect(req.writer, req.request, url, http.StatusSeeOther)
	req.statusWritten = true
}

// Login signs in a user. On success, the user id is stored in the session and the profile is resolved.
func (req *Request) Login(mail string, enteredPass string) error {
	if req.LoggedIn() {
		return nil
	}
	if err := req.Session.SignIn(req.request.Context(), mail, enteredPass); err != nil {
		return err // is auth.ErrAuth if mail or enteredPass is wrong
	}
	if p := req.Session.Profile(); p != nil {
		req.Success("Welcome %s!", p.FullName)
	}
	return nil
}

func (req *Request) LoggedIn() bool {
	return req.Session.Identity() != nil
}

// Logout signs out and calls req.Cleanup().
func (req *Request) Logout() {
	if req.LoggedIn() {
		if err := req.Session.SignOut(req.request.Context()); err != nil {
			req.db.Logger.Warn("error signing out", "err", err)
		}
	}
	req.Cleanup()
}

// SignUp creates an account with a subscriber profile.
func (req *Request) SignUp(mail, password, fullName string) error {
	return req.Session.SignUp(req.request.Context(), mail, password, fullName)
}

// UpdateProfile updates the profile of the signed-in user.
func (req *Request) UpdateProfile(update auth.ProfileUpdate) error {
	return req.Session.UpdateProfile(req.request.Context(), update)
}

// FormatDateTime formats a timestamp according to the Accept-Language header. Zero timestamps yield an empty string.
func (req *Request) FormatDateTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	b, _ := req.language.Base()
	switch b.String() {
	case "id":
		return monthNamesID.Replace(ts.Format("2 January 2006 15.04"))
	default:
		return ts.Format("January 2, 2006 3:04 PM")
	}
}

// FormatDate is like FormatDateTime without the time of day.
func (req *Request) FormatDate(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	b, _ := req.language.Base()
	switch b.String() {
	case "id":
		return monthNamesID.Replace(ts.Format("2 January 2006"))
	default:
		return ts.Format("January 2, 2006")
	}
}
