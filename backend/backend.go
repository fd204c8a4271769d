package backend

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-extras/go-kit/must"
	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
	"github.com/wansing/newsroom/util"
)

// we need the CoreDB in the backend
type context struct {
	*core.Request
	Prefix string // with trailing slash
	db     *core.CoreDB
}

// Actions returns the statuses the signed-in user can move the article to.
func (ctx *context) Actions(a *core.Article) []core.Status {
	return core.AllowedTargets(ctx.Profile(), a)
}

func (ctx *context) CanEdit(a *core.Article) bool {
	return core.CanEdit(ctx.Profile(), a)
}

// middleware requires the signed-in user to access the required role. An empty role allows everyone.
func middleware(db *core.CoreDB, prefix string, required auth.Role, f func(http.ResponseWriter, *http.Request, *context, httprouter.Params) error) func(http.ResponseWriter, *http.Request, httprouter.Params) {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		// similar to the code in the frontend

		var request = db.NewRequest(w, req)

		var ctx = &context{
			Prefix:  prefix + "/admin/",
			Request: request,
			db:      db,
		}
		defer ctx.Cleanup()

		if required != "" {
			if !ctx.LoggedIn() {
				ctx.SeeOther("/login")
				return
			}
			if !ctx.Can(required) {
				denied(w, req, ctx, required)
				return
			}
		}

		if err := f(w, req, ctx, params); err != nil {
			if errors.Is(err, core.ErrForbidden) {
				denied(w, req, ctx, required)
				return
			}
			// probably no template has been executed, so execute error template
			errorTmpl.Execute(w, struct {
				*context
				Err error
			}{
				context: ctx,
				Err:     err,
			})
		}
	}
}

func denied(w http.ResponseWriter, req *http.Request, ctx *context, required auth.Role) {
	ctx.db.Logger.Info("access denied", "path", req.URL.Path, "required", required.String())
	w.WriteHeader(http.StatusForbidden)
	deniedTmpl.Execute(w, struct {
		*context
		Required auth.Role
	}{
		context:  ctx,
		Required: required,
	})
}

var errorTmpl = tmpl(`
	<div class="alert alert-danger" role="alert">
		{{ .Err }}
	</div>`)

var deniedTmpl = tmpl(`
	<h1>Access denied</h1>
	<p>You don't have permission to access this page.</p>
	{{ with .Profile }}
		<p>Your role: <strong>{{ .Role.Title }}</strong>{{ if $.Required.Valid }}, required: <strong>{{ $.Required.Title }}</strong>{{ end }}</p>
	{{ end }}
	<a class="btn btn-secondary" href="/" target="_blank">Back to the site</a>`)

func NewBackendRouter(db *core.CoreDB, prefix string) http.Handler {

	var router = httprouter.New()

	var GETAndPOST = func(path string, handle httprouter.Handle) {
		router.GET(path, handle)
		router.POST(path, handle)
	}

	// public
	GETAndPOST("/login", middleware(db, prefix, "", login))
	GETAndPOST("/signup", middleware(db, prefix, "", signup))

	// any signed-in user
	router.GET("/logout", middleware(db, prefix, auth.Subscriber, logout))
	GETAndPOST("/profile", middleware(db, prefix, auth.Subscriber, profile))

	// admin panel
	for _, section := range core.Sections {
		var handle httprouter.Handle
		switch section.Path {
		case "":
			handle = middleware(db, prefix, section.Required, dashboard)
		case "articles":
			handle = middleware(db, prefix, section.Required, articles)
		case "create":
			handle = middleware(db, prefix, section.Required, create)
		case "analytics":
			handle = middleware(db, prefix, section.Required, analytics)
		case "approvals":
			handle = middleware(db, prefix, section.Required, approvals)
		case "users":
			handle = middleware(db, prefix, section.Required, users)
		case "settings":
			handle = middleware(db, prefix, section.Required, settings)
		default:
			continue
		}
		GETAndPOST("/"+section.Path, handle)
	}

	GETAndPOST("/edit/:id", middleware(db, prefix, core.AdminRole, edit))
	router.POST("/transition/:id", middleware(db, prefix, core.AdminRole, transition))
	router.POST("/upload/:id", middleware(db, prefix, core.AdminRole, uploadImage))
	router.POST("/role/:id", middleware(db, prefix, auth.SuperAdmin, role))
	router.POST("/category/:id", middleware(db, prefix, auth.Editor, category))

	return router
}

func tmpl(text string) *template.Template {
	t := template.Must(backendTmpl.Clone())
	t = template.Must(t.Parse(`{{ define "content" }}` + text + `{{ end }}`))
	return t
}

var backendTmpl = must.Must(template.New("backend").Funcs(
	template.FuncMap{
		"ActionName":  ActionName,
		"FormatTime":  util.FormatTime,
		"StatusBadge": StatusBadge,
	},
).Parse(`
<!DOCTYPE html>
<html>
	<head>
		<base href="{{.Prefix}}">
		<link rel="stylesheet" type="text/css" href="/assets/bootstrap-4.4.1.min.css">
		<meta charset="utf-8">
		<title>Admin</title>

		<style>

			/* bootstrap enhancements */

			.bg-light, .table-light, .table-light > td, .table-light > th {
				background-color: #f4f5f6 !important;
			}

			.col-form-label {
				text-align: right;
			}

			/* html tags */

			body {
				padding-bottom: 1rem;
			}

			h1 {
				font-size: 1.5rem !important;
				margin: 1rem 0 0.7rem !important;
			}

			h2 {
				font-size: 1.3rem !important;
				margin: 0.2rem 0 0.5rem !important;
			}

			table {
				margin-top: 0.5rem;
				border-bottom: 1px solid #dee2e6;
			}

			textarea {
				tab-size: 4;
				-moz-tab-size: 4;
			}

		</style>
	</head>
	<body>

		{{ if .LoggedIn }}

			<nav class="navbar navbar-expand-md bg-light">
				<ul class="navbar-nav">
					<li class="nav-item">
						<a class="nav-link" href="/" target="_blank">View site</a>
					</li>
					{{ range .Sections }}
						<li class="nav-item">
							<a class="nav-link" href="{{ .Path }}">{{ .Name }}</a>
						</li>
					{{ end }}
					{{ with .Profile }}
						<li class="nav-item">
							<a class="nav-link" href="profile">{{ .FullName }} <span class="badge badge-secondary">{{ .Role.Title }}</span></a>
						</li>
					{{ end }}
					<li class="nav-item">
						<a class="nav-link" href="logout">Logout</a>
					</li>
				</ul>
			</nav>

		{{ end }}

		<div class="container pt-3">
			<div class="starter-template">
				{{ .RenderNotifications }}
				{{ template "content" . }}
			</div>
		</div>

	</body>
</html>`))
