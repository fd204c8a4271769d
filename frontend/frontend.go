// Package frontend serves the public news site: the home page, category pages and articles.
package frontend

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-extras/go-kit/must"
	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/core"
	"github.com/wansing/newsroom/util"
)

const perPage = 10

type context struct {
	*core.Request
	Base       string // url prefix without trailing slash
	Title      string
	Categories []*core.Category
	db         *core.CoreDB
}

// CanAdmin returns whether the admin panel should be linked.
func (ctx *context) CanAdmin() bool {
	return ctx.Can(core.AdminRole)
}

func handle(db *core.CoreDB, base string, f func(http.ResponseWriter, *http.Request, *context, httprouter.Params) error) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var ctx = &context{
			Request: db.NewRequest(w, req),
			Base:    base,
			db:      db,
		}
		defer ctx.Cleanup()

		categories, err := db.GetActiveCategories(req.Context())
		if err != nil {
			db.Logger.Error("error getting categories", "err", err)
		}
		ctx.Categories = categories

		if err := f(w, req, ctx, params); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				w.WriteHeader(http.StatusNotFound)
				notFoundTmpl.Execute(w, ctx)
				return
			}
			db.Logger.Error("error serving page", "path", req.URL.Path, "err", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}

func NewRouter(db *core.CoreDB, base string) http.Handler {
	var router = httprouter.New()
	router.GET("/", handle(db, base, home))
	router.GET("/category/:slug", handle(db, base, category))
	router.GET("/article/:slug", handle(db, base, article))
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handle(db, base, func(http.ResponseWriter, *http.Request, *context, httprouter.Params) error {
			return core.ErrNotFound
		})(w, req, nil)
	})
	return router
}

func page(req *http.Request) int {
	p, err := strconv.Atoi(req.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

func pageLinks(path string, current, total int) []template.HTML {
	return util.PageLinks(
		current,
		util.NumPages(total, perPage),
		func(page int, name string) string {
			return `<a class="page" href="` + path + `?page=` + strconv.Itoa(page) + `">` + name + `</a>`
		},
		func(page int, name string) string {
			return `<span class="page current">` + name + `</span>`
		},
	)
}

func tmpl(text string) *template.Template {
	t := template.Must(layoutTmpl.Clone())
	t = template.Must(t.Parse(`{{ define "content" }}` + text + `{{ end }}`))
	return t
}

type cardData struct {
	Base string
	*core.Article
}

var notFoundTmpl = tmpl(`<h1>Not found</h1><p>The page you are looking for does not exist.</p>`)

var layoutTmpl = must.Must(template.New("layout").Funcs(
	template.FuncMap{
		"card": func(base string, a *core.Article) cardData {
			return cardData{base, a}
		},
		"Markdown": func(s string) template.HTML {
			return template.HTML(util.RenderMarkdown(s))
		},
	},
).Parse(`<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
		<link rel="stylesheet" type="text/css" href="{{ .Base }}/assets/bootstrap-4.4.1.min.css">
		<title>{{ with .Title }}{{ . }} - {{ end }}News</title>
		<style>
			.card-category { font-size: 0.8rem; text-transform: uppercase; font-weight: bold; }
			.page { padding: 0 0.4rem; }
			.page.current { font-weight: bold; }
			.ticker { background: #dc3545; color: #fff; padding: 0.3rem 0.8rem; }
			.ticker a { color: #fff; }
		</style>
	</head>
	<body>
		<nav class="navbar navbar-expand-md navbar-light bg-light">
			<a class="navbar-brand" href="{{ .Base }}/">News</a>
			<ul class="navbar-nav mr-auto">
				{{ range .Categories }}
					<li class="nav-item"><a class="nav-link" href="{{ $.Base }}/category/{{ .Slug }}" style="color: {{ .ColorCode }};">{{ .Name }}</a></li>
				{{ end }}
			</ul>
			<ul class="navbar-nav">
				{{ if .CanAdmin }}
					<li class="nav-item"><a class="nav-link" href="{{ .Base }}/admin/">Admin</a></li>
				{{ end }}
				{{ with .Profile }}
					<li class="nav-item"><a class="nav-link" href="{{ $.Base }}/admin/profile">{{ .FullName }}</a></li>
					<li class="nav-item"><a class="nav-link" href="{{ $.Base }}/admin/logout">Logout</a></li>
				{{ else }}
					<li class="nav-item"><a class="nav-link" href="{{ .Base }}/admin/login">Login</a></li>
				{{ end }}
			</ul>
		</nav>
		<div class="container pt-3">
			{{ .RenderNotifications }}
			{{ template "content" . }}
		</div>
	</body>
</html>
{{ define "card" }}
	<div class="card h-100">
		{{ with .FeaturedImageURL }}<img class="card-img-top" src="{{ . }}" alt="">{{ end }}
		<div class="card-body">
			<div class="card-category" style="color: {{ .CategoryColor }};">{{ .CategoryName }}</div>
			<h3 class="card-title h5"><a href="{{ .Base }}/article/{{ .Slug }}">{{ .Title }}</a></h3>
			<p class="card-text">{{ .Excerpt }}</p>
			<p class="card-text text-muted small">{{ .AuthorName }} &middot; {{ .ReadingTime }} min read &middot; {{ .ViewCount }} views</p>
		</div>
	</div>
{{ end }}`))
