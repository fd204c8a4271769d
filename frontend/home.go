package frontend

import (
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/core"
)

var homeTmpl = tmpl(`
	{{ with .Breaking }}
		<div class="ticker mb-3">
			<strong>Breaking:</strong>
			{{ range . }}
				<a href="{{ $.Base }}/article/{{ .Slug }}">{{ .Title }}</a> &middot;
			{{ end }}
		</div>
	{{ end }}

	{{ if eq .Page 1 }}
		<div class="row">
			{{ range .Featured }}
				<div class="col-md-4 mb-3">
					{{ template "card" card $.Base . }}
				</div>
			{{ end }}
		</div>
	{{ end }}

	<h2>Latest news</h2>

	<div class="row">
		{{ range .Latest }}
			<div class="col-md-6 mb-3">
				{{ template "card" card $.Base . }}
			</div>
		{{ else }}
			<p class="col">No articles yet.</p>
		{{ end }}
	</div>

	<nav>{{ range .PageLinks }}{{ . }}{{ end }}</nav>`)

type homeData struct {
	*context
	Breaking  []*core.Article
	Featured  []*core.Article
	Latest    []*core.Article
	Page      int
	PageLinks []template.HTML
}

func home(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var data = &homeData{
		context: ctx,
		Page:    page(req),
	}

	var err error

	data.Breaking, err = ctx.db.GetArticles(req.Context(), core.ArticleFilter{Status: core.Published, Breaking: true, Limit: 5})
	if err != nil {
		return err
	}

	data.Featured, err = ctx.db.GetArticles(req.Context(), core.ArticleFilter{Status: core.Published, Featured: true, Limit: 3})
	if err != nil {
		return err
	}

	var latest = core.ArticleFilter{
		Status: core.Published,
		Limit:  perPage,
		Offset: (data.Page - 1) * perPage,
	}

	data.Latest, err = ctx.db.GetArticles(req.Context(), latest)
	if err != nil {
		return err
	}

	total, err := ctx.db.CountArticles(req.Context(), latest)
	if err != nil {
		return err
	}
	data.PageLinks = pageLinks(ctx.Base+"/", data.Page, total)

	return homeTmpl.Execute(w, data)
}
