package frontend

import (
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/core"
)

var categoryTmpl = tmpl(`
	<h1 style="color: {{ .Category.ColorCode }};">{{ .Category.Name }}</h1>
	{{ with .Category.Description }}<p class="lead">{{ . }}</p>{{ end }}

	<div class="row">
		{{ range .Articles }}
			<div class="col-md-6 mb-3">
				{{ template "card" card $.Base . }}
			</div>
		{{ else }}
			<p class="col">No articles in this category yet.</p>
		{{ end }}
	</div>

	<nav>{{ range .PageLinks }}{{ . }}{{ end }}</nav>`)

type categoryData struct {
	*context
	Category  *core.Category
	Articles  []*core.Article
	PageLinks []template.HTML
}

func category(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	c, err := ctx.db.GetCategoryBySlug(req.Context(), params.ByName("slug"))
	if err != nil {
		return err
	}
	if !c.IsActive {
		return core.ErrNotFound
	}

	var current = page(req)
	var filter = core.ArticleFilter{
		Status:   core.Published,
		Category: c.Slug,
		Limit:    perPage,
		Offset:   (current - 1) * perPage,
	}

	list, err := ctx.db.GetArticles(req.Context(), filter)
	if err != nil {
		return err
	}

	total, err := ctx.db.CountArticles(req.Context(), filter)
	if err != nil {
		return err
	}

	ctx.Title = c.Name

	return categoryTmpl.Execute(w, &categoryData{
		context:   ctx,
		Category:  c,
		Articles:  list,
		PageLinks: pageLinks(ctx.Base+"/category/"+c.Slug, current, total),
	})
}
