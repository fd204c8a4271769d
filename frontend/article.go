package frontend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/core"
)

var articleTmpl = tmpl(`
	<article>
		{{ if ne .Article.Status.String "published" }}
			<div class="alert alert-warning">Preview: this article is {{ .Article.Status.Title }}.</div>
		{{ end }}
		<div class="card-category" style="color: {{ .Article.CategoryColor }};">
			<a href="{{ .Base }}/category/{{ .Article.CategorySlug }}">{{ .Article.CategoryName }}</a>
		</div>
		<h1>{{ .Article.Title }}</h1>
		<p class="text-muted">
			{{ .Article.AuthorName }}
			{{ with .FormatDateTime .Article.PublishedAt }}&middot; {{ . }}{{ end }}
			&middot; {{ .Article.ReadingTime }} min read
			&middot; {{ .Article.ViewCount }} views
		</p>
		{{ with .Article.FeaturedImageURL }}<img class="img-fluid mb-3" src="{{ . }}" alt="">{{ end }}
		<div class="lead mb-3">{{ .Article.Excerpt }}</div>
		<div>{{ Markdown .Article.Content }}</div>
	</article>

	{{ with .Related }}
		<h2 class="mt-5">Related articles</h2>
		<div class="row">
			{{ range . }}
				<div class="col-md-4 mb-3">
					{{ template "card" card $.Base . }}
				</div>
			{{ end }}
		</div>
	{{ end }}`)

type articleData struct {
	*context
	Article *core.Article
	Related []*core.Article
}

func article(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	a, err := ctx.db.GetArticleBySlug(req.Context(), params.ByName("slug"))
	if err != nil {
		return err
	}

	// don't reveal that unpublished articles exist
	if !core.CanView(ctx.Profile(), a) {
		return core.ErrNotFound
	}

	if a.Status == core.Published {
		var view = core.PageView{
			ArticleID: a.ID,
			PageURL:   req.URL.Path,
			UserAgent: req.UserAgent(),
		}
		if p := ctx.Profile(); p != nil {
			view.UserID = p.UserID
		}
		ctx.db.TrackPageView(req.Context(), view)
		a.ViewCount++
	}

	related, err := ctx.db.GetArticles(req.Context(), core.ArticleFilter{
		Status:   core.Published,
		Category: a.CategorySlug,
		Limit:    4,
	})
	if err != nil {
		return err
	}

	var data = &articleData{
		context: ctx,
		Article: a,
		Related: []*core.Article{},
	}
	for _, r := range related {
		if r.ID != a.ID && len(data.Related) < 3 {
			data.Related = append(data.Related, r)
		}
	}

	ctx.Title = a.Title

	return articleTmpl.Execute(w, data)
}
