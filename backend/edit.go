package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
)

var editTmpl = tmpl(`<h1>{{ .Article.Title }}</h1>

	<div class="mb-3">
		{{ StatusBadge .Article.Status }}
		&middot; by {{ or .Article.AuthorName "unknown" }}
		&middot; created {{ .FormatDateTime .Article.CreatedAt }}
		{{ with .FormatDateTime .Article.PublishedAt }}&middot; published {{ . }}{{ end }}
		&middot; {{ .Article.ReadingTime }} min read
		&middot; {{ .Article.ViewCount }} views
	</div>

	{{ with .Article.ReviewComment }}
		<div class="alert alert-info">Review comment: {{ . }}</div>
	{{ end }}

	{{ $article := .Article }}
	{{ range .Actions .Article }}
		<form class="form-inline d-inline-block mr-2 mb-3" action="transition/{{ $article.ID }}" method="post">
			<input type="hidden" name="to" value="{{ . }}">
			{{ if eq .String "rejected" }}
				<input type="text" class="form-control form-control-sm mr-1" name="comment" placeholder="Reason" required>
			{{ end }}
			<button type="submit" class="btn btn-sm btn-outline-primary">{{ ActionName . }}</button>
		</form>
	{{ end }}

	{{ if .CanEdit .Article }}
		` + articleFormHTML(`<button type="submit" class="btn btn-primary">Save</button>`) + `

		<h2 class="mt-4">Featured image</h2>
		{{ with .Article.FeaturedImageURL }}<img class="img-thumbnail mb-2" style="max-height: 10rem;" src="{{ . }}" alt="">{{ end }}
		<form class="form-inline" action="upload/{{ .Article.ID }}" method="post" enctype="multipart/form-data">
			<input type="file" class="form-control-file mr-2" name="image" accept="image/gif,image/jpeg,image/png" required>
			<button type="submit" class="btn btn-secondary">Upload image</button>
		</form>
	{{ else }}
		<h2>Excerpt</h2>
		<p>{{ .Article.Excerpt }}</p>
		<h2>Content</h2>
		<pre style="white-space: pre-wrap;">{{ .Article.Content }}</pre>
	{{ end }}`)

func edit(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	article, err := ctx.db.GetArticle(req.Context(), params.ByName("id"))
	if err != nil {
		return err
	}

	// the public site shows published articles, here only editors and the author can see them
	if !ctx.Can(auth.Editor) && article.AuthorID != ctx.Profile().UserID {
		return core.ErrForbidden
	}

	categories, err := ctx.db.GetActiveCategories(req.Context())
	if err != nil {
		return err
	}

	var data = &articleData{
		context:    ctx,
		Article:    article,
		Categories: categories,
	}

	if req.Method == http.MethodPost {

		if !ctx.CanEdit(article) {
			return core.ErrForbidden
		}

		edited, err := articleForm(req)
		if err != nil {
			return err
		}
		edited.ID = article.ID

		if err := ctx.db.EditArticle(req.Context(), ctx.Profile(), edited); err == nil {
			ctx.Success("article has been saved")
			ctx.SeeOther("/edit/%s", article.ID)
			return nil
		} else {
			ctx.Danger(err)
			edited.Status = article.Status
			edited.AuthorName = article.AuthorName
			data.Article = edited
		}
	}

	return editTmpl.Execute(w, data)
}
