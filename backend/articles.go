package backend

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
)

var articlesTmpl = tmpl(`<h1>Articles</h1>

	<ul class="nav nav-pills mb-2">
		<li class="nav-item"><a class="nav-link {{ if not .Filter.Status }}active{{ end }}" href="articles">All</a></li>
		{{ range .Statuses }}
			<li class="nav-item"><a class="nav-link {{ if eq . $.Filter.Status }}active{{ end }}" href="articles?status={{ . }}">{{ .Title }}</a></li>
		{{ end }}
	</ul>

	{{ template "articleTable" .Articles }}

	<nav><ul class="pagination">{{ range .PageLinks }}{{ . }}{{ end }}</ul></nav>`)

// shared article table
func init() {
	for _, t := range []*template.Template{articlesTmpl, approvalsTmpl, dashboardTmpl} {
		template.Must(t.New("articleTable").Parse(`
			<div class="table-responsive-sm">
				<table class="table table-sm">
					<thead>
						<tr>
							<th>Title</th>
							<th>Category</th>
							<th>Author</th>
							<th>Status</th>
							<th>Updated</th>
							<th>Views</th>
						</tr>
					</thead>
					<tbody>
						{{ range . }}
							<tr>
								<td><a href="edit/{{ .ID }}">{{ .Title }}</a>{{ if .IsBreakingNews }} <span class="badge badge-danger">Breaking</span>{{ end }}{{ if .IsFeatured }} <span class="badge badge-primary">Featured</span>{{ end }}</td>
								<td>{{ .CategoryName }}</td>
								<td>{{ .AuthorName }}</td>
								<td>{{ StatusBadge .Status }}</td>
								<td>{{ FormatTime .UpdatedAt }}</td>
								<td>{{ .ViewCount }}</td>
							</tr>
						{{ else }}
							<tr><td colspan="6">No articles found.</td></tr>
						{{ end }}
					</tbody>
				</table>
			</div>`))
	}
}

type articlesData struct {
	*context
	Filter    core.ArticleFilter
	Articles  []*core.Article
	PageLinks []template.HTML
}

func (data *articlesData) Statuses() []core.Status {
	return core.Statuses()
}

func articles(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var filter = core.ArticleFilter{
		Limit: perPage,
	}

	if s := req.URL.Query().Get("status"); s != "" {
		status, err := core.ParseStatus(s)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	// editors see all articles, others their own
	if !ctx.Can(auth.Editor) {
		filter.Author = ctx.Profile().UserID
	}

	var current = page(req)
	filter.Offset = (current - 1) * perPage

	list, err := ctx.db.GetArticles(req.Context(), filter)
	if err != nil {
		return err
	}

	total, err := ctx.db.CountArticles(req.Context(), filter)
	if err != nil {
		return err
	}

	var query = url.Values{}
	if filter.Status != "" {
		query.Set("status", filter.Status.String())
	}
	var base = "articles?"
	if len(query) > 0 {
		base += query.Encode() + "&"
	}

	return articlesTmpl.Execute(w, &articlesData{
		context:   ctx,
		Filter:    filter,
		Articles:  list,
		PageLinks: pageLinks(base, current, total),
	})
}
