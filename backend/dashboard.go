package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
)

var dashboardTmpl = tmpl(`<h1>Dashboard</h1>

	{{ with .Profile }}
		<p>Welcome, {{ .FullName }}.</p>
	{{ end }}

	<div class="row">
		{{ range .Statuses }}
			<div class="col-sm-4 col-lg-2 mb-3">
				<div class="card text-center">
					<div class="card-body">
						<div class="h3">{{ index $.Counts . }}</div>
						<a href="articles?status={{ . }}">{{ StatusBadge . }}</a>
					</div>
				</div>
			</div>
		{{ end }}
	</div>

	<p>{{ .Total }} articles{{ if not .All }} by you{{ end }}, {{ .Views }} views on the latest published ones.</p>

	<h2>Recently updated</h2>

	{{ template "articleTable" .Recent }}`)

type dashboardData struct {
	*context
	All    bool // counts refer to all articles, not only the own ones
	Counts map[core.Status]int
	Total  int
	Views  int
	Recent []*core.Article
}

func (data *dashboardData) Statuses() []core.Status {
	return core.Statuses()
}

func dashboard(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var data = &dashboardData{
		context: ctx,
		All:     ctx.Can(auth.Editor),
	}

	var mine = core.ArticleFilter{}
	if !data.All {
		mine.Author = ctx.Profile().UserID
	}

	if data.All {
		counts, err := ctx.db.CountByStatus(req.Context())
		if err != nil {
			return err
		}
		data.Counts = counts
	} else {
		data.Counts = make(map[core.Status]int)
		for _, s := range core.Statuses() {
			var filter = mine
			filter.Status = s
			count, err := ctx.db.CountArticles(req.Context(), filter)
			if err != nil {
				return err
			}
			data.Counts[s] = count
		}
	}

	for _, count := range data.Counts {
		data.Total += count
	}

	var published = mine
	published.Status = core.Published
	published.Limit = 100
	publishedList, err := ctx.db.GetArticles(req.Context(), published)
	if err != nil {
		return err
	}
	for _, a := range publishedList {
		data.Views += a.ViewCount
	}

	var recent = mine
	recent.Limit = 10
	data.Recent, err = ctx.db.GetArticles(req.Context(), recent)
	if err != nil {
		return err
	}

	return dashboardTmpl.Execute(w, data)
}
