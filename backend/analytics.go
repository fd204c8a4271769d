package backend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
)

var analyticsPeriods = []int{7, 30, 365} // days

var analyticsTmpl = tmpl(`<h1>Analytics</h1>

	<ul class="nav nav-pills mb-2">
		{{ range .Periods }}
			<li class="nav-item"><a class="nav-link {{ if eq . $.Days }}active{{ end }}" href="analytics?days={{ . }}">{{ . }} days</a></li>
		{{ end }}
	</ul>

	<p>{{ .Recent }} page views in the last {{ .Days }} days{{ if not .All }} on your articles{{ end }}.</p>

	<div class="table-responsive-sm">
		<table class="table table-sm">
			<thead>
				<tr>
					<th>Title</th>
					<th>Status</th>
					<th>Last {{ .Days }} days</th>
					<th>All time</th>
				</tr>
			</thead>
			<tbody>
				{{ range .Stats }}
					<tr>
						<td><a href="edit/{{ .ArticleID }}">{{ .Title }}</a></td>
						<td>{{ StatusBadge .Status }}</td>
						<td>{{ .Recent }}</td>
						<td>{{ .ViewCount }}</td>
					</tr>
				{{ else }}
					<tr><td colspan="4">No articles found.</td></tr>
				{{ end }}
			</tbody>
		</table>
	</div>`)

type analyticsData struct {
	*context
	All     bool // stats refer to all articles, not only the own ones
	Days    int
	Periods []int
	Recent  int
	Stats   []core.ArticleStats
}

func analytics(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var data = &analyticsData{
		context: ctx,
		All:     ctx.Can(auth.Editor),
		Days:    30,
		Periods: analyticsPeriods,
	}

	if d, err := strconv.Atoi(req.URL.Query().Get("days")); err == nil {
		for _, p := range analyticsPeriods {
			if d == p {
				data.Days = d
			}
		}
	}

	var author string
	if !data.All {
		author = ctx.Profile().UserID
	}

	stats, err := ctx.db.GetArticleStats(req.Context(), author, time.Now().AddDate(0, 0, -data.Days), 50)
	if err != nil {
		return err
	}
	data.Stats = stats

	for _, s := range stats {
		data.Recent += s.Recent
	}

	return analyticsTmpl.Execute(w, data)
}
