package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/core"
)

var approvalsTmpl = tmpl(`<h1>Approvals</h1>

	<p>{{ len .Articles }} article{{ if ne (len .Articles) 1 }}s{{ end }} waiting for review.</p>

	{{ range .Articles }}
		<div class="card mb-3">
			<div class="card-body">
				<h2 class="card-title"><a href="edit/{{ .ID }}">{{ .Title }}</a></h2>
				<p class="card-subtitle text-muted mb-2">{{ .CategoryName }} &middot; {{ .AuthorName }} &middot; {{ $.FormatDateTime .UpdatedAt }} &middot; {{ .ReadingTime }} min read</p>
				<p class="card-text">{{ .Excerpt }}</p>
				<form class="form-inline d-inline-block mr-2" action="transition/{{ .ID }}" method="post">
					<input type="hidden" name="to" value="approved">
					<input type="hidden" name="next" value="approvals">
					<button type="submit" class="btn btn-sm btn-success">Approve</button>
				</form>
				<form class="form-inline d-inline-block" action="transition/{{ .ID }}" method="post">
					<input type="hidden" name="to" value="rejected">
					<input type="hidden" name="next" value="approvals">
					<input type="text" class="form-control form-control-sm mr-1" name="comment" placeholder="Reason" required>
					<button type="submit" class="btn btn-sm btn-danger">Reject</button>
				</form>
			</div>
		</div>
	{{ end }}

	<h2 class="mt-4">Approved, waiting for publication</h2>

	{{ template "articleTable" .Approved }}`)

type approvalsData struct {
	*context
	Articles []*core.Article // pending
	Approved []*core.Article
}

func approvals(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	pending, err := ctx.db.GetArticles(req.Context(), core.ArticleFilter{Status: core.Pending})
	if err != nil {
		return err
	}

	approved, err := ctx.db.GetArticles(req.Context(), core.ArticleFilter{Status: core.Approved})
	if err != nil {
		return err
	}

	return approvalsTmpl.Execute(w, &approvalsData{
		context:  ctx,
		Articles: pending,
		Approved: approved,
	})
}
