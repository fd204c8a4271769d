package backend

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/wansing/newsroom/core"
	"github.com/wansing/newsroom/util"
)

const perPage = 20

var badgeStyles = map[core.Status]string{
	core.Draft:     "secondary",
	core.Pending:   "warning",
	core.Approved:  "info",
	core.Published: "success",
	core.Rejected:  "danger",
	core.Archived:  "dark",
}

var actionNames = map[core.Status]string{
	core.Draft:     "Back to draft",
	core.Pending:   "Submit for review",
	core.Approved:  "Approve",
	core.Published: "Publish",
	core.Rejected:  "Reject",
	core.Archived:  "Archive",
}

// ActionName returns the button label for a transition to the given status.
func ActionName(to core.Status) string {
	if name, ok := actionNames[to]; ok {
		return name
	}
	return to.Title()
}

func StatusBadge(s core.Status) template.HTML {
	style, ok := badgeStyles[s]
	if !ok {
		style = "light"
	}
	return template.HTML(fmt.Sprintf(`<span class="badge badge-%s">%s</span>`, style, template.HTMLEscapeString(s.Title())))
}

// page returns the page number from the query string, starting at 1.
func page(req *http.Request) int {
	p, err := strconv.Atoi(req.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// pageLinks creates bootstrap pagination items. The link is appended to base, which should end with "?" or "&".
func pageLinks(base string, current, total int) []template.HTML {
	return util.PageLinks(
		current,
		util.NumPages(total, perPage),
		func(page int, name string) string {
			return fmt.Sprintf(`<li class="page-item"><a class="page-link" href="%spage=%d">%s</a></li>`, base, page, name)
		},
		func(page int, name string) string {
			return fmt.Sprintf(`<li class="page-item active"><span class="page-link">%s</span></li>`, name)
		},
	)
}

// articleForm reads the editable fields of an article from a POST request.
func articleForm(req *http.Request) (*core.Article, error) {

	scheduledAt, err := util.ParseTime(strings.TrimSpace(req.PostFormValue("scheduled_at")))
	if err != nil {
		return nil, fmt.Errorf("scheduled time: %w", err)
	}

	return &core.Article{
		Title:            req.PostFormValue("title"),
		Content:          req.PostFormValue("content"),
		Excerpt:          req.PostFormValue("excerpt"),
		FeaturedImageURL: strings.TrimSpace(req.PostFormValue("featured_image_url")),
		CategoryID:       req.PostFormValue("category"),
		IsFeatured:       req.PostFormValue("featured") != "",
		IsBreakingNews:   req.PostFormValue("breaking") != "",
		ScheduledAt:      scheduledAt,
	}, nil
}

// articleFormHTML returns the article form which is shared by create and edit. The template data must provide .Article, .Categories and .CanFeature.
func articleFormHTML(buttons string) string {
	return `
	<form method="post">
		<div class="form-group">
			<label>Title</label>
			<input type="text" class="form-control" name="title" value="{{ .Article.Title }}" required maxlength="255">
		</div>
		<div class="form-group">
			<label>Category</label>
			<select class="form-control" name="category" required>
				{{ range .Categories }}
					<option value="{{ .ID }}" {{ if eq .ID $.Article.CategoryID }}selected{{ end }}>{{ .Name }}</option>
				{{ end }}
			</select>
		</div>
		<div class="form-group">
			<label>Excerpt <small class="text-muted">(leave empty to generate it from the content)</small></label>
			<textarea class="form-control" name="excerpt" rows="2">{{ .Article.Excerpt }}</textarea>
		</div>
		<div class="form-group">
			<label>Content <small class="text-muted">(Markdown)</small></label>
			<textarea class="form-control" name="content" rows="15" required>{{ .Article.Content }}</textarea>
		</div>
		<div class="form-group">
			<label>Featured image URL</label>
			<input type="url" class="form-control" name="featured_image_url" value="{{ .Article.FeaturedImageURL }}">
		</div>
		<div class="form-group">
			<label>Scheduled publication <small class="text-muted">(DD.MM.YYYY HH:MM)</small></label>
			<input type="text" class="form-control" name="scheduled_at" value="{{ FormatTime .Article.ScheduledAt }}">
		</div>
		{{ if .CanFeature }}
			<div class="form-check">
				<input type="checkbox" class="form-check-input" id="featured" name="featured" value="1" {{ if .Article.IsFeatured }}checked{{ end }}>
				<label class="form-check-label" for="featured">Featured</label>
			</div>
			<div class="form-check mb-3">
				<input type="checkbox" class="form-check-input" id="breaking" name="breaking" value="1" {{ if .Article.IsBreakingNews }}checked{{ end }}>
				<label class="form-check-label" for="breaking">Breaking news</label>
			</div>
		{{ end }}
		` + buttons + `
	</form>`
}
