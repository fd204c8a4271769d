package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
)

var createTmpl = tmpl(`<h1>Create article</h1>` + articleFormHTML(`
		<button type="submit" class="btn btn-secondary" name="save" value="1">Save draft</button>
		<button type="submit" class="btn btn-primary" name="submit" value="1">Submit for review</button>
		<a class="btn btn-link" href="articles">Cancel</a>`))

type articleData struct {
	*context
	Article    *core.Article
	Categories []*core.Category
}

func (data *articleData) CanFeature() bool {
	return data.Can(auth.Editor)
}

func create(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	categories, err := ctx.db.GetActiveCategories(req.Context())
	if err != nil {
		return err
	}

	var data = &articleData{
		context:    ctx,
		Article:    &core.Article{},
		Categories: categories,
	}

	if req.Method == http.MethodPost {

		a, err := articleForm(req)
		if err != nil {
			return err
		}
		data.Article = a

		var submit = req.PostFormValue("submit") != ""

		if err := ctx.db.CreateArticle(req.Context(), ctx.Profile(), a, submit); err == nil {
			if submit {
				ctx.Success("article %s has been submitted for review", a.Title)
			} else {
				ctx.Success("article %s has been saved as draft", a.Title)
			}
			ctx.SeeOther("/edit/%s", a.ID)
			return nil
		} else {
			ctx.Danger(err) // keep POST data
		}
	}

	return createTmpl.Execute(w, data)
}
