package backend

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/core"
)

func transition(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	to, err := core.ParseStatus(req.PostFormValue("to"))
	if err != nil {
		return err
	}

	article, err := ctx.db.TransitionArticle(req.Context(), ctx.Profile(), params.ByName("id"), to, req.PostFormValue("comment"))
	if err != nil {
		var terr *core.TransitionError
		if errors.As(err, &terr) {
			ctx.Danger(terr) // the article is unchanged, so we can go back
			ctx.SeeOther("/edit/%s", params.ByName("id"))
			return nil
		}
		return err
	}

	ctx.Success("%s is %s now", article.Title, article.Status.Title())

	if next := req.PostFormValue("next"); next == "approvals" {
		ctx.SeeOther("/approvals")
	} else {
		ctx.SeeOther("/edit/%s", article.ID)
	}
	return nil
}
