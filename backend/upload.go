package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/upload"
)

func uploadImage(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	req.Body = http.MaxBytesReader(w, req.Body, upload.MaxSize+1<<16) // some space for the other multipart fields

	file, header, err := req.FormFile("image")
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := ctx.db.UploadImage(req.Context(), ctx.Profile(), params.ByName("id"), header.Filename, file); err != nil {
		ctx.Danger(err)
	} else {
		ctx.Success("image has been uploaded")
	}

	ctx.SeeOther("/edit/%s", params.ByName("id"))
	return nil
}
