package backend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/util"
)

var profileTmpl = tmpl(`<h1>Profile</h1>

	{{ with .Profile }}

		<p>
			<span class="badge badge-secondary">{{ .Role.Title }}</span>
			{{ if .Synthesized }}
				<span class="badge badge-warning">Your profile could not be loaded. Some features might be unavailable.</span>
			{{ end }}
			{{ with $.FormatDateTime .LastLoginAt }}
				&middot; Last login: {{ . }}
			{{ end }}
		</p>

		<form method="post">
			<div class="form-group row">
				<label class="col-sm-3 col-form-label">Full name</label>
				<div class="col-sm-9">
					<input type="text" class="form-control" name="full_name" value="{{ .FullName }}" required>
				</div>
			</div>
			<div class="form-group row">
				<label class="col-sm-3 col-form-label">Bio</label>
				<div class="col-sm-9">
					<textarea class="form-control" name="bio">{{ .Bio }}</textarea>
				</div>
			</div>
			<div class="form-group row">
				<label class="col-sm-3 col-form-label">Avatar URL</label>
				<div class="col-sm-9">
					<input type="url" class="form-control" name="avatar_url" value="{{ .AvatarURL }}">
				</div>
			</div>
			<div class="form-group row">
				<label class="col-sm-3 col-form-label">Phone</label>
				<div class="col-sm-9">
					<input type="text" class="form-control" name="phone" value="{{ .Phone }}">
				</div>
			</div>
			<div class="form-group row">
				<label class="col-sm-3 col-form-label">Address</label>
				<div class="col-sm-9">
					<textarea class="form-control" name="address">{{ .Address }}</textarea>
				</div>
			</div>
			<button type="submit" class="btn btn-primary" name="save_profile" value="1">Save</button>
		</form>

	{{ end }}

	<h2 class="mt-4">Change Password</h2>

	<form method="post">

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Current password</label>
			<div class="col-sm-9">
				<input type="password" class="form-control" name="old">
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">New password</label>
			<div class="col-sm-9">
				<input type="password" class="form-control" name="new1">
			</div>
		</div>

		<div class="form-group row">
			<label class="col-sm-3 col-form-label">Repeat new password</label>
			<div class="col-sm-9">
				<input type="password" class="form-control" name="new2">
			</div>
		</div>

		<button type="submit" class="btn btn-primary" name="change_password" value="1">Change password</button>

	</form>`)

func formString(req *http.Request, name string) *string {
	var s = strings.TrimSpace(req.PostFormValue(name))
	return &s
}

func profile(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if req.Method == http.MethodPost {

		switch {
		case req.PostFormValue("save_profile") != "":

			var update = auth.ProfileUpdate{
				FullName:  formString(req, "full_name"),
				Bio:       formString(req, "bio"),
				AvatarURL: formString(req, "avatar_url"),
				Phone:     formString(req, "phone"),
				Address:   formString(req, "address"),
			}

			if *update.FullName == "" {
				return errors.New("name is required")
			}

			if err := ctx.UpdateProfile(update); err != nil {
				return err
			}

			ctx.Success("your profile has been saved")

		case req.PostFormValue("change_password") != "":

			var new1 = req.PostFormValue("new1")
			var new2 = req.PostFormValue("new2")

			if new1 != new2 {
				return errors.New("new passwords don't match")
			}

			if problems := util.ValidatePassword(new1); len(problems) > 0 {
				return errors.New(strings.Join(problems, ", "))
			}

			if err := ctx.db.ChangePassword(req.Context(), ctx.Session.Identity().ID, req.PostFormValue("old"), new1); err != nil {
				return err
			}

			ctx.Success("your password has been changed")
		}

		ctx.SeeOther("/profile")
		return nil
	}

	return profileTmpl.Execute(w, ctx)
}
