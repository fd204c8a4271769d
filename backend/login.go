package backend

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/core"
)

var loginTmpl = tmpl(`<h1>Login</h1>
	<form method="post" style="max-width: 20rem; margin: auto;">
		<div class="form-group">
			<label>E-Mail</label>
			<input type="email" class="form-control" name="email" value="{{ .Email }}" required autofocus>
		</div>
		<div class="form-group">
			<label>Password</label>
			<input type="password" class="form-control" name="password" required>
		</div>
		<div class="form-group">
			<button type="submit" class="btn btn-primary" name="login">Login</button>
			<a class="btn btn-link" href="signup">Sign up</a>
		</div>
	</form>`)

type loginData struct {
	*context
	Email string
}

// home is where a signed-in user is sent to: the dashboard if they can access it, else their profile
func (ctx *context) home() {
	if ctx.Can(core.AdminRole) {
		ctx.SeeOther("/")
	} else {
		ctx.SeeOther("/profile")
	}
}

func login(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if ctx.LoggedIn() {
		ctx.home()
		return nil
	}

	var email string

	if req.Method == http.MethodPost {

		email = req.PostFormValue("email")
		password := req.PostFormValue("password")

		err := ctx.Login(email, password)
		switch {
		case err == nil:
			ctx.home()
			return nil
		case errors.Is(err, auth.ErrAuth):
			ctx.Danger(err)
			// keep POST data for email field
		default:
			ctx.db.Logger.Error("error signing in", "email", email, "err", err)
			return err
		}
	}

	return loginTmpl.Execute(w, &loginData{
		context: ctx,
		Email:   email,
	})
}

var signupTmpl = tmpl(`<h1>Sign up</h1>
	<form method="post" style="max-width: 20rem; margin: auto;">
		<div class="form-group">
			<label>Full name</label>
			<input type="text" class="form-control" name="full_name" value="{{ .FullName }}" required autofocus>
		</div>
		<div class="form-group">
			<label>E-Mail</label>
			<input type="email" class="form-control" name="email" value="{{ .Email }}" required>
		</div>
		<div class="form-group">
			<label>Password</label>
			<input type="password" class="form-control" name="password" required>
		</div>
		<div class="form-group">
			<label>Repeat password</label>
			<input type="password" class="form-control" name="password2" required>
		</div>
		<div class="form-group">
			<button type="submit" class="btn btn-primary" name="signup">Sign up</button>
			<a class="btn btn-link" href="login">Login</a>
		</div>
	</form>`)

type signupData struct {
	*context
	Email    string
	FullName string
}

func signup(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var data = &signupData{
		context: ctx,
	}

	if req.Method == http.MethodPost {

		data.Email = req.PostFormValue("email")
		data.FullName = req.PostFormValue("full_name")

		var password = req.PostFormValue("password")

		if password != req.PostFormValue("password2") {
			ctx.Danger(errors.New("passwords don't match"))
		} else if err := ctx.SignUp(data.Email, password, data.FullName); err != nil {
			ctx.Danger(err)
		} else {
			ctx.Success("Your account has been created. You can log in now.")
			ctx.SeeOther("/login")
			return nil
		}
	}

	return signupTmpl.Execute(w, data)
}
