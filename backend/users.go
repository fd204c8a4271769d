package backend

import (
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/auth"
)

var usersTmpl = tmpl(`<h1>Users</h1>

	<div class="table-responsive-sm">
		<table class="table table-sm">
			<thead>
				<tr>
					<th>Name</th>
					<th>Role</th>
					<th>Active</th>
					<th>Last login</th>
					{{ if .CanChangeRoles }}<th>Change role</th>{{ end }}
				</tr>
			</thead>
			<tbody>
				{{ range .Profiles }}
					<tr>
						<td>{{ .FullName }}</td>
						<td>{{ .Role.Title }}</td>
						<td>{{ if .IsActive }}yes{{ else }}no{{ end }}</td>
						<td>{{ $.FormatDateTime .LastLoginAt }}</td>
						{{ if $.CanChangeRoles }}
							<td>
								{{ if ne .UserID $.Profile.UserID }}
									<form class="form-inline" action="role/{{ .UserID }}" method="post">
										<select class="form-control form-control-sm mr-1" name="role">
											{{ $role := .Role }}
											{{ range $.Roles }}
												<option value="{{ . }}" {{ if eq . $role }}selected{{ end }}>{{ .Title }}</option>
											{{ end }}
										</select>
										<button type="submit" class="btn btn-sm btn-outline-primary">Save</button>
									</form>
								{{ end }}
							</td>
						{{ end }}
					</tr>
				{{ end }}
			</tbody>
		</table>
	</div>

	<nav><ul class="pagination">{{ range .PageLinks }}{{ . }}{{ end }}</ul></nav>`)

type usersData struct {
	*context
	Profiles  []*auth.Profile
	PageLinks []template.HTML
}

func (data *usersData) CanChangeRoles() bool {
	return data.Can(auth.SuperAdmin)
}

func (data *usersData) Roles() []auth.Role {
	return auth.Roles()
}

func users(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var current = page(req)

	// we don't know the total number, so we link one page more if the current page is full
	profiles, err := ctx.db.GetAllProfiles(req.Context(), perPage+1, (current-1)*perPage)
	if err != nil {
		return err
	}

	var total = (current-1)*perPage + len(profiles)
	if len(profiles) > perPage {
		profiles = profiles[:perPage]
	}

	return usersTmpl.Execute(w, &usersData{
		context:   ctx,
		Profiles:  profiles,
		PageLinks: pageLinks("users?", current, total),
	})
}

func role(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	r, err := auth.ParseRole(req.PostFormValue("role"))
	if err != nil {
		return err
	}

	if err := ctx.db.ChangeRole(req.Context(), ctx.Profile(), params.ByName("id"), r); err != nil {
		return err
	}

	ctx.Success("the role has been changed to %s", r.Title())
	ctx.SeeOther("/users")
	return nil
}
