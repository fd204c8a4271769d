package backend

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/newsroom/core"
)

var settingsTmpl = tmpl(`<h1>Settings</h1>

	<h2>Categories</h2>

	<div class="table-responsive-sm">
		<table class="table table-sm">
			<thead>
				<tr>
					<th>Name</th>
					<th>Slug</th>
					<th>Order</th>
					<th>Active</th>
					<th></th>
				</tr>
			</thead>
			<tbody>
				{{ range .Categories }}
					<tr>
						<td><span class="badge" style="background-color: {{ .ColorCode }}">&nbsp;</span> {{ .Name }}</td>
						<td>{{ .Slug }}</td>
						<td>{{ .SortOrder }}</td>
						<td>{{ if .IsActive }}yes{{ else }}no{{ end }}</td>
						<td>
							<form action="category/{{ .ID }}" method="post">
								{{ if .IsActive }}
									<button type="submit" class="btn btn-sm btn-outline-secondary" name="active" value="0">Hide</button>
								{{ else }}
									<button type="submit" class="btn btn-sm btn-outline-primary" name="active" value="1">Show</button>
								{{ end }}
							</form>
						</td>
					</tr>
				{{ end }}
			</tbody>
		</table>
	</div>

	<h2>Add category</h2>

	<form class="form-inline" method="post">
		<input type="text" class="form-control mr-2" name="name" placeholder="Name" required maxlength="255">
		<input type="color" class="form-control mr-2" name="color" value="#3B82F6">
		<input type="number" class="form-control mr-2" name="sort_order" placeholder="Order" style="width: 6rem">
		<div class="form-check mr-2">
			<input type="checkbox" class="form-check-input" id="active" name="active" value="1" checked>
			<label class="form-check-label" for="active">Active</label>
		</div>
		<button type="submit" class="btn btn-primary">Add</button>
	</form>`)

type settingsData struct {
	*context
	Categories []*core.Category
}

func settings(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if req.Method == http.MethodPost {
		sortOrder, _ := strconv.Atoi(req.PostFormValue("sort_order"))
		var cat = &core.Category{
			Name:      req.PostFormValue("name"),
			ColorCode: strings.TrimSpace(req.PostFormValue("color")),
			SortOrder: sortOrder,
			IsActive:  req.PostFormValue("active") != "",
		}
		if err := ctx.db.AddCategory(req.Context(), ctx.Profile(), cat); err != nil {
			ctx.Danger(err)
		} else {
			ctx.Success("category %s has been added", cat.Name)
			ctx.SeeOther("/settings")
			return nil
		}
	}

	categories, err := ctx.db.GetAllCategories(req.Context())
	if err != nil {
		return err
	}

	return settingsTmpl.Execute(w, &settingsData{
		context:    ctx,
		Categories: categories,
	})
}

func category(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var active = req.PostFormValue("active") == "1"
	if err := ctx.db.SetCategoryActive(req.Context(), ctx.Profile(), params.ByName("id"), active); err != nil {
		return err
	}

	if active {
		ctx.Success("the category is shown now")
	} else {
		ctx.Success("the category is hidden now")
	}
	ctx.SeeOther("/settings")
	return nil
}
