// Package view renders the HTML pages of the users directory.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

//go:embed templates static
var files embed.FS

const addFormFile = "add.html"

type SortOption struct {
	Value    string
	Label    string
	Selected bool
}

type ListPage struct {
	Search      string
	Sort        string
	SortOptions []SortOption
	Table       Table
	Pagination  *Pagination
}

// NewListPage assembles the list page for a normalized query and its result.
func NewListPage(q domain.ListQuery, res *domain.ListResult) ListPage {
	sort := string(q.Sort)
	return ListPage{
		Search: q.Search,
		Sort:   sort,
		SortOptions: []SortOption{
			{Value: string(domain.SortName), Label: "Name", Selected: q.Sort == domain.SortName},
			{Value: string(domain.SortAge), Label: "Age", Selected: q.Sort == domain.SortAge},
		},
		Table:      UserTable(res.Users),
		Pagination: NewPagination(q.Page, res.TotalPages(), q.Search, sort),
	}
}

type Renderer struct {
	list   *template.Template
	edit   *template.Template
	assets fs.FS
}

// NewRenderer parses the embedded templates. Static assets come from
// staticDir when it is set, otherwise from the embedded copies.
func NewRenderer(staticDir string) (*Renderer, error) {
	list, err := template.ParseFS(files, "templates/layout.html", "templates/list.html")
	if err != nil {
		return nil, fmt.Errorf("parse list template: %w", err)
	}
	edit, err := template.ParseFS(files, "templates/layout.html", "templates/edit.html")
	if err != nil {
		return nil, fmt.Errorf("parse edit template: %w", err)
	}

	var assets fs.FS
	if staticDir != "" {
		assets = os.DirFS(staticDir)
	} else if assets, err = fs.Sub(files, "static"); err != nil {
		return nil, fmt.Errorf("open static assets: %w", err)
	}

	return &Renderer{list: list, edit: edit, assets: assets}, nil
}

func (r *Renderer) RenderList(w io.Writer, page ListPage) error {
	return render(w, r.list, page)
}

func (r *Renderer) RenderEdit(w io.Writer, u *domain.User) error {
	return render(w, r.edit, u)
}

// AddForm returns the add-user page bytes unchanged.
func (r *Renderer) AddForm() ([]byte, error) {
	b, err := fs.ReadFile(r.assets, addFormFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", addFormFile, err)
	}
	return b, nil
}

// render executes into a buffer first so a template failure never leaves a
// half-written page.
func render(w io.Writer, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", t.Name(), err)
	}
	_, err := buf.WriteTo(w)
	return err
}
