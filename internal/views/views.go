package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/alfagnish/userreg/internal/registry"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Page is the data handed to users.html. Exactly one of Users or User is
// meaningful for a given render.
type Page struct {
	Users []registry.User
	User  *registry.User
}

// Renderer writes HTML pages for the user handlers.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer returns a renderer backed by the embedded templates.
func NewRenderer() *Renderer {
	return &Renderer{tmpl: templates}
}

// Users renders the list page.
func (r *Renderer) Users(w io.Writer, users []registry.User) error {
	return r.render(w, Page{Users: users})
}

// User renders the page for a single user.
func (r *Renderer) User(w io.Writer, u registry.User) error {
	return r.render(w, Page{User: &u})
}

// render executes into a buffer first so a failing template never leaves a
// half-written page on w.
func (r *Renderer) render(w io.Writer, page Page) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "users.html", page); err != nil {
		return fmt.Errorf("render users.html: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
