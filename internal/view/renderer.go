// Package view renders the HTML pages of the web front end. Templates and
// static assets are embedded in the binary.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"sync"

	"postboard/internal/feed"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded static assets rooted above "static/".
func Static() fs.FS {
	return staticFS
}

// Page names accepted by Renderer.Render.
const (
	PageHome     = "home"
	PagePost     = "post"
	PagePostForm = "post_form"
	PageProfile  = "profile"
	PageAuth     = "auth"
	PageLogin    = "login"
	PageRegister = "register"
	PageNotFound = "notfound"
)

var pageNames = []string{
	PageHome, PagePost, PagePostForm, PageProfile,
	PageAuth, PageLogin, PageRegister, PageNotFound,
}

// Renderer implements fiber.Views over the embedded templates. Every page is
// parsed together with the shared layout and partials.
type Renderer struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
}

// NewRenderer parses all pages eagerly so template errors surface at startup.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{}
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

var funcs = template.FuncMap{
	"pageHref": pageHref,
	"noTags":   func() string { return feed.NoTags },
}

// Load parses the templates. Fiber calls it once when the app is built.
func (r *Renderer) Load() error {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}

	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

// Render executes the named page inside the shared layout. The layout
// arguments Fiber passes are ignored; every page has the same frame.
func (r *Renderer) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	r.mu.RLock()
	t, ok := r.pages[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", binding)
}

// pageHref builds a link to page on top of the base query of a list view.
func pageHref(base string, page int) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
