// Package render turns page data into HTML using html/template files laid out
// as a base layout, shared includes and one file per page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"yatube/internal/models"
	"yatube/internal/pagination"
)

//go:embed templates
var embedded embed.FS

const (
	layoutFile   = "layouts/base.html"
	includesGlob = "includes/*.html"
	rootTemplate = "base"
)

// Data is the context handed to every page.
type Data struct {
	Title     string
	Path      string
	User      *models.User
	CSRFToken string
	Year      int

	Page      *pagination.Page
	Posts     []models.Post
	Post      *models.Post
	Group     *models.Group
	Author    *models.User
	PostCount int64

	Groups []models.Group
	Form   map[string]string
	Errors models.FieldErrors
	IsEdit bool
	PostID uint
	Next   string

	SignupEnabled bool
}

// Value returns the submitted value of a form field.
func (d *Data) Value(field string) string {
	if d == nil || d.Form == nil {
		return ""
	}
	return d.Form[field]
}

// FieldErrors returns the messages for one field.
func (d *Data) FieldErrors(field string) []string {
	if d == nil || d.Errors == nil {
		return nil
	}
	return d.Errors.Get(field)
}

// NonFieldErrors returns the messages not tied to a field.
func (d *Data) NonFieldErrors() []string {
	return d.FieldErrors("")
}

// Engine implements fiber.Views over the page templates.
type Engine struct {
	fsys   fs.FS
	reload bool

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New returns an Engine. An empty dir serves the embedded templates; otherwise
// templates are read from dir and re-parsed on every render so edits show up
// without a restart.
func New(dir string) *Engine {
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			panic(err)
		}
		return &Engine{fsys: sub}
	}
	return &Engine{fsys: os.DirFS(dir), reload: true}
}

// NewFS returns an Engine reading templates from fsys.
func NewFS(fsys fs.FS) *Engine {
	return &Engine{fsys: fsys}
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006")
	},
	"linebreaks": func(s string) template.HTML {
		escaped := template.HTMLEscapeString(s)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	},
	"excerpt": func(p models.Post) string {
		return p.Excerpt()
	},
	"fullName": func(u models.User) string {
		return u.FullName()
	},
	"selected": func(current string, id uint) bool {
		return current == fmt.Sprint(id)
	},
}

// Load parses every page under the template root.
func (e *Engine) Load() error {
	pages := make(map[string]*template.Template)
	err := fs.WalkDir(e.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		if path == layoutFile || strings.HasPrefix(path, "includes/") {
			return nil
		}
		t, err := e.parse(path)
		if err != nil {
			return err
		}
		pages[path] = t
		return nil
	})
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

func (e *Engine) parse(page string) (*template.Template, error) {
	t, err := template.New(rootTemplate).Funcs(funcs).ParseFS(e.fsys, layoutFile, includesGlob, page)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page, err)
	}
	return t, nil
}

func (e *Engine) lookup(name string) (*template.Template, error) {
	if e.reload {
		return e.parse(name)
	}

	e.mu.RLock()
	loaded := e.pages != nil
	t, ok := e.pages[name]
	e.mu.RUnlock()

	if !loaded {
		if err := e.Load(); err != nil {
			return nil, err
		}
		e.mu.RLock()
		t, ok = e.pages[name]
		e.mu.RUnlock()
	}
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return t, nil
}

// Render executes page name with binding into w. The layout argument is
// ignored; every page uses the base layout. Output is buffered so a failing
// template writes nothing.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	t, err := e.lookup(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, rootTemplate, binding); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}
