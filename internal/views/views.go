// Package views renders the server-side pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/catalog"
	"github.com/xuxiaoleilancy/ai-codehub/internal/flash"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page names.
const (
	PageHome   = "home"
	PageLogin  = "login"
	PageModels = "models"
	PageModel  = "model"
	PageError  = "error"
)

// SessionInfo is what templates may know about the visitor.
type SessionInfo struct {
	Authenticated bool
	Username      string
	IsSuperuser   bool
}

// Page is the data every template receives.
type Page struct {
	TitleKey  string
	Lang      string
	Path      string
	Navbar    template.HTML
	Flash     *flash.Notice
	CSRFToken string
	Session   SessionInfo
	Data      any
}

type LoginData struct {
	// Tab is "login" or "register".
	Tab      string
	Username string
	Email    string
}

type ModelsData struct {
	Models     []apiclient.Model
	Criteria   catalog.Criteria
	Frameworks []string
	TaskTypes  []string
	ExportURL  string
	LoadFailed bool
}

type ModelData struct {
	Model apiclient.Model
}

type ErrorData struct {
	Status  int
	Message string
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"fileSize":   catalog.FormatFileSize,
	"timestamp":  formatTimestamp,
	"pathEscape": url.PathEscape,
}

func formatTimestamp(ts apiclient.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.DateTime)
}

// New parses every page together with the shared layout.
func New() (*Renderer, error) {
	layout, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = clone
	}
	return &Renderer{pages: pages}, nil
}

// Render executes the named page inside the layout.
func (r *Renderer) Render(name string, page Page) ([]byte, error) {
	tmpl, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
