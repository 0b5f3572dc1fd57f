// Package web holds the HTML templates and the renderer that executes them.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"littlesteps/internal/content"
	"littlesteps/internal/models"
)

//go:embed templates
var embedded embed.FS

// Renderer executes page templates inside the shared layout. Each page is
// parsed into its own clone so page-level "content" blocks do not collide.
type Renderer struct {
	pages map[string]*template.Template
}

// Load parses templates from dir, or from the embedded set when dir is "".
func Load(dir string) (*Renderer, error) {
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		return New(sub)
	}
	return New(os.DirFS(dir))
}

// New parses layout.tmpl, components/*.tmpl and one template per pages/*.tmpl.
func New(fsys fs.FS) (*Renderer, error) {
	base, err := template.New("").Funcs(funcMap).ParseFS(fsys, "layout.tmpl", "components/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "pages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to glob pages: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		page, err := clone.ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".tmpl")] = page
	}
	return r, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(page string) bool {
	_, ok := r.pages[page]
	return ok
}

// Render writes page wrapped in the layout.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	return r.execute(w, page, "layout", data)
}

// RenderPartial writes a single named template of page, without the layout.
func (r *Renderer) RenderPartial(w io.Writer, page, name string, data any) error {
	return r.execute(w, page, name, data)
}

// execute buffers output so a failing template never sends half a page.
func (r *Renderer) execute(w io.Writer, page, name string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

var funcMap = template.FuncMap{
	"add": func(a, b int) int {
		return a + b
	},
	"sub": func(a, b int) int {
		return a - b
	},
	"formatTime": func(t time.Time) string {
		return t.Format("3:04 PM")
	},
	"formatDate": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"title":          content.Title,
	"milestoneLabel": content.MilestoneLabel,
	"moodLabel":      content.MoodLabel,
	"scoreBand": func(score *int) string {
		if score == nil {
			return ""
		}
		return string(content.ScoreBand(*score))
	},
	"deref": func(n *int) int {
		if n == nil {
			return 0
		}
		return *n
	},
	"join": strings.Join,
	"photoURL": func(p models.ChildProfile) template.URL {
		// photos are validated as base64 image data URLs before storage
		if strings.HasPrefix(p.Photo, "data:image/") {
			return template.URL(p.Photo)
		}
		return ""
	},
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict needs key/value pairs")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", kv[i])
			}
			m[key] = kv[i+1]
		}
		return m, nil
	},
}
