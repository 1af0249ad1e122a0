// Package views holds the server-rendered pages.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/sizing"
)

//go:embed templates/*.html
var files embed.FS

// Page names accepted by gin's c.HTML.
const (
	PageForm    = "form"
	PageScope   = "scope"
	PageResult  = "result"
	PageHistory = "history"
	PageError   = "error"
)

var pageNames = []string{PageForm, PageScope, PageResult, PageHistory, PageError}

// Pages is a gin HTMLRender with one template set per page, each wrapped in
// the shared layout.
type Pages map[string]*template.Template

func Load() (Pages, error) {
	base, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	pages := Pages{}
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(files, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (p Pages) Instance(name string, data any) render.Render {
	t, ok := p[name]
	if !ok {
		t = p[PageError]
		data = ErrorPage{Status: 500, Message: "unknown page " + name}
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

var funcs = template.FuncMap{
	"value": func(values url.Values, key, def string) string {
		if values == nil {
			return def
		}
		if v, ok := values[key]; ok && len(v) > 0 {
			return v[0]
		}
		return def
	},
	"checked": func(values url.Values, key, option, def string) bool {
		if values == nil {
			for _, d := range strings.Split(def, "|") {
				if d == option {
					return true
				}
			}
			return false
		}
		for _, v := range values[key] {
			if v == option {
				return true
			}
		}
		return false
	},
	"stamp": func(v any) string {
		var t time.Time
		switch tv := v.(type) {
		case time.Time:
			t = tv
		case *time.Time:
			if tv != nil {
				t = *tv
			}
		}
		if t.IsZero() {
			return "—"
		}
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
	"slotOf": func(p FormPage, s schema.Slot) fieldView {
		return fieldView{Page: p, Slot: s}
	},
	"customer": func(rec models.Submission) string {
		for _, k := range []string{"customer_name", "global_customer_name"} {
			if s := rec.Text(k); s != "" {
				return s
			}
		}
		return "—"
	},
	"project": func(rec models.Submission) string {
		for _, k := range []string{"project_name", "global_project_name"} {
			if s := rec.Text(k); s != "" {
				return s
			}
		}
		return "—"
	},
	"text": func(rec models.Submission, key string) string {
		if s := strings.TrimSpace(rec.Text(key)); s != "" {
			return s
		}
		return "—"
	},
	"isType": func(f schema.FieldDefinition, types ...string) bool {
		for _, t := range types {
			if string(f.Type) == t {
				return true
			}
		}
		return false
	},
}

// FormPage is the data of an intake form.
type FormPage struct {
	Title    string
	Form     string
	Action   string
	Download string
	Multi    bool
	Scoped   bool
	Groups   []schema.SlotGroup
	// Values are the posted values when the form is redisplayed; nil on first view.
	Values url.Values
	Errors map[string]string
}

type fieldView struct {
	Page FormPage
	Slot schema.Slot
}

type ScopePage struct {
	Title  string
	Action string
}

type TemplateLink struct {
	Name  string
	Title string
}

type ResultPage struct {
	Title     string
	Record    models.Submission
	Groups    []schema.SlotGroup
	Metrics   sizing.Metrics
	Templates []TemplateLink
	Bundle    bool
	WBS       bool
	Created   bool
}

type HistoryPage struct {
	Title   string
	Query   string
	Form    string
	Forms   []string
	Records []models.Submission
}

type ErrorPage struct {
	Status  int
	Message string
}
