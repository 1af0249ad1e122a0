// Package render turns a submission into export documents: Markdown from
// embedded templates, Word via a pluggable docx engine, zip bundles and the
// WBS spreadsheet.
package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/sizing"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Placeholder stands in for any missing value.
const Placeholder = "—"

var ErrUnknownTemplate = errors.New("unknown template")

type Format string

const (
	FormatMarkdown Format = "md"
	FormatDocx     Format = "docx"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "docx", "word":
		return FormatDocx, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

const (
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypeDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeZip      = "application/zip"
	ContentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeHTML     = "text/html; charset=utf-8"
)

// Artifact is one rendered document ready to download.
type Artifact struct {
	Name        string
	Filename    string
	ContentType string
	Body        []byte
	// Degraded is set when a docx was asked for and Markdown was produced.
	Degraded bool
}

// Template describes one export document.
type Template struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Form  string `json:"form"`
	// Code is the document tag used in file names.
	Code string `json:"code"`
	// Deliverable is the option of the presales deliverables field selecting it.
	Deliverable string `json:"deliverable,omitempty"`
}

// WBSName is the bundle entry for the spreadsheet.
const WBSName = "wbs"

var catalog = []Template{
	{Name: "presales-summary", Title: "Presales Discovery Summary", Form: schema.Presales, Code: "SUMMARY", Deliverable: "Presales Summary"},
	{Name: "sow", Title: "Statement of Work", Form: schema.Presales, Code: "SOW", Deliverable: "SOW"},
	{Name: "hld", Title: "High-Level Design", Form: schema.Presales, Code: "HLD", Deliverable: "HLD"},
	{Name: "loe", Title: "Level of Effort", Form: schema.Presales, Code: "LOE", Deliverable: "LOE"},
	{Name: "pdg-checklist", Title: "Pre-Deployment Guide", Form: schema.PDG, Code: "PDG"},
}

// Effort hours per EPDIO phase used by the LOE.
var effort = []phaseEffort{
	{"Engage", 6},
	{"Plan", 8},
	{"Design", 14},
	{"Implement", 32},
	{"Operate", 12},
}

type phaseEffort struct {
	Phase string
	Hours int
}

type Renderer struct {
	schemas *schema.Registry
	docx    DocxEngine
	log     *zap.Logger
	tmpl    *template.Template
}

func New(schemas *schema.Registry, docx DocxEngine, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"pct": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) + "%" },
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, t := range catalog {
		if tmpl.Lookup(t.Name+".md.tmpl") == nil {
			return nil, fmt.Errorf("template %s has no file", t.Name)
		}
	}
	return &Renderer{schemas: schemas, docx: docx, log: log, tmpl: tmpl}, nil
}

// DocxEngine returns the engine name in use.
func (r *Renderer) DocxEngine() string {
	if r.docx == nil {
		return "none"
	}
	return r.docx.Name()
}

// Templates lists the documents available for a form, in catalog order.
func (r *Renderer) Templates(form string) []Template {
	var out []Template
	for _, t := range catalog {
		if t.Form == form {
			out = append(out, t)
		}
	}
	return out
}

func (r *Renderer) Lookup(name string) (Template, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

func (r *Renderer) resolve(name string, rec models.Submission) (Template, *schema.Schema, error) {
	t, ok := r.Lookup(name)
	if !ok || t.Form != rec.Form {
		return Template{}, nil, fmt.Errorf("%w: %s for form %s", ErrUnknownTemplate, name, rec.Form)
	}
	s, ok := r.schemas.Get(rec.Form)
	if !ok {
		return Template{}, nil, fmt.Errorf("%w: no schema for form %s", ErrUnknownTemplate, rec.Form)
	}
	return t, s, nil
}

// Markdown renders the canonical text of a document. The output depends only
// on the record and its schema.
func (r *Renderer) Markdown(name string, rec models.Submission) ([]byte, error) {
	t, s, err := r.resolve(name, rec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, t.Name+".md.tmpl", newView(t, s, rec)); err != nil {
		return nil, fmt.Errorf("render %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

// Render produces the document in format. A docx that cannot be built falls
// back to Markdown with Degraded set.
func (r *Renderer) Render(ctx context.Context, name string, rec models.Submission, format Format) (Artifact, error) {
	t, _, err := r.resolve(name, rec)
	if err != nil {
		return Artifact{}, err
	}
	md, err := r.Markdown(name, rec)
	if err != nil {
		return Artifact{}, err
	}
	art := Artifact{
		Name:        t.Name,
		Filename:    Filename(rec, t.Code, "md"),
		ContentType: ContentTypeMarkdown,
		Body:        md,
	}
	if format != FormatDocx {
		return art, nil
	}
	if r.docx == nil {
		art.Degraded = true
		return art, nil
	}
	body, err := r.docx.Docx(ctx, t.Title, md, rec.SubmittedAt)
	if err != nil {
		if ctx.Err() != nil {
			return Artifact{}, ctx.Err()
		}
		r.log.Warn("docx render failed, serving markdown",
			zap.String("template", t.Name),
			zap.String("engine", r.docx.Name()),
			zap.String("id", rec.ID),
			zap.Error(err))
		art.Degraded = true
		return art, nil
	}
	art.Filename = Filename(rec, t.Code, "docx")
	art.ContentType = ContentTypeDocx
	art.Body = body
	return art, nil
}

type kv struct {
	Key   string
	Value string
}

// view is the data handed to every template.
type view struct {
	Title       string
	ID          string
	Submitted   string
	Updated     string
	Multi       bool
	Layout      []schema.SlotGroup
	Metrics     sizing.Metrics
	Extra       []kv
	Effort      []phaseEffort
	EffortTotal int

	rec models.Submission
}

const stampLayout = "2006-01-02 15:04 UTC"

func newView(t Template, s *schema.Schema, rec models.Submission) view {
	multi := strings.EqualFold(rec.Text(schema.ScopeKey), "multi")
	v := view{
		Title:   t.Title,
		ID:      orPlaceholder(rec.ID),
		Multi:   multi,
		Layout:  s.Layout(multi),
		Metrics: sizing.FromRecord(rec),
		Effort:  effort,
		rec:     rec,
	}
	v.Submitted = Placeholder
	if !rec.SubmittedAt.IsZero() {
		v.Submitted = rec.SubmittedAt.UTC().Format(stampLayout)
	}
	if rec.UpdatedAt != nil {
		v.Updated = rec.UpdatedAt.UTC().Format(stampLayout)
	}
	for _, e := range effort {
		v.EffortTotal += e.Hours
	}
	for _, k := range rec.Extra.Keys() {
		v.Extra = append(v.Extra, kv{Key: k, Value: orPlaceholder(rec.Extra.Text(k))})
	}
	return v
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// V returns the value of key or the placeholder.
func (v view) V(key string) string {
	return orPlaceholder(v.rec.Text(key))
}

func (v view) Or(key, fallback string) string {
	if s := strings.TrimSpace(v.rec.Text(key)); s != "" {
		return s
	}
	return fallback
}

func (v view) Slot(s schema.Slot) string {
	return v.V(s.Key)
}

func (v view) Filled(s schema.Slot) bool {
	val, ok := v.rec.Lookup(s.Key)
	return ok && !val.IsEmpty()
}

func (v view) StorageGB() string {
	if v.Metrics.StorageGB == nil {
		return "n/a (storage type is not policy replicated)"
	}
	return strconv.Itoa(*v.Metrics.StorageGB) + " GB"
}

// timestamp returns the record time used inside generated archives.
func timestamp(rec models.Submission) time.Time {
	if rec.SubmittedAt.IsZero() {
		return time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return rec.SubmittedAt.UTC()
}
