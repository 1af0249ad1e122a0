package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/vdi_docgen/internal/intake"
	"github.com/zaqqye/vdi_docgen/internal/render"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/service"
	"github.com/zaqqye/vdi_docgen/internal/views"
)

// FormController serves the two questionnaires.
type FormController struct {
	Svc *service.SubmissionService
}

func (f *FormController) page(form string, multi bool) (views.FormPage, error) {
	sc, err := f.Svc.Schema(form)
	if err != nil {
		return views.FormPage{}, err
	}
	p := views.FormPage{
		Title:  sc.Title,
		Form:   form,
		Multi:  multi,
		Scoped: sc.HasSites(),
		Groups: sc.Layout(multi),
	}
	switch form {
	case schema.Presales:
		p.Action, p.Download = "/presales/submit", "/presales/download"
	case schema.PDG:
		p.Action, p.Download = "/pdg/submit", "/pdg/download-docx"
	}
	return p, nil
}

func (f *FormController) PresalesForm(c *gin.Context) {
	p, err := f.page(schema.Presales, false)
	if err != nil {
		htmlError(c, err)
		return
	}
	c.HTML(http.StatusOK, views.PageForm, p)
}

func (f *FormController) PresalesSubmit(c *gin.Context) {
	f.submit(c, schema.Presales)
}

// PresalesDownload returns the summary of the posted answers without saving them.
func (f *FormController) PresalesDownload(c *gin.Context) {
	f.download(c, schema.Presales, "presales-summary", render.FormatMarkdown)
}

func (f *FormController) PDGScope(c *gin.Context) {
	c.HTML(http.StatusOK, views.PageScope, views.ScopePage{Title: "Pre-Deployment Guide", Action: "/pdg/form"})
}

func (f *FormController) PDGForm(c *gin.Context) {
	values, err := postedValues(c)
	if err != nil {
		htmlError(c, err)
		return
	}
	p, err := f.page(schema.PDG, intake.IsMulti(values))
	if err != nil {
		htmlError(c, err)
		return
	}
	c.HTML(http.StatusOK, views.PageForm, p)
}

func (f *FormController) PDGSubmit(c *gin.Context) {
	f.submit(c, schema.PDG)
}

func (f *FormController) PDGDownload(c *gin.Context) {
	f.download(c, schema.PDG, "pdg-checklist", render.FormatDocx)
}

func (f *FormController) submit(c *gin.Context, form string) {
	values, err := postedValues(c)
	if err != nil {
		htmlError(c, err)
		return
	}
	rec, err := f.Svc.Submit(c.Request.Context(), form, values)
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		p, perr := f.page(form, intake.IsMulti(values))
		if perr != nil {
			htmlError(c, perr)
			return
		}
		p.Values = values
		p.Errors = verr.Fields()
		c.HTML(http.StatusUnprocessableEntity, views.PageForm, p)
		return
	}
	if err != nil {
		htmlError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/submissions/"+rec.ID+"?created=1")
}

func (f *FormController) download(c *gin.Context, form, template string, format render.Format) {
	values, err := postedValues(c)
	if err != nil {
		htmlError(c, err)
		return
	}
	art, err := f.Svc.ExportDraft(c.Request.Context(), form, template, values, format)
	if err != nil {
		htmlError(c, err)
		return
	}
	sendArtifact(c, art)
}
