package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/vdi_docgen/internal/render"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/service"
	"github.com/zaqqye/vdi_docgen/internal/views"
)

// SubmissionController serves stored submissions and their exports.
type SubmissionController struct {
	Svc     *service.SubmissionService
	Schemas *schema.Registry
}

func (s *SubmissionController) History(c *gin.Context) {
	filter := service.Filter{Form: c.Query("form"), Query: c.Query("q")}
	recs, err := s.Svc.List(c.Request.Context(), filter)
	if err != nil {
		htmlError(c, err)
		return
	}
	c.HTML(http.StatusOK, views.PageHistory, views.HistoryPage{
		Title:   "Submission History",
		Query:   filter.Query,
		Form:    filter.Form,
		Forms:   s.Schemas.Names(),
		Records: recs,
	})
}

func (s *SubmissionController) Show(c *gin.Context) {
	rec, err := s.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		htmlError(c, err)
		return
	}
	sc, err := s.Svc.Schema(rec.Form)
	if err != nil {
		htmlError(c, err)
		return
	}
	var links []views.TemplateLink
	for _, t := range s.Svc.Renderer().Templates(rec.Form) {
		links = append(links, views.TemplateLink{Name: t.Name, Title: t.Title})
	}
	multi := strings.EqualFold(rec.Text(schema.ScopeKey), "multi")
	c.HTML(http.StatusOK, views.PageResult, views.ResultPage{
		Title:     sc.Title + " Submission",
		Record:    rec,
		Groups:    sc.Layout(multi),
		Metrics:   s.Svc.Metrics(rec),
		Templates: links,
		Bundle:    len(links) > 0,
		WBS:       rec.Form == schema.Presales,
		Created:   c.Query("created") != "",
	})
}

func (s *SubmissionController) Export(c *gin.Context) {
	format, err := formatOf(c, render.FormatMarkdown)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	art, err := s.Svc.Export(c.Request.Context(), c.Param("id"), c.Param("template"), format)
	if err != nil {
		htmlError(c, err)
		return
	}
	sendArtifact(c, art)
}

// Bundle zips the record's documents; ?template= may be repeated to pick them.
func (s *SubmissionController) Bundle(c *gin.Context) {
	format, err := formatOf(c, render.FormatDocx)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	art, err := s.Svc.Bundle(c.Request.Context(), c.Param("id"), c.QueryArray("template"), format)
	if err != nil {
		htmlError(c, err)
		return
	}
	sendArtifact(c, art)
}

func (s *SubmissionController) WBS(c *gin.Context) {
	art, err := s.Svc.WBS(c.Request.Context(), c.Param("id"))
	if err != nil {
		htmlError(c, err)
		return
	}
	sendArtifact(c, art)
}

func (s *SubmissionController) Preview(c *gin.Context) {
	body, err := s.Svc.Preview(c.Request.Context(), c.Param("id"), c.Param("template"))
	if err != nil {
		htmlError(c, err)
		return
	}
	page := append([]byte("<!doctype html>\n<meta charset=\"utf-8\">\n<body style=\"font-family: Calibri, Arial, sans-serif; max-width: 60rem; margin: 2rem auto\">\n"), body...)
	page = append(page, []byte("</body>\n")...)
	c.Data(http.StatusOK, render.ContentTypeHTML, page)
}
