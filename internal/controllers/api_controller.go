package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/vdi_docgen/internal/intake"
	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/service"
)

// APIController is the JSON surface under /api/v1.
type APIController struct {
	Svc *service.SubmissionService
}

type submissionRequest struct {
	Fields models.Fields `json:"fields" binding:"required"`
	// SubmittedAt overrides the original submission time on replace.
	SubmittedAt *time.Time `json:"submitted_at"`
}

type estimateRequest struct {
	Form   string        `json:"form"`
	Fields models.Fields `json:"fields"`
}

func (a *APIController) Schema(c *gin.Context) {
	sc, err := a.Svc.Schema(c.Param("form"))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":           sc.Name,
		"title":          sc.Title,
		"site_label":     sc.SiteLabel,
		"prefixed":       sc.Prefixed,
		"fields":         sc.Fields,
		"percent_groups": sc.PercentGroups,
		"templates":      a.Svc.Renderer().Templates(sc.Name),
	})
}

func (a *APIController) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Form == "" {
		req.Form = schema.Presales
	}
	m, err := a.Svc.Estimate(req.Form, intake.ValuesFromFields(req.Fields))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (a *APIController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	recs, err := a.Svc.List(c.Request.Context(), service.Filter{
		Form:  c.Query("form"),
		Query: c.Query("q"),
		Limit: limit,
	})
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submissions": recs,
		"total":       len(recs),
	})
}

func (a *APIController) Get(c *gin.Context) {
	rec, err := a.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submission": rec,
		"metrics":    a.Svc.Metrics(rec),
	})
}

func (a *APIController) Create(c *gin.Context) {
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := a.Svc.Submit(c.Request.Context(), c.Param("form"), intake.ValuesFromFields(req.Fields))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"submission": rec,
		"metrics":    a.Svc.Metrics(rec),
	})
}

// Replace swaps a stored record for the posted one. Admin only.
func (a *APIController) Replace(c *gin.Context) {
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := a.Svc.Replace(c.Request.Context(), c.Param("id"), intake.ValuesFromFields(req.Fields), req.SubmittedAt)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submission": rec,
		"metrics":    a.Svc.Metrics(rec),
	})
}
