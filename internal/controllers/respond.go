package controllers

import (
	"errors"
	"mime"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/vdi_docgen/internal/intake"
	"github.com/zaqqye/vdi_docgen/internal/render"
	"github.com/zaqqye/vdi_docgen/internal/service"
	"github.com/zaqqye/vdi_docgen/internal/store"
	"github.com/zaqqye/vdi_docgen/internal/utils"
	"github.com/zaqqye/vdi_docgen/internal/views"
)

// statusOf maps service errors onto HTTP statuses.
func statusOf(err error) int {
	var verr *intake.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrUnknownForm),
		errors.Is(err, render.ErrUnknownTemplate):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func publicMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func jsonError(c *gin.Context, err error) {
	status := statusOf(err)
	_ = c.Error(err)
	body := gin.H{"error": publicMessage(status, err)}
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields()
	}
	c.JSON(status, body)
}

func htmlError(c *gin.Context, err error) {
	status := statusOf(err)
	_ = c.Error(err)
	c.HTML(status, views.PageError, views.ErrorPage{Status: status, Message: publicMessage(status, err)})
}

// sendArtifact writes a download with its ETag, answering 304 when the
// client already has it.
func sendArtifact(c *gin.Context, art render.Artifact) {
	etag := utils.ETag(art.Body)
	c.Header("ETag", etag)
	if art.Degraded {
		c.Header("X-Docgen-Degraded", "markdown")
	}
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	c.Data(http.StatusOK, art.ContentType, art.Body)
}

func postedValues(c *gin.Context) (url.Values, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return c.Request.PostForm, nil
}

func formatOf(c *gin.Context, def render.Format) (render.Format, error) {
	raw := c.Query("format")
	if raw == "" {
		return def, nil
	}
	return render.ParseFormat(raw)
}
