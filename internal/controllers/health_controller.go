package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/vdi_docgen/internal/service"
)

type HealthController struct {
	Svc *service.SubmissionService
}

func (h *HealthController) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings the store.
func (h *HealthController) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	body := gin.H{
		"store":       h.Svc.StoreName(),
		"docx_engine": h.Svc.Renderer().DocxEngine(),
	}
	if err := h.Svc.Ping(ctx); err != nil {
		_ = c.Error(err)
		body["status"] = "unavailable"
		body["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ok"
	c.JSON(http.StatusOK, body)
}
