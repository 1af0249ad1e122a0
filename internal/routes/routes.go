package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/vdi_docgen/internal/config"
	"github.com/zaqqye/vdi_docgen/internal/controllers"
	"github.com/zaqqye/vdi_docgen/internal/middleware"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/service"
)

// Register wires every page and API route. adminHash is the bcrypt hash of the
// admin password; when it is empty, or the token secret is the placeholder,
// login and the admin routes are not served.
func Register(r *gin.Engine, svc *service.SubmissionService, schemas *schema.Registry, cfg *config.Config, adminHash string) {
	formCtrl := &controllers.FormController{Svc: svc}
	subCtrl := &controllers.SubmissionController{Svc: svc, Schemas: schemas}
	apiCtrl := &controllers.APIController{Svc: svc}
	authCtrl := &controllers.AuthController{PasswordHash: adminHash, JWTSecret: cfg.JWTSecret, ExpiresIn: cfg.JWTTTL()}
	healthCtrl := &controllers.HealthController{Svc: svc}

	r.GET("/healthz", healthCtrl.Healthz)
	r.GET("/readyz", healthCtrl.Readyz)

	// Questionnaires
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/presales") })
	r.GET("/presales", formCtrl.PresalesForm)
	r.POST("/presales/submit", formCtrl.PresalesSubmit)
	r.POST("/presales/download", formCtrl.PresalesDownload)

	r.GET("/predeploy", func(c *gin.Context) { c.Redirect(http.StatusFound, "/pdg") })
	r.GET("/pdg", formCtrl.PDGScope)
	r.POST("/pdg/form", formCtrl.PDGForm)
	r.POST("/pdg/submit", formCtrl.PDGSubmit)
	r.POST("/pdg/download-docx", formCtrl.PDGDownload)

	// Stored submissions
	r.GET("/history", subCtrl.History)
	subs := r.Group("/submissions/:id")
	{
		subs.GET("", subCtrl.Show)
		subs.GET("/export/:template", subCtrl.Export)
		subs.GET("/bundle.zip", subCtrl.Bundle)
		subs.GET("/wbs.xlsx", subCtrl.WBS)
		subs.GET("/preview/:template", subCtrl.Preview)
	}

	// Public API
	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authCtrl.Login)
		api.GET("/schema/:form", apiCtrl.Schema)
		api.POST("/estimate", apiCtrl.Estimate)
		api.GET("/submissions", apiCtrl.List)
		api.GET("/submissions/:id", apiCtrl.Get)
		api.POST("/submissions/:form", apiCtrl.Create)
	}

	// Admin-only
	if adminHash == "" || cfg.JWTSecret == "" || cfg.JWTSecret == config.DefaultJWTSecret {
		return
	}
	authMW := middleware.AuthMiddleware(middleware.AuthConfig{JWTSecret: cfg.JWTSecret})
	admin := r.Group("/api/v1", authMW, middleware.RequireRoles(middleware.AdminRole))
	{
		admin.PUT("/submissions/:id", apiCtrl.Replace)
	}
}
