package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zaqqye/vdi_docgen/internal/config"
	"github.com/zaqqye/vdi_docgen/internal/logging"
	"github.com/zaqqye/vdi_docgen/internal/middleware"
	"github.com/zaqqye/vdi_docgen/internal/render"
	"github.com/zaqqye/vdi_docgen/internal/routes"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/service"
	"github.com/zaqqye/vdi_docgen/internal/store"
	"github.com/zaqqye/vdi_docgen/internal/utils"
	"github.com/zaqqye/vdi_docgen/internal/views"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.GELFAddr)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	schemas := schema.Default()
	if cfg.SchemaDir != "" {
		loaded, err := schema.LoadDir(cfg.SchemaDir, schemas)
		if err != nil {
			logger.Error("schema overrides ignored", zap.String("dir", cfg.SchemaDir), zap.Error(err))
		} else {
			schemas = loaded
		}
	}

	st, err := store.Open(cfg, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}

	docx := render.NewDocxEngine(render.DocxOptions{
		Engine:        cfg.DocxEngine,
		PandocPath:    cfg.PandocPath,
		ReferenceDocx: cfg.PandocReferenceDocx,
		Timeout:       cfg.PandocTimeout,
	}, logger)
	renderer, err := render.New(schemas, docx, logger)
	if err != nil {
		logger.Fatal("renderer init failed", zap.Error(err))
	}

	var adminHash string
	switch {
	case cfg.AdminEnabled():
		adminHash, err = utils.HashPassword(cfg.AdminPassword)
		if err != nil {
			logger.Fatal("admin password hash failed", zap.Error(err))
		}
	case cfg.AdminPassword == "":
		logger.Warn("ADMIN_PASSWORD not set, replace API disabled")
	default:
		logger.Warn("JWT_SECRET not set, replace API disabled")
	}

	pages, err := views.Load()
	if err != nil {
		logger.Fatal("views init failed", zap.Error(err))
	}

	svc := service.NewSubmissionService(schemas, st, renderer, logger)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.Logger(logger), gin.Recovery())
	r.HTMLRender = pages
	routes.Register(r, svc, schemas, cfg, adminHash)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("listening",
		zap.String("port", port),
		zap.String("store", st.Name()),
		zap.String("docx_engine", renderer.DocxEngine()))
	if err := r.Run(":" + port); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
