// Command docgen renders questionnaire answers kept in a YAML file into the
// same documents the web service produces, without a server or a store.
//
// Usage:
//
//	docgen render --input intake.yaml --out ./out
//	docgen preview --input intake.yaml --template sow
//	docgen schema pdg
//	docgen estimate --input intake.yaml
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zaqqye/vdi_docgen/internal/config"
	"github.com/zaqqye/vdi_docgen/internal/logging"
	"github.com/zaqqye/vdi_docgen/internal/render"
	"github.com/zaqqye/vdi_docgen/internal/schema"
)

// app holds what every subcommand needs, built once the flags are parsed.
type app struct {
	cfg       *config.Config
	logLevel  string
	schemaDir string
	engine    string

	log      *zap.Logger
	schemas  *schema.Registry
	renderer *render.Renderer
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	logger, err := logging.New(a.logLevel, "console", "")
	if err != nil {
		return err
	}
	a.log = logger

	a.schemas = schema.Default()
	if a.schemaDir != "" {
		a.schemas, err = schema.LoadDir(a.schemaDir, a.schemas)
		if err != nil {
			return err
		}
	}

	docx := render.NewDocxEngine(render.DocxOptions{
		Engine:        a.engine,
		PandocPath:    a.cfg.PandocPath,
		ReferenceDocx: a.cfg.PandocReferenceDocx,
		Timeout:       a.cfg.PandocTimeout,
	}, a.log)
	a.renderer, err = render.New(a.schemas, docx, a.log)
	return err
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Load()}

	root := &cobra.Command{
		Use:               "docgen",
		Short:             "Render VDI questionnaire answers into delivery documents",
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.schemaDir, "schema-dir", a.cfg.SchemaDir, "directory of schema overrides")
	root.PersistentFlags().StringVar(&a.engine, "docx-engine", a.cfg.DocxEngine, "docx engine (ooxml, pandoc, none)")

	root.AddCommand(
		newRenderCmd(a),
		newPreviewCmd(a),
		newSchemaCmd(a),
		newEstimateCmd(a),
	)
	return root
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
