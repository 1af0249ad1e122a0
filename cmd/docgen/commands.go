package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zaqqye/vdi_docgen/internal/render"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/sizing"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		input, out, format string
		templates          []string
		bundle, noValidate bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write documents for the answers in --input",
		Long: `Renders each --template (default: the form's standard set) into --out.
With --bundle the documents are written as a single zip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			rec, err := a.record(input, !noValidate, time.Now())
			if err != nil {
				return err
			}
			if len(templates) == 0 {
				templates = a.renderer.DefaultBundle(rec)
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}

			var arts []render.Artifact
			if bundle {
				art, err := a.renderer.Bundle(cmd.Context(), rec, templates, f)
				if err != nil {
					return err
				}
				arts = append(arts, art)
			} else {
				for _, name := range templates {
					var art render.Artifact
					if name == render.WBSName {
						art, err = render.WBS(rec)
					} else {
						art, err = a.renderer.Render(cmd.Context(), name, rec, f)
					}
					if err != nil {
						return err
					}
					arts = append(arts, art)
				}
			}

			for _, art := range arts {
				path := filepath.Join(out, art.Filename)
				if err := os.WriteFile(path, art.Body, 0o644); err != nil {
					return err
				}
				if art.Degraded {
					a.log.Warn("docx unavailable, wrote markdown", zap.String("document", art.Name))
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "YAML file of answers")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory")
	cmd.Flags().StringSliceVarP(&templates, "template", "t", nil, "documents to render (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatDocx), "md or docx")
	cmd.Flags().BoolVar(&bundle, "bundle", false, "write one zip instead of separate files")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "render incomplete answers")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		input, template string
		width           int
		raw             bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print one document to the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.record(input, false, time.Now())
			if err != nil {
				return err
			}
			md, err := a.renderer.Markdown(template, rec)
			if err != nil {
				return err
			}
			if raw {
				_, err = cmd.OutOrStdout().Write(md)
				return err
			}
			tr, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return err
			}
			styled, err := tr.RenderBytes(md)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(styled)
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "YAML file of answers")
	cmd.Flags().StringVarP(&template, "template", "t", "", "document to preview")
	cmd.Flags().IntVar(&width, "width", 80, "wrap width")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the Markdown source")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "schema [presales|pdg]",
		Short:     "Print a questionnaire schema as YAML",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{schema.Presales, schema.PDG},
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, ok := a.schemas.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown form %q (have %v)", args[0], a.schemas.Names())
			}
			return schema.WriteYAML(cmd.OutOrStdout(), sc)
		},
	}
}

func newEstimateCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Print sizing figures for the answers in --input as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.record(input, false, time.Now())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sizing.FromRecord(rec))
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "YAML file of answers")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
