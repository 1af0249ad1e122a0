package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DocxEngine converts rendered Markdown into a Word document.
type DocxEngine interface {
	Name() string
	Docx(ctx context.Context, title string, md []byte, modified time.Time) ([]byte, error)
}

type DocxOptions struct {
	Engine        string // ooxml, pandoc or none
	PandocPath    string
	ReferenceDocx string
	Timeout       time.Duration
}

// NewDocxEngine picks the engine once at startup. pandoc is only used when
// the binary resolves on PATH; otherwise the built-in writer is used. "none"
// returns nil and every docx request is served as Markdown.
func NewDocxEngine(opts DocxOptions, log *zap.Logger) DocxEngine {
	if log == nil {
		log = zap.NewNop()
	}
	switch strings.ToLower(opts.Engine) {
	case "none", "off", "markdown":
		log.Info("docx rendering disabled")
		return nil
	case "pandoc":
		path := opts.PandocPath
		if path == "" {
			path = "pandoc"
		}
		resolved, err := exec.LookPath(path)
		if err != nil {
			log.Warn("pandoc not found, using built-in docx writer", zap.String("path", path), zap.Error(err))
			return OOXML{}
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return &Pandoc{Path: resolved, ReferenceDocx: opts.ReferenceDocx, Timeout: timeout}
	}
	return OOXML{}
}

// Pandoc shells out to pandoc, reading GitHub-flavoured Markdown on stdin and
// writing the docx to stdout.
type Pandoc struct {
	Path          string
	ReferenceDocx string
	Timeout       time.Duration
}

func (p *Pandoc) Name() string { return "pandoc" }

func (p *Pandoc) Docx(ctx context.Context, title string, md []byte, _ time.Time) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := []string{"-f", "gfm", "-t", "docx", "-o", "-", "--metadata", "title=" + title}
	if p.ReferenceDocx != "" {
		args = append(args, "--reference-doc="+p.ReferenceDocx)
	}
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Stdin = bytes.NewReader(md)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("pandoc: %w", ctx.Err())
		}
		return nil, fmt.Errorf("pandoc: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("pandoc: empty output")
	}
	return stdout.Bytes(), nil
}
