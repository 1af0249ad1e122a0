package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

var preview = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders a document's Markdown as an HTML fragment for the browser preview.
func (r *Renderer) HTML(name string, rec models.Submission) ([]byte, error) {
	md, err := r.Markdown(name, rec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := preview.Convert(md, &buf); err != nil {
		return nil, fmt.Errorf("preview %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
