package render

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/schema"
)

var unsafeName = regexp.MustCompile(`[^a-z0-9._-]+`)

// DefaultBundle lists what a bundle contains when the caller names nothing.
// Presales records follow their deliverables selection.
func (r *Renderer) DefaultBundle(rec models.Submission) []string {
	var names []string
	picked, hasPick := rec.Lookup("deliverables")
	hasPick = hasPick && !picked.IsEmpty()
	for _, t := range r.Templates(rec.Form) {
		if hasPick && t.Deliverable != "" && !picked.Has(t.Deliverable) {
			continue
		}
		names = append(names, t.Name)
	}
	if rec.Form == schema.Presales && (!hasPick || picked.Has("WBS")) {
		names = append(names, WBSName)
	}
	return names
}

// Bundle renders names concurrently and zips them in the given order. Member
// names are sanitised and made unique.
func (r *Renderer) Bundle(ctx context.Context, rec models.Submission, names []string, format Format) (Artifact, error) {
	if len(names) == 0 {
		names = r.DefaultBundle(rec)
	}
	arts := make([]Artifact, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			var err error
			if name == WBSName {
				arts[i], err = WBS(rec)
			} else {
				arts[i], err = r.Render(gctx, name, rec, format)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Artifact{}, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := timestamp(rec)
	used := map[string]bool{}
	degraded := false
	for _, a := range arts {
		name := uniqueName(used, memberName(a))
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return Artifact{}, fmt.Errorf("bundle %s: %w", name, err)
		}
		if _, err := w.Write(a.Body); err != nil {
			return Artifact{}, fmt.Errorf("bundle %s: %w", name, err)
		}
		degraded = degraded || a.Degraded
	}
	if err := zw.Close(); err != nil {
		return Artifact{}, fmt.Errorf("bundle close: %w", err)
	}
	return Artifact{
		Name:        "bundle",
		Filename:    Filename(rec, "BUNDLE", "zip"),
		ContentType: ContentTypeZip,
		Body:        buf.Bytes(),
		Degraded:    degraded,
	}, nil
}

func memberName(a Artifact) string {
	ext := path.Ext(a.Filename)
	if ext == "" {
		ext = ".md"
	}
	return sanitizeName(a.Name) + ext
}

func sanitizeName(name string) string {
	s := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	s = strings.Trim(s, "-.")
	if s == "" {
		return "document"
	}
	return s
}

func uniqueName(used map[string]bool, name string) string {
	if !used[name] {
		used[name] = true
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n) + ext
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}
