// Package service ties intake, storage, sizing and rendering together for the
// HTTP controllers and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zaqqye/vdi_docgen/internal/intake"
	"github.com/zaqqye/vdi_docgen/internal/models"
	"github.com/zaqqye/vdi_docgen/internal/render"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/sizing"
	"github.com/zaqqye/vdi_docgen/internal/store"
)

var ErrUnknownForm = errors.New("unknown form")

type SubmissionService struct {
	schemas  *schema.Registry
	store    store.Store
	renderer *render.Renderer
	log      *zap.Logger
	now      func() time.Time
}

func NewSubmissionService(schemas *schema.Registry, st store.Store, renderer *render.Renderer, log *zap.Logger) *SubmissionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionService{
		schemas:  schemas,
		store:    st,
		renderer: renderer,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *SubmissionService) Schema(form string) (*schema.Schema, error) {
	sc, ok := s.schemas.Get(form)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownForm, form)
	}
	return sc, nil
}

func (s *SubmissionService) Renderer() *render.Renderer { return s.renderer }

func (s *SubmissionService) StoreName() string { return s.store.Name() }

// Submit validates values against the form and appends the record. A
// *intake.ValidationError means nothing was stored.
func (s *SubmissionService) Submit(ctx context.Context, form string, values url.Values) (models.Submission, error) {
	sc, err := s.Schema(form)
	if err != nil {
		return models.Submission{}, err
	}
	rec, err := intake.Normalize(sc, values, intake.Options{})
	if err != nil {
		return models.Submission{}, err
	}
	saved, err := s.store.Append(ctx, rec)
	if err != nil {
		s.log.Error("append submission", zap.String("form", form), zap.String("store", s.store.Name()), zap.Error(err))
		return models.Submission{}, err
	}
	s.log.Info("submission stored", zap.String("form", form), zap.String("id", saved.ID))
	return saved, nil
}

// Replace validates values against the stored record's form and swaps the
// record. submittedAt overrides the original submission time when set.
func (s *SubmissionService) Replace(ctx context.Context, id string, values url.Values, submittedAt *time.Time) (models.Submission, error) {
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Submission{}, err
	}
	sc, err := s.Schema(old.Form)
	if err != nil {
		return models.Submission{}, err
	}
	rec, err := intake.Normalize(sc, values, intake.Options{})
	if err != nil {
		return models.Submission{}, err
	}
	if submittedAt != nil {
		rec.SubmittedAt = submittedAt.UTC()
	}
	saved, err := s.store.Replace(ctx, id, rec)
	if err != nil {
		s.log.Error("replace submission", zap.String("id", id), zap.String("store", s.store.Name()), zap.Error(err))
		return models.Submission{}, err
	}
	s.log.Info("submission replaced", zap.String("form", saved.Form), zap.String("id", saved.ID))
	return saved, nil
}

func (s *SubmissionService) Get(ctx context.Context, id string) (models.Submission, error) {
	return s.store.Get(ctx, id)
}

type Filter struct {
	Form string
	// Query matches the id, customer or project name, case-insensitively.
	Query string
	Limit int
}

var searchKeys = []string{"customer_name", "project_name", "global_customer_name", "global_project_name"}

func (f Filter) match(rec models.Submission) bool {
	if f.Form != "" && rec.Form != f.Form {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(rec.ID), q) {
		return true
	}
	for _, k := range searchKeys {
		if strings.Contains(strings.ToLower(rec.Text(k)), q) {
			return true
		}
	}
	return false
}

// List returns matching records, newest first.
func (s *SubmissionService) List(ctx context.Context, f Filter) ([]models.Submission, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Submission, 0, len(all))
	for _, rec := range all {
		if !f.match(rec) {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *SubmissionService) Metrics(rec models.Submission) sizing.Metrics {
	return sizing.FromRecord(rec)
}

// Estimate computes metrics for unsaved values. Nothing is validated or stored.
func (s *SubmissionService) Estimate(form string, values url.Values) (sizing.Metrics, error) {
	rec, err := s.Draft(form, values)
	if err != nil {
		return sizing.Metrics{}, err
	}
	return sizing.FromRecord(rec), nil
}

// Draft normalises values without validating them. The record has no id and
// is stamped with the current time so exports of unsaved data carry a date.
func (s *SubmissionService) Draft(form string, values url.Values) (models.Submission, error) {
	sc, err := s.Schema(form)
	if err != nil {
		return models.Submission{}, err
	}
	rec, err := intake.Normalize(sc, values, intake.Options{SkipValidation: true})
	if err != nil {
		return models.Submission{}, err
	}
	rec.SubmittedAt = s.now()
	return rec, nil
}

func (s *SubmissionService) Export(ctx context.Context, id, template string, format render.Format) (render.Artifact, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return render.Artifact{}, err
	}
	return s.renderer.Render(ctx, template, rec, format)
}

// ExportDraft renders unsaved values, as the download buttons on the forms do.
func (s *SubmissionService) ExportDraft(ctx context.Context, form, template string, values url.Values, format render.Format) (render.Artifact, error) {
	rec, err := s.Draft(form, values)
	if err != nil {
		return render.Artifact{}, err
	}
	return s.renderer.Render(ctx, template, rec, format)
}

// Bundle zips the named documents, or the record's default set when names is empty.
func (s *SubmissionService) Bundle(ctx context.Context, id string, names []string, format render.Format) (render.Artifact, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return render.Artifact{}, err
	}
	return s.renderer.Bundle(ctx, rec, names, format)
}

func (s *SubmissionService) WBS(ctx context.Context, id string) (render.Artifact, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return render.Artifact{}, err
	}
	return render.WBS(rec)
}

func (s *SubmissionService) Preview(ctx context.Context, id, template string) ([]byte, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.HTML(template, rec)
}

func (s *SubmissionService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
