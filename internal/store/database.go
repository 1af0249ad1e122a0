package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

// Database keeps one row per submission with the record as a JSON payload.
type Database struct {
	db    *gorm.DB
	clock Clock
}

func NewDatabase(db *gorm.DB, clock Clock) *Database {
	return &Database{db: db, clock: clock}
}

func (d *Database) Name() string { return "database" }

func (d *Database) now() time.Time { return d.clock.now() }

func toEntry(rec models.Submission) (models.SubmissionEntry, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return models.SubmissionEntry{}, fmt.Errorf("encode submission: %w", err)
	}
	return models.SubmissionEntry{
		ID:          rec.ID,
		Form:        rec.Form,
		SubmittedAt: rec.SubmittedAt,
		Payload:     datatypes.JSON(payload),
	}, nil
}

func fromEntry(e models.SubmissionEntry) (models.Submission, error) {
	var rec models.Submission
	if err := json.Unmarshal(e.Payload, &rec); err != nil {
		return models.Submission{}, fmt.Errorf("decode submission %s: %w", e.ID, err)
	}
	return rec, nil
}

func dbErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func (d *Database) Append(ctx context.Context, rec models.Submission) (models.Submission, error) {
	rec = prepare(rec, d.clock.now())
	entry, err := toEntry(rec)
	if err != nil {
		return models.Submission{}, err
	}
	if err := d.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Submission{}, fmt.Errorf("%w: id %s exists", ErrConflict, rec.ID)
		}
		return models.Submission{}, dbErr("insert", err)
	}
	return rec, nil
}

func (d *Database) List(ctx context.Context) ([]models.Submission, error) {
	var entries []models.SubmissionEntry
	if err := d.db.WithContext(ctx).Order("id desc").Find(&entries).Error; err != nil {
		return nil, dbErr("list", err)
	}
	out := make([]models.Submission, 0, len(entries))
	for _, e := range entries {
		rec, err := fromEntry(e)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (d *Database) Get(ctx context.Context, id string) (models.Submission, error) {
	var entry models.SubmissionEntry
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return models.Submission{}, dbErr("get", err)
	}
	return fromEntry(entry)
}

func (d *Database) Replace(ctx context.Context, id string, rec models.Submission) (models.Submission, error) {
	var next models.Submission
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.SubmissionEntry
		if err := tx.Where("id = ?", id).First(&entry).Error; err != nil {
			return err
		}
		old, err := fromEntry(entry)
		if err != nil {
			return err
		}
		next = merge(old, rec, d.clock.now())
		updated, err := toEntry(next)
		if err != nil {
			return err
		}
		return tx.Model(&models.SubmissionEntry{}).Where("id = ?", id).Updates(map[string]any{
			"form":         updated.Form,
			"submitted_at": updated.SubmittedAt,
			"payload":      updated.Payload,
		}).Error
	})
	if err != nil {
		return models.Submission{}, dbErr("replace", err)
	}
	return next, nil
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return dbErr("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbErr("ping", err)
	}
	return nil
}
