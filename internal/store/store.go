// Package store persists submissions. Every backend keeps the same contract: an
// append-only log of records, listed newest first, with full-record replace.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

var (
	ErrNotFound = errors.New("submission not found")
	// ErrConflict means the backing file changed between read and write.
	ErrConflict    = errors.New("concurrent modification")
	ErrUnavailable = errors.New("store unavailable")
)

type Store interface {
	// Append assigns an id and submission time when missing and persists rec.
	Append(ctx context.Context, rec models.Submission) (models.Submission, error)
	List(ctx context.Context) ([]models.Submission, error)
	Get(ctx context.Context, id string) (models.Submission, error)
	// Replace swaps the record with the given id for rec. The original
	// submission time is kept unless rec carries its own.
	Replace(ctx context.Context, id string, rec models.Submission) (models.Submission, error)
	Ping(ctx context.Context) error
	Name() string
}

// Clock is swapped in tests.
type Clock func() time.Time

// clocked is a store that stamps records with its own Clock.
type clocked interface {
	now() time.Time
}

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// prepare fills in id and timestamp for a new record.
func prepare(rec models.Submission, now time.Time) models.Submission {
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = now
	}
	if rec.ID == "" {
		rec.ID = models.NewID(rec.SubmittedAt)
	}
	rec.SubmittedAt = rec.SubmittedAt.UTC()
	if rec.Fields == nil {
		rec.Fields = models.Fields{}
	}
	return rec
}

// merge builds the replacement for old.
func merge(old, rec models.Submission, now time.Time) models.Submission {
	rec.ID = old.ID
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = old.SubmittedAt
	}
	rec.SubmittedAt = rec.SubmittedAt.UTC()
	if rec.Form == "" {
		rec.Form = old.Form
	}
	if rec.Fields == nil {
		rec.Fields = models.Fields{}
	}
	rec.UpdatedAt = &now
	return rec
}

// logLine is one line of a JSONL log. Raw is kept so unreadable lines survive
// a rewrite untouched.
type logLine struct {
	Raw []byte
	Rec *models.Submission
}

func parseLog(data []byte) []logLine {
	var out []logLine
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		l := logLine{Raw: append([]byte(nil), line...)}
		var rec models.Submission
		if err := json.Unmarshal(line, &rec); err == nil && rec.ID != "" {
			l.Rec = &rec
		}
		out = append(out, l)
	}
	return out
}

func encodeLine(rec models.Submission) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	return append(b, '\n'), nil
}

// records returns the readable records, newest first.
func records(lines []logLine) []models.Submission {
	out := make([]models.Submission, 0, len(lines))
	for _, l := range lines {
		if l.Rec != nil {
			out = append(out, *l.Rec)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(recs []models.Submission) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].ID > recs[j].ID })
}

// find returns the last record with id; later lines win.
func find(lines []logLine, id string) (int, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Rec != nil && lines[i].Rec.ID == id {
			return i, true
		}
	}
	return -1, false
}

// appendToLog returns data with rec appended as a new line.
func appendToLog(data []byte, rec models.Submission) ([]byte, error) {
	line, err := encodeLine(rec)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+len(line)+1)
	out = append(out, data...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return append(out, line...), nil
}

// replaceInLog rewrites the log with the record for id swapped.
func replaceInLog(data []byte, id string, rec models.Submission, now time.Time) ([]byte, models.Submission, error) {
	lines := parseLog(data)
	i, ok := find(lines, id)
	if !ok {
		return nil, models.Submission{}, ErrNotFound
	}
	next := merge(*lines[i].Rec, rec, now)
	line, err := encodeLine(next)
	if err != nil {
		return nil, models.Submission{}, err
	}
	var buf bytes.Buffer
	for j, l := range lines {
		if j == i {
			buf.Write(line)
			continue
		}
		buf.Write(l.Raw)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), next, nil
}

func getFromLog(data []byte, id string) (models.Submission, error) {
	lines := parseLog(data)
	i, ok := find(lines, id)
	if !ok {
		return models.Submission{}, ErrNotFound
	}
	return *lines[i].Rec, nil
}
