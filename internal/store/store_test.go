package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

var epoch = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// stepClock advances one second per call.
func stepClock() Clock {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return epoch.Add(time.Duration(n) * time.Second)
	}
}

func presales(customer string) models.Submission {
	return models.Submission{
		Form: "presales",
		Fields: models.Fields{
			"customer_name": models.Scalar(customer),
			"regions":       models.List("EMEA", "APAC"),
		},
		Extra: models.Fields{"utm": models.Scalar("mail")},
	}
}

func diff(a, b any) string {
	return cmp.Diff(a, b, cmpopts.EquateEmpty())
}

// runContract exercises the behaviour every backend shares.
func runContract(t *testing.T, s Store) {
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	a, err := s.Append(ctx, presales("Acme"))
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.False(t, a.SubmittedAt.IsZero())
	assert.Nil(t, a.UpdatedAt)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, diff(a, got))

	b, err := s.Append(ctx, presales("Globex"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	r, err := s.Replace(ctx, a.ID, presales("Acme Industries"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, r.ID)
	assert.True(t, r.SubmittedAt.Equal(a.SubmittedAt))
	require.NotNil(t, r.UpdatedAt)

	got, err = s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Industries", got.Text("customer_name"))
	assert.True(t, got.SubmittedAt.Equal(a.SubmittedAt))

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	override := presales("Acme Industries")
	override.SubmittedAt = epoch.Add(-24 * time.Hour)
	r, err = s.Replace(ctx, a.ID, override)
	require.NoError(t, err)
	assert.True(t, r.SubmittedAt.Equal(override.SubmittedAt))

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Replace(ctx, "missing", presales("x"))
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, s.Ping(ctx))
}

func TestMerge_KeepsIdentity(t *testing.T) {
	old := models.Submission{ID: "id-1", Form: "pdg", SubmittedAt: epoch}
	next := merge(old, models.Submission{ID: "ignored"}, epoch.Add(time.Minute))
	assert.Equal(t, "id-1", next.ID)
	assert.Equal(t, "pdg", next.Form)
	assert.True(t, next.SubmittedAt.Equal(epoch))
	assert.NotNil(t, next.Fields)
	require.NotNil(t, next.UpdatedAt)
	assert.True(t, next.UpdatedAt.Equal(epoch.Add(time.Minute)))
}

func TestParseLog_SkipsMalformed(t *testing.T) {
	data := []byte("{\"id\":\"b\",\"form\":\"pdg\",\"fields\":{}}\nnot json\n\n{\"form\":\"no id\"}\n{\"id\":\"a\",\"form\":\"pdg\",\"fields\":{}}")
	lines := parseLog(data)
	assert.Len(t, lines, 4)
	recs := records(lines)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].ID)
	assert.Equal(t, "a", recs[1].ID)
}

func TestAppendToLog_AddsMissingNewline(t *testing.T) {
	out, err := appendToLog([]byte(`{"id":"a"}`), models.Submission{ID: "b"})
	require.NoError(t, err)
	lines := parseLog(out)
	require.Len(t, lines, 2)
	assert.Equal(t, "b", lines[1].Rec.ID)
}
