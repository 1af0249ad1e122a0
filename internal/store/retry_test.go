package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/vdi_docgen/internal/models"
)

// flaky fails the first n writes with err.
type flaky struct {
	Store
	n     int
	err   error
	calls int
}

func (f *flaky) Append(ctx context.Context, rec models.Submission) (models.Submission, error) {
	f.calls++
	if f.calls <= f.n {
		return models.Submission{}, f.err
	}
	return rec, nil
}

func (f *flaky) Replace(ctx context.Context, id string, rec models.Submission) (models.Submission, error) {
	return f.Append(ctx, rec)
}

func TestWithRetry_RetriesConflicts(t *testing.T) {
	f := &flaky{n: 2, err: ErrConflict}
	s := WithRetry(f, 3, time.Millisecond)
	rec, err := s.Append(context.Background(), models.Submission{Form: "pdg"})
	assert.NoError(t, err)
	assert.Equal(t, 3, f.calls)
	assert.NotEmpty(t, rec.ID)
}

func TestWithRetry_GivesUp(t *testing.T) {
	f := &flaky{n: 10, err: ErrConflict}
	_, err := WithRetry(f, 3, time.Millisecond).Replace(context.Background(), "id", models.Submission{})
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, 3, f.calls)
}

func TestWithRetry_OtherErrorsAreFinal(t *testing.T) {
	f := &flaky{n: 10, err: ErrUnavailable}
	_, err := WithRetry(f, 5, time.Millisecond).Append(context.Background(), models.Submission{})
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, 1, f.calls)
}

func TestWithRetry_Disabled(t *testing.T) {
	f := &flaky{}
	assert.Same(t, Store(f), WithRetry(f, 1, 0))
}

func TestWithRetry_AppendUsesStoreClock(t *testing.T) {
	at := time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC)
	local, err := NewLocal(t.TempDir(), func() time.Time { return at }, nil)
	require.NoError(t, err)

	rec, err := WithRetry(local, 3, time.Millisecond).Append(context.Background(), presales("Acme"))
	require.NoError(t, err)
	assert.True(t, rec.SubmittedAt.Equal(at), rec.SubmittedAt)
	assert.True(t, strings.HasPrefix(rec.ID, "20261019T140500.000000000Z-"), rec.ID)

	got, err := local.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.True(t, got.SubmittedAt.Equal(at))
}
