package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zaqqye/vdi_docgen/internal/database"
	"github.com/zaqqye/vdi_docgen/internal/models"
)

func newDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "docgen.db")), database.GormConfig(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SubmissionEntry{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewDatabase(db, stepClock())
}

func TestDatabase_Contract(t *testing.T) {
	runContract(t, newDatabase(t))
}

func TestDatabase_IndexesColumns(t *testing.T) {
	s := newDatabase(t)
	ctx := context.Background()
	rec, err := s.Append(ctx, presales("Acme"))
	require.NoError(t, err)

	var entry models.SubmissionEntry
	require.NoError(t, s.db.Where("id = ?", rec.ID).First(&entry).Error)
	assert.Equal(t, "presales", entry.Form)
	assert.True(t, entry.SubmittedAt.Equal(rec.SubmittedAt))
	assert.Contains(t, string(entry.Payload), `"customer_name":"Acme"`)
}

func TestDatabase_DuplicateIDConflicts(t *testing.T) {
	s := newDatabase(t)
	ctx := context.Background()
	rec, err := s.Append(ctx, presales("Acme"))
	require.NoError(t, err)

	dup := presales("Mallory")
	dup.ID = rec.ID
	_, err = s.Append(ctx, dup)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Fields.Text("customer_name"))
}

func TestDatabase_ListSkipsUnreadablePayloads(t *testing.T) {
	s := newDatabase(t)
	ctx := context.Background()
	_, err := s.Append(ctx, presales("Acme"))
	require.NoError(t, err)
	require.NoError(t, s.db.Create(&models.SubmissionEntry{ID: "zzz", Form: "pdg", Payload: []byte(`"not an object"`)}).Error)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
