package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/asmitswain/portfolio/internal/contact"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenFileAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "site.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())

	v, err := db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	// Re-running is a no-op.
	require.NoError(t, db.Migrate(ctx))
}

func TestMigrationOutputGoesToLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	openTestDB(t)

	applied := logs.FilterMessageSnippet("00001_init.sql").All()
	require.Len(t, applied, 1)
	assert.Equal(t, zapcore.DebugLevel, applied[0].Level)
	assert.NotContains(t, applied[0].Message, "\n")
	assert.NotEmpty(t, logs.FilterMessageSnippet("migrated database to version: 1").All())
}

func TestPreferencesUpsert(t *testing.T) {
	ctx := context.Background()
	prefs := NewPreferences(openTestDB(t).DB)

	_, found, err := prefs.Lookup(ctx, "v1", "theme")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, prefs.Set(ctx, "v1", "theme", "dark"))
	require.NoError(t, prefs.Set(ctx, "v1", "theme", "light"))
	require.NoError(t, prefs.Set(ctx, "v2", "theme", "dark"))

	v, found, err := prefs.Lookup(ctx, "v1", "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "light", v)

	counts, err := prefs.CountByValue(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"light": 1, "dark": 1}, counts)
}

func TestPreferencesLookupError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT value FROM preferences").
		WithArgs("v1", "theme").
		WillReturnError(errors.New("disk I/O error"))

	_, found, err := NewPreferences(db).Lookup(context.Background(), "v1", "theme")
	require.Error(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferencesSetUsesUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	prefs := NewPreferences(db)
	prefs.now = func() time.Time { return time.Unix(1700000000, 0) }
	mock.ExpectExec("INSERT INTO preferences").
		WithArgs("v1", "theme", "dark", int64(1700000000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, prefs.Set(context.Background(), "v1", "theme", "dark"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitorsStatsAndCleanup(t *testing.T) {
	ctx := context.Background()
	visitors := NewVisitors(openTestDB(t).DB)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	visitors.now = func() time.Time { return now }

	records := []Visit{
		{HashedIP: "a", Path: "/", CreatedAt: now.Add(-time.Hour)},
		{HashedIP: "a", Path: "/", CreatedAt: now.Add(-2 * time.Hour)},
		{HashedIP: "b", Path: "/", CreatedAt: now.Add(-3 * 24 * time.Hour)},
		{HashedIP: "c", Path: "/", CreatedAt: now.Add(-400 * 24 * time.Hour)},
	}
	for _, r := range records {
		require.NoError(t, visitors.Record(ctx, r))
	}

	stats, err := visitors.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, VisitorStats{TotalVisitors: 4, UniqueVisitors: 3, VisitorsToday: 2, VisitorsThisWeek: 3}, stats)

	removed, err := visitors.Cleanup(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	recent, err := visitors.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, now.Add(-time.Hour), recent[0].CreatedAt)
}

func TestMessagesRecordListDelete(t *testing.T) {
	ctx := context.Background()
	msgs := NewMessages(openTestDB(t).DB)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	fields := contact.Fields{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"}
	require.NoError(t, msgs.Record(ctx, contact.Submission{Fields: fields, VisitorID: "v1", Status: contact.Succeeded, CreatedAt: base}))
	require.NoError(t, msgs.Record(ctx, contact.Submission{Fields: fields, Status: contact.Failed, Err: "relay responded 500", CreatedAt: base.Add(time.Minute)}))

	list, err := msgs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "failed", list[0].Status)
	assert.Equal(t, "relay responded 500", list[0].Error)
	assert.Empty(t, list[0].VisitorID)
	assert.Equal(t, "v1", list[1].VisitorID)
	assert.Equal(t, "Hello", list[1].Body)

	counts, err := msgs.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, MessageCounts{Total: 2, Failed: 1}, counts)

	got, err := msgs.Get(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, list[1], got)

	require.NoError(t, msgs.Delete(ctx, got.ID))
	assert.ErrorIs(t, msgs.Delete(ctx, got.ID), ErrNotFound)
	_, err = msgs.Get(ctx, got.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessagesSatisfyRecorder(t *testing.T) {
	var _ contact.Recorder = (*Messages)(nil)
}
